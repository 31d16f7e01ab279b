// Package storage persists announcements, download attempts, and extracted
// procurement details into SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"EGPScanner/internal/domain"
	"EGPScanner/internal/ports"
)

// Open ensures the database directory exists and returns the SQLite handle.
// The caller owns the handle and must close it on every exit path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// SQLiteRepository implements AnnouncementRepository over a constructor-injected handle.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.AnnouncementRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires an open database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS announcements (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT UNIQUE NOT NULL,
		published_date TEXT,
		description TEXT,
		project_id TEXT,
		dept_id TEXT,
		announce_type TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY,
		announcement_id INTEGER,
		file_path TEXT,
		download_status TEXT,
		download_date TIMESTAMP,
		FOREIGN KEY (announcement_id) REFERENCES announcements(id)
	)`,
	`CREATE TABLE IF NOT EXISTS procurement_details (
		id INTEGER PRIMARY KEY,
		announcement_id INTEGER,
		budget_amount DECIMAL,
		quantity INTEGER,
		duration_years INTEGER,
		duration_months INTEGER,
		submission_date TEXT,
		submission_time TEXT,
		contact_phone TEXT,
		contact_email TEXT,
		extracted_at TIMESTAMP,
		FOREIGN KEY (announcement_id) REFERENCES announcements(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_link ON announcements(link)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_dept_id ON announcements(dept_id)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_project_id ON announcements(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_updated ON announcements(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_announcement_id ON downloads(announcement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_procurement_announcement_id ON procurement_details(announcement_id)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema from scratch.
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	drops := []string{
		`DROP TABLE IF EXISTS procurement_details`,
		`DROP TABLE IF EXISTS downloads`,
		`DROP TABLE IF EXISTS announcements`,
	}
	for _, stmt := range drops {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return r.Migrate(ctx)
}

// UpsertAnnouncement keys on the link natural key. The lookup-then-write
// split keeps the creation-timestamp-preservation invariant explicit
// instead of leaning on INSERT OR REPLACE.
func (r *SQLiteRepository) UpsertAnnouncement(ctx context.Context, ann domain.Announcement) (int64, error) {
	now := time.Now().UTC()

	query, args, err := sq.Select("id").From("announcements").Where(sq.Eq{"link": ann.Link}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build lookup: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.insertAnnouncement(ctx, ann, now)
	case err != nil:
		return 0, fmt.Errorf("lookup announcement: %w", err)
	}

	query, args, err = sq.Update("announcements").
		Set("title", ann.Title).
		Set("published_date", ann.PublishedDate).
		Set("description", ann.Description).
		Set("project_id", ann.ProjectID).
		Set("dept_id", ann.DeptID).
		Set("announce_type", ann.AnnounceType).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("update announcement: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) insertAnnouncement(ctx context.Context, ann domain.Announcement, now time.Time) (int64, error) {
	query, args, err := sq.Insert("announcements").
		Columns("title", "link", "published_date", "description",
			"project_id", "dept_id", "announce_type", "created_at", "updated_at").
		Values(ann.Title, ann.Link, ann.PublishedDate, ann.Description,
			ann.ProjectID, ann.DeptID, ann.AnnounceType, now, now).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert announcement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

// InsertDownload records one fetch attempt. filePath is nil on failure.
func (r *SQLiteRepository) InsertDownload(ctx context.Context, announcementID int64, filePath *string, status string) (int64, error) {
	query, args, err := sq.Insert("downloads").
		Columns("announcement_id", "file_path", "download_status", "download_date").
		Values(announcementID, filePath, status, time.Now().UTC()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert download: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

// InsertProcurementDetail appends one extraction result. Re-extraction
// inserts a new row; there is no update path.
func (r *SQLiteRepository) InsertProcurementDetail(ctx context.Context, detail domain.ProcurementDetail) (int64, error) {
	extractedAt := detail.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("procurement_details").
		Columns("announcement_id", "budget_amount", "quantity",
			"duration_years", "duration_months",
			"submission_date", "submission_time",
			"contact_phone", "contact_email", "extracted_at").
		Values(detail.AnnouncementID, detail.BudgetAmount, detail.Quantity,
			detail.DurationYears, detail.DurationMonths,
			detail.SubmissionDate, detail.SubmissionTime,
			detail.ContactPhone, detail.ContactEmail, extractedAt).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert procurement detail: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

// ListPendingDownloads selects announcements with no download rows at all
// via an outer-join anti-join.
func (r *SQLiteRepository) ListPendingDownloads(ctx context.Context) ([]domain.Announcement, error) {
	query, args, err := sq.Select(announcementColumns("a")...).
		From("announcements a").
		LeftJoin("downloads d ON d.announcement_id = a.id").
		Where("d.id IS NULL").
		OrderBy("a.updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending downloads: %w", err)
	}
	defer rows.Close()

	var result []domain.Announcement
	for rows.Next() {
		ann, err := scanAnnouncement(rows, nil)
		if err != nil {
			return nil, err
		}
		result = append(result, ann)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// ListRecentAnnouncements returns the newest page by updated_at plus the
// total count of rows matching the filter.
func (r *SQLiteRepository) ListRecentAnnouncements(ctx context.Context, deptID string, limit int) ([]domain.Announcement, int, error) {
	columns := append(announcementColumns("a"), "COUNT(*) OVER() AS total_count")
	builder := sq.Select(columns...).
		From("announcements a").
		OrderBy("a.updated_at DESC").
		Limit(uint64(limit))
	if deptID != "" {
		builder = builder.Where(sq.Eq{"a.dept_id": deptID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query recent announcements: %w", err)
	}
	defer rows.Close()

	var (
		result []domain.Announcement
		total  int
	)
	for rows.Next() {
		ann, err := scanAnnouncement(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, ann)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return result, total, nil
}

// UpdateDownloadStatus rewrites the status and timestamp of the latest
// download row for the announcement. Attempts are not individually
// addressable, so concurrent attempts collapse to last-write-wins.
func (r *SQLiteRepository) UpdateDownloadStatus(ctx context.Context, announcementID int64, status string) error {
	query, args, err := sq.Update("downloads").
		Set("download_status", status).
		Set("download_date", time.Now().UTC()).
		Where(sq.Expr(
			"id = (SELECT id FROM downloads WHERE announcement_id = ? ORDER BY id DESC LIMIT 1)",
			announcementID,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update download status: %w", err)
	}
	return nil
}

func announcementColumns(alias string) []string {
	cols := []string{"id", "title", "link", "published_date", "description",
		"project_id", "dept_id", "announce_type", "created_at", "updated_at"}
	if alias == "" {
		return cols
	}
	prefixed := make([]string, len(cols))
	for i, c := range cols {
		prefixed[i] = alias + "." + c
	}
	return prefixed
}

// scanAnnouncement builds the typed record once at the storage boundary.
// total is scanned when the query carried a window count column.
func scanAnnouncement(rows *sql.Rows, total *int) (domain.Announcement, error) {
	var ann domain.Announcement
	var published, description, project, dept, annType sql.NullString

	dest := []any{&ann.ID, &ann.Title, &ann.Link, &published, &description,
		&project, &dept, &annType, &ann.CreatedAt, &ann.UpdatedAt}
	if total != nil {
		dest = append(dest, total)
	}

	if err := rows.Scan(dest...); err != nil {
		return domain.Announcement{}, fmt.Errorf("scan announcement: %w", err)
	}

	ann.PublishedDate = published.String
	ann.Description = description.String
	ann.ProjectID = project.String
	ann.DeptID = dept.String
	ann.AnnounceType = annType.String
	return ann, nil
}
