package ports

import (
	"context"

	"EGPScanner/internal/domain"
)

// FeedSource retrieves the e-GP announcement feed and parses it into entries.
type FeedSource interface {
	Fetch(ctx context.Context, filter domain.FeedFilter) ([]domain.FeedEntry, error)
}

// AnnouncementRepository owns the relational schema and every query the
// pipelines issue against it.
type AnnouncementRepository interface {
	// UpsertAnnouncement inserts a new announcement or, when the link is
	// already known, refreshes its mutable fields while preserving the row
	// identity and creation timestamp. Returns the row ID either way.
	UpsertAnnouncement(ctx context.Context, ann domain.Announcement) (int64, error)
	InsertDownload(ctx context.Context, announcementID int64, filePath *string, status string) (int64, error)
	InsertProcurementDetail(ctx context.Context, detail domain.ProcurementDetail) (int64, error)
	// ListPendingDownloads returns announcements with zero download rows,
	// regardless of any row's status.
	ListPendingDownloads(ctx context.Context) ([]domain.Announcement, error)
	// ListRecentAnnouncements orders by updated_at descending and reports
	// the total matching count alongside the limited page.
	ListRecentAnnouncements(ctx context.Context, deptID string, limit int) ([]domain.Announcement, int, error)
	// UpdateDownloadStatus mutates the latest download row for the
	// announcement; attempts are not individually addressable.
	UpdateDownloadStatus(ctx context.Context, announcementID int64, status string) error
}

// DocumentFetcher retrieves project documents to local storage.
type DocumentFetcher interface {
	// Fetch returns the local path of the document, reusing an existing
	// file when one is already on disk for this project.
	Fetch(ctx context.Context, url, projectID string) (string, error)
	// FetchBatch fetches each announcement's document independently; one
	// failure never aborts the batch and results preserve input order.
	FetchBatch(ctx context.Context, announcements []domain.Announcement) []domain.FetchResult
}

// TextReader decodes a document into its concatenated plain text.
type TextReader interface {
	ReadText(path string) (string, error)
}
