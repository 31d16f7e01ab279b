package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"EGPScanner/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFeedSource struct {
	entries []domain.FeedEntry
	err     error
	filter  domain.FeedFilter
}

func (f *fakeFeedSource) Fetch(_ context.Context, filter domain.FeedFilter) ([]domain.FeedEntry, error) {
	f.filter = filter
	return f.entries, f.err
}

type fakeRepository struct {
	upserts    []domain.Announcement
	upsertErr  map[string]error
	nextID     int64
	downloads  []downloadRecord
	details    []domain.ProcurementDetail
	statuses   map[int64]string
	pending    []domain.Announcement
	recent     []domain.Announcement
	listErr    error
	detailsErr error
}

type downloadRecord struct {
	announcementID int64
	filePath       *string
	status         string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{statuses: map[int64]string{}}
}

func (f *fakeRepository) UpsertAnnouncement(_ context.Context, ann domain.Announcement) (int64, error) {
	if err := f.upsertErr[ann.Link]; err != nil {
		return 0, err
	}
	f.upserts = append(f.upserts, ann)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeRepository) InsertDownload(_ context.Context, announcementID int64, filePath *string, status string) (int64, error) {
	f.downloads = append(f.downloads, downloadRecord{announcementID, filePath, status})
	return int64(len(f.downloads)), nil
}

func (f *fakeRepository) InsertProcurementDetail(_ context.Context, detail domain.ProcurementDetail) (int64, error) {
	if f.detailsErr != nil {
		return 0, f.detailsErr
	}
	f.details = append(f.details, detail)
	return int64(len(f.details)), nil
}

func (f *fakeRepository) ListPendingDownloads(_ context.Context) ([]domain.Announcement, error) {
	return f.pending, f.listErr
}

func (f *fakeRepository) ListRecentAnnouncements(_ context.Context, deptID string, limit int) ([]domain.Announcement, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := f.recent
	if len(out) > limit {
		out = out[:limit]
	}
	return out, len(f.recent), nil
}

func (f *fakeRepository) UpdateDownloadStatus(_ context.Context, announcementID int64, status string) error {
	f.statuses[announcementID] = status
	return nil
}

func TestIngestStoresEveryEntry(t *testing.T) {
	t.Parallel()

	source := &fakeFeedSource{entries: []domain.FeedEntry{
		{
			Title:         "ประกวดราคาซื้อครุภัณฑ์",
			Link:          "http://example.go.th/doc?id=1",
			Description:   "67119457432, ประกวดราคา (e-bidding), ประกาศเชิญชวน",
			PublishedDate: "Mon, 13 Jan 2025 10:00:00 +0700",
		},
		{
			Title: "จ้างก่อสร้าง",
			Link:  "http://example.go.th/doc?id=2",
		},
	}}
	repo := newFakeRepository()

	ingestor := NewIngestor(source, repo, discardLogger())
	stored, err := ingestor.Ingest(context.Background(), domain.FeedFilter{DeptID: "0307"})
	require.NoError(t, err)
	require.Equal(t, 2, stored)
	require.Len(t, repo.upserts, 2)

	first := repo.upserts[0]
	require.Equal(t, "67119457432", first.ProjectID)
	require.Equal(t, "ประกาศเชิญชวน", first.AnnounceType)
	require.Equal(t, "0307", first.DeptID)

	second := repo.upserts[1]
	require.Empty(t, second.ProjectID)
	require.Empty(t, second.AnnounceType)
}

func TestIngestSkipsFailedUpsert(t *testing.T) {
	t.Parallel()

	source := &fakeFeedSource{entries: []domain.FeedEntry{
		{Title: "one", Link: "http://example.go.th/doc?id=1"},
		{Title: "two", Link: "http://example.go.th/doc?id=2"},
	}}
	repo := newFakeRepository()
	repo.upsertErr = map[string]error{"http://example.go.th/doc?id=1": errors.New("disk full")}

	ingestor := NewIngestor(source, repo, discardLogger())
	stored, err := ingestor.Ingest(context.Background(), domain.FeedFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, stored)
	require.Len(t, repo.upserts, 1)
	require.Equal(t, "http://example.go.th/doc?id=2", repo.upserts[0].Link)
}

func TestIngestFetchFailure(t *testing.T) {
	t.Parallel()

	source := &fakeFeedSource{err: errors.New("connection refused")}
	ingestor := NewIngestor(source, newFakeRepository(), discardLogger())

	_, err := ingestor.Ingest(context.Background(), domain.FeedFilter{})
	require.Error(t, err)
}

func TestDeriveProjectFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		description  string
		projectID    string
		announceType string
	}{
		{
			name:         "full composite",
			description:  "67119457432, ประกวดราคา (e-bidding), ประกาศเชิญชวน",
			projectID:    "67119457432",
			announceType: "ประกาศเชิญชวน",
		},
		{
			name:        "single segment",
			description: "67119457432",
			projectID:   "67119457432",
		},
		{
			name:        "two segments",
			description: "67119457432, ประกวดราคา",
			projectID:   "67119457432",
		},
		{
			name: "empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			projectID, announceType := DeriveProjectFields(tc.description)
			require.Equal(t, tc.projectID, projectID)
			require.Equal(t, tc.announceType, announceType)
		})
	}
}
