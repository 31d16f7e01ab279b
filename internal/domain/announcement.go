package domain

import "time"

// Announcement is the persisted representation of one e-GP feed entry,
// deduplicated by link.
type Announcement struct {
	ID            int64
	Title         string
	Link          string
	PublishedDate string // feed-native pubDate string, never reparsed
	Description   string
	ProjectID     string // first comma-segment of the description
	DeptID        string // supplied by the caller at ingestion time
	AnnounceType  string // third comma-segment of the description, when present
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Download records a single document fetch attempt for an announcement.
type Download struct {
	ID             int64
	AnnouncementID int64
	FilePath       *string // nil when the fetch failed
	Status         string
	DownloadedAt   time.Time
}

// Download status labels.
const (
	DownloadStatusCompleted = "completed"
	DownloadStatusFailed    = "failed"
	DownloadStatusExtracted = "extracted"
)

// ProcurementDetail holds one extraction pass over a project document.
// Every field is optional: partial extraction is a valid terminal state.
type ProcurementDetail struct {
	ID             int64
	AnnouncementID int64
	BudgetAmount   *float64
	Quantity       *int
	DurationYears  *int
	DurationMonths *int
	SubmissionDate *string // kept as extracted text, Thai calendar years included
	SubmissionTime *string
	ContactPhone   *string
	ContactEmail   *string
	ExtractedAt    time.Time
}

// FeedFilter narrows the upstream feed request. Empty fields are omitted
// from the query string entirely, never defaulted.
type FeedFilter struct {
	DeptID       string
	DeptSubID    string
	MethodID     string
	AnnounceType string
	AnnounceDate string // YYYYMMDD
	CountByDay   bool
}

// FeedEntry is one parsed feed item before storage.
type FeedEntry struct {
	Title         string
	Link          string
	Description   string
	PublishedDate string
}

// FetchResult carries the outcome of one document fetch inside a batch.
// The announcement's storage identity rides along so downstream steps
// never have to re-derive the association from project_id.
type FetchResult struct {
	AnnouncementID int64
	ProjectID      string
	URL            string
	FilePath       string // empty on failure
	Success        bool
}
