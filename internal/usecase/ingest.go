package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"EGPScanner/internal/domain"
	"EGPScanner/internal/ports"
)

// Ingestor implements the feed-to-storage workflow.
type Ingestor struct {
	source ports.FeedSource
	repo   ports.AnnouncementRepository
	logger *slog.Logger
}

// NewIngestor wires the feed source and repository.
func NewIngestor(source ports.FeedSource, repo ports.AnnouncementRepository, logger *slog.Logger) *Ingestor {
	return &Ingestor{source: source, repo: repo, logger: logger}
}

// Ingest pulls the feed with the given filter and upserts every entry,
// keyed by link. Returns how many entries were stored; a single failed
// upsert is logged and skipped, never fatal to the batch.
func (in *Ingestor) Ingest(ctx context.Context, filter domain.FeedFilter) (int, error) {
	entries, err := in.source.Fetch(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	stored := 0
	for _, entry := range entries {
		projectID, announceType := DeriveProjectFields(entry.Description)

		ann := domain.Announcement{
			Title:         entry.Title,
			Link:          entry.Link,
			PublishedDate: entry.PublishedDate,
			Description:   entry.Description,
			ProjectID:     projectID,
			DeptID:        filter.DeptID,
			AnnounceType:  announceType,
		}

		if _, err := in.repo.UpsertAnnouncement(ctx, ann); err != nil {
			in.logger.Error("store announcement failed", "link", entry.Link, "error", err)
			continue
		}
		stored++
	}

	in.logger.Info("feed processed", "entries", len(entries), "stored", stored)
	return stored, nil
}

// DeriveProjectFields splits the composite description field. The first
// comma-segment is always the project identifier; the third, when present,
// is the human-readable announcement type.
func DeriveProjectFields(description string) (projectID, announceType string) {
	if description == "" {
		return "", ""
	}

	parts := strings.Split(description, ",")
	projectID = strings.TrimSpace(parts[0])
	if len(parts) > 2 {
		announceType = strings.TrimSpace(parts[2])
	}
	return projectID, announceType
}
