package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"EGPScanner/internal/domain"
	"EGPScanner/internal/extract"
	"EGPScanner/internal/ports"
	"EGPScanner/internal/thai"
)

// PipelineDeps wires all driven adapters into the extraction pipeline.
type PipelineDeps struct {
	Repository ports.AnnouncementRepository
	Fetcher    ports.DocumentFetcher
	Reader     ports.TextReader
	Logger     *slog.Logger
}

// Pipeline implements the download-and-extract workflow: select
// announcements, fetch their documents, extract procurement fields,
// persist the results.
type Pipeline struct {
	repo    ports.AnnouncementRepository
	fetcher ports.DocumentFetcher
	reader  ports.TextReader
	logger  *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		repo:    deps.Repository,
		fetcher: deps.Fetcher,
		reader:  deps.Reader,
		logger:  deps.Logger,
	}
}

// ExtractRecent processes the newest announcements, optionally filtered
// by department, and returns the number successfully extracted.
func (p *Pipeline) ExtractRecent(ctx context.Context, deptID string, limit int) (int, error) {
	announcements, total, err := p.repo.ListRecentAnnouncements(ctx, deptID, limit)
	if err != nil {
		return 0, fmt.Errorf("list recent announcements: %w", err)
	}
	if len(announcements) == 0 {
		p.logger.Info("no announcements to process")
		return 0, nil
	}

	p.logger.Info("processing announcements", "selected", len(announcements), "total", total)
	return p.processBatch(ctx, announcements), nil
}

// DownloadPending fetches and extracts documents for announcements that
// have never had a download attempt.
func (p *Pipeline) DownloadPending(ctx context.Context) (int, error) {
	announcements, err := p.repo.ListPendingDownloads(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending downloads: %w", err)
	}
	if len(announcements) == 0 {
		p.logger.Info("no pending downloads")
		return 0, nil
	}

	p.logger.Info("processing pending downloads", "count", len(announcements))
	return p.processBatch(ctx, announcements), nil
}

// processBatch records every fetch attempt and extracts from the
// successful ones. Per-item failures are logged and skipped.
func (p *Pipeline) processBatch(ctx context.Context, announcements []domain.Announcement) int {
	results := p.fetcher.FetchBatch(ctx, announcements)

	success := 0
	for _, res := range results {
		if !res.Success {
			if _, err := p.repo.InsertDownload(ctx, res.AnnouncementID, nil, domain.DownloadStatusFailed); err != nil {
				p.logger.Error("record failed download", "project_id", res.ProjectID, "error", err)
			}
			continue
		}

		filePath := res.FilePath
		if _, err := p.repo.InsertDownload(ctx, res.AnnouncementID, &filePath, domain.DownloadStatusCompleted); err != nil {
			p.logger.Error("record download", "project_id", res.ProjectID, "error", err)
		}

		if p.processDocument(ctx, res) {
			success++
		}
	}

	p.logger.Info("extraction completed", "processed", success, "attempted", len(results))
	return success
}

// processDocument reads the document text, extracts fields, and persists
// the procurement detail row for the owning announcement.
func (p *Pipeline) processDocument(ctx context.Context, res domain.FetchResult) bool {
	text, err := p.reader.ReadText(res.FilePath)
	if err != nil {
		p.logger.Error("read document text", "path", res.FilePath, "error", err)
		return false
	}

	fields := extract.Extract(text)
	detail := p.buildDetail(res.AnnouncementID, fields)

	if _, err := p.repo.InsertProcurementDetail(ctx, detail); err != nil {
		p.logger.Error("store procurement detail", "project_id", res.ProjectID, "error", err)
		return false
	}

	if err := p.repo.UpdateDownloadStatus(ctx, res.AnnouncementID, domain.DownloadStatusExtracted); err != nil {
		p.logger.Error("update download status", "project_id", res.ProjectID, "error", err)
	}

	p.logger.Info("document processed", "project_id", res.ProjectID)
	return true
}

// buildDetail normalizes Thai numerals and coerces extracted strings into
// their storage types. A coercion failure for one field leaves that field
// absent without discarding the others.
func (p *Pipeline) buildDetail(announcementID int64, fields extract.Fields) domain.ProcurementDetail {
	detail := domain.ProcurementDetail{
		AnnouncementID: announcementID,
		ExtractedAt:    time.Now().UTC(),
	}

	if fields.Budget != nil {
		clean := thai.CleanAmount(thai.NormalizeNumerals(fields.Budget.Clean))
		if amount, err := strconv.ParseFloat(clean, 64); err == nil {
			detail.BudgetAmount = &amount
		} else {
			p.logger.Warn("cannot parse budget amount", "value", fields.Budget.Raw)
		}
	}

	if fields.Quantity != nil {
		if qty, err := strconv.Atoi(thai.NormalizeNumerals(*fields.Quantity)); err == nil {
			detail.Quantity = &qty
		} else {
			p.logger.Warn("cannot parse quantity", "value", *fields.Quantity)
		}
	}

	if fields.Duration != nil {
		if fields.Duration.Years != nil {
			if years, err := strconv.Atoi(thai.NormalizeNumerals(*fields.Duration.Years)); err == nil {
				detail.DurationYears = &years
			} else {
				p.logger.Warn("cannot parse duration years", "value", *fields.Duration.Years)
			}
		}
		if fields.Duration.Months != nil {
			if months, err := strconv.Atoi(thai.NormalizeNumerals(*fields.Duration.Months)); err == nil {
				detail.DurationMonths = &months
			} else {
				p.logger.Warn("cannot parse duration months", "value", *fields.Duration.Months)
			}
		}
	}

	if fields.Submission != nil {
		if fields.Submission.Date != nil {
			date := thai.NormalizeDate(*fields.Submission.Date)
			detail.SubmissionDate = &date
		}
		if fields.Submission.Time != nil {
			timeOfDay := thai.NormalizeNumerals(*fields.Submission.Time)
			detail.SubmissionTime = &timeOfDay
		}
	}

	if fields.Contact != nil {
		if fields.Contact.Phone != nil {
			phone := thai.NormalizeNumerals(*fields.Contact.Phone)
			detail.ContactPhone = &phone
		}
		detail.ContactEmail = fields.Contact.Email
	}

	return detail
}
