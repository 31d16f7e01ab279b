// Package feed retrieves and parses the e-GP procurement announcement RSS feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/encoding/charmap"

	"EGPScanner/internal/config"
	"EGPScanner/internal/domain"
	"EGPScanner/internal/ports"
)

// Collector fetches the feed endpoint, decodes its legacy Thai encoding,
// and parses items into feed entries.
type Collector struct {
	baseURL string
	client  *http.Client
	windows []config.TimeWindow
	parser  *gofeed.Parser
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.FeedSource = (*Collector)(nil)

// NewCollector wires the feed endpoint configuration. A nil client gets a
// default with the configured timeout.
func NewCollector(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *Collector {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	return &Collector{
		baseURL: cfg.BaseURL,
		client:  client,
		windows: cfg.AllowedWindows,
		parser:  gofeed.NewParser(),
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch retrieves the feed with the given filter and returns parsed
// entries. A malformed response yields an empty slice, not an error.
func (c *Collector) Fetch(ctx context.Context, filter domain.FeedFilter) ([]domain.FeedEntry, error) {
	c.warnOutsideWindow()

	endpoint, err := c.buildURL(filter)
	if err != nil {
		return nil, fmt.Errorf("build feed url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,th;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	// The server answers in Windows-874 regardless of what it declares.
	decoded, err := io.ReadAll(charmap.Windows874.NewDecoder().Reader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("decode feed body: %w", err)
	}

	return c.parse(string(decoded)), nil
}

// parse turns raw feed text into entries. Missing sub-elements default to
// empty strings; a document the parser rejects yields an empty result set.
func (c *Collector) parse(content string) []domain.FeedEntry {
	content = normalizeDeclaration(content)

	parsed, err := c.parser.ParseString(content)
	if err != nil {
		c.logger.Error("feed parse failed", "error", err)
		return []domain.FeedEntry{}
	}

	if count, ok := parsed.Custom["countbyday"]; ok {
		c.logger.Info("feed reported announcements for today", "countbyday", count)
	}

	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, domain.FeedEntry{
			Title:         item.Title,
			Link:          item.Link,
			Description:   item.Description,
			PublishedDate: item.Published,
		})
	}
	return entries
}

// normalizeDeclaration strips any BOM or leading whitespace and rewrites
// the XML declaration to utf-8: the upstream declaration names an encoding
// the decoder will not accept once the body has already been transcoded.
func normalizeDeclaration(content string) string {
	content = strings.TrimLeft(content, "\uFEFF \t\r\n")
	if strings.HasPrefix(content, "<?xml") {
		if end := strings.Index(content, ">"); end >= 0 {
			content = `<?xml version="1.0" encoding="utf-8"?>` + content[end+1:]
		}
	}
	return content
}

func (c *Collector) buildURL(filter domain.FeedFilter) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", c.baseURL, err)
	}

	query := parsed.Query()
	if filter.DeptID != "" {
		query.Set("deptId", filter.DeptID)
	}
	if filter.DeptSubID != "" {
		query.Set("deptsubId", filter.DeptSubID)
	}
	if filter.MethodID != "" {
		query.Set("methodId", filter.MethodID)
	}
	if filter.AnnounceType != "" {
		// Upstream spells the parameter with a single n.
		query.Set("anounceType", filter.AnnounceType)
	}
	if filter.AnnounceDate != "" {
		query.Set("announceDate", filter.AnnounceDate)
	}
	if filter.CountByDay {
		query.Set("countbyday", "")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// warnOutsideWindow surfaces the feed server's known availability hours as
// an advisory. The request proceeds either way.
func (c *Collector) warnOutsideWindow() {
	if len(c.windows) == 0 {
		return
	}
	if withinAnyWindow(c.now(), c.windows) {
		return
	}
	c.logger.Warn("current time is outside the feed server's published availability windows; the request may fail",
		"windows", describeWindows(c.windows))
}

// withinAnyWindow reports whether t falls inside any HH:MM window,
// including windows that cross midnight.
func withinAnyWindow(t time.Time, windows []config.TimeWindow) bool {
	minute := t.Hour()*60 + t.Minute()
	for _, w := range windows {
		start, okStart := parseClock(w.Start)
		end, okEnd := parseClock(w.End)
		if !okStart || !okEnd {
			continue
		}
		if start <= end {
			if minute >= start && minute <= end {
				return true
			}
		} else if minute >= start || minute <= end {
			return true
		}
	}
	return false
}

func parseClock(value string) (int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}

func describeWindows(windows []config.TimeWindow) string {
	spans := make([]string, 0, len(windows))
	for _, w := range windows {
		spans = append(spans, w.Start+"-"+w.End)
	}
	return strings.Join(spans, ", ")
}
