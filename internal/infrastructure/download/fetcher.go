// Package download retrieves project documents to a per-project directory
// tree, validating that what arrived is actually a PDF.
package download

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"EGPScanner/internal/config"
	"EGPScanner/internal/domain"
	"EGPScanner/internal/ports"
)

var pdfMagic = []byte("%PDF")

// invalidChars are characters illegal in file names on the platforms we
// care about; they are replaced with underscores.
var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Fetcher downloads documents with browser-like headers and relaxed
// certificate validation; the e-GP document hosts are known to present
// certificate problems.
type Fetcher struct {
	client  *http.Client
	baseDir string
	logger  *slog.Logger
}

var _ ports.DocumentFetcher = (*Fetcher)(nil)

// NewFetcher wires the download directory and an optional client.
func NewFetcher(cfg config.DownloadConfig, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return &Fetcher{client: client, baseDir: cfg.Dir, logger: logger}
}

// Fetch retrieves one document and returns its local path. An existing
// file for the same URL and project is reused without a network call.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, projectID string) (string, error) {
	return f.fetch(ctx, rawURL, projectID, true)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, projectID string, followHTML bool) (string, error) {
	if projectID == "" {
		projectID = "unknown"
	}

	dir := filepath.Join(f.baseDir, invalidChars.ReplaceAllString(projectID, "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project directory: %w", err)
	}

	dest := filepath.Join(dir, fileName(rawURL, projectID))
	if _, err := os.Stat(dest); err == nil {
		f.logger.Info("document already on disk", "path", dest)
		return dest, nil
	}

	if err := f.download(ctx, rawURL, dest); err != nil {
		return "", err
	}

	head, err := readHead(dest, len(pdfMagic))
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("inspect downloaded file: %w", err)
	}

	if bytes.HasPrefix(head, pdfMagic) {
		f.logger.Info("document downloaded", "path", dest)
		return dest, nil
	}

	// Some links serve an HTML viewer page instead of the document itself.
	// Follow the first PDF href on that page, once.
	page, readErr := os.ReadFile(dest)
	os.Remove(dest)
	if followHTML && readErr == nil && looksLikeHTML(page) {
		if pdfURL := findDocumentLink(page, rawURL); pdfURL != "" {
			f.logger.Info("following document link from landing page", "url", pdfURL)
			return f.fetch(ctx, pdfURL, projectID, false)
		}
	}

	return "", fmt.Errorf("downloaded file is not a valid PDF: %s", rawURL)
}

// download streams the response body to dest, removing any partial file
// when the transfer fails or the body is empty.
func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml,application/pdf")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5,th;q=0.3")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("document fetch returned %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil || closeErr != nil || written == 0 {
		os.Remove(dest)
		if err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		if closeErr != nil {
			return fmt.Errorf("close file: %w", closeErr)
		}
		return fmt.Errorf("downloaded file is empty: %s", rawURL)
	}
	return nil
}

// FetchBatch fetches every announcement's document independently and
// concurrently; results keep input order and one failure never aborts
// the rest.
func (f *Fetcher) FetchBatch(ctx context.Context, announcements []domain.Announcement) []domain.FetchResult {
	results := make([]domain.FetchResult, len(announcements))

	var wg sync.WaitGroup
	for i, ann := range announcements {
		wg.Add(1)
		go func(i int, ann domain.Announcement) {
			defer wg.Done()

			res := domain.FetchResult{
				AnnouncementID: ann.ID,
				ProjectID:      ann.ProjectID,
				URL:            ann.Link,
			}
			defer func() { results[i] = res }()

			if ann.Link == "" {
				f.logger.Warn("announcement has no document link", "project_id", ann.ProjectID)
				return
			}

			filePath, err := f.Fetch(ctx, ann.Link, ann.ProjectID)
			if err != nil {
				f.logger.Error("document fetch failed",
					"project_id", ann.ProjectID, "url", ann.Link, "error", err)
				return
			}
			res.FilePath = filePath
			res.Success = true
		}(i, ann)
	}
	wg.Wait()

	return results
}

// fileName derives a name from the URL's last path segment,
// percent-decoded, falling back to "<projectID>.pdf" when the segment
// does not carry a document suffix.
func fileName(rawURL, projectID string) string {
	name := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		name = path.Base(parsed.Path)
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = projectID + ".pdf"
	}
	return invalidChars.ReplaceAllString(name, "_")
}

func readHead(filePath string, n int) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, n)
	read, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:read], nil
}

func looksLikeHTML(page []byte) bool {
	sample := strings.ToLower(string(page[:min(len(page), 1024)]))
	return strings.Contains(sample, "<html") || strings.Contains(sample, "<!doctype html")
}

// findDocumentLink scans a landing page for the first href pointing at a
// PDF and resolves it against the page URL.
func findDocumentLink(page []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})
	return found
}
