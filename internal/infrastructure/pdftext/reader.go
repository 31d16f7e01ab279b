// Package pdftext decodes PDF files into plain text, page by page.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"EGPScanner/internal/ports"
)

// Reader concatenates the plain text of every page. Pages the decoder
// cannot handle are skipped rather than failing the whole document.
type Reader struct{}

var _ ports.TextReader = (*Reader)(nil)

// NewReader returns a stateless PDF text reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadText opens the file and returns its concatenated page text.
func (Reader) ReadText(filePath string) (string, error) {
	file, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var content strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content.WriteString(text)
		content.WriteString("\n")
	}

	return content.String(), nil
}
