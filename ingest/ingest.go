// Package ingest converts uploaded foreign documents into the normalized
// slide outline. Each format has its own chunking rule: PDF pages, sheet
// columns and word-count chunks of a word-processor document all become
// slides.
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"smartslide/deck"
	"smartslide/errs"
)

// Service dispatches uploads to the per-format extractors.
type Service struct {
	logger *log.Logger
}

// NewService creates a document ingestor.
func NewService(logger *log.Logger) *Service {
	return &Service{logger: logger}
}

// Ingest reads the whole upload and converts it by file extension.
// Unknown extensions fail with ErrUnsupportedFormat; extraction failures
// fail with ErrBadRequest since the client supplied the broken file.
func (s *Service) Ingest(filename string, r io.Reader) (deck.Outline, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrapf("ingest", "Ingest", errs.ErrBadRequest, "reading upload: %v", err)
	}
	s.logger.Debug("ingesting document", "file", filename, "format", ext, "bytes", len(data))

	var outline deck.Outline
	switch ext {
	case "pdf":
		outline, err = ingestPDF(data)
	case "xlsx":
		outline, err = ingestXLSX(data)
	case "xls":
		outline, err = ingestXLS(data)
	case "csv":
		outline, err = ingestCSV(data)
	case "docx":
		outline, err = ingestDocx(data)
	default:
		return nil, errs.Wrapf("ingest", "Ingest", errs.ErrUnsupportedFormat, "unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, errs.Wrapf("ingest", "Ingest", errs.ErrBadRequest, "%s ingest failed: %v", ext, err)
	}
	if len(outline) == 0 {
		return nil, errs.Wrapf("ingest", "Ingest", errs.ErrBadRequest, "document produced no slides")
	}
	return outline, nil
}

// columnsToSlides turns a rectangular record set into one slide per column:
// the header cell becomes the title and the column's cells, top to bottom,
// become the content lines. Shared by the csv, xlsx and xls paths.
func columnsToSlides(records [][]string) (deck.Outline, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("document has no header row")
	}
	header := records[0]

	outline := make(deck.Outline, 0, len(header))
	for col, name := range header {
		title := strings.TrimSpace(name)
		if title == "" {
			title = fmt.Sprintf("Column %d", col+1)
		}
		content := make([]string, 0, len(records)-1)
		for _, row := range records[1:] {
			if col < len(row) {
				content = append(content, row[col])
			}
		}
		outline = append(outline, deck.Slide{Title: title, Content: content})
	}
	return outline, nil
}
