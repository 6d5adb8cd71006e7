package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"smartslide/deck"
)

// ingestPDF emits one slide per page. The page's full extracted text is a
// single content element; pages with no extractable text keep an empty
// content list.
func ingestPDF(data []byte) (outline deck.Outline, err error) {
	// the pdf library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			outline, err = nil, fmt.Errorf("reading pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %v", err)
	}

	outline = make(deck.Outline, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		slide := deck.Slide{
			Title:   fmt.Sprintf("Page %d", n),
			Content: []string{},
		}

		page := reader.Page(n)
		if !page.V.IsNull() {
			text, err := page.GetPlainText(nil)
			if err == nil {
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					slide.Content = []string{trimmed}
				}
			}
		}
		outline = append(outline, slide)
	}
	return outline, nil
}
