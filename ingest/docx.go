package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"smartslide/deck"
)

// chunkWordLimit is the running word count that closes a docx chunk.
const chunkWordLimit = 200

// ingestDocx extracts the non-empty paragraphs of word/document.xml and
// groups them into slides of roughly chunkWordLimit words. The docx
// container is a zip archive; the text lives in w:t elements inside w:p
// paragraphs.
func ingestDocx(data []byte) (deck.Outline, error) {
	paragraphs, err := docxParagraphs(data)
	if err != nil {
		return nil, err
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("document has no text")
	}
	return chunkParagraphs(paragraphs), nil
}

// docxParagraphs streams the document XML and collects paragraph text.
func docxParagraphs(data []byte) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %v", err)
	}

	var doc io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			doc, err = file.Open()
			if err != nil {
				return nil, fmt.Errorf("opening document.xml: %v", err)
			}
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("no word/document.xml in archive")
	}
	defer doc.Close()

	decoder := xml.NewDecoder(doc)
	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %v", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			case "br":
				if inParagraph {
					current.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, nil
}

// chunkParagraphs breaks the paragraph stream into slides, keeping each
// chunk at or under the word limit: a paragraph that would push the current
// chunk over the limit closes it and opens the next one. A single paragraph
// longer than the limit still gets its own slide. The final partial chunk
// emits its own slide.
func chunkParagraphs(paragraphs []string) deck.Outline {
	var outline deck.Outline
	var chunk []string
	words := 0

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		outline = append(outline, deck.Slide{
			Title:   fmt.Sprintf("Slide %d", len(outline)+1),
			Content: chunk,
		})
		chunk = nil
		words = 0
	}

	for _, p := range paragraphs {
		n := len(strings.Fields(p))
		if words > 0 && words+n > chunkWordLimit {
			flush()
		}
		chunk = append(chunk, p)
		words += n
	}
	flush()
	return outline
}
