// Package export renders slide outlines into office presentation files
// using GoPPT (pure Go, zero dependencies).
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/charmbracelet/log"

	"smartslide/deck"
	"smartslide/errs"
	"smartslide/template"
)

const emuPerInch = deck.EMUPerInch

// Page layout constants (inches). Positions are computed from the page
// size per presentation type, so the same inset works for every format.
const (
	marginIn    = 0.4
	accentBarIn = 0.08
	titleTopIn  = 0.35
	titleHIn    = 1.0
	bodyTopIn   = 1.55
)

// Content font shrinking for crowded slides.
const (
	crowdedThreshold = 6
	crowdedShrinkPt  = 4
	minContentPt     = 16
)

// PPTService generates PowerPoint decks from outlines.
type PPTService struct {
	httpClient *http.Client // fetches slide images; nil disables embedding
	logger     *log.Logger
}

// NewPPTService creates a new PPT export service.
func NewPPTService(logger *log.Logger) *PPTService {
	return &PPTService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// helper: create a solid fill
func solidFill(argb string) *ppt.Fill {
	return ppt.NewFill().SetSolid(ppt.NewColor(argb))
}

// Render serializes the outline into pptx bytes, applying the template's
// colors and fonts and the page size of the presentation type. The outline
// must not be empty: the writer always carries at least one slide, so a
// zero-slide file cannot be produced.
func (s *PPTService) Render(ctx context.Context, outline deck.Outline, tmpl template.Template, ptype deck.PresentationType) ([]byte, error) {
	if len(outline) == 0 {
		return nil, errs.Wrapf("export", "Render", errs.ErrBadRequest, "outline must not be empty")
	}

	p := ppt.New()
	p.GetDocumentProperties().Title = deckTitle(outline)
	p.GetDocumentProperties().Creator = "SmartSlide"

	cx, cy := ptype.EMU()
	layout := p.GetLayout()
	layout.CX = cx
	layout.CY = cy

	wIn, hIn := ptype.Dimensions()
	for i, slide := range outline {
		var target *ppt.Slide
		if i == 0 {
			target = p.GetActiveSlide()
		} else {
			target = p.CreateSlide()
		}
		s.renderSlide(ctx, target, slide, tmpl, wIn, hIn)
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("failed to create PPT writer: %w", err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to save PPT: %w", err)
	}
	return buf.Bytes(), nil
}

func deckTitle(outline deck.Outline) string {
	if len(outline) > 0 {
		return deck.StripMarkers(outline[0].Title)
	}
	return "SmartSlide Presentation"
}

func (s *PPTService) renderSlide(ctx context.Context, slide *ppt.Slide, src deck.Slide, tmpl template.Template, wIn, hIn float64) {
	// Background fill, drawn first so everything else sits on top.
	bg := slide.CreateRichTextShape()
	bg.SetOffsetX(0).SetOffsetY(0)
	bg.SetWidth(int64(wIn * emuPerInch)).SetHeight(int64(hIn * emuPerInch))
	bg.SetFill(solidFill(tmpl.Background.ARGB()))

	// Accent bar across the top.
	bar := slide.CreateRichTextShape()
	bar.SetOffsetX(0).SetOffsetY(0)
	bar.SetWidth(int64(wIn * emuPerInch)).SetHeight(int64(accentBarIn * emuPerInch))
	bar.SetFill(solidFill(tmpl.Accent.ARGB()))

	contentW := int64((wIn - 2*marginIn) * emuPerInch)

	// Title.
	titleShape := slide.CreateRichTextShape()
	titleShape.SetOffsetX(int64(marginIn * emuPerInch)).SetOffsetY(int64(titleTopIn * emuPerInch))
	titleShape.SetWidth(contentW).SetHeight(int64(titleHIn * emuPerInch))
	writeRuns(titleShape, deck.ParseRuns(src.Title), tmpl.TitleFont, tmpl.TitleFont.Size)

	// Body bullet list.
	bodyShape := slide.CreateRichTextShape()
	bodyShape.SetOffsetX(int64(marginIn * emuPerInch)).SetOffsetY(int64(bodyTopIn * emuPerInch))
	bodyShape.SetWidth(contentW).SetHeight(int64((hIn - bodyTopIn - marginIn) * emuPerInch))

	size := tmpl.ContentFont.Size
	if len(src.Content) > crowdedThreshold {
		size -= crowdedShrinkPt
		if size < minContentPt {
			size = minContentPt
		}
	}
	for idx, line := range src.Content {
		if idx > 0 {
			bodyShape.CreateParagraph()
		}
		// First item sits on the outer level, the rest are indented one
		// step, matching the title+body layout of the cloud renderer.
		prefix := "• "
		if idx > 0 {
			prefix = "    ◦ "
		}
		marker := bodyShape.CreateTextRun(prefix)
		styleFont(marker.GetFont(), tmpl.ContentFont, size, deck.Run{})
		writeRuns(bodyShape, deck.ParseRuns(line), tmpl.ContentFont, size)
	}

	if src.ImageURL != "" {
		s.embedImage(ctx, slide, src.ImageURL, wIn, hIn)
	}
}

// writeRuns appends the styled runs to the shape's active paragraph.
func writeRuns(shape *ppt.RichTextShape, runs []deck.Run, base template.Font, size int) {
	for _, run := range runs {
		if run.Text == "" {
			continue
		}
		tr := shape.CreateTextRun(run.Text)
		styleFont(tr.GetFont(), base, size, run)
	}
}

// styleFont applies the template font plus per-run inline styling.
func styleFont(f *ppt.Font, base template.Font, size int, run deck.Run) {
	f.SetSize(size).SetColor(ppt.NewColor(base.Color.ARGB()))
	f.Name = base.Family
	if base.Bold || run.Bold {
		f.SetBold(true)
	}
	if run.Italic {
		f.Italic = true
	}
	if run.Underline {
		f.Underline = ppt.UnderlineSingle
	}
}

// embedImage downloads the enriched image and places it on the slide. Any
// failure skips the image; decks never fail because of artwork.
func (s *PPTService) embedImage(ctx context.Context, slide *ppt.Slide, imageURL string, wIn, hIn float64) {
	if s.httpClient == nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("image download failed", "url", imageURL, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("image download returned error status", "url", imageURL, "status", resp.StatusCode)
		return
	}
	imgBytes, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return
	}
	mimeType := http.DetectContentType(imgBytes)

	imgShape := slide.CreateDrawingShape()
	imgShape.SetImageData(imgBytes, mimeType)
	imgShape.SetOffsetX(int64((wIn - 3.6) * emuPerInch)).SetOffsetY(int64(1.6 * emuPerInch))
	imgShape.SetWidth(int64(3.2 * emuPerInch)).SetHeight(int64(2.4 * emuPerInch))
}
