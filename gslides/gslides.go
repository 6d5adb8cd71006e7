// Package gslides renders slide outlines into Google Slides documents via
// the batch-mutation API and shares them for public editing through Drive.
//
// The renderer performs two batches: the first deletes the auto-created
// page and creates one titled page per slide with caller-chosen object
// ids; after a re-read of the presentation to learn the concrete
// placeholder ids, the second batch inserts and styles all text, images
// and backgrounds. Orphan presentations left by mid-flight failures are
// not rolled back.
package gslides

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	slides "google.golang.org/api/slides/v1"

	"smartslide/deck"
	"smartslide/errs"
	"smartslide/template"
)

const editURLFormat = "https://docs.google.com/presentation/d/%s/edit"

// Image placement on a page, in EMU.
const (
	imageWidthEMU   = 3000000
	imageHeightEMU  = 2250000
	imageOffsetXEMU = 5500000
	imageOffsetYEMU = 1400000
)

// Service renders decks into a cloud slide account. The underlying HTTP
// clients are safe for concurrent use.
type Service struct {
	slides *slides.Service
	drive  *drive.Service
	logger *log.Logger
}

// New authenticates with the pre-configured service identity.
func New(ctx context.Context, credentialsFile string, logger *log.Logger) (*Service, error) {
	slidesSvc, err := slides.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("creating slides client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}
	return &Service{slides: slidesSvc, drive: driveSvc, logger: logger}, nil
}

// NewWithServices wires pre-built API clients; used by tests.
func NewWithServices(slidesSvc *slides.Service, driveSvc *drive.Service, logger *log.Logger) *Service {
	return &Service{slides: slidesSvc, drive: driveSvc, logger: logger}
}

// placeholderIDs are the concrete object ids of one page's title and body
// shapes, learned from the re-read between the two batches.
type placeholderIDs struct {
	title string
	body  string
}

// CreateDeck creates, populates and shares a presentation, returning its
// publicly editable URL. An empty outline is valid: the presentation is
// created empty, still shared, and the URL returned.
func (s *Service) CreateDeck(ctx context.Context, outline deck.Outline, tmpl template.Template, ptype deck.PresentationType, title string) (string, error) {
	cx, cy := ptype.EMU()
	pres, err := s.slides.Presentations.Create(&slides.Presentation{
		Title: title,
		PageSize: &slides.Size{
			Width:  &slides.Dimension{Magnitude: float64(cx), Unit: "EMU"},
			Height: &slides.Dimension{Magnitude: float64(cy), Unit: "EMU"},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", errs.Wrapf("gslides", "CreateDeck", errs.ErrUpstreamUnavailable, "creating presentation: %v", err)
	}
	presID := pres.PresentationId
	s.logger.Debug("presentation created", "id", presID, "slides", len(outline))

	if len(outline) > 0 {
		pageIDs, err := s.createPages(ctx, presID, pres, len(outline))
		if err != nil {
			return "", err
		}
		placeholders, err := s.readPlaceholders(ctx, presID, pageIDs)
		if err != nil {
			return "", err
		}
		if err := s.populatePages(ctx, presID, pageIDs, placeholders, outline, tmpl); err != nil {
			return "", err
		}
	}

	if err := s.share(ctx, presID); err != nil {
		return "", err
	}
	return fmt.Sprintf(editURLFormat, presID), nil
}

// createPages is batch 1: drop the auto-created page, then create one
// TITLE_AND_BODY page per slide under a stable caller-chosen object id.
func (s *Service) createPages(ctx context.Context, presID string, pres *slides.Presentation, n int) ([]string, error) {
	var requests []*slides.Request
	for _, page := range pres.Slides {
		requests = append(requests, &slides.Request{
			DeleteObject: &slides.DeleteObjectRequest{ObjectId: page.ObjectId},
		})
	}

	pageIDs := make([]string, n)
	for i := range pageIDs {
		pageIDs[i] = fmt.Sprintf("slide-%d-%s", i+1, uuid.NewString()[:8])
		requests = append(requests, &slides.Request{
			CreateSlide: &slides.CreateSlideRequest{
				ObjectId:       pageIDs[i],
				InsertionIndex: int64(i),
				SlideLayoutReference: &slides.LayoutReference{
					PredefinedLayout: "TITLE_AND_BODY",
				},
			},
		})
	}

	_, err := s.slides.Presentations.BatchUpdate(presID, &slides.BatchUpdatePresentationRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrapf("gslides", "createPages", errs.ErrUpstreamUnavailable, "page creation batch failed: %v", err)
	}
	return pageIDs, nil
}

// readPlaceholders re-reads the presentation so batch 2 mutates the exact
// placeholder objects the layout produced.
func (s *Service) readPlaceholders(ctx context.Context, presID string, pageIDs []string) (map[string]placeholderIDs, error) {
	pres, err := s.slides.Presentations.Get(presID).Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrapf("gslides", "readPlaceholders", errs.ErrUpstreamUnavailable, "re-reading presentation: %v", err)
	}

	found := make(map[string]placeholderIDs, len(pageIDs))
	for _, page := range pres.Slides {
		var ids placeholderIDs
		for _, el := range page.PageElements {
			if el.Shape == nil || el.Shape.Placeholder == nil {
				continue
			}
			switch el.Shape.Placeholder.Type {
			case "TITLE", "CENTERED_TITLE":
				ids.title = el.ObjectId
			case "BODY", "SUBTITLE":
				if ids.body == "" {
					ids.body = el.ObjectId
				}
			}
		}
		found[page.ObjectId] = ids
	}

	for _, pageID := range pageIDs {
		ids := found[pageID]
		if ids.title == "" || ids.body == "" {
			return nil, errs.Wrapf("gslides", "readPlaceholders", errs.ErrUpstreamUnavailable, "page %s is missing title or body placeholder", pageID)
		}
	}
	return found, nil
}

// populatePages is batch 2: one composite set of mutations per slide,
// submitted as a single batch so the edit appears atomic in practice.
func (s *Service) populatePages(ctx context.Context, presID string, pageIDs []string, placeholders map[string]placeholderIDs, outline deck.Outline, tmpl template.Template) error {
	var requests []*slides.Request

	for i, slide := range outline {
		pageID := pageIDs[i]
		ids := placeholders[pageID]

		titleRuns := deck.ParseRuns(slide.Title)
		requests = append(requests, insertStyledText(ids.title, [][]deck.Run{titleRuns}, tmpl.TitleFont)...)

		bodyRuns := make([][]deck.Run, len(slide.Content))
		for j, line := range slide.Content {
			bodyRuns[j] = deck.ParseRuns(line)
		}
		requests = append(requests, insertStyledText(ids.body, bodyRuns, tmpl.ContentFont)...)

		if slide.ImageURL != "" {
			requests = append(requests, &slides.Request{
				CreateImage: &slides.CreateImageRequest{
					Url: slide.ImageURL,
					ElementProperties: &slides.PageElementProperties{
						PageObjectId: pageID,
						Size: &slides.Size{
							Width:  &slides.Dimension{Magnitude: imageWidthEMU, Unit: "EMU"},
							Height: &slides.Dimension{Magnitude: imageHeightEMU, Unit: "EMU"},
						},
						Transform: &slides.AffineTransform{
							ScaleX:     1,
							ScaleY:     1,
							TranslateX: imageOffsetXEMU,
							TranslateY: imageOffsetYEMU,
							Unit:       "EMU",
						},
					},
				},
			})
		}

		requests = append(requests, &slides.Request{
			UpdatePageProperties: &slides.UpdatePagePropertiesRequest{
				ObjectId: pageID,
				PageProperties: &slides.PageProperties{
					PageBackgroundFill: &slides.PageBackgroundFill{
						SolidFill: &slides.SolidFill{
							Color: &slides.OpaqueColor{RgbColor: rgbColor(tmpl.Background)},
						},
					},
				},
				Fields: "pageBackgroundFill.solidFill.color",
			},
		})
	}

	_, err := s.slides.Presentations.BatchUpdate(presID, &slides.BatchUpdatePresentationRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return errs.Wrapf("gslides", "populatePages", errs.ErrUpstreamUnavailable, "content batch failed: %v", err)
	}
	return nil
}

// insertStyledText emits the requests that insert multi-line text into a
// placeholder, apply the template font to the whole range and overlay the
// inline-styled runs on their exact sub-ranges.
func insertStyledText(objectID string, lines [][]deck.Run, base template.Font) []*slides.Request {
	text := ""
	for i, runs := range lines {
		if i > 0 {
			text += "\n"
		}
		text += deck.PlainText(runs)
	}
	if text == "" {
		return nil
	}

	requests := []*slides.Request{
		{
			InsertText: &slides.InsertTextRequest{
				ObjectId:       objectID,
				Text:           text,
				InsertionIndex: 0,
			},
		},
		{
			UpdateTextStyle: &slides.UpdateTextStyleRequest{
				ObjectId:  objectID,
				TextRange: &slides.Range{Type: "ALL"},
				Style: &slides.TextStyle{
					FontFamily: base.Family,
					FontSize:   &slides.Dimension{Magnitude: float64(base.Size), Unit: "PT"},
					Bold:       base.Bold,
					ForegroundColor: &slides.OptionalColor{
						OpaqueColor: &slides.OpaqueColor{RgbColor: rgbColor(base.Color)},
					},
				},
				Fields: "fontFamily,fontSize,bold,foregroundColor",
			},
		},
	}

	// Inline runs address UTF-16 code units, the API's index space.
	var offset int64
	for i, runs := range lines {
		if i > 0 {
			offset++ // the joining newline
		}
		for _, run := range runs {
			length := utf16Len(run.Text)
			if run.Bold || run.Italic || run.Underline {
				start, end := offset, offset+length
				requests = append(requests, &slides.Request{
					UpdateTextStyle: &slides.UpdateTextStyleRequest{
						ObjectId: objectID,
						TextRange: &slides.Range{
							Type:            "FIXED_RANGE",
							StartIndex:      &start,
							EndIndex:        &end,
							ForceSendFields: []string{"StartIndex", "EndIndex"},
						},
						Style: &slides.TextStyle{
							Bold:      run.Bold,
							Italic:    run.Italic,
							Underline: run.Underline,
						},
						Fields: "bold,italic,underline",
					},
				})
			}
			offset += length
		}
	}
	return requests
}

// share grants anyone/writer through the sibling storage service.
func (s *Service) share(ctx context.Context, presID string) error {
	_, err := s.drive.Permissions.Create(presID, &drive.Permission{
		Type: "anyone",
		Role: "writer",
	}).Context(ctx).Do()
	if err != nil {
		return errs.Wrapf("gslides", "share", errs.ErrUpstreamUnavailable, "granting public access: %v", err)
	}
	return nil
}

func rgbColor(c template.RGB) *slides.RgbColor {
	return &slides.RgbColor{
		Red:   float64(c.R) / 255,
		Green: float64(c.G) / 255,
		Blue:  float64(c.B) / 255,
	}
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}
