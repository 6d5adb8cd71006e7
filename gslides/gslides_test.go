package gslides

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	slides "google.golang.org/api/slides/v1"

	"smartslide/deck"
	"smartslide/template"
)

// fakeBackend plays the REST surface the service talks to: presentation
// create, the two update batches, the placeholder re-read and the share.
type fakeBackend struct {
	mu          sync.Mutex
	batches     []*slides.BatchUpdatePresentationRequest
	pageIDs     []string
	permissions []*drive.Permission
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/presentations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&slides.Presentation{
			PresentationId: "pres123",
			Slides:         []*slides.Page{{ObjectId: "default-page"}},
		})
	})

	mux.HandleFunc("/v1/presentations/pres123:batchUpdate", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req slides.BatchUpdatePresentationRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("malformed batch body: %v", err)
		}
		f.mu.Lock()
		f.batches = append(f.batches, &req)
		for _, r := range req.Requests {
			if r.CreateSlide != nil {
				f.pageIDs = append(f.pageIDs, r.CreateSlide.ObjectId)
			}
		}
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&slides.BatchUpdatePresentationResponse{PresentationId: "pres123"})
	})

	mux.HandleFunc("/v1/presentations/pres123", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		pages := make([]*slides.Page, 0, len(f.pageIDs))
		for _, id := range f.pageIDs {
			pages = append(pages, &slides.Page{
				ObjectId: id,
				PageElements: []*slides.PageElement{
					{ObjectId: id + "-title", Shape: &slides.Shape{Placeholder: &slides.Placeholder{Type: "TITLE"}}},
					{ObjectId: id + "-body", Shape: &slides.Shape{Placeholder: &slides.Placeholder{Type: "BODY"}}},
				},
			})
		}
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&slides.Presentation{PresentationId: "pres123", Slides: pages})
	})

	mux.HandleFunc("/files/pres123/permissions", func(w http.ResponseWriter, r *http.Request) {
		var perm drive.Permission
		if err := json.NewDecoder(r.Body).Decode(&perm); err != nil {
			t.Errorf("malformed permission body: %v", err)
		}
		f.mu.Lock()
		f.permissions = append(f.permissions, &perm)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&drive.Permission{Id: "perm1"})
	})

	return mux
}

func testService(t *testing.T, backend *fakeBackend) *Service {
	t.Helper()
	ts := httptest.NewServer(backend.handler(t))
	t.Cleanup(ts.Close)

	ctx := context.Background()
	slidesSvc, err := slides.NewService(ctx, option.WithEndpoint(ts.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("slides client: %v", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithEndpoint(ts.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("drive client: %v", err)
	}
	return NewWithServices(slidesSvc, driveSvc, log.New(io.Discard))
}

func TestCreateDeck(t *testing.T) {
	backend := &fakeBackend{}
	svc := testService(t, backend)

	outline := deck.Outline{
		{Title: "**Intro**", Content: []string{"first point", "second point"}},
		{Title: "Data", Content: []string{"numbers"}, ImageURL: "https://img.example.com/1.png"},
	}
	tmpl, _ := template.Resolve("modern")

	url, err := svc.CreateDeck(context.Background(), outline, tmpl, deck.Widescreen, "Intro")
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if url != "https://docs.google.com/presentation/d/pres123/edit" {
		t.Errorf("url = %q", url)
	}

	if len(backend.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(backend.batches))
	}

	// Batch 1: drop the default page, create one page per slide.
	deletes, creates := 0, 0
	for _, r := range backend.batches[0].Requests {
		switch {
		case r.DeleteObject != nil:
			deletes++
			if r.DeleteObject.ObjectId != "default-page" {
				t.Errorf("deleted %q, want the default page", r.DeleteObject.ObjectId)
			}
		case r.CreateSlide != nil:
			creates++
			if r.CreateSlide.SlideLayoutReference.PredefinedLayout != "TITLE_AND_BODY" {
				t.Errorf("layout = %q", r.CreateSlide.SlideLayoutReference.PredefinedLayout)
			}
		}
	}
	if deletes != 1 || creates != 2 {
		t.Errorf("batch 1 had %d deletes and %d creates, want 1 and 2", deletes, creates)
	}

	// Batch 2: text inserts, the image, the backgrounds.
	var inserts []string
	images, backgrounds := 0, 0
	for _, r := range backend.batches[1].Requests {
		switch {
		case r.InsertText != nil:
			inserts = append(inserts, r.InsertText.Text)
		case r.CreateImage != nil:
			images++
			if r.CreateImage.Url != "https://img.example.com/1.png" {
				t.Errorf("image url = %q", r.CreateImage.Url)
			}
		case r.UpdatePageProperties != nil:
			backgrounds++
		}
	}
	joined := strings.Join(inserts, "\n")
	if !strings.Contains(joined, "Intro") || strings.Contains(joined, "**") {
		t.Errorf("title should be inserted without markers: %q", joined)
	}
	if !strings.Contains(joined, "first point\nsecond point") {
		t.Errorf("body lines should join with newlines: %q", joined)
	}
	if images != 1 {
		t.Errorf("got %d image requests, want 1", images)
	}
	if backgrounds != 2 {
		t.Errorf("got %d background requests, want one per page", backgrounds)
	}

	if len(backend.permissions) != 1 {
		t.Fatalf("got %d permissions, want 1", len(backend.permissions))
	}
	if p := backend.permissions[0]; p.Type != "anyone" || p.Role != "writer" {
		t.Errorf("share = %s/%s, want anyone/writer", p.Type, p.Role)
	}
}

func TestCreateDeck_EmptyOutline(t *testing.T) {
	backend := &fakeBackend{}
	svc := testService(t, backend)
	tmpl, _ := template.Resolve("business")

	url, err := svc.CreateDeck(context.Background(), nil, tmpl, deck.Widescreen, "Empty")
	if err != nil {
		t.Fatalf("empty outline should still create a deck: %v", err)
	}
	if url == "" {
		t.Error("url should be returned for an empty deck")
	}
	if len(backend.batches) != 0 {
		t.Errorf("empty outline should not send update batches, got %d", len(backend.batches))
	}
	if len(backend.permissions) != 1 {
		t.Error("empty deck should still be shared")
	}
}

func TestInsertStyledText_Ranges(t *testing.T) {
	font := template.Font{Family: "Calibri", Size: 24}
	runs := deck.ParseRuns("a **b** c")
	reqs := insertStyledText("obj1", [][]deck.Run{runs}, font)

	if len(reqs) < 3 {
		t.Fatalf("got %d requests, want insert + base style + one overlay", len(reqs))
	}
	if reqs[0].InsertText == nil || reqs[0].InsertText.Text != "a b c" {
		t.Fatalf("insert text = %+v", reqs[0].InsertText)
	}
	if reqs[1].UpdateTextStyle == nil || reqs[1].UpdateTextStyle.TextRange.Type != "ALL" {
		t.Fatal("second request should restyle the whole range")
	}

	overlay := reqs[2].UpdateTextStyle
	if overlay == nil || !overlay.Style.Bold {
		t.Fatal("third request should bold the styled run")
	}
	if overlay.TextRange.StartIndex == nil || overlay.TextRange.EndIndex == nil {
		t.Fatalf("bold range indices missing: %+v", overlay.TextRange)
	}
	if *overlay.TextRange.StartIndex != 2 || *overlay.TextRange.EndIndex != 3 {
		t.Errorf("bold range = [%d, %d), want [2, 3)", *overlay.TextRange.StartIndex, *overlay.TextRange.EndIndex)
	}
}

func TestInsertStyledText_Empty(t *testing.T) {
	font := template.Font{Family: "Calibri", Size: 24}
	if reqs := insertStyledText("obj1", nil, font); len(reqs) != 0 {
		t.Errorf("no lines should produce no requests, got %d", len(reqs))
	}
}
