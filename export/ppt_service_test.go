package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"smartslide/deck"
	"smartslide/errs"
	"smartslide/template"
)

func testService() *PPTService {
	s := NewPPTService(log.New(io.Discard))
	s.httpClient = nil // never fetch images in tests
	return s
}

func renderArchive(t *testing.T, outline deck.Outline, ptype deck.PresentationType) *zip.Reader {
	t.Helper()
	tmpl, err := template.Resolve("business")
	if err != nil {
		t.Fatalf("resolving template: %v", err)
	}
	data, err := testService().Render(context.Background(), outline, tmpl, ptype)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Render returned no bytes")
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip archive: %v", err)
	}
	return archive
}

func archiveEntry(t *testing.T, archive *zip.Reader, name string) string {
	t.Helper()
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		r, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("archive has no entry %s", name)
	return ""
}

func TestRender_SlideCountAndText(t *testing.T) {
	outline := deck.Outline{
		{Title: "Quarterly Review", Content: []string{"Revenue up", "Costs down"}},
		{Title: "Next Steps", Content: []string{"Hire", "Ship"}},
	}
	archive := renderArchive(t, outline, deck.Widescreen)

	slideRe := regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
	slides := 0
	for _, f := range archive.File {
		if slideRe.MatchString(f.Name) {
			slides++
		}
	}
	if slides != 2 {
		t.Errorf("archive holds %d slides, want 2", slides)
	}

	first := archiveEntry(t, archive, "ppt/slides/slide1.xml")
	for _, want := range []string{"Quarterly Review", "Revenue up", "Costs down"} {
		if !strings.Contains(first, want) {
			t.Errorf("slide 1 XML missing %q", want)
		}
	}
	second := archiveEntry(t, archive, "ppt/slides/slide2.xml")
	if !strings.Contains(second, "Next Steps") {
		t.Error("slide 2 XML missing its title")
	}
}

func TestRender_MarkersConsumed(t *testing.T) {
	outline := deck.Outline{
		{Title: "**Q3** Results", Content: []string{"growth was *strong*"}},
	}
	archive := renderArchive(t, outline, deck.Widescreen)
	slide := archiveEntry(t, archive, "ppt/slides/slide1.xml")

	if strings.Contains(slide, "**") {
		t.Error("bold markers leaked into the rendered XML")
	}
	for _, want := range []string{"Q3", "Results", "strong"} {
		if !strings.Contains(slide, want) {
			t.Errorf("slide XML missing %q", want)
		}
	}
}

func TestRender_PageSize(t *testing.T) {
	outline := deck.Outline{{Title: "t", Content: nil}}
	archive := renderArchive(t, outline, deck.Tall)
	pres := archiveEntry(t, archive, "ppt/presentation.xml")

	cx, cy := deck.Tall.EMU()
	if !strings.Contains(pres, "6858000") || !strings.Contains(pres, "12188952") {
		t.Errorf("presentation.xml should carry %dx%d EMU page size", cx, cy)
	}
}

func TestRender_EmptyOutline(t *testing.T) {
	tmpl, err := template.Resolve("business")
	if err != nil {
		t.Fatalf("resolving template: %v", err)
	}
	_, err = testService().Render(context.Background(), nil, tmpl, deck.Widescreen)
	if err == nil {
		t.Fatal("empty outline should be rejected, the writer cannot emit zero slides")
	}
	if !errors.Is(err, errs.ErrBadRequest) {
		t.Errorf("error should be ErrBadRequest, got %v", err)
	}
}

func TestDeckTitle(t *testing.T) {
	if got := deckTitle(deck.Outline{{Title: "**Intro**"}}); got != "Intro" {
		t.Errorf("deckTitle = %q, want Intro", got)
	}
	if got := deckTitle(nil); got != "SmartSlide Presentation" {
		t.Errorf("deckTitle(nil) = %q", got)
	}
}
