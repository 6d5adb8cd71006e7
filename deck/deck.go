// Package deck defines the slide outline model shared by the outline
// producers (LLM client, document ingestor) and the two renderers.
package deck

import "fmt"

// Slide is one entry of an outline. ImagePrompt is what the author asked
// for; ImageURL is filled in only after successful image enrichment.
type Slide struct {
	Title       string   `json:"title"`
	Content     []string `json:"content"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// Validate checks the slide invariants from the outline schema.
func (s Slide) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("slide title must not be empty")
	}
	return nil
}

// Outline is an ordered sequence of slides. Outlines are ephemeral per
// request and never persisted.
type Outline []Slide

// Validate checks every slide in order and reports the first violation.
func (o Outline) Validate() error {
	for i, s := range o {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
	}
	return nil
}

// EMUPerInch is the OOXML / Google Slides coordinate unit.
const EMUPerInch = 914400

// PresentationType selects the page geometry of the rendered deck.
type PresentationType int

const (
	Widescreen PresentationType = iota // 13.33 x 7.5 in, the default
	Tall                              // 7.5 x 13.33 in
	Traditional                       // 10 x 7.5 in
)

// ParsePresentationType maps the wire value to a type. Unknown values
// degrade to Widescreen rather than failing the request.
func ParsePresentationType(s string) PresentationType {
	switch s {
	case "Tall":
		return Tall
	case "Traditional":
		return Traditional
	default:
		return Widescreen
	}
}

// String returns the wire value.
func (t PresentationType) String() string {
	switch t {
	case Tall:
		return "Tall"
	case Traditional:
		return "Traditional"
	default:
		return "Default"
	}
}

// Dimensions returns the page size in inches.
func (t PresentationType) Dimensions() (width, height float64) {
	switch t {
	case Tall:
		return 7.5, 13.33
	case Traditional:
		return 10, 7.5
	default:
		return 13.33, 7.5
	}
}

// EMU returns the page size in English Metric Units.
func (t PresentationType) EMU() (cx, cy int64) {
	w, h := t.Dimensions()
	return int64(w * EMUPerInch), int64(h * EMUPerInch)
}
