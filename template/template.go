// Package template holds the closed registry of visual themes. Templates
// are process-lifetime constants; consumers receive value copies and each
// renderer translates the abstract model into its native styling.
package template

import (
	"fmt"
	"sort"

	"smartslide/errs"
)

// RGB is a color triple. Kept as plain bytes so each renderer can convert
// to its own representation (ARGB hex for pptx, 0..1 floats for the cloud).
type RGB struct {
	R, G, B uint8
}

// Hex returns the RRGGBB form.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ARGB returns the fully opaque AARRGGBB form used by the pptx writer.
func (c RGB) ARGB() string {
	return "FF" + c.Hex()
}

// Font describes one text role of a theme.
type Font struct {
	Family string
	Size   int // points
	Color  RGB
	Bold   bool
}

// Template is a named visual theme. Immutable; read-only to all consumers.
type Template struct {
	Key         string
	Background  RGB
	TitleFont   Font
	ContentFont Font
	Accent      RGB
}

var registry = map[string]Template{
	"business": {
		Key:         "business",
		Background:  RGB{0xFF, 0xFF, 0xFF},
		TitleFont:   Font{Family: "Calibri", Size: 40, Color: RGB{0x1F, 0x38, 0x64}, Bold: true},
		ContentFont: Font{Family: "Calibri", Size: 24, Color: RGB{0x40, 0x40, 0x40}},
		Accent:      RGB{0x44, 0x72, 0xC4},
	},
	"education": {
		Key:         "education",
		Background:  RGB{0xFD, 0xFC, 0xF5},
		TitleFont:   Font{Family: "Verdana", Size: 36, Color: RGB{0x2E, 0x7D, 0x32}, Bold: true},
		ContentFont: Font{Family: "Verdana", Size: 22, Color: RGB{0x37, 0x47, 0x4F}},
		Accent:      RGB{0xF9, 0xA8, 0x25},
	},
	"creative": {
		Key:         "creative",
		Background:  RGB{0xFD, 0xF2, 0xF8},
		TitleFont:   Font{Family: "Trebuchet MS", Size: 40, Color: RGB{0x9D, 0x17, 0x4D}, Bold: true},
		ContentFont: Font{Family: "Trebuchet MS", Size: 22, Color: RGB{0x50, 0x32, 0x44}},
		Accent:      RGB{0xEC, 0x48, 0x99},
	},
	"modern": {
		Key:         "modern",
		Background:  RGB{0x11, 0x18, 0x27},
		TitleFont:   Font{Family: "Segoe UI", Size: 38, Color: RGB{0xF9, 0xFA, 0xFB}, Bold: true},
		ContentFont: Font{Family: "Segoe UI", Size: 22, Color: RGB{0xD1, 0xD5, 0xDB}},
		Accent:      RGB{0x10, 0xB9, 0x81},
	},
	"abstract": {
		Key:         "abstract",
		Background:  RGB{0x0F, 0x17, 0x2A},
		TitleFont:   Font{Family: "Georgia", Size: 38, Color: RGB{0xE2, 0xE8, 0xF0}, Bold: true},
		ContentFont: Font{Family: "Georgia", Size: 22, Color: RGB{0xCB, 0xD5, 0xE1}},
		Accent:      RGB{0x8B, 0x5C, 0xF6},
	},
	"minimal": {
		Key:         "minimal",
		Background:  RGB{0xFF, 0xFF, 0xFF},
		TitleFont:   Font{Family: "Helvetica", Size: 36, Color: RGB{0x11, 0x11, 0x11}, Bold: true},
		ContentFont: Font{Family: "Helvetica", Size: 20, Color: RGB{0x33, 0x33, 0x33}},
		Accent:      RGB{0x99, 0x99, 0x99},
	},
}

// Resolve looks up a template by key.
func Resolve(key string) (Template, error) {
	t, ok := registry[key]
	if !ok {
		return Template{}, errs.Wrapf("template", "Resolve", errs.ErrInvalidTemplate, "unknown template %q", key)
	}
	return t, nil
}

// Keys returns the registered template keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
