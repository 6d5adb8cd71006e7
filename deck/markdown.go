package deck

import "strings"

// Run is a maximal substring with uniform inline styling.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// inline markers, checked in order. The two-character markers must come
// before "*" so that "**" is never read as two italic markers.
var markers = []struct {
	token     string
	bold      bool
	italic    bool
	underline bool
}{
	{token: "**", bold: true},
	{token: "__", underline: true},
	{token: "*", italic: true},
}

// ParseRuns splits one content line into styled runs. The parser is total:
// every non-marker character of the input survives into some run, and for
// marker-free input the single returned run equals the input. Markers do
// not nest; a pair with no inner text is kept as a literal and an unpaired
// marker is left verbatim.
func ParseRuns(s string) []Run {
	var runs []Run
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			runs = append(runs, Run{Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(s) {
		matched := false
		for _, m := range markers {
			if !strings.HasPrefix(s[i:], m.token) {
				continue
			}
			rest := s[i+len(m.token):]
			end := strings.Index(rest, m.token)
			if end <= 0 {
				// unpaired marker, or an empty pair: literal text
				if end == 0 {
					plain.WriteString(m.token)
					i += len(m.token)
				}
				plain.WriteString(m.token)
				i += len(m.token)
				matched = true
				break
			}
			flush()
			runs = append(runs, Run{
				Text:      rest[:end],
				Bold:      m.bold,
				Italic:    m.italic,
				Underline: m.underline,
			})
			i += len(m.token) + end + len(m.token)
			matched = true
			break
		}
		if !matched {
			plain.WriteByte(s[i])
			i++
		}
	}
	flush()

	if len(runs) == 0 {
		runs = []Run{{Text: ""}}
	}
	return runs
}

// PlainText concatenates the run texts, dropping all styling. Used where a
// sink needs the unstyled string (document titles, cloud text inserts).
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// StripMarkers removes the inline markers from a string, keeping the text.
func StripMarkers(s string) string {
	return PlainText(ParseRuns(s))
}
