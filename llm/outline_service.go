// Package llm turns a topic request into a validated slide outline by
// prompting an OpenAI-compatible chat model and strictly parsing the JSON
// array it returns.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"smartslide/deck"
	"smartslide/errs"
)

// OutlineService generates slide outlines. It performs no retries; the
// caller decides retry policy (currently: none).
type OutlineService struct {
	chatModel model.ChatModel
	logger    *log.Logger
}

// NewOutlineService creates an outline service around a chat model.
func NewOutlineService(chatModel model.ChatModel, logger *log.Logger) *OutlineService {
	return &OutlineService{chatModel: chatModel, logger: logger}
}

const systemPrompt = `You are a slide outline generator. You respond with a single JSON array and nothing else: no prose, no markdown fences, no commentary before or after the array.`

// outlinePrompt frames slide 1 as the introduction, slide N as the
// conclusion/references, and everything between as main content.
func outlinePrompt(topic string, numSlides int, language, presentationType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-slide presentation outline about: %s\n\n", numSlides, topic)
	fmt.Fprintf(&b, "All titles and content must be written in %s.\n", language)
	fmt.Fprintf(&b, "The deck uses the %q page format.\n\n", presentationType)
	b.WriteString("Structure:\n")
	b.WriteString("- Slide 1 introduces the topic.\n")
	if numSlides > 2 {
		fmt.Fprintf(&b, "- Slides 2 to %d cover the main content, one aspect per slide.\n", numSlides-1)
	}
	if numSlides > 1 {
		fmt.Fprintf(&b, "- Slide %d concludes and lists references or takeaways.\n", numSlides)
	}
	b.WriteString("\nRespond with a JSON array of exactly ")
	fmt.Fprintf(&b, "%d objects. Each object has:\n", numSlides)
	b.WriteString(`- "title": string, the slide heading
- "content": array of strings, the bullet points; **bold**, *italic* and __underline__ markers are allowed
- "image_prompt": string or null, an optional English description of an illustration for the slide
`)
	return b.String()
}

// GenerateOutline prompts the model and returns a validated outline of
// exactly numSlides slides.
func (s *OutlineService) GenerateOutline(ctx context.Context, topic string, numSlides int, language, presentationType string) (deck.Outline, error) {
	if numSlides < 1 {
		return nil, errs.Wrapf("llm", "GenerateOutline", errs.ErrBadRequest, "numSlides must be >= 1, got %d", numSlides)
	}
	if language == "" {
		language = "English"
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: outlinePrompt(topic, numSlides, language, presentationType)},
	}

	s.logger.Debug("requesting outline", "topic", topic, "slides", numSlides, "language", language)
	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, errs.Wrapf("llm", "GenerateOutline", errs.ErrUpstreamUnavailable, "chat completion failed: %v", err)
	}

	outline, err := parseOutline(resp.Content, numSlides)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("outline generated", "slides", len(outline))
	return outline, nil
}

// parseOutline extracts the first balanced JSON array from the raw model
// output and decodes it strictly into an outline of the expected length.
func parseOutline(raw string, numSlides int) (deck.Outline, error) {
	arr, ok := extractJSONArray(raw)
	if !ok {
		return nil, errs.Wrapf("llm", "parseOutline", errs.ErrUnparseableResponse, "no JSON array found in model output")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &elems); err != nil {
		return nil, errs.Wrapf("llm", "parseOutline", errs.ErrUnparseableResponse, "extracted array is not valid JSON: %v", err)
	}

	outline := make(deck.Outline, 0, len(elems))
	for i, elem := range elems {
		slide, err := parseSlide(elem)
		if err != nil {
			return nil, errs.Wrapf("llm", "parseOutline", errs.ErrInvalidOutline, "element %d: %v", i, err)
		}
		outline = append(outline, slide)
	}

	if len(outline) != numSlides {
		return nil, errs.Wrapf("llm", "parseOutline", errs.ErrInvalidOutline, "expected %d slides, model returned %d", numSlides, len(outline))
	}
	if err := outline.Validate(); err != nil {
		return nil, errs.Wrapf("llm", "parseOutline", errs.ErrInvalidOutline, "%v", err)
	}
	return outline, nil
}

// parseSlide decodes one array element, enforcing the schema field by
// field: title must be a string, content an array of strings, image_prompt
// a string or null when present.
func parseSlide(raw json.RawMessage) (deck.Slide, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return deck.Slide{}, fmt.Errorf("not a JSON object")
	}

	titleRaw, ok := obj["title"]
	if !ok {
		return deck.Slide{}, fmt.Errorf("missing title")
	}
	var title string
	if err := json.Unmarshal(titleRaw, &title); err != nil {
		return deck.Slide{}, fmt.Errorf("title is not a string")
	}
	if title == "" {
		return deck.Slide{}, fmt.Errorf("title is empty")
	}

	contentRaw, ok := obj["content"]
	if !ok {
		return deck.Slide{}, fmt.Errorf("missing content")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(contentRaw, &items); err != nil {
		return deck.Slide{}, fmt.Errorf("content is not an array")
	}
	content := make([]string, 0, len(items))
	for j, item := range items {
		var line string
		if err := json.Unmarshal(item, &line); err != nil || string(item) == "null" {
			return deck.Slide{}, fmt.Errorf("content[%d] is not a string", j)
		}
		content = append(content, line)
	}

	slide := deck.Slide{Title: title, Content: content}

	if promptRaw, ok := obj["image_prompt"]; ok && string(promptRaw) != "null" {
		var prompt string
		if err := json.Unmarshal(promptRaw, &prompt); err != nil {
			return deck.Slide{}, fmt.Errorf("image_prompt is not a string or null")
		}
		slide.ImagePrompt = prompt
	}
	return slide, nil
}

// extractJSONArray returns the first balanced top-level JSON array in s.
// Bracket counting is string-aware so brackets inside quoted values do not
// affect the balance. Text before and after the array is discarded.
func extractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '[', '{':
				depth++
			case ']', '}':
				depth--
				if depth == 0 {
					if c == ']' {
						return s[start : i+1], true
					}
					// mismatched close, this candidate is hopeless
					i = len(s)
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return "", false
}
