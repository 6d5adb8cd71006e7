package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"smartslide/errs"
)

// fakeChatModel returns a canned reply or error and records the prompt.
type fakeChatModel struct {
	reply    string
	err      error
	messages []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.messages = input
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func testService(fake *fakeChatModel) *OutlineService {
	return NewOutlineService(fake, log.New(io.Discard))
}

const threeSlideReply = `[
  {"title": "Intro to **Bees**", "content": ["What is a bee", "Why bees matter"], "image_prompt": "a honeybee on a flower"},
  {"title": "Hive Life", "content": ["Queen, workers, drones"], "image_prompt": null},
  {"title": "Takeaways", "content": ["Plant flowers", "Avoid pesticides"]}
]`

func TestGenerateOutline_HappyPath(t *testing.T) {
	fake := &fakeChatModel{reply: threeSlideReply}
	outline, err := testService(fake).GenerateOutline(context.Background(), "bees", 3, "English", "Default")
	if err != nil {
		t.Fatalf("GenerateOutline failed: %v", err)
	}
	if len(outline) != 3 {
		t.Fatalf("got %d slides, want 3", len(outline))
	}
	if outline[0].Title != "Intro to **Bees**" {
		t.Errorf("title = %q", outline[0].Title)
	}
	if outline[0].ImagePrompt != "a honeybee on a flower" {
		t.Errorf("image prompt = %q", outline[0].ImagePrompt)
	}
	if outline[1].ImagePrompt != "" {
		t.Errorf("null image_prompt should stay empty, got %q", outline[1].ImagePrompt)
	}
	if len(outline[2].Content) != 2 {
		t.Errorf("slide 3 content = %v", outline[2].Content)
	}
}

func TestGenerateOutline_PromptShape(t *testing.T) {
	fake := &fakeChatModel{reply: threeSlideReply}
	_, err := testService(fake).GenerateOutline(context.Background(), "bees", 3, "", "Tall")
	if err != nil {
		t.Fatalf("GenerateOutline failed: %v", err)
	}
	if len(fake.messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(fake.messages))
	}
	if fake.messages[0].Role != schema.System {
		t.Errorf("first message role = %v", fake.messages[0].Role)
	}
	user := fake.messages[1].Content
	if !strings.Contains(user, "3-slide") {
		t.Errorf("user prompt missing slide count: %q", user)
	}
	if !strings.Contains(user, "English") {
		t.Errorf("empty language should default to English: %q", user)
	}
	if !strings.Contains(user, "Tall") {
		t.Errorf("user prompt missing page format: %q", user)
	}
}

func TestGenerateOutline_ProseWrappedArray(t *testing.T) {
	fake := &fakeChatModel{reply: "Sure! Here is the outline:\n" + threeSlideReply + "\nHope this helps."}
	outline, err := testService(fake).GenerateOutline(context.Background(), "bees", 3, "English", "Default")
	if err != nil {
		t.Fatalf("prose-wrapped array should still parse: %v", err)
	}
	if len(outline) != 3 {
		t.Errorf("got %d slides, want 3", len(outline))
	}
}

func TestGenerateOutline_Errors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeChatModel
		n    int
		kind error
	}{
		{
			name: "zero slides requested",
			fake: &fakeChatModel{reply: threeSlideReply},
			n:    0,
			kind: errs.ErrBadRequest,
		},
		{
			name: "upstream failure",
			fake: &fakeChatModel{err: errors.New("dial tcp: connection refused")},
			n:    3,
			kind: errs.ErrUpstreamUnavailable,
		},
		{
			name: "no array in output",
			fake: &fakeChatModel{reply: "I cannot help with that."},
			n:    3,
			kind: errs.ErrUnparseableResponse,
		},
		{
			name: "array is not valid JSON",
			fake: &fakeChatModel{reply: `[{"title": "a", "content": [}]`},
			n:    3,
			kind: errs.ErrUnparseableResponse,
		},
		{
			name: "element missing title",
			fake: &fakeChatModel{reply: `[{"content": ["x"]}]`},
			n:    1,
			kind: errs.ErrInvalidOutline,
		},
		{
			name: "title is a number",
			fake: &fakeChatModel{reply: `[{"title": 7, "content": ["x"]}]`},
			n:    1,
			kind: errs.ErrInvalidOutline,
		},
		{
			name: "null inside content",
			fake: &fakeChatModel{reply: `[{"title": "a", "content": ["x", null]}]`},
			n:    1,
			kind: errs.ErrInvalidOutline,
		},
		{
			name: "slide count mismatch",
			fake: &fakeChatModel{reply: threeSlideReply},
			n:    5,
			kind: errs.ErrInvalidOutline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testService(tt.fake).GenerateOutline(context.Background(), "topic", tt.n, "English", "Default")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error %v should match kind %v", err, tt.kind)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare array",
			input: `[1, 2]`,
			want:  `[1, 2]`,
			ok:    true,
		},
		{
			name:  "surrounded by prose",
			input: "here you go: [1, 2] enjoy",
			want:  `[1, 2]`,
			ok:    true,
		},
		{
			name:  "brackets inside strings ignored",
			input: `[{"title": "a ] b [ c"}]`,
			want:  `[{"title": "a ] b [ c"}]`,
			ok:    true,
		},
		{
			name:  "escaped quote inside string",
			input: `[{"title": "say \" ] done"}]`,
			want:  `[{"title": "say \" ] done"}]`,
			ok:    true,
		},
		{
			name:  "nested arrays stay balanced",
			input: `[[1], [2]]`,
			want:  `[[1], [2]]`,
			ok:    true,
		},
		{
			name:  "no array",
			input: "nothing here",
			ok:    false,
		},
		{
			name:  "unterminated array",
			input: `[1, 2`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONArray(tt.input)
			if ok != tt.ok {
				t.Fatalf("extractJSONArray(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("extractJSONArray(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
