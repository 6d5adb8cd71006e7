package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"smartslide/config"
)

// outlineTemperature is kept low to reduce format drift in the JSON the
// model emits.
const outlineTemperature = 0.3

// llmTimeout bounds the single completion call.
const llmTimeout = 60 * time.Second

// NewChatModel builds the OpenAI-compatible chat model from configuration.
// BaseURL may point at any endpoint that speaks the chat-completions
// protocol; empty means the official API.
func NewChatModel(ctx context.Context, cfg config.Config) (model.ChatModel, error) {
	temp := float32(outlineTemperature)
	maxTokens := cfg.LLMMaxTokens

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Timeout:     llmTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %v", err)
	}
	return chatModel, nil
}
