package questiongen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apcsp-quiz/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// TextCompleter sends one system+user prompt pair to a chat model and returns
// the text of the first choice.
type TextCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// OpenAICompleter talks to any OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewOpenAICompleter(cfg *config.LLMConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
