package adapter

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

// ClaudeClient implements LLM using the Anthropic API.
type ClaudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

type ClaudeOption func(*ClaudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		c.model = anthropic.Model(model)
	}
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	c := &ClaudeClient{
		client: &client,
		model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends a prompt and returns the generated text.
func (c *ClaudeClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create message")
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	if text == "" {
		return "", goerr.New("empty response from model", goerr.V("model", c.model))
	}

	return text, nil
}
