package openai

import (
	"context"
	"strings"

	"contribution-scout/internal/common"
	"contribution-scout/internal/port"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Generator implements port.Generator on any OpenAI-compatible endpoint.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(baseURL, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeConfiguration, "API Key not configured.")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (g *Generator) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	// opts.JSON is not mapped: json_object mode only admits a top-level object
	// and recommendations come back as an array.
	return g.complete(ctx, req)
}

func (g *Generator) Chat(ctx context.Context, message string, opts port.ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens: int(opts.MaxOutputTokens),
	}
	return g.complete(ctx, req)
}

func (g *Generator) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", common.WrapError(common.ErrCodeUpstreamTransport, "chat completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", common.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
