package gemini

import (
	"context"
	"fmt"
	"strings"

	"contribution-scout/internal/common"
	"contribution-scout/internal/port"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash-lite"

// Generator implements port.Generator on the Gemini API.
type Generator struct {
	client    *genai.Client
	modelName string
}

func NewGenerator(ctx context.Context, apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeConfiguration, "API Key not configured.")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	return &Generator{client: client, modelName: modelName}, nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// GenerateText issues one generateContent call. A fresh model handle is taken
// per call since GenerativeModel settings are not safe to share.
func (g *Generator) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	resp, err := g.textModel(opts).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", common.WrapError(common.ErrCodeUpstreamTransport, "gemini generate content", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", common.ErrEmptyResponse
	}
	return text, nil
}

func (g *Generator) textModel(opts port.GenerateOptions) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	if opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}
	return model
}

// Chat starts a chat with no history and sends a single message.
func (g *Generator) Chat(ctx context.Context, message string, opts port.ChatOptions) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	cs := model.StartChat()
	cs.History = nil

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", common.WrapError(common.ErrCodeUpstreamTransport, "gemini chat", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", common.ErrEmptyResponse
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
