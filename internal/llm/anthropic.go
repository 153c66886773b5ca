package llm

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const jsonInstruction = "Respond with strict JSON only."

// DefaultAnthropicModel is used when a request names no model.
const DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_20250514

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicCaller completes prompts with the Anthropic Messages API.
type AnthropicCaller struct {
	messages AnthropicMessager
}

func NewAnthropicCaller(apiKey string) (*AnthropicCaller, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, eris.New("llm: anthropic api key not configured")
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey)}, nil
}

func (a *AnthropicCaller) Complete(ctx context.Context, req ChatRequest) (string, error) {
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = DefaultAnthropicModel
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + " " + jsonInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic messages")
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
