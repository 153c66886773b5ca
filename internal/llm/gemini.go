package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiModel     = "gemini-1.5-flash"
	DefaultEmbeddingModel  = "text-embedding-004"
	geminiJSONResponseType = "application/json"
)

// GeminiCaller completes prompts with Google Gemini.
type GeminiCaller struct {
	client *genai.Client
}

func NewGeminiCaller(ctx context.Context, apiKey string) (*GeminiCaller, error) {
	client, err := newGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &GeminiCaller{client: client}, nil
}

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("llm: gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	return client, nil
}

func (g *GeminiCaller) Complete(ctx context.Context, req ChatRequest) (string, error) {
	name := req.Model
	if name == "" || strings.HasPrefix(name, "claude") {
		name = DefaultGeminiModel
	}
	model := g.client.GenerativeModel(name)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = geminiJSONResponseType
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate")
	}
	return responseText(resp), nil
}

func (g *GeminiCaller) Close() error {
	return g.client.Close()
}

// responseText joins the text parts of the first candidate. A response with
// no text yields "" so callers can treat it as an empty completion.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// EmbedPurpose tells the embedding model how the vector will be used.
type EmbedPurpose int

const (
	PurposeQuery EmbedPurpose = iota
	PurposeDocument
)

// GeminiEmbedder produces embeddings with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, purpose EmbedPurpose) (*GeminiEmbedder, error) {
	client, err := newGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeRetrievalQuery
	if purpose == PurposeDocument {
		em.TaskType = genai.TaskTypeRetrievalDocument
	}
	return &GeminiEmbedder{client: client, model: em}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini embed")
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, eris.New("llm: gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
