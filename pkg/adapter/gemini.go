package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// GeminiClient provides both completion and embedding via the Gemini API.
type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensions      int
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithDimensions(dim int) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensions = dim
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		dimensions:      3072,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Complete sends a prompt and returns the generated text.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}

	var text string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}

	if text == "" {
		return "", goerr.New("empty response from model", goerr.V("model", g.generativeModel))
	}

	return text, nil
}

// Embed converts a single text to an embedding vector. A response carrying no
// embedding is a soft failure and yields the all-zero sentinel.
func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return ZeroVector(g.dimensions), nil
	}

	return resp.Embeddings[0].Values, nil
}

// EmbedBatch converts multiple texts to embedding vectors. Texts the provider
// returned no embedding for get the all-zero sentinel.
func (g *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed contents")
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		if i < len(resp.Embeddings) && len(resp.Embeddings[i].Values) > 0 {
			vectors[i] = resp.Embeddings[i].Values
		} else {
			vectors[i] = ZeroVector(g.dimensions)
		}
	}

	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (g *GeminiClient) Dimensions() int {
	return g.dimensions
}
