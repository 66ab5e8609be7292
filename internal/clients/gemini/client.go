package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jobvector/jobvector/internal/entities"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the light generation tier: lower quality ceiling,
	// noticeably higher free-tier rate limits.
	DefaultModel = "gemini-2.5-flash-lite"
	// EmbeddingModel produces 768-dimensional vectors.
	EmbeddingModel = "text-embedding-004"
)

// Client wraps a single credentialed genai client.
type Client struct {
	client    *genai.Client
	modelName string
}

func NewClient(ctx context.Context, apiKey string, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Client{client: client, modelName: model}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error) {

	model := c.client.GenerativeModel(c.modelName)
	model.SetMaxOutputTokens(maxTokens)
	model.SetTemperature(temperature)

	response, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model %v", c.modelName)
	}

	part := response.Candidates[0].Content.Parts[0]
	textPart, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("response part is not text")
	}

	return strings.TrimSpace(string(textPart)), nil
}

func (c *Client) Embed(ctx context.Context, text string) (entities.Vector, error) {

	model := c.client.EmbeddingModel(EmbeddingModel)
	result, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}

	if result.Embedding == nil {
		return nil, fmt.Errorf("empty embedding response from model %v", EmbeddingModel)
	}

	vector := entities.Vector(result.Embedding.Values)
	if !vector.IsValid() {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vector), entities.EmbeddingDimensions)
	}
	return vector, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
