package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lunarspired/portfolio-chat/internal/rag"
	"github.com/lunarspired/portfolio-chat/services/providers"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"

	defaultEmbeddingModel  = "text-embedding-004"
	defaultGenerationModel = "gemini-2.0-flash"
	defaultTimeout         = 30 * time.Second
)

// Interface compliance checks.
var (
	_ providers.Embedder  = (*Client)(nil)
	_ providers.Generator = (*Client)(nil)
)

// Client implements providers.Embedder and providers.Generator for the Gemini API
type Client struct {
	client          *genai.Client
	embeddingModel  string
	generationModel string
	dimension       int32
	timeout         time.Duration
	logger          *zap.Logger
}

// New creates a Gemini client. It returns providers.ErrNotConfigured when cfg has no API key.
func New(ctx context.Context, cfg providers.ProviderConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, providers.ErrNotConfigured
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = defaultGenerationModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.EmbeddingDimension <= 0 {
		cfg.EmbeddingDimension = providers.EmbeddingDimension
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &Client{
		client:          gc,
		embeddingModel:  cfg.EmbeddingModel,
		generationModel: cfg.GenerationModel,
		dimension:       int32(cfg.EmbeddingDimension),
		timeout:         cfg.Timeout,
		logger:          logger,
	}, nil
}

// Embed returns the unit-length embedding of text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c == nil || c.client == nil {
		return nil, providers.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &c.dimension},
	)
	if err != nil {
		return nil, wrapError("embed", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, providers.NewProviderError(providerName, "embed", "response contained no embeddings", 0, nil)
	}

	values := resp.Embeddings[0].Values
	if len(values) != int(c.dimension) {
		return nil, providers.NewProviderError(providerName, "embed",
			fmt.Sprintf("expected %d dimensions, got %d", c.dimension, len(values)), 0, nil)
	}

	c.logger.Debug("embedding created",
		zap.String("model", c.embeddingModel),
		zap.Duration("latency", time.Since(start)))

	return rag.L2Norm(values), nil
}

// Generate completes prompt with fixed sampling parameters and returns the first candidate's text.
// It returns providers.ErrEmptyGeneration when there is no candidate text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", providers.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := providers.GenerationTemperature
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.generationModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: providers.MaxOutputTokens,
		},
	)
	if err != nil {
		return "", wrapError("generate", err)
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", providers.ErrEmptyGeneration
	}

	c.logger.Debug("generation completed",
		zap.String("model", c.generationModel),
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(text)))

	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// wrapError converts SDK errors to *providers.ProviderError, keeping the HTTP status when known
func wrapError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return providers.NewProviderError(providerName, operation, "request cancelled or timed out", 0, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(providerName, operation, apiErr.Message, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return providers.NewProviderError(providerName, operation, apiErrPtr.Message, apiErrPtr.Code, err)
	}

	return providers.NewProviderError(providerName, operation, "request failed", 0, err)
}
