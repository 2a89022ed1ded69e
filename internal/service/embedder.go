package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatebot/internal/config"
	"estatebot/internal/observability"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns text into fixed-length vectors
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// NewEmbedder builds the provider selected in cfg, wrapped with a query cache when enabled
func NewEmbedder(cfg config.EmbeddingConfig, logger zerolog.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case config.EmbeddingProviderHash:
		base = NewHashEmbedder(cfg.Dimensions)
	case config.EmbeddingProviderRemote, "":
		remote, err := NewRemoteEmbedder(cfg, logger)
		if err != nil {
			return nil, err
		}
		base = remote
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.QueryCacheSize <= 0 {
		return base, nil
	}
	cached, err := NewCachingEmbedder(base, cfg.QueryCacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// RemoteEmbedder calls an OpenAI-compatible embeddings endpoint, such as a
// text-embeddings-inference server hosting a sentence-transformers model
type RemoteEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewRemoteEmbedder creates an embedder backed by langchaingo's OpenAI client
func NewRemoteEmbedder(cfg config.EmbeddingConfig, logger zerolog.Logger) (*RemoteEmbedder, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.APIBase),
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &RemoteEmbedder{
		embedder:   embedder,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
		logger:     observability.Component(logger, "embedder").With().Str("model", cfg.Model).Logger(),
	}, nil
}

// Dimensions returns the configured vector length
func (e *RemoteEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedText embeds a single text. Blank text yields the zero vector without a network call.
func (e *RemoteEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dimensions), nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

// EmbedTexts embeds texts in order. Blank entries yield zero vectors and are
// never sent upstream.
func (e *RemoteEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	pending := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			vectors[i] = make([]float32, e.dimensions)
			continue
		}
		pending = append(pending, text)
		positions = append(positions, i)
	}

	if len(pending) == 0 {
		return vectors, nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	embedded, err := e.embedder.EmbedDocuments(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(pending), err)
	}
	if len(embedded) != len(pending) {
		return nil, fmt.Errorf("%w: requested %d, got %d", ErrEmbeddingCount, len(pending), len(embedded))
	}

	for j, vector := range embedded {
		vectors[positions[j]] = vector
	}

	e.logger.Debug().Int("texts", len(texts)).Int("embedded", len(pending)).Msg("embedded texts")
	return vectors, nil
}

func (e *RemoteEmbedder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
