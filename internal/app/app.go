package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estatebot/internal/config"
	"estatebot/internal/model"
	"estatebot/internal/observability"
	"estatebot/internal/repository"
	"estatebot/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App holds everything built once at startup and shared by all requests
type App struct {
	Config     *config.Config
	Tables     *repository.Tables
	Intent     *service.IntentParser
	Aggregator *service.Aggregator

	logger  zerolog.Logger
	closers []func() error
}

// New loads the data tables, embeds every description and wires the search pipeline.
// Any failure to load data or build an index is returned; the caller should not serve.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Intent: service.NewIntentParser(),
		logger: observability.Component(logger, "app"),
	}

	tables, err := repository.LoadTables(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	a.Tables = tables
	a.logger.Info().
		Int("listings", len(tables.Listings)).
		Int("buildings", len(tables.Buildings)).
		Int("listing_amenities", len(tables.ListingAmenities)).
		Int("building_amenities", len(tables.BuildingAmenities)).
		Msg("data loaded")

	embedder, err := service.NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}

	indexOpts := []service.IndexOption{service.WithIndexLogger(a.logger)}
	if store := a.openEmbeddingStore(ctx); store != nil {
		indexOpts = append(indexOpts, service.WithEmbeddingStore(store, cacheModelKey(cfg.Embedding)))
	}

	listingIndex, buildingIndex, err := buildIndexes(ctx, embedder, tables, indexOpts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	ranker := service.NewRanker(cfg.Search.TopK)
	listings, err := service.NewListingSearch(embedder, ranker, tables.Listings, listingIndex)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	buildings, err := service.NewBuildingSearch(embedder, ranker, tables.Buildings, buildingIndex)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	fallback := service.NewFallbackClient(cfg.Fallback, service.WithFallbackLogger(logger))
	if cfg.Fallback.APIToken == "" {
		a.logger.Warn().Msg("HF_API_TOKEN is not set, fallback requests are sent without credentials")
	}

	a.Aggregator = service.NewAggregator(
		listings,
		buildings,
		service.NewAmenitySearch(tables.ListingAmenities, tables.BuildingAmenities),
		fallback,
		logger,
	)
	return a, nil
}

// Ask answers one chat message. The message is lowercased before any search;
// an explicit category overrides the one detected from the text.
func (a *App) Ask(ctx context.Context, msg string, category model.Category) service.Answer {
	query := a.Intent.ParseWithCategory(strings.ToLower(msg), category)
	return a.Aggregator.Answer(ctx, query)
}

// Close releases the resources opened by New
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openEmbeddingStore connects the optional embedding cache. The cache only
// saves startup time, so connection errors are logged and ignored.
func (a *App) openEmbeddingStore(ctx context.Context) service.EmbeddingStore {
	if !a.Config.CacheEnabled() {
		return nil
	}

	pg := a.Config.PostgreSQL
	store, err := repository.NewPostgresEmbeddingStore(ctx, pg.DSN, pg.MaxConnections, pg.MaxIdleConnections)
	if err != nil {
		a.logger.Warn().Err(err).Msg("embedding cache unavailable, embedding all records")
		return nil
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info().Msg("embedding cache connected")
	return store
}

// buildIndexes embeds listing and building descriptions concurrently
func buildIndexes(ctx context.Context, embedder service.Embedder, tables *repository.Tables, opts []service.IndexOption) (*service.VectorIndex, *service.VectorIndex, error) {
	var listingIndex, buildingIndex *service.VectorIndex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		texts := make([]string, len(tables.Listings))
		for i, l := range tables.Listings {
			texts[i] = l.Description
		}
		index, err := service.BuildIndex(gctx, embedder, texts, opts...)
		if err != nil {
			return fmt.Errorf("failed to index listings: %w", err)
		}
		listingIndex = index
		return nil
	})

	g.Go(func() error {
		texts := make([]string, len(tables.Buildings))
		for i, b := range tables.Buildings {
			texts[i] = b.Description
		}
		index, err := service.BuildIndex(gctx, embedder, texts, opts...)
		if err != nil {
			return fmt.Errorf("failed to index buildings: %w", err)
		}
		buildingIndex = index
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return listingIndex, buildingIndex, nil
}

// cacheModelKey identifies the vector space so caches from other models are never mixed in
func cacheModelKey(cfg config.EmbeddingConfig) string {
	if cfg.Provider == config.EmbeddingProviderHash {
		return fmt.Sprintf("hash/%d", cfg.Dimensions)
	}
	return cfg.Model
}
