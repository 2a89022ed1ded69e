package service

import (
	"context"
	"strings"

	"estatebot/internal/model"
	"estatebot/internal/observability"

	"github.com/rs/zerolog"
)

// PlaceholderReply is the bot reply when the searches already found something
const PlaceholderReply = "No further info needed from GPT."

// Answer is the combined result of one chat query
type Answer struct {
	Query          model.Query
	Listings       string
	Buildings      string
	Amenities      string
	RelevantData   string
	UsedFallback   bool
	FallbackResult *FallbackResult
	Reply          string
}

// Text renders the answer the way the chat page displays it
func (a Answer) Text() string {
	return a.RelevantData + "\n\nChatbot: " + a.Reply
}

// Aggregator runs every search for a query and decides whether the fallback is needed
type Aggregator struct {
	listings  *ListingSearch
	buildings *BuildingSearch
	amenities *AmenitySearch
	fallback  Fallback
	logger    zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(
	listings *ListingSearch,
	buildings *BuildingSearch,
	amenities *AmenitySearch,
	fallback Fallback,
	logger zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		listings:  listings,
		buildings: buildings,
		amenities: amenities,
		fallback:  fallback,
		logger:    observability.Component(logger, "aggregator"),
	}
}

// Answer searches listings, buildings and amenities for q. When all three come
// back empty the fallback model is asked with the raw message instead.
// A failed semantic search is logged and shown as its empty-result message.
func (a *Aggregator) Answer(ctx context.Context, q model.Query) Answer {
	listings, err := a.listings.Search(ctx, q.Normalized, q.Category)
	if err != nil {
		a.logger.Error().Err(err).Msg("listing search failed")
		listings = NoListingsMessage
	}

	buildings, err := a.buildings.Search(ctx, q.Normalized)
	if err != nil {
		a.logger.Error().Err(err).Msg("building search failed")
		buildings = NoBuildingsMessage
	}

	amenities := a.amenities.Search(q.Raw)

	answer := Answer{
		Query:        q,
		Listings:     listings,
		Buildings:    buildings,
		Amenities:    amenities,
		RelevantData: strings.TrimSpace(listings + "\n\n" + buildings + "\n\n" + amenities),
		Reply:        PlaceholderReply,
	}

	if NeedsFallback(answer.RelevantData) {
		result := a.fallback.Reply(ctx, q.Raw)
		answer.UsedFallback = true
		answer.FallbackResult = &result
		answer.Reply = result.Message()
	}

	a.logger.Info().
		Str("category", q.Category.String()).
		Bool("fallback", answer.UsedFallback).
		Msg("answered query")

	return answer
}

// NeedsFallback reports whether relevant contains all three empty-result messages
func NeedsFallback(relevant string) bool {
	return strings.Contains(relevant, NoListingsMessage) &&
		strings.Contains(relevant, NoBuildingsMessage) &&
		strings.Contains(relevant, NoAmenitiesMessage)
}
