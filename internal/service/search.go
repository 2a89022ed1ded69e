package service

import (
	"context"
	"fmt"

	"estatebot/internal/model"
	"estatebot/internal/utils"
)

// Messages returned when a search has nothing to show
const (
	NoListingsMessage  = "No listing available of this sort."
	NoBuildingsMessage = "No building available of this sort."
)

// ListingSearch finds listings whose descriptions are semantically close to a query
type ListingSearch struct {
	embedder Embedder
	ranker   *Ranker
	listings []model.Listing
	index    *VectorIndex
}

// NewListingSearch creates a listing search over a prebuilt index
func NewListingSearch(embedder Embedder, ranker *Ranker, listings []model.Listing, index *VectorIndex) (*ListingSearch, error) {
	if index.Len() != len(listings) {
		return nil, fmt.Errorf("%w: %d listings, %d vectors", ErrIndexMismatch, len(listings), index.Len())
	}
	return &ListingSearch{
		embedder: embedder,
		ranker:   ranker,
		listings: listings,
		index:    index,
	}, nil
}

// Match returns the top ranked listings, then drops those outside category.
// The category filter runs after ranking, so fewer than K listings may remain.
func (s *ListingSearch) Match(ctx context.Context, query string, category model.Category) ([]model.Listing, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	var matches []model.Listing
	for _, scored := range s.ranker.TopK(vector, s.index.Vectors()) {
		listing := s.listings[scored.Index]
		if category.IsSet() && listing.ListingType != category {
			continue
		}
		matches = append(matches, listing)
	}
	return matches, nil
}

// Search renders the matching listings, one line each
func (s *ListingSearch) Search(ctx context.Context, query string, category model.Category) (string, error) {
	matches, err := s.Match(ctx, query, category)
	if err != nil {
		return "", err
	}
	return FormatListings(matches), nil
}

// FormatListings renders listings numbered from 1, or NoListingsMessage when empty
func FormatListings(listings []model.Listing) string {
	lines := make([]string, 0, len(listings))
	for i, l := range listings {
		lines = append(lines, fmt.Sprintf("Listing %d: %s, %s, %s, %s - %s beds, %s baths, %s USD, %s sqft.",
			i+1, l.StreetAddress, l.City, l.State, l.ZipCode, l.Beds, l.Baths, l.Price, l.SquareFeet))
	}
	if text := utils.JoinLines(lines); text != "" {
		return text
	}
	return NoListingsMessage
}

// BuildingSearch finds buildings whose descriptions are semantically close to a query
type BuildingSearch struct {
	embedder  Embedder
	ranker    *Ranker
	buildings []model.Building
	index     *VectorIndex
}

// NewBuildingSearch creates a building search over a prebuilt index
func NewBuildingSearch(embedder Embedder, ranker *Ranker, buildings []model.Building, index *VectorIndex) (*BuildingSearch, error) {
	if index.Len() != len(buildings) {
		return nil, fmt.Errorf("%w: %d buildings, %d vectors", ErrIndexMismatch, len(buildings), index.Len())
	}
	return &BuildingSearch{
		embedder:  embedder,
		ranker:    ranker,
		buildings: buildings,
		index:     index,
	}, nil
}

// Match returns the top ranked buildings
func (s *BuildingSearch) Match(ctx context.Context, query string) ([]model.Building, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	var matches []model.Building
	for _, scored := range s.ranker.TopK(vector, s.index.Vectors()) {
		matches = append(matches, s.buildings[scored.Index])
	}
	return matches, nil
}

// Search renders the matching buildings, one line each
func (s *BuildingSearch) Search(ctx context.Context, query string) (string, error) {
	matches, err := s.Match(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatBuildings(matches), nil
}

// FormatBuildings renders buildings numbered from 1, or NoBuildingsMessage when empty
func FormatBuildings(buildings []model.Building) string {
	lines := make([]string, 0, len(buildings))
	for i, b := range buildings {
		lines = append(lines, fmt.Sprintf("Building %d: %s (%s floors), %s, %s - Built in %s.",
			i+1, b.Name, b.NoFloors, b.StreetAddress, b.Borough, b.YearBuilt))
	}
	if text := utils.JoinLines(lines); text != "" {
		return text
	}
	return NoBuildingsMessage
}
