package service

import (
	"strings"

	"estatebot/internal/model"
	"estatebot/internal/utils"
)

// NoAmenitiesMessage is returned when neither amenity table matches
const NoAmenitiesMessage = "No amenities found for your query."

// AmenitySearch matches amenity names by case-insensitive containment
type AmenitySearch struct {
	listingAmenities  []model.Amenity
	buildingAmenities []model.Amenity
}

// NewAmenitySearch creates an amenity search over both amenity tables
func NewAmenitySearch(listingAmenities, buildingAmenities []model.Amenity) *AmenitySearch {
	return &AmenitySearch{
		listingAmenities:  listingAmenities,
		buildingAmenities: buildingAmenities,
	}
}

// Match returns the names of listing and building amenities containing the normalized query
func (s *AmenitySearch) Match(query string) (listing, building []string) {
	needle := utils.NormalizeText(query)
	return matchAmenities(s.listingAmenities, needle), matchAmenities(s.buildingAmenities, needle)
}

// Search renders the matching amenity names, one line per table
func (s *AmenitySearch) Search(query string) string {
	listing, building := s.Match(query)

	var lines []string
	if len(listing) > 0 {
		lines = append(lines, "Listing Amenities found: "+strings.Join(listing, ", "))
	}
	if len(building) > 0 {
		lines = append(lines, "Building Amenities found: "+strings.Join(building, ", "))
	}

	if text := utils.JoinLines(lines); text != "" {
		return text
	}
	return NoAmenitiesMessage
}

// matchAmenities keeps table order. Blank names are treated as missing and never match.
func matchAmenities(amenities []model.Amenity, needle string) []string {
	var names []string
	for _, amenity := range amenities {
		if amenity.Name == "" {
			continue
		}
		if utils.ContainsFold(amenity.Name, needle) {
			names = append(names, amenity.Name)
		}
	}
	return names
}
