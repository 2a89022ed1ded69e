package service

import (
	"testing"

	"estatebot/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAmenitySearch(t *testing.T) {
	search := NewAmenitySearch(
		[]model.Amenity{{Name: "Rooftop Pool"}, {Name: "Gym"}, {Name: ""}, {Name: "Pool Table"}},
		[]model.Amenity{{Name: "Doorman"}, {Name: "Indoor pool"}},
	)

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "matches both tables in order",
			query:    "pool",
			expected: "Listing Amenities found: Rooftop Pool, Pool Table\nBuilding Amenities found: Indoor pool",
		},
		{
			name:     "case and surrounding space are ignored",
			query:    "  POOL ",
			expected: "Listing Amenities found: Rooftop Pool, Pool Table\nBuilding Amenities found: Indoor pool",
		},
		{
			name:     "only building table",
			query:    "door",
			expected: "Building Amenities found: Doorman, Indoor pool",
		},
		{
			name:     "only listing table",
			query:    "gym",
			expected: "Listing Amenities found: Gym",
		},
		{
			name:     "no match",
			query:    "sauna",
			expected: NoAmenitiesMessage,
		},
		{
			name:     "whole sentence does not match short names",
			query:    "do you have a pool",
			expected: NoAmenitiesMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, search.Search(tt.query))
		})
	}
}

func TestAmenitySearch_EmptyQueryMatchesEveryNamedAmenity(t *testing.T) {
	search := NewAmenitySearch([]model.Amenity{{Name: "Gym"}, {Name: ""}}, nil)

	listing, building := search.Match("")
	assert.Equal(t, []string{"Gym"}, listing)
	assert.Empty(t, building)
}

func TestAmenitySearch_EmptyTables(t *testing.T) {
	assert.Equal(t, NoAmenitiesMessage, NewAmenitySearch(nil, nil).Search("pool"))
}
