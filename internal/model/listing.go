package model

// Listing represents one row of the listings table.
// Display fields keep the literal CSV text so formatted output matches the source file.
type Listing struct {
	StreetAddress string   `json:"street_address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       string   `json:"zip_code"`
	Beds          string   `json:"beds"`
	Baths         string   `json:"baths"`
	Price         string   `json:"price"`
	SquareFeet    string   `json:"square_feet"`
	Description   string   `json:"description"`
	ListingType   Category `json:"listing_type"`
}

// Building represents one row of the buildings table
type Building struct {
	Name          string `json:"name"`
	NoFloors      string `json:"no_floors"`
	StreetAddress string `json:"street_address"`
	Borough       string `json:"borough"`
	YearBuilt     string `json:"year_built"`
	Description   string `json:"description"`
}

// Amenity is a named feature attached to a listing or a building.
// OwnerID is only carried for display; searches never filter on it.
type Amenity struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id,omitempty"`
}

// ScoredMatch pairs a record position with its similarity to the query
type ScoredMatch struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}
