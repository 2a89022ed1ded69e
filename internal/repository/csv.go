package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"estatebot/internal/config"
	"estatebot/internal/model"
)

// ErrMissingColumn is returned when a table lacks a column the pipeline depends on
var ErrMissingColumn = errors.New("missing required column")

// Tables holds the four immutable datasets loaded at startup
type Tables struct {
	Listings          []model.Listing
	Buildings         []model.Building
	ListingAmenities  []model.Amenity
	BuildingAmenities []model.Amenity
}

// LoadTables reads all four CSV files described by cfg
func LoadTables(cfg config.DataConfig) (*Tables, error) {
	tables := &Tables{}
	var err error

	if tables.Listings, err = loadFile(cfg.ListingsPath(), ReadListings); err != nil {
		return nil, err
	}
	if tables.Buildings, err = loadFile(cfg.BuildingsPath(), ReadBuildings); err != nil {
		return nil, err
	}
	if tables.ListingAmenities, err = loadFile(cfg.ListingAmenitiesPath(), ReadListingAmenities); err != nil {
		return nil, err
	}
	if tables.BuildingAmenities, err = loadFile(cfg.BuildingAmenitiesPath(), ReadBuildingAmenities); err != nil {
		return nil, err
	}

	return tables, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// ReadListings parses the listings table. Missing descriptions become "".
func ReadListings(r io.Reader) ([]model.Listing, error) {
	rows, err := readRows(r, "description")
	if err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, model.Listing{
			StreetAddress: row.get("street_address"),
			City:          row.get("city"),
			State:         row.get("state"),
			ZipCode:       row.get("zip_code"),
			Beds:          row.get("beds"),
			Baths:         row.get("baths"),
			Price:         row.get("price"),
			SquareFeet:    row.get("square_feet"),
			Description:   row.get("description"),
			ListingType:   model.ParseCategoryCode(row.get("listing_type")),
		})
	}
	return listings, nil
}

// ReadBuildings parses the buildings table. Missing descriptions become "".
func ReadBuildings(r io.Reader) ([]model.Building, error) {
	rows, err := readRows(r, "description")
	if err != nil {
		return nil, err
	}

	buildings := make([]model.Building, 0, len(rows))
	for _, row := range rows {
		buildings = append(buildings, model.Building{
			Name:          row.get("name"),
			NoFloors:      row.get("no_floors"),
			StreetAddress: row.get("street_address"),
			Borough:       row.get("borough"),
			YearBuilt:     row.get("year_built"),
			Description:   row.get("description"),
		})
	}
	return buildings, nil
}

// ReadListingAmenities parses the listing amenities table
func ReadListingAmenities(r io.Reader) ([]model.Amenity, error) {
	return readAmenities(r, "listing_id")
}

// ReadBuildingAmenities parses the building amenities table
func ReadBuildingAmenities(r io.Reader) ([]model.Amenity, error) {
	return readAmenities(r, "building_id")
}

func readAmenities(r io.Reader, ownerColumn string) ([]model.Amenity, error) {
	rows, err := readRows(r, "name")
	if err != nil {
		return nil, err
	}

	amenities := make([]model.Amenity, 0, len(rows))
	for _, row := range rows {
		amenities = append(amenities, model.Amenity{
			Name:    row.get("name"),
			OwnerID: row.get(ownerColumn),
		})
	}
	return amenities, nil
}

// csvRow gives access to a record by header name
type csvRow struct {
	header map[string]int
	record []string
}

func (r csvRow) get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return r.record[i]
}

// readRows reads a headed CSV and checks that the required columns exist
func readRows(r io.Reader, required ...string) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRecord, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[name] = i
	}
	for _, column := range required {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, csvRow{header: header, record: record})
	}
	return rows, nil
}
