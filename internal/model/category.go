package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is the listing-type code stored in the listings table
type Category int

// Known listing-type codes. CategoryNone means no restriction.
const (
	CategoryNone   Category = 0
	CategoryRental Category = 10
	CategorySale   Category = 20
)

// ParseCategoryCode converts a listing_type cell into a Category.
// Unknown or malformed codes map to CategoryNone, which never matches a filter.
func ParseCategoryCode(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryNone
	}
	// integer columns with missing cells are often exported as floats ("10.0")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return CategoryNone
	}
	switch c := Category(f); c {
	case CategoryRental, CategorySale:
		if float64(c) == f {
			return c
		}
	}
	return CategoryNone
}

// ParseCategoryName converts an API category name ("rental", "sale", "") into a Category
func ParseCategoryName(name string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return CategoryNone, nil
	case "rental", "rent":
		return CategoryRental, nil
	case "sale", "sell":
		return CategorySale, nil
	default:
		return CategoryNone, fmt.Errorf("unknown category %q, must be one of: rental, sale", name)
	}
}

// IsSet reports whether the category restricts results
func (c Category) IsSet() bool {
	return c != CategoryNone
}

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryRental:
		return "rental"
	case CategorySale:
		return "sale"
	case CategoryNone:
		return "none"
	default:
		return strconv.Itoa(int(c))
	}
}
