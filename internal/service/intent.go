package service

import (
	"strings"

	"estatebot/internal/model"
	"estatebot/internal/utils"
)

// IntentParser turns a raw chat message into a Query
type IntentParser struct{}

// NewIntentParser creates a new intent parser
func NewIntentParser() *IntentParser {
	return &IntentParser{}
}

// Parse normalizes msg and detects its category. Raw keeps msg as given.
func (p *IntentParser) Parse(msg string) model.Query {
	return model.Query{
		Raw:        msg,
		Normalized: utils.NormalizeText(msg),
		Category:   p.DetectCategory(msg),
	}
}

// ParseWithCategory parses msg but uses category instead of detecting one when it is set
func (p *IntentParser) ParseWithCategory(msg string, category model.Category) model.Query {
	query := p.Parse(msg)
	if category.IsSet() {
		query.Category = category
	}
	return query
}

// DetectCategory looks for rental or sale keywords. Rental wins when both appear.
func (p *IntentParser) DetectCategory(msg string) model.Category {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rental"):
		return model.CategoryRental
	case strings.Contains(lower, "sale"), strings.Contains(lower, "to be sold"):
		return model.CategorySale
	default:
		return model.CategoryNone
	}
}
