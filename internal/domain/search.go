package domain

import (
	"github.com/shopspring/decimal"
)

// Sort keys understood by the catalog. A leading "-" sorts descending.
const (
	SortPrice          = "price"
	SortPriceDesc      = "-price"
	SortRating         = "rating"
	SortRatingDesc     = "-rating"
	SortPopularity     = "popularity"
	SortPopularityDesc = "-popularity"
	SortName           = "name"
)

// SortKeys lists every accepted sort key.
var SortKeys = []string{
	SortPrice, SortPriceDesc,
	SortRating, SortRatingDesc,
	SortPopularity, SortPopularityDesc,
	SortName,
}

// SearchQuery filters and orders the product list. Zero value matches everything.
type SearchQuery struct {
	Text     string
	Sort     string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

// IsZero reports whether the query has no criteria at all.
func (q SearchQuery) IsZero() bool {
	return q.Text == "" && q.Sort == "" && !q.MinPrice.Valid && !q.MaxPrice.Valid
}

// ValidSort reports whether key is empty or one of SortKeys.
func ValidSort(key string) bool {
	if key == "" {
		return true
	}
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}
