package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Backends encode price either as a JSON number
// or as a decimal string; decimal.Decimal accepts both.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
	Popularity  int             `json:"popularity,omitempty"`
	Category    CategoryRef     `json:"category,omitzero"`
}

// Category groups products in the session-dialect storefront.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// DefaultCategory is shown when no category is selected.
const DefaultCategory = "pizza"

// CategoryRef is a product's category as the backend reports it: a slug,
// a numeric id, or an embedded {"slug", "name"} object.
type CategoryRef struct {
	Slug string
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CategoryRef{Slug: s}
		return nil
	case '{':
		var cat Category
		if err := json.Unmarshal(data, &cat); err != nil {
			return err
		}
		*c = CategoryRef{Slug: cat.Slug, Name: cat.Name}
		return nil
	default:
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("category: unsupported value %s", data)
		}
		*c = CategoryRef{Slug: strconv.FormatInt(n, 10)}
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (c CategoryRef) MarshalJSON() ([]byte, error) {
	if c.Slug == "" && c.Name == "" {
		return []byte("null"), nil
	}
	if c.Name == "" {
		return json.Marshal(c.Slug)
	}
	return json.Marshal(Category{Slug: c.Slug, Name: c.Name})
}

// IsZero reports whether the category is unset.
func (c CategoryRef) IsZero() bool {
	return c.Slug == "" && c.Name == ""
}
