package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PizzaGo/internal/domain"
)

// decodeCart accepts the object form {"items": [...], "total": ...} and the
// bare item list returned by the token dialect. A server-reported total is
// kept as is; it is derived only when the response carries none.
func decodeCart(data []byte) (domain.Cart, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return domain.EmptyCart(), nil
	}

	if data[0] == '[' {
		var items []domain.CartItem
		if err := json.Unmarshal(data, &items); err != nil {
			return domain.Cart{}, fmt.Errorf("decode cart items: %w", err)
		}
		return domain.NewCart(items), nil
	}

	var raw struct {
		Items   []domain.CartItem `json:"items"`
		Results []domain.CartItem `json:"results"`
		Total   *decimal.Decimal  `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart: %w", err)
	}

	items := raw.Items
	if items == nil {
		items = raw.Results
	}
	if raw.Total == nil {
		return domain.NewCart(items), nil
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return domain.Cart{Items: items, Total: *raw.Total}, nil
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]} page.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		if page.Results == nil {
			return []T{}, nil
		}
		return page.Results, nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
