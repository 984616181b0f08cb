package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PizzaGo/pkg/money"
)

// CartItem is a single line of the server-side cart. Items are owned by the
// backend; the client only ever holds a copy.
type CartItem struct {
	ID       int             `json:"id"`
	Product  Product         `json:"pizza"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
	AddedAt  *time.Time      `json:"added_at,omitempty"`
}

// UnmarshalJSON accepts the product under either "pizza" or "product" and
// fills Subtotal from price x quantity when the backend omits it.
func (i *CartItem) UnmarshalJSON(data []byte) error {
	type alias CartItem
	var raw struct {
		alias
		Alt      *Product         `json:"product"`
		Subtotal *decimal.Decimal `json:"subtotal"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = CartItem(raw.alias)
	if raw.Alt != nil && i.Product.ID == 0 && i.Product.Name == "" {
		i.Product = *raw.Alt
	}
	if raw.Subtotal != nil {
		i.Subtotal = *raw.Subtotal
	} else {
		i.Subtotal = i.LineTotal()
	}
	return nil
}

// LineTotal returns price x quantity for the item.
func (i CartItem) LineTotal() decimal.Decimal {
	return money.LineTotal(i.Product.Price, i.Quantity)
}

// Cart is the client's copy of the server cart.
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// EmptyCart returns a cart with no items and a zero total.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}, Total: decimal.Zero}
}

// NewCart builds a cart from a bare item list, deriving the total.
func NewCart(items []CartItem) Cart {
	if items == nil {
		items = []CartItem{}
	}
	c := Cart{Items: items}
	c.Total = c.ComputedTotal()
	return c
}

// ComputedTotal sums price x quantity over all items.
func (c Cart) ComputedTotal() decimal.Decimal {
	lines := make([]decimal.Decimal, len(c.Items))
	for i, item := range c.Items {
		lines[i] = item.LineTotal()
	}
	return money.Sum(lines...)
}

// ItemCount returns the total number of units in the cart.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the item with the given id.
func (c Cart) FindItem(itemID int) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ItemIDs returns the ids of all items in order.
func (c Cart) ItemIDs() []int {
	ids := make([]int, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Clone returns a copy with its own item slice.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}
