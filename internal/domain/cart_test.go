package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id, productID int, price string, qty int) CartItem {
	return CartItem{
		ID:       id,
		Product:  Product{ID: productID, Name: "Pizza", Price: dec(price)},
		Quantity: qty,
	}
}

// ============================================================================
// Cart totals
// ============================================================================

func TestComputedTotal_MultipleItems(t *testing.T) {
	c := Cart{Items: []CartItem{
		item(1, 1, "395", 2),
		item(2, 2, "450.50", 1),
	}}
	// 790 + 450.50
	assert.True(t, c.ComputedTotal().Equal(dec("1240.50")))
	assert.Equal(t, 3, c.ItemCount())
}

func TestComputedTotal_Empty(t *testing.T) {
	assert.True(t, EmptyCart().ComputedTotal().IsZero())
	assert.True(t, Cart{}.ComputedTotal().IsZero())
}

func TestNewCart_DerivesTotal(t *testing.T) {
	c := NewCart([]CartItem{item(1, 1, "395", 1)})
	assert.True(t, c.Total.Equal(dec("395")))

	empty := NewCart(nil)
	assert.NotNil(t, empty.Items)
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Total.IsZero())
}

func TestFindItemAndIDs(t *testing.T) {
	c := Cart{Items: []CartItem{item(7, 1, "1", 1), item(9, 2, "1", 1)}}

	got, ok := c.FindItem(9)
	require.True(t, ok)
	assert.Equal(t, 2, got.Product.ID)

	_, ok = c.FindItem(42)
	assert.False(t, ok)
	assert.Equal(t, []int{7, 9}, c.ItemIDs())
}

func TestClone_Independent(t *testing.T) {
	c := Cart{Items: []CartItem{item(1, 1, "395", 1)}, Total: dec("395")}
	cp := c.Clone()
	cp.Items[0].Quantity = 5

	assert.Equal(t, 1, c.Items[0].Quantity)
}

// ============================================================================
// JSON decoding
// ============================================================================

func TestCartItem_Unmarshal_PizzaKey(t *testing.T) {
	var it CartItem
	err := json.Unmarshal([]byte(`{
		"id":       3,
		"pizza":    {"id": 1, "name": "Pepperoni", "price": "395.00", "rating": 4.5, "popularity": 10},
		"quantity": 2,
		"added_at": "2024-05-01T10:00:00Z"
	}`), &it)

	require.NoError(t, err)
	assert.Equal(t, 3, it.ID)
	assert.Equal(t, "Pepperoni", it.Product.Name)
	assert.True(t, it.Subtotal.Equal(dec("790")), "subtotal derived when absent")
	require.NotNil(t, it.AddedAt)
}

func TestCartItem_Unmarshal_ProductKeyAndSubtotal(t *testing.T) {
	var it CartItem
	err := json.Unmarshal([]byte(`{"product": {"id": 2, "name": "Margherita", "price": 395}, "quantity": 1, "subtotal": 395}`), &it)

	require.NoError(t, err)
	assert.Equal(t, 2, it.Product.ID)
	assert.True(t, it.Subtotal.Equal(dec("395")))
	assert.Zero(t, it.ID)
}

func TestCart_Unmarshal_LegacyShape(t *testing.T) {
	var c Cart
	err := json.Unmarshal([]byte(`{"items":[{"pizza":{"id":1,"name":"Pepperoni","price":395},"quantity":2,"subtotal":790}],"total":790}`), &c)

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.True(t, c.Total.Equal(dec("790")))
	assert.True(t, c.Total.Equal(c.ComputedTotal()))
}

func TestCartItem_Marshal_UsesPizzaKey(t *testing.T) {
	data, err := json.Marshal(item(1, 5, "395", 1))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pizza":{"id":5`)
	assert.NotContains(t, string(data), `"category"`)
}

// ============================================================================
// CategoryRef
// ============================================================================

func TestCategoryRef_Unmarshal(t *testing.T) {
	tests := map[string]CategoryRef{
		`"pizza"`:                           {Slug: "pizza"},
		`3`:                                 {Slug: "3"},
		`{"slug":"drinks","name":"Drinks"}`: {Slug: "drinks", Name: "Drinks"},
		`null`:                              {},
	}
	for in, want := range tests {
		var got CategoryRef
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	var bad CategoryRef
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
}

func TestCategoryRef_RoundTripInProduct(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Cola","price":"99.90","category":{"slug":"drinks","name":"Drinks"}}`), &p))
	assert.Equal(t, "drinks", p.Category.Slug)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":{"slug":"drinks","name":"Drinks"}`)
}
