package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/PizzaGo/internal/domain"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

type addItemRequest struct {
	PizzaID  int `json:"pizza_id"`
	Quantity int `json:"quantity"`
}

type updateItemRequest struct {
	ItemID   int `json:"item_id,omitempty"`
	Quantity int `json:"quantity"`
}

type orderRequest struct {
	Cart        *domain.Cart `json:"cart,omitempty"`
	CartItemIDs []int        `json:"cart_item_ids,omitempty"`
	Address     string       `json:"address"`
	Phone       string       `json:"phone"`
	Comment     string       `json:"comment"`
	PromoCode   string       `json:"promo_code"`
}

// Cart fetches the server-side cart.
func (c *Client) Cart(ctx context.Context) (domain.Cart, error) {
	data, err := c.do(ctx, "cart.get", http.MethodGet, c.dialect.Cart, nil, nil)
	if err != nil {
		return domain.Cart{}, err
	}
	cart, err := decodeCart(data)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// AddItem adds quantity units of a product to the cart.
func (c *Client) AddItem(ctx context.Context, productID, quantity int) error {
	_, err := c.do(ctx, "cart.add", http.MethodPost, c.dialect.AddPath, nil,
		addItemRequest{PizzaID: productID, Quantity: quantity})
	return err
}

// UpdateQuantity sets the quantity of a cart item.
func (c *Client) UpdateQuantity(ctx context.Context, itemID, quantity int) error {
	switch c.dialect.Update {
	case UpdateByBody:
		_, err := c.do(ctx, "cart.update", http.MethodPost, c.dialect.UpdatePath, nil,
			updateItemRequest{ItemID: itemID, Quantity: quantity})
		return err
	case UpdateByItemPath:
		_, err := c.do(ctx, "cart.update", http.MethodPatch, fmt.Sprintf(c.dialect.UpdatePath, itemID), nil,
			updateItemRequest{Quantity: quantity})
		return err
	default:
		return apperrors.Unsupported("changing quantities")
	}
}

// RemoveItem deletes a cart item.
func (c *Client) RemoveItem(ctx context.Context, itemID int) error {
	if !c.dialect.CanRemove() {
		return apperrors.Unsupported("removing items")
	}
	_, err := c.do(ctx, "cart.remove", http.MethodDelete, fmt.Sprintf(c.dialect.RemovePath, itemID), nil, nil)
	return err
}

// ClearCart empties the cart with the backend's clear endpoint. Backends
// without one return an UNSUPPORTED error and the caller removes items one
// by one.
func (c *Client) ClearCart(ctx context.Context) error {
	if !c.dialect.CanClear() {
		return apperrors.Unsupported("clearing the cart")
	}
	_, err := c.do(ctx, "cart.clear", http.MethodPost, c.dialect.ClearPath, nil, nil)
	return err
}

// ClearsAfterOrder reports whether the client must clear the server cart
// after a successful order.
func (c *Client) ClearsAfterOrder() bool {
	return c.dialect.ClearAfterOrder
}

// CreateOrder submits the cart snapshot with the checkout form.
func (c *Client) CreateOrder(ctx context.Context, cart domain.Cart, form domain.CheckoutForm) (domain.OrderConfirmation, error) {
	req := orderRequest{
		Address:   form.Address,
		Phone:     form.Phone,
		Comment:   form.Comment,
		PromoCode: form.PromoCode,
	}

	switch c.dialect.Order {
	case OrderCartSnapshot:
		snapshot := cart.Clone()
		req.Cart = &snapshot
	case OrderItemIDs:
		req.CartItemIDs = cart.ItemIDs()
	default:
		c.logger.InfoContext(ctx, "order confirmed locally",
			slog.String("dialect", c.dialect.Name),
			slog.Int("items", len(cart.Items)),
		)
		return domain.OrderConfirmation{Status: "confirmed", Total: cart.Total}, nil
	}

	data, err := c.do(ctx, "order.create", http.MethodPost, c.dialect.OrderPath, nil, req)
	if err != nil {
		return domain.OrderConfirmation{}, err
	}

	// The order exists once the backend answered 2xx; an odd body must not
	// turn it into a failure the user would retry.
	var conf domain.OrderConfirmation
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &conf); err != nil {
			c.logger.WarnContext(ctx, "unreadable order response, confirming without id",
				slog.String("dialect", c.dialect.Name),
				slog.String("error", err.Error()),
			)
			conf = domain.OrderConfirmation{Status: "created"}
		}
	}
	if conf.Total.IsZero() {
		conf.Total = cart.Total
	}
	return conf, nil
}
