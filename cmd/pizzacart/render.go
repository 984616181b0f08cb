package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/utafrali/PizzaGo/internal/domain"
	"github.com/utafrali/PizzaGo/internal/tui"
	"github.com/utafrali/PizzaGo/pkg/money"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func renderProducts(w io.Writer, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "Nothing on the menu here")
		return
	}
	t := newTable("ID", "Pizza", "Category", "Price", "Rating")
	for _, p := range products {
		rating := ""
		if p.Rating > 0 {
			rating = strconv.FormatFloat(p.Rating, 'f', 1, 64)
		}
		category := p.Category.Name
		if category == "" {
			category = p.Category.Slug
		}
		t.Row(strconv.Itoa(p.ID), p.Name, category, money.Format(p.Price), rating)
	}
	fmt.Fprintln(w, t.Render())
}

func renderCart(w io.Writer, cart domain.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(w, tui.EmptyCartText)
		return
	}
	t := newTable("Item", "Pizza", "Price", "Qty", "Subtotal")
	for _, item := range cart.Items {
		t.Row(
			strconv.Itoa(item.ID),
			item.Product.Name,
			money.Format(item.Product.Price),
			strconv.Itoa(item.Quantity),
			money.Format(item.LineTotal()),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Total: %s (%d items)\n", money.Format(cart.Total), cart.ItemCount())
}

func renderOrder(w io.Writer, conf domain.OrderConfirmation) {
	if conf.OrderID == "" {
		fmt.Fprintln(w, "Order placed")
		return
	}
	fmt.Fprintf(w, "Order #%s", conf.OrderID)
	if conf.Status != "" {
		fmt.Fprintf(w, " (%s)", conf.Status)
	}
	if !conf.Total.IsZero() {
		fmt.Fprintf(w, " total %s", money.Format(conf.Total))
	}
	fmt.Fprintln(w)
}
