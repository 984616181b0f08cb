package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/utafrali/PizzaGo/internal/cartsync"
	"github.com/utafrali/PizzaGo/internal/domain"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
	"github.com/utafrali/PizzaGo/pkg/money"
)

// EmptyCartText is shown for a loaded cart without items.
const EmptyCartText = "Your cart is empty"

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch m.page {
	case pageCatalog:
		b.WriteString(m.viewCatalog())
	case pageCart:
		b.WriteString(m.viewCart())
	case pageCheckout:
		b.WriteString(m.viewCheckout())
	}

	if notes := m.viewNotifications(); notes != "" {
		b.WriteString("\n")
		b.WriteString(notes)
	}
	b.WriteString("\n")
	b.WriteString(m.viewHelp())
	return b.String()
}

func (m *Model) viewHeader() string {
	tabs := []string{"Menu", "Cart"}
	active := 0
	if m.page != pageCatalog {
		active = 1
	}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if i == active {
			rendered[i] = m.styles.ActiveTab.Render(t)
		} else {
			rendered[i] = m.styles.Tab.Render(t)
		}
	}

	cart := m.snap.Cart
	badge := m.styles.CartBadge.Render(fmt.Sprintf("Cart %d · %s", cart.ItemCount(), money.Format(cart.Total)))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Title.Render("PizzaGo"), "  ",
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...), "  ",
		badge,
	)
}

func (m *Model) viewCatalog() string {
	var b strings.Builder
	if len(m.categories) > 0 {
		names := make([]string, len(m.categories))
		for i, c := range m.categories {
			if c.Slug == m.category {
				names[i] = m.styles.Selected.Render(c.Name)
			} else {
				names[i] = m.styles.Muted.Render(c.Name)
			}
		}
		b.WriteString(strings.Join(names, "  "))
		b.WriteString("\n\n")
	}

	switch {
	case m.menuBusy && len(m.products) == 0:
		b.WriteString(m.spinner.View() + " Loading menu...")
		return b.String()
	case m.menuErr != nil && len(m.products) == 0:
		b.WriteString(m.styles.Error.Render(apperrors.UserMessage(m.menuErr, "Could not load the menu")))
		return b.String()
	case len(m.products) == 0:
		b.WriteString(m.styles.Muted.Render("Nothing on the menu here"))
		return b.String()
	}

	for i, p := range m.products {
		b.WriteString(m.productLine(p, i == m.cursor))
		b.WriteString("\n")
	}
	if p := m.products[m.cursor]; p.Description != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(p.Description))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) productLine(p domain.Product, selected bool) string {
	line := fmt.Sprintf("%-28s %12s", p.Name, money.Format(p.Price))
	if p.Rating > 0 {
		line += fmt.Sprintf("  ★ %.1f", p.Rating)
	}
	if selected {
		return m.styles.Selected.Render("› " + line)
	}
	return m.styles.Item.Render("  " + line)
}

func (m *Model) viewCart() string {
	snap := m.snap
	switch snap.State {
	case cartsync.StateIdle:
		return m.styles.Muted.Render("Cart not loaded yet")
	case cartsync.StateLoading:
		if snap.Cart.IsEmpty() {
			return m.spinner.View() + " Loading cart..."
		}
	case cartsync.StateError:
		msg := m.styles.Error.Render(apperrors.UserMessage(snap.Err, "Could not load the cart"))
		if snap.Cart.IsEmpty() {
			return msg
		}
		return msg + "\n\n" + m.cartLines(snap.Cart)
	}

	if snap.Cart.IsEmpty() {
		return m.styles.Muted.Render(EmptyCartText)
	}
	out := m.cartLines(snap.Cart)
	if snap.State == cartsync.StateLoading {
		out += "\n" + m.spinner.View() + " Updating..."
	}
	return out
}

func (m *Model) cartLines(cart domain.Cart) string {
	var b strings.Builder
	for i, item := range cart.Items {
		line := fmt.Sprintf("%-24s %10s x %-3d %12s",
			item.Product.Name,
			money.Format(item.Product.Price),
			item.Quantity,
			money.Format(item.LineTotal()),
		)
		if i == m.cartCursor {
			b.WriteString(m.styles.Selected.Render("› " + line))
		} else {
			b.WriteString(m.styles.Item.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Total.Render("Total: " + money.Format(cart.Total)))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewCheckout() string {
	labels := [fieldCount]string{
		fieldAddress: "Address*",
		fieldPhone:   "Phone*",
		fieldComment: "Comment",
		fieldPromo:   "Promo code",
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Checkout"))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		b.WriteString(m.styles.Label.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Total.Render("To pay: " + money.Format(m.snap.Cart.Total)))
	if m.submitting {
		b.WriteString("  " + m.spinner.View() + " Placing order...")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewNotifications() string {
	lines := make([]string, 0, len(m.notes))
	for _, n := range m.notes {
		if n.IsError() {
			lines = append(lines, m.styles.Error.Render("✗ "+n.Message))
		} else {
			lines = append(lines, m.styles.Success.Render("✓ "+n.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewHelp() string {
	switch m.page {
	case pageCart:
		return m.help.View(cartHelp(m.keys))
	case pageCheckout:
		return m.help.View(formHelp(m.keys))
	default:
		return m.help.View(catalogHelp(m.keys))
	}
}
