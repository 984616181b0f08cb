package storefront

import (
	"fmt"
	"strings"
)

// UpdateStyle says how a backend changes an item quantity.
type UpdateStyle int

const (
	// UpdateUnsupported means quantities cannot be changed.
	UpdateUnsupported UpdateStyle = iota
	// UpdateByBody posts {item_id, quantity} to a fixed path.
	UpdateByBody
	// UpdateByItemPath patches {quantity} to the item's own path.
	UpdateByItemPath
)

// SearchStyle says how a backend searches products.
type SearchStyle int

const (
	SearchUnsupported SearchStyle = iota
	// SearchEndpoint uses a dedicated endpoint with q, sort, min_price, max_price.
	SearchEndpoint
	// SearchListFilter uses ?search=&ordering= on the product list.
	SearchListFilter
)

// OrderStyle says what an order request carries.
type OrderStyle int

const (
	// OrderLocal confirms locally without contacting the backend.
	OrderLocal OrderStyle = iota
	// OrderCartSnapshot posts the whole cart with the form fields.
	OrderCartSnapshot
	// OrderItemIDs posts cart_item_ids with the form fields.
	OrderItemIDs
)

// Dialect describes the REST surface of one storefront backend.
// Empty paths mark operations the backend does not offer.
type Dialect struct {
	Name string

	Products         string
	Categories       string
	CategoryProducts string // fmt pattern taking the category slug
	Search           SearchStyle
	SearchPath       string

	Cart       string
	AddPath    string
	Update     UpdateStyle
	UpdatePath string // fixed path or fmt pattern taking the item id
	RemovePath string // fmt pattern taking the item id
	ClearPath  string

	Order     OrderStyle
	OrderPath string

	// ClearAfterOrder is set when the backend leaves the cart intact after
	// an order and the client must clear it.
	ClearAfterOrder bool

	// CSRF makes mutating requests carry the csrftoken cookie as X-CSRFToken.
	CSRF bool

	// TokenAuth sends "Authorization: Token <key>".
	TokenAuth bool
}

// SessionDialect is the Django storefront with cookie sessions and CSRF.
func SessionDialect() Dialect {
	return Dialect{
		Name:             "session",
		Products:         "/api/pizzas/",
		Categories:       "/api/categories/",
		CategoryProducts: "/api/categories/%s/products/",
		Search:           SearchEndpoint,
		SearchPath:       "/api/search/",
		Cart:             "/cart",
		AddPath:          "/api/cart/",
		Update:           UpdateByBody,
		UpdatePath:       "/api/cart/update/",
		RemovePath:       "/api/cart/%d/",
		ClearPath:        "/cart/clear",
		Order:            OrderCartSnapshot,
		OrderPath:        "/api/orders/",
		ClearAfterOrder:  true,
		CSRF:             true,
	}
}

// TokenDialect is the Django REST Framework API with token authentication.
func TokenDialect() Dialect {
	return Dialect{
		Name:            "token",
		Products:        "/api/pizzas/",
		Search:          SearchListFilter,
		SearchPath:      "/api/pizzas/",
		Cart:            "/api/cart/",
		AddPath:         "/api/cart/",
		Update:          UpdateByItemPath,
		UpdatePath:      "/api/cart/%d/",
		RemovePath:      "/api/cart/%d/",
		Order:           OrderItemIDs,
		OrderPath:       "/api/orders/create/",
		ClearAfterOrder: false,
		TokenAuth:       true,
	}
}

// LegacyDialect is the FastAPI demo backend.
func LegacyDialect() Dialect {
	return Dialect{
		Name:            "legacy",
		Products:        "/pizzas",
		Cart:            "/cart",
		AddPath:         "/cart/add",
		ClearPath:       "/cart/clear",
		Order:           OrderLocal,
		ClearAfterOrder: true,
	}
}

// DialectByName returns the preset with the given name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "session", "":
		return SessionDialect(), nil
	case "token":
		return TokenDialect(), nil
	case "legacy":
		return LegacyDialect(), nil
	default:
		return Dialect{}, fmt.Errorf("unknown storefront dialect %q", name)
	}
}

// CanUpdate reports whether quantities can be changed in place.
func (d Dialect) CanUpdate() bool { return d.Update != UpdateUnsupported && d.UpdatePath != "" }

// CanRemove reports whether single items can be deleted.
func (d Dialect) CanRemove() bool { return d.RemovePath != "" }

// CanClear reports whether the backend has a clear-cart endpoint.
func (d Dialect) CanClear() bool { return d.ClearPath != "" }

// HasCategories reports whether category navigation is available.
func (d Dialect) HasCategories() bool { return d.Categories != "" }
