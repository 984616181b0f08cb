package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/utafrali/PizzaGo/internal/domain"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

// Products lists the full menu.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	data, err := c.do(ctx, "products.list", http.MethodGet, c.dialect.Products, nil, nil)
	if err != nil {
		return nil, err
	}
	products, err := decodeList[domain.Product](data)
	if err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	if !c.dialect.HasCategories() {
		return nil, apperrors.Unsupported("category navigation")
	}
	data, err := c.do(ctx, "categories.list", http.MethodGet, c.dialect.Categories, nil, nil)
	if err != nil {
		return nil, err
	}
	categories, err := decodeList[domain.Category](data)
	if err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// CategoryProducts lists the products of one category.
func (c *Client) CategoryProducts(ctx context.Context, slug string) ([]domain.Product, error) {
	if c.dialect.CategoryProducts == "" {
		return nil, apperrors.Unsupported("category navigation")
	}
	path := fmt.Sprintf(c.dialect.CategoryProducts, url.PathEscape(slug))
	data, err := c.do(ctx, "categories.products", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	products, err := decodeList[domain.Product](data)
	if err != nil {
		return nil, fmt.Errorf("decode category products: %w", err)
	}
	return products, nil
}

// Search asks the backend to filter and order products. Backends without
// a search surface return an UNSUPPORTED error.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Product, error) {
	params := url.Values{}
	switch c.dialect.Search {
	case SearchEndpoint:
		params.Set("q", q.Text)
		params.Set("sort", q.Sort)
		if q.MinPrice.Valid {
			params.Set("min_price", q.MinPrice.Decimal.String())
		}
		if q.MaxPrice.Valid {
			params.Set("max_price", q.MaxPrice.Decimal.String())
		}
	case SearchListFilter:
		if q.Text != "" {
			params.Set("search", q.Text)
		}
		if q.Sort != "" {
			params.Set("ordering", q.Sort)
		}
	default:
		return nil, apperrors.Unsupported("product search")
	}

	data, err := c.do(ctx, "products.search", http.MethodGet, c.dialect.SearchPath, params, nil)
	if err != nil {
		return nil, err
	}
	products, err := decodeList[domain.Product](data)
	if err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return products, nil
}
