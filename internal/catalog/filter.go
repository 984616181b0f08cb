package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/utafrali/PizzaGo/internal/domain"
)

// matchText reports whether the product name or description contains text,
// ignoring case.
func matchText(p domain.Product, text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), text) ||
		strings.Contains(strings.ToLower(p.Description), text)
}

func inPriceRange(p domain.Product, q domain.SearchQuery) bool {
	if q.MinPrice.Valid && p.Price.LessThan(q.MinPrice.Decimal) {
		return false
	}
	if q.MaxPrice.Valid && p.Price.GreaterThan(q.MaxPrice.Decimal) {
		return false
	}
	return true
}

// filterProducts returns the products matching q. withText controls whether
// the text criterion is applied; backends that search server-side have
// already applied it with their own matching rules.
func filterProducts(products []domain.Product, q domain.SearchQuery, withText bool) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if withText && !matchText(p, q.Text) {
			continue
		}
		if !inPriceRange(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortProducts orders products in place by key. Unknown or empty keys keep
// the backend order. Ties keep their relative order.
func sortProducts(products []domain.Product, key string) {
	desc := strings.HasPrefix(key, "-")
	field := strings.TrimPrefix(key, "-")

	var compare func(a, b domain.Product) int
	switch field {
	case domain.SortPrice:
		compare = func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }
	case domain.SortRating:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Rating, b.Rating) }
	case domain.SortPopularity:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Popularity, b.Popularity) }
	case domain.SortName:
		compare = func(a, b domain.Product) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	default:
		return
	}

	slices.SortStableFunc(products, func(a, b domain.Product) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// inCategory reports whether the product belongs to the category slug.
func inCategory(p domain.Product, slug string) bool {
	return strings.EqualFold(p.Category.Slug, slug)
}

// categoriesOf collects the distinct categories referenced by products, in
// first-seen order.
func categoriesOf(products []domain.Product) []domain.Category {
	seen := make(map[string]bool)
	out := make([]domain.Category, 0)
	for _, p := range products {
		slug := p.Category.Slug
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		name := p.Category.Name
		if name == "" {
			name = slug
		}
		out = append(out, domain.Category{Slug: slug, Name: name})
	}
	return out
}
