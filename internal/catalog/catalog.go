// Package catalog lists and searches the storefront menu. Operations the
// backend does not offer are answered by filtering and sorting the full
// product list locally. Reads may go through an optional cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/utafrali/PizzaGo/internal/domain"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
	"github.com/utafrali/PizzaGo/pkg/logger"
)

// Source is the remote catalog.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	CategoryProducts(ctx context.Context, slug string) ([]domain.Product, error)
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Product, error)
}

// Service answers catalog queries.
type Service struct {
	src    Source
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService creates a catalog service. cache may be nil.
func NewService(src Source, cache Cache, logger *slog.Logger) *Service {
	return &Service{src: src, cache: cache, logger: logger}
}

// Products lists the full menu.
func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	return cached(ctx, s, keyProducts, s.src.Products)
}

// Categories lists the product categories. Backends without a category
// endpoint get the categories referenced by the products.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := cached(ctx, s, keyCategories, s.src.Categories)
	if !errors.Is(err, apperrors.ErrUnsupported) {
		return categories, err
	}

	products, perr := s.Products(ctx)
	if perr != nil {
		return nil, perr
	}
	categories = categoriesOf(products)
	if len(categories) == 0 {
		return nil, err
	}
	return categories, nil
}

// ByCategory lists the products of one category. An empty slug selects
// domain.DefaultCategory.
func (s *Service) ByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	if slug == "" {
		slug = domain.DefaultCategory
	}
	products, err := cached(ctx, s, keyCategory+slug, func(ctx context.Context) ([]domain.Product, error) {
		return s.src.CategoryProducts(ctx, slug)
	})
	if !errors.Is(err, apperrors.ErrUnsupported) {
		return products, err
	}

	all, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if inCategory(p, slug) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search filters and orders the menu. The backend search is used when the
// storefront has one; the price range and ordering are then enforced locally
// as well because not every backend honors them. Without a backend search
// the full list is filtered locally.
func (s *Service) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Product, error) {
	if !domain.ValidSort(q.Sort) {
		return nil, apperrors.Validation(0, "", map[string][]string{
			"sort": {fmt.Sprintf("unknown sort key %q", q.Sort)},
		})
	}
	if q.MinPrice.Valid && q.MaxPrice.Valid && q.MinPrice.Decimal.GreaterThan(q.MaxPrice.Decimal) {
		return nil, apperrors.Validation(0, "", map[string][]string{
			"min_price": {"must not exceed max_price"},
		})
	}
	if q.IsZero() {
		return s.Products(ctx)
	}

	products, err := s.src.Search(ctx, q)
	withText := false
	if errors.Is(err, apperrors.ErrUnsupported) {
		logger.WithContext(ctx, s.logger).DebugContext(ctx, "filtering catalog locally",
			slog.String("query", q.Text),
			slog.String("sort", q.Sort),
		)
		products, err = s.Products(ctx)
		withText = true
	}
	if err != nil {
		return nil, err
	}

	out := filterProducts(products, q, withText)
	sortProducts(out, q.Sort)
	return out, nil
}

// cached reads key from the cache and falls back to load on a miss.
// Concurrent misses for the same key share one load. Cache failures are
// logged and otherwise ignored.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	log := logger.WithContext(ctx, s.logger)

	var hit []T
	found, err := s.cache.Get(ctx, key, &hit)
	switch {
	case err != nil:
		cacheRequestsTotal.WithLabelValues(cacheError).Inc()
		log.WarnContext(ctx, "catalog cache read failed, using storefront",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	case found:
		cacheRequestsTotal.WithLabelValues(cacheHit).Inc()
		return hit, nil
	default:
		cacheRequestsTotal.WithLabelValues(cacheMiss).Inc()
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, items); err != nil {
			log.WarnContext(ctx, "catalog cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.DebugContext(ctx, "shared catalog load", slog.String("key", key))
	}
	return v.([]T), nil
}
