package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

// productQueries is the slice of the repository the catalog needs.
type productQueries interface {
	List(ctx context.Context, limit, offset int) ([]repo.Product, error)
	Count(ctx context.Context) (int, error)
	GetByCode(ctx context.Context, code string) (repo.Product, error)
}

// Product is the public catalog representation of a product.
type Product struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Price   int64  `json:"price"`
	TaxRate *int   `json:"taxRate,omitempty"`
}

// ListResult carries one catalog page with pagination metadata.
type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// Service serves the product catalog, backed by Postgres with a Redis JSON
// cache in front of the list query.
type Service struct {
	queries productQueries
	cache   *Cache
	logger  zerolog.Logger
}

// ServiceConfig configures the catalog service.
type ServiceConfig struct {
	Queries productQueries
	Cache   *Cache
	Logger  zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries, cache: cfg.Cache, logger: cfg.Logger}
}

const maxPageSize = 100

// ListProducts returns one page of the catalog ordered by product code.
func (s *Service) ListProducts(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}

	key := fmt.Sprintf("catalog:products:p%d:l%d", page, limit)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}

	rows, err := s.queries.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, common.Internal("list products", err)
	}
	total, err := s.queries.Count(ctx)
	if err != nil {
		return ListResult{}, common.Internal("count products", err)
	}

	result := ListResult{Items: make([]Product, 0, len(rows)), Total: total, Page: page, Limit: limit}
	for _, row := range rows {
		result.Items = append(result.Items, toProduct(row))
	}

	if err := s.cache.SetJSON(ctx, key, result); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return result, nil
}

// GetProduct returns a single product by catalog code.
func (s *Service) GetProduct(ctx context.Context, code string) (Product, error) {
	row, err := s.queries.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Product{}, common.NotFound("product not found")
		}
		return Product{}, common.Internal("get product", err)
	}
	return toProduct(row), nil
}

func toProduct(row repo.Product) Product {
	return Product{
		Code:    row.Code,
		Name:    row.Name,
		Type:    row.Type,
		Price:   row.Price,
		TaxRate: row.TaxRate,
	}
}
