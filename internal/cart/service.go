package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/obs"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

// Limits bound what a cart may hold before pricing ever runs.
type Limits struct {
	MinItemQty  int
	MaxItemQty  int
	MaxTotalQty int
	MaxDistinct int
}

// DefaultLimits mirrors the shop's standing cart policy.
var DefaultLimits = Limits{MinItemQty: 1, MaxItemQty: 20, MaxTotalQty: 50, MaxDistinct: 5}

// productQueries resolves products entering the cart.
type productQueries interface {
	GetByCode(ctx context.Context, code string) (repo.Product, error)
}

// orderStore covers the order mutations the cart performs.
type orderStore interface {
	FindOpen(ctx context.Context) (repo.Order, error)
	Create(ctx context.Context) (repo.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]repo.OrderItemDetail, error)
	UpsertItem(ctx context.Context, orderID, productID uuid.UUID, qty int, unitPrice int64) error
}

// repriceEnqueuer schedules a background reprice after a mutation.
type repriceEnqueuer interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

// Service admits products into the open order, enforcing the cart limits.
type Service struct {
	products productQueries
	orders   orderStore
	enqueuer repriceEnqueuer
	limits   Limits
	logger   zerolog.Logger
}

// ServiceConfig configures the cart service.
type ServiceConfig struct {
	Products productQueries
	Orders   orderStore
	Enqueuer repriceEnqueuer
	Limits   Limits
	Logger   zerolog.Logger
}

// NewService constructs a Service. Zero limits fall back to the defaults.
func NewService(cfg ServiceConfig) *Service {
	limits := cfg.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	return &Service{
		products: cfg.Products,
		orders:   cfg.Orders,
		enqueuer: cfg.Enqueuer,
		limits:   limits,
		logger:   cfg.Logger,
	}
}

// Result reports the cart state after an admission.
type Result struct {
	OrderID     uuid.UUID `json:"orderId"`
	ProductCode string    `json:"productCode"`
	Quantity    int       `json:"quantity"`
}

// AddProduct adds qty units of a product to the open order, creating the
// order when none exists. The unit price is snapshotted from the catalog on
// the line's first insert; later price changes never affect existing carts.
func (s *Service) AddProduct(ctx context.Context, productCode string, qty int) (Result, error) {
	if qty < s.limits.MinItemQty {
		return Result{}, s.reject("min_item_qty", "quantity is below the minimum per item")
	}

	product, err := s.products.GetByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Result{}, common.NotFound("product not found")
		}
		return Result{}, common.Internal("get product", err)
	}

	order, err := s.orders.FindOpen(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		order, err = s.orders.Create(ctx)
	}
	if err != nil {
		return Result{}, common.Internal("resolve open order", err)
	}

	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return Result{}, common.Internal("list order items", err)
	}

	lineQty := qty
	totalQty := qty
	distinct := 1
	for _, it := range items {
		totalQty += it.Qty
		if it.ProductID == product.ID {
			lineQty += it.Qty
		} else {
			distinct++
		}
	}

	switch {
	case lineQty > s.limits.MaxItemQty:
		return Result{}, s.reject("max_item_qty", "quantity exceeds the maximum per item")
	case totalQty > s.limits.MaxTotalQty:
		return Result{}, s.reject("max_total_qty", "cart exceeds the maximum total quantity")
	case distinct > s.limits.MaxDistinct:
		return Result{}, s.reject("max_distinct", "cart exceeds the maximum number of distinct products")
	}

	if err := s.orders.UpsertItem(ctx, order.ID, product.ID, qty, product.Price); err != nil {
		return Result{}, common.Internal("upsert order item", err)
	}

	if err := s.enqueuer.Enqueue(ctx, order.ID); err != nil {
		// reads recompute, so a lost task only delays the persisted totals
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("enqueue reprice failed")
	}

	return Result{OrderID: order.ID, ProductCode: product.Code, Quantity: lineQty}, nil
}

func (s *Service) reject(limit, message string) error {
	if obs.CartRejectionsTotal != nil {
		obs.CartRejectionsTotal.WithLabelValues(limit).Inc()
	}
	return common.Unprocessable("CART_LIMIT", message)
}
