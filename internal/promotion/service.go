package promotion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/obs"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

// Promotion types and the product types an item promotion may target.
const (
	TypeItem  = "item"
	TypeOrder = "order"
)

var validProductTypes = map[string]bool{"book": true, "audio": true}

// promotionQueries is the slice of the repository the service needs.
type promotionQueries interface {
	Get(ctx context.Context, id uuid.UUID) (repo.Promotion, error)
	List(ctx context.Context) ([]repo.Promotion, error)
	Insert(ctx context.Context, p repo.Promotion) (uuid.UUID, error)
	Assign(ctx context.Context, orderID, promotionID uuid.UUID, position int) error
	NextPosition(ctx context.Context, orderID uuid.UUID) (int, error)
}

// orderStore covers the order-side effects of promotion assignment.
type orderStore interface {
	Get(ctx context.Context, id uuid.UUID) (repo.Order, error)
	SetOrderPromotion(ctx context.Context, orderID, promotionID uuid.UUID) error
}

// repriceEnqueuer schedules a background reprice after a mutation.
type repriceEnqueuer interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

// Service manages promotion records and their assignment to orders.
type Service struct {
	queries  promotionQueries
	orders   orderStore
	enqueuer repriceEnqueuer
	logger   zerolog.Logger
}

// ServiceConfig configures the promotion service.
type ServiceConfig struct {
	Queries  promotionQueries
	Orders   orderStore
	Enqueuer repriceEnqueuer
	Logger   zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries, orders: cfg.Orders, enqueuer: cfg.Enqueuer, logger: cfg.Logger}
}

// View is the serialized promotion.
type View struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Percent      int       `json:"percent"`
	ProductTypes []string  `json:"productTypes,omitempty"`
}

// CreateInput is the payload for creating a promotion.
type CreateInput struct {
	Name         string   `json:"name" validate:"required"`
	Type         string   `json:"type" validate:"required,oneof=item order"`
	Percent      int      `json:"percent" validate:"required,min=1,max=100"`
	ProductTypes []string `json:"productTypes" validate:"omitempty,dive,oneof=book audio"`
}

// Create stores a new promotion definition.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	if in.Type == TypeOrder && len(in.ProductTypes) > 0 {
		return View{}, common.Unprocessable("INVALID_PROMOTION", "order promotions cannot carry a product filter")
	}
	for _, t := range in.ProductTypes {
		if !validProductTypes[t] {
			return View{}, common.Unprocessable("INVALID_PROMOTION", "unknown product type "+t)
		}
	}
	id, err := s.queries.Insert(ctx, repo.Promotion{
		Name:         in.Name,
		Type:         in.Type,
		Percent:      in.Percent,
		ProductTypes: in.ProductTypes,
	})
	if err != nil {
		return View{}, common.Internal("insert promotion", err)
	}
	return View{ID: id, Name: in.Name, Type: in.Type, Percent: in.Percent, ProductTypes: in.ProductTypes}, nil
}

// List returns every promotion definition.
func (s *Service) List(ctx context.Context) ([]View, error) {
	rows, err := s.queries.List(ctx)
	if err != nil {
		return nil, common.Internal("list promotions", err)
	}
	out := make([]View, 0, len(rows))
	for _, p := range rows {
		out = append(out, View{ID: p.ID, Name: p.Name, Type: p.Type, Percent: p.Percent, ProductTypes: p.ProductTypes})
	}
	return out, nil
}

// Assign attaches a promotion to an order. An order promotion replaces the
// order's current one; an item promotion is appended at the end of the
// cascade. Assigning the same promotion twice is a no-op.
func (s *Service) Assign(ctx context.Context, orderID, promotionID uuid.UUID) error {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return common.NotFound("order not found")
		}
		return common.Internal("get order", err)
	}
	promo, err := s.queries.Get(ctx, promotionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return common.NotFound("promotion not found")
		}
		return common.Internal("get promotion", err)
	}

	switch promo.Type {
	case TypeOrder:
		if err := s.orders.SetOrderPromotion(ctx, orderID, promotionID); err != nil {
			s.countAssignment(promo.Type, "error")
			return common.Internal("set order promotion", err)
		}
	case TypeItem:
		position, err := s.queries.NextPosition(ctx, orderID)
		if err != nil {
			s.countAssignment(promo.Type, "error")
			return common.Internal("next assignment position", err)
		}
		if err := s.queries.Assign(ctx, orderID, promotionID, position); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				s.countAssignment(promo.Type, "duplicate")
				return nil
			}
			s.countAssignment(promo.Type, "error")
			return common.Internal("assign promotion", err)
		}
	default:
		s.countAssignment(promo.Type, "invalid")
		return common.Unprocessable("UNKNOWN_PROMOTION_TYPE", "promotion type "+promo.Type+" is not assignable")
	}
	s.countAssignment(promo.Type, "ok")

	if err := s.enqueuer.Enqueue(ctx, orderID); err != nil {
		// reads recompute, so a lost task only delays the persisted totals
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("enqueue reprice failed")
	}
	return nil
}

func (s *Service) countAssignment(promoType, result string) {
	if obs.PromotionAssignmentsTotal != nil {
		obs.PromotionAssignmentsTotal.WithLabelValues(promoType, result).Inc()
	}
}
