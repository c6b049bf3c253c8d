package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/obs"
	"github.com/noah-isme/backend-bookshop/internal/pricing"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

// orderQueries is the slice of the repository the order read model needs.
type orderQueries interface {
	Get(ctx context.Context, id uuid.UUID) (repo.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]repo.OrderItemDetail, error)
}

// promotionQueries loads the promotion assignments feeding a pricing pass.
type promotionQueries interface {
	ListAssigned(ctx context.Context, orderID uuid.UUID) ([]repo.AssignedPromotion, error)
	GetOrderPromotion(ctx context.Context, orderID uuid.UUID) (repo.Promotion, error)
}

// pricingStore persists the result of a pricing pass.
type pricingStore interface {
	PersistPricing(ctx context.Context, o repo.Order, items []repo.OrderItem) error
}

// repriceLocker serializes reprice runs per order.
type repriceLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const repriceLockTTL = 30 * time.Second

// PGPricingStore persists pricing results in a single transaction.
type PGPricingStore struct {
	Pool *pgxpool.Pool
}

// PersistPricing writes every derived item field and the order totals.
func (s PGPricingStore) PersistPricing(ctx context.Context, o repo.Order, items []repo.OrderItem) error {
	return repo.InTx(ctx, s.Pool, func(tx pgx.Tx) error {
		orders := repo.OrdersRepo{DB: tx}
		for _, it := range items {
			if err := orders.UpdateItemPricing(ctx, it); err != nil {
				return err
			}
		}
		return orders.UpdateTotals(ctx, o)
	})
}

// Service loads order snapshots, runs the pricing engine over them, and
// persists or serves the result.
type Service struct {
	orders orderQueries
	promos promotionQueries
	store  pricingStore
	locker repriceLocker
	logger zerolog.Logger
}

// ServiceConfig configures the order service. Locker is optional and only
// exercised by the background worker.
type ServiceConfig struct {
	Orders orderQueries
	Promos promotionQueries
	Store  pricingStore
	Locker repriceLocker
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		orders: cfg.Orders,
		promos: cfg.Promos,
		store:  cfg.Store,
		locker: cfg.Locker,
		logger: cfg.Logger,
	}
}

// ItemView is the serialized order line. DiscountedUnitPrice is the fully
// discounted price a unit is sold at.
type ItemView struct {
	ID                            uuid.UUID   `json:"id"`
	Product                       ProductView `json:"product"`
	UnitPrice                     int64       `json:"unitPrice"`
	Discount                      *int        `json:"discount"`
	DiscountValue                 int64       `json:"discountValue"`
	DistributedOrderDiscountValue int64       `json:"distributedOrderDiscountValue"`
	DiscountedUnitPrice           int64       `json:"discountedUnitPrice"`
	Quantity                      int         `json:"quantity"`
	Total                         int64       `json:"total"`
	TaxValue                      *int64      `json:"taxValue"`
}

// ProductView is the product snapshot embedded in an order line.
type ProductView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// View is the serialized order.
type View struct {
	ID               uuid.UUID  `json:"id"`
	ItemsTotal       int64      `json:"itemsTotal"`
	AdjustmentsTotal int64      `json:"adjustmentsTotal"`
	TaxTotal         *int64     `json:"taxTotal"`
	Total            int64      `json:"total"`
	Items            []ItemView `json:"items"`
}

// Get loads an order, reprices it in memory, and returns the view. Reads
// always recompute so they never depend on the background worker.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (View, error) {
	header, items, calc, err := s.load(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	s.recalculate(calc, "read")

	view := View{
		ID:               header.ID,
		ItemsTotal:       calc.ItemsTotal,
		AdjustmentsTotal: calc.AdjustmentsTotal,
		TaxTotal:         calc.TaxTotal,
		Total:            calc.Total,
		Items:            make([]ItemView, 0, len(items)),
	}
	for i, detail := range items {
		priced := calc.Items[i]
		view.Items = append(view.Items, ItemView{
			ID:                            detail.ID,
			Product:                       ProductView{Code: detail.ProductCode, Name: detail.ProductName},
			UnitPrice:                     priced.UnitPrice,
			Discount:                      priced.DiscountPercent,
			DiscountValue:                 priced.DiscountValue,
			DistributedOrderDiscountValue: priced.DistributedOrderDiscount,
			DiscountedUnitPrice:           priced.FinalUnitPrice,
			Quantity:                      priced.Qty,
			Total:                         priced.Total,
			TaxValue:                      priced.TaxValue,
		})
	}
	return view, nil
}

// Reprice recomputes an order and persists every derived field. It backs the
// asynq reprice task.
func (s *Service) Reprice(ctx context.Context, orderID uuid.UUID) error {
	header, items, calc, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	s.recalculate(calc, "worker")

	updated := make([]repo.OrderItem, 0, len(items))
	for i, detail := range items {
		priced := calc.Items[i]
		line := detail.OrderItem
		line.DiscountPercent = priced.DiscountPercent
		line.DiscountValue = priced.DiscountValue
		line.DiscountedUnitPrice = priced.ItemDiscountedUnitPrice
		line.DistributedOrderDiscount = priced.DistributedOrderDiscount
		line.FinalUnitPrice = priced.FinalUnitPrice
		line.Total = priced.Total
		line.TaxValue = priced.TaxValue
		updated = append(updated, line)
	}

	header.ItemsTotal = calc.ItemsTotal
	header.AdjustmentsTotal = calc.AdjustmentsTotal
	header.TaxTotal = calc.TaxTotal
	header.Total = calc.Total

	if err := s.store.PersistPricing(ctx, header, updated); err != nil {
		return common.Internal("persist pricing", err)
	}
	s.logger.Info().
		Str("order_id", orderID.String()).
		Int64("total", header.Total).
		Int64("adjustments_total", header.AdjustmentsTotal).
		Msg("order repriced")
	return nil
}

func (s *Service) load(ctx context.Context, orderID uuid.UUID) (repo.Order, []repo.OrderItemDetail, *pricing.Order, error) {
	header, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Order{}, nil, nil, common.NotFound("order not found")
		}
		return repo.Order{}, nil, nil, common.Internal("get order", err)
	}
	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return repo.Order{}, nil, nil, common.Internal("list order items", err)
	}
	assigned, err := s.promos.ListAssigned(ctx, orderID)
	if err != nil {
		return repo.Order{}, nil, nil, common.Internal("list assigned promotions", err)
	}

	var orderPromo *pricing.Promotion
	if header.OrderPromotionID != nil {
		promo, err := s.promos.GetOrderPromotion(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.Order{}, nil, nil, common.Internal("get order promotion", err)
		}
		if err == nil {
			p := toPricingPromotion(promo)
			orderPromo = &p
		}
	}

	calc := &pricing.Order{
		Items:          make([]*pricing.Item, 0, len(items)),
		ItemPromotions: make([]pricing.Assignment, 0, len(assigned)),
		OrderPromotion: orderPromo,
	}
	for _, detail := range items {
		calc.Items = append(calc.Items, &pricing.Item{
			ProductType: pricing.ProductType(detail.ProductType),
			TaxRate:     detail.ProductTaxRate,
			Qty:         detail.Qty,
			UnitPrice:   detail.UnitPrice,
		})
	}
	for _, a := range assigned {
		calc.ItemPromotions = append(calc.ItemPromotions, pricing.Assignment{
			Promotion: toPricingPromotion(a.Promotion),
			Position:  a.Position,
		})
	}
	return header, items, calc, nil
}

func (s *Service) recalculate(calc *pricing.Order, trigger string) {
	start := time.Now()
	pricing.Recalculate(calc)

	if obs.OrderRecalcTotal != nil {
		obs.OrderRecalcTotal.WithLabelValues(trigger, "ok").Inc()
	}
	if obs.OrderRecalcDuration != nil {
		obs.OrderRecalcDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if obs.OrderDiscountDistributedCents != nil && calc.AdjustmentsTotal < 0 {
		obs.OrderDiscountDistributedCents.Add(float64(-calc.AdjustmentsTotal))
	}
	if obs.OrderDiscountRemainderCents != nil && calc.OrderPromotion != nil {
		nominal := calc.ItemsTotal - pricing.ApplyPercent(calc.ItemsTotal, calc.OrderPromotion.Percent)
		// AdjustmentsTotal is negative; leakage is the part of the nominal
		// discount no line could absorb.
		if leak := nominal + calc.AdjustmentsTotal; leak > 0 {
			obs.OrderDiscountRemainderCents.Add(float64(leak))
		}
	}
}

func toPricingPromotion(p repo.Promotion) pricing.Promotion {
	types := make([]pricing.ProductType, 0, len(p.ProductTypes))
	for _, t := range p.ProductTypes {
		types = append(types, pricing.ProductType(t))
	}
	return pricing.Promotion{
		Type:         pricing.PromotionType(p.Type),
		Percent:      p.Percent,
		ProductTypes: types,
	}
}
