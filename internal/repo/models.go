package repo

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog row. Price is in minor units; TaxRate is a whole
// percent and nil for untaxed products.
type Product struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Type      string
	Price     int64
	TaxRate   *int
	CreatedAt time.Time
}

// Order is the persisted order header with its last computed totals.
// OrderPromotionID points at the single order scoped promotion, if any.
type Order struct {
	ID               uuid.UUID
	Status           string
	OrderPromotionID *uuid.UUID
	ItemsTotal       int64
	AdjustmentsTotal int64
	TaxTotal         *int64
	Total            int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is one persisted order line. UnitPrice is the price snapshot
// taken when the product entered the cart; the remaining money fields are
// outputs of the last pricing pass.
type OrderItem struct {
	ID                       uuid.UUID
	OrderID                  uuid.UUID
	ProductID                uuid.UUID
	Qty                      int
	UnitPrice                int64
	DiscountPercent          *int
	DiscountValue            int64
	DiscountedUnitPrice      int64
	DistributedOrderDiscount int64
	FinalUnitPrice           int64
	Total                    int64
	TaxValue                 *int64
}

// OrderItemDetail joins an order line with its product snapshot.
type OrderItemDetail struct {
	OrderItem
	ProductCode    string
	ProductName    string
	ProductType    string
	ProductTaxRate *int
}

// Promotion is a stored promotion definition. ProductTypes is empty for
// promotions without a product filter.
type Promotion struct {
	ID           uuid.UUID
	Name         string
	Type         string
	Percent      int
	ProductTypes []string
	CreatedAt    time.Time
}

// OrderPromotion links a promotion to an order at a cascade position.
type OrderPromotion struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	PromotionID uuid.UUID
	Position    int
}

// AssignedPromotion joins an assignment with its promotion definition.
type AssignedPromotion struct {
	Promotion
	Position int
}

// Order statuses.
const (
	OrderStatusOpen = "open"
)
