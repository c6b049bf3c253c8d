package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// ProductType is the closed set of product categories promotions can target.
type ProductType string

// Known product types.
const (
	ProductTypeBook  ProductType = "book"
	ProductTypeAudio ProductType = "audio"
)

// PromotionType distinguishes item-scoped from order-scoped promotions.
type PromotionType string

const (
	// PromotionTypeItem marks promotions applied per matching line item.
	PromotionTypeItem PromotionType = "item"
	// PromotionTypeOrder marks the single promotion applied to the whole order.
	PromotionTypeOrder PromotionType = "order"
)

// Promotion is the snapshot of a promotion record the engine operates on.
type Promotion struct {
	Type PromotionType
	// Percent is expected in [0,100]; values outside are clamped, never rejected.
	Percent int
	// ProductTypes limits an item promotion to matching products. Empty means
	// the promotion applies to every item. Ignored for order promotions.
	ProductTypes []ProductType
}

// AppliesTo reports whether an item promotion targets the given product type.
func (p Promotion) AppliesTo(t ProductType) bool {
	if p.Type != PromotionTypeItem {
		return false
	}
	if len(p.ProductTypes) == 0 {
		return true
	}
	for _, pt := range p.ProductTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// Assignment links an item promotion to the order with an explicit position.
// Assignments cascade in ascending position order.
type Assignment struct {
	Promotion Promotion
	Position  int
}

// Item is one order line. UnitPrice and Qty are inputs; the remaining fields
// are derived and fully overwritten on every pricing pass.
type Item struct {
	ProductType ProductType
	// TaxRate is the tax-inclusive rate percent of the product, nil when the
	// product is untaxed.
	TaxRate   *int
	Qty       int
	UnitPrice Money

	// DiscountPercent is the effective item-level discount percent, nil when
	// no item promotion changed the price.
	DiscountPercent *int
	// DiscountValue is the per-unit amount saved by item-level promotions.
	DiscountValue Money
	// ItemDiscountedUnitPrice is the unit price after item-level promotions
	// but before the order discount share is subtracted.
	ItemDiscountedUnitPrice Money
	// DistributedOrderDiscount is this item's per-unit share of the order
	// promotion discount.
	DistributedOrderDiscount Money
	// FinalUnitPrice is the fully discounted unit price, clamped at zero.
	FinalUnitPrice Money
	// Total is FinalUnitPrice multiplied by Qty.
	Total Money
	// TaxValue is the tax portion backed out of Total, nil for untaxed items.
	TaxValue *Money
}

// Order aggregates the inputs and derived totals of a single pricing pass.
type Order struct {
	Items          []*Item
	ItemPromotions []Assignment
	OrderPromotion *Promotion

	// ItemsTotal is the sum of item-discounted line totals, before the order
	// discount is subtracted. Once an order promotion exists it deliberately
	// differs from the sum of item Total fields.
	ItemsTotal Money
	// AdjustmentsTotal is the negated, actually distributed order discount.
	AdjustmentsTotal Money
	// TaxTotal is nil unless at least one item is taxed.
	TaxTotal *Money
	// Total is ItemsTotal plus AdjustmentsTotal, clamped at zero.
	Total Money
}
