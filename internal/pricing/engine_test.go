package pricing

import "testing"

func intPtr(v int) *int { return &v }

func TestApplyPercent(t *testing.T) {
	if got := ApplyPercent(100, 50); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := ApplyPercent(99, 10); got != 90 {
		t.Fatalf("expected floor rounding to keep 90, got %d", got)
	}
	if got := ApplyPercent(100, 0); got != 100 {
		t.Fatalf("zero percent must not change the amount, got %d", got)
	}
	if got := ApplyPercent(100, -5); got != 100 {
		t.Fatalf("negative percent must not change the amount, got %d", got)
	}
	if got := ApplyPercent(100, 100); got != 0 {
		t.Fatalf("full discount must zero the amount, got %d", got)
	}
	if got := ApplyPercent(100, 250); got != 0 {
		t.Fatalf("overshooting percent must clamp to zero, got %d", got)
	}
}

func TestEffectivePercent(t *testing.T) {
	if got := EffectivePercent(100, 45); got != 55 {
		t.Fatalf("expected 55, got %d", got)
	}
	if got := EffectivePercent(0, 0); got != 0 {
		t.Fatalf("free item must not read as discounted, got %d", got)
	}
	if got := EffectivePercent(3, 2); got != 33 {
		t.Fatalf("expected floored 33, got %d", got)
	}
}

func TestExtractTax(t *testing.T) {
	if got := ExtractTax(123, 23); got != 23 {
		t.Fatalf("expected 23, got %d", got)
	}
	if got := ExtractTax(90, 23); got != 16 {
		t.Fatalf("expected floored 16, got %d", got)
	}
	if got := ExtractTax(0, 23); got != 0 {
		t.Fatalf("zero total carries no tax, got %d", got)
	}
	if got := ExtractTax(100, 0); got != 0 {
		t.Fatalf("zero rate carries no tax, got %d", got)
	}
}

func TestRecalculateNoPromotions(t *testing.T) {
	o := &Order{Items: []*Item{
		{ProductType: ProductTypeBook, Qty: 2, UnitPrice: 100},
		{ProductType: ProductTypeAudio, Qty: 1, UnitPrice: 50},
	}}
	Recalculate(o)

	if o.ItemsTotal != 250 || o.Total != 250 || o.AdjustmentsTotal != 0 {
		t.Fatalf("unexpected totals: items=%d adjustments=%d total=%d",
			o.ItemsTotal, o.AdjustmentsTotal, o.Total)
	}
	if o.TaxTotal != nil {
		t.Fatalf("untaxed order must have nil tax total, got %d", *o.TaxTotal)
	}
	first := o.Items[0]
	if first.FinalUnitPrice != 100 || first.Total != 200 || first.DiscountPercent != nil {
		t.Fatalf("passthrough item mutated: %+v", first)
	}
}

func TestRecalculateItemDiscountsCompound(t *testing.T) {
	o := &Order{
		Items: []*Item{{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 100}},
		ItemPromotions: []Assignment{
			{Promotion: Promotion{Type: PromotionTypeItem, Percent: 50}, Position: 1},
			{Promotion: Promotion{Type: PromotionTypeItem, Percent: 10}, Position: 2},
		},
	}
	Recalculate(o)

	it := o.Items[0]
	if it.ItemDiscountedUnitPrice != 45 {
		t.Fatalf("expected compounded price 45, got %d", it.ItemDiscountedUnitPrice)
	}
	if it.DiscountValue != 55 {
		t.Fatalf("expected discount value 55, got %d", it.DiscountValue)
	}
	if it.DiscountPercent == nil || *it.DiscountPercent != 55 {
		t.Fatalf("expected effective percent 55, got %v", it.DiscountPercent)
	}
	if o.Total != 45 {
		t.Fatalf("expected total 45, got %d", o.Total)
	}
}

func TestRecalculateItemPromotionProductFilter(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 100},
			{ProductType: ProductTypeAudio, Qty: 1, UnitPrice: 100},
		},
		ItemPromotions: []Assignment{{
			Promotion: Promotion{
				Type:         PromotionTypeItem,
				Percent:      20,
				ProductTypes: []ProductType{ProductTypeBook},
			},
			Position: 1,
		}},
	}
	Recalculate(o)

	if o.Items[0].ItemDiscountedUnitPrice != 80 {
		t.Fatalf("book should be discounted to 80, got %d", o.Items[0].ItemDiscountedUnitPrice)
	}
	if o.Items[1].ItemDiscountedUnitPrice != 100 {
		t.Fatalf("audio must not be discounted, got %d", o.Items[1].ItemDiscountedUnitPrice)
	}
	if o.Items[1].DiscountPercent != nil {
		t.Fatalf("unmatched item must keep nil discount percent")
	}
}

func TestRecalculateOrderDiscountEvenSplit(t *testing.T) {
	promo := &Promotion{Type: PromotionTypeOrder, Percent: 10}
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, TaxRate: intPtr(23), Qty: 1, UnitPrice: 100},
			{ProductType: ProductTypeBook, TaxRate: intPtr(23), Qty: 1, UnitPrice: 100},
		},
		OrderPromotion: promo,
	}
	Recalculate(o)

	for i, it := range o.Items {
		if it.DistributedOrderDiscount != 10 {
			t.Fatalf("item %d: expected share 10, got %d", i, it.DistributedOrderDiscount)
		}
		if it.FinalUnitPrice != 90 || it.Total != 90 {
			t.Fatalf("item %d: expected final 90, got final=%d total=%d", i, it.FinalUnitPrice, it.Total)
		}
		if it.TaxValue == nil || *it.TaxValue != 16 {
			t.Fatalf("item %d: expected tax 16 from post-discount total, got %v", i, it.TaxValue)
		}
	}
	if o.ItemsTotal != 200 {
		t.Fatalf("items total must stay pre order discount, got %d", o.ItemsTotal)
	}
	if o.AdjustmentsTotal != -20 {
		t.Fatalf("expected adjustments -20, got %d", o.AdjustmentsTotal)
	}
	if o.Total != 180 {
		t.Fatalf("expected total 180, got %d", o.Total)
	}
	if o.TaxTotal == nil || *o.TaxTotal != 32 {
		t.Fatalf("expected tax total 32, got %v", o.TaxTotal)
	}
}

func TestRecalculateOrderDiscountLargestRemainder(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 100},
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 101},
		},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 10},
	}
	Recalculate(o)

	// Subtotal 201, discount 20. Floor shares are 9 and 10; the leftover
	// cent goes to the first item, which has the larger fraction.
	if o.Items[0].DistributedOrderDiscount != 10 {
		t.Fatalf("expected first item share 10, got %d", o.Items[0].DistributedOrderDiscount)
	}
	if o.Items[1].DistributedOrderDiscount != 10 {
		t.Fatalf("expected second item share 10, got %d", o.Items[1].DistributedOrderDiscount)
	}
	if o.AdjustmentsTotal != -20 || o.Total != 181 {
		t.Fatalf("expected adjustments -20 total 181, got %d %d", o.AdjustmentsTotal, o.Total)
	}
}

func TestRecalculateOrderDiscountRemainderTieBreak(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 5},
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 5},
		},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 10},
	}
	Recalculate(o)

	// Subtotal 10, discount 1, identical fractions. The earlier item wins.
	if o.Items[0].DistributedOrderDiscount != 1 {
		t.Fatalf("expected first item to take the remainder, got %d", o.Items[0].DistributedOrderDiscount)
	}
	if o.Items[1].DistributedOrderDiscount != 0 {
		t.Fatalf("expected second item share 0, got %d", o.Items[1].DistributedOrderDiscount)
	}
	if o.AdjustmentsTotal != -1 || o.Total != 9 {
		t.Fatalf("expected adjustments -1 total 9, got %d %d", o.AdjustmentsTotal, o.Total)
	}
}

func TestRecalculateOrderDiscountSkipsOversizedQuantity(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, Qty: 2, UnitPrice: 7},
			{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 9},
		},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 10},
	}
	Recalculate(o)

	// Subtotal 23, nominal discount 2. The single-unit item takes one cent;
	// the two-unit item cannot absorb the last cent without charging two, so
	// the leftover is dropped rather than over-collected.
	if o.Items[0].DistributedOrderDiscount != 0 {
		t.Fatalf("expected oversized item to be skipped, got %d", o.Items[0].DistributedOrderDiscount)
	}
	if o.Items[1].DistributedOrderDiscount != 1 {
		t.Fatalf("expected single unit item share 1, got %d", o.Items[1].DistributedOrderDiscount)
	}
	if o.AdjustmentsTotal != -1 {
		t.Fatalf("adjustments must reflect the distributed amount, got %d", o.AdjustmentsTotal)
	}
	if o.Total != 22 {
		t.Fatalf("expected total 22, got %d", o.Total)
	}
}

func TestRecalculateFullOrderDiscountClampsToZero(t *testing.T) {
	o := &Order{
		Items:          []*Item{{ProductType: ProductTypeBook, Qty: 1, UnitPrice: 100}},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 100},
	}
	Recalculate(o)

	if o.Total != 0 {
		t.Fatalf("expected total clamped to 0, got %d", o.Total)
	}
	if o.Items[0].FinalUnitPrice != 0 {
		t.Fatalf("expected final unit price 0, got %d", o.Items[0].FinalUnitPrice)
	}
}

func TestRecalculateIdempotent(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, TaxRate: intPtr(23), Qty: 3, UnitPrice: 199},
			{ProductType: ProductTypeAudio, Qty: 2, UnitPrice: 350},
		},
		ItemPromotions: []Assignment{{
			Promotion: Promotion{
				Type:         PromotionTypeItem,
				Percent:      15,
				ProductTypes: []ProductType{ProductTypeBook},
			},
			Position: 1,
		}},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 7},
	}
	Recalculate(o)
	firstTotal := o.Total
	firstAdjustments := o.AdjustmentsTotal
	firstShare := o.Items[0].DistributedOrderDiscount

	Recalculate(o)
	if o.Total != firstTotal || o.AdjustmentsTotal != firstAdjustments {
		t.Fatalf("recalculating again changed totals: %d vs %d, %d vs %d",
			firstTotal, o.Total, firstAdjustments, o.AdjustmentsTotal)
	}
	if o.Items[0].DistributedOrderDiscount != firstShare {
		t.Fatalf("recalculating again changed shares: %d vs %d",
			firstShare, o.Items[0].DistributedOrderDiscount)
	}
}

func TestRecalculateConservation(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{ProductType: ProductTypeBook, Qty: 2, UnitPrice: 137},
			{ProductType: ProductTypeAudio, Qty: 1, UnitPrice: 89},
			{ProductType: ProductTypeBook, Qty: 4, UnitPrice: 61},
		},
		OrderPromotion: &Promotion{Type: PromotionTypeOrder, Percent: 13},
	}
	Recalculate(o)

	var lineSum Money
	for _, it := range o.Items {
		lineSum += it.Total
	}
	if lineSum != o.Total {
		t.Fatalf("line totals %d do not add up to order total %d", lineSum, o.Total)
	}
	if o.ItemsTotal+o.AdjustmentsTotal != o.Total {
		t.Fatalf("items %d plus adjustments %d must equal total %d",
			o.ItemsTotal, o.AdjustmentsTotal, o.Total)
	}
}
