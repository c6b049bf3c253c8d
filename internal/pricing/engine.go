package pricing

// Recalculate derives every price field of the order from its items and
// promotion assignments. Each pass fully overwrites the derived fields, so
// repricing after any mutation is safe and idempotent.
//
// Item promotions cascade first, then the order promotion is distributed
// across the discounted lines, then tax is backed out of each fully
// discounted line total.
func Recalculate(o *Order) {
	applyItemDiscounts(o.Items, o.ItemPromotions)

	var itemsTotal Money
	for _, it := range o.Items {
		itemsTotal += it.ItemDiscountedUnitPrice * Money(it.Qty)
	}

	distributed := distributeOrderDiscount(o.Items, o.OrderPromotion)

	var taxTotal Money
	taxed := false
	for _, it := range o.Items {
		final := it.ItemDiscountedUnitPrice - it.DistributedOrderDiscount
		if final < 0 {
			final = 0
		}
		it.FinalUnitPrice = final
		it.Total = final * Money(it.Qty)

		if it.TaxRate != nil {
			tax := ExtractTax(it.Total, *it.TaxRate)
			it.TaxValue = &tax
			taxTotal += tax
			taxed = true
		} else {
			it.TaxValue = nil
		}
	}

	o.ItemsTotal = itemsTotal
	o.AdjustmentsTotal = -distributed
	if taxed {
		o.TaxTotal = &taxTotal
	} else {
		o.TaxTotal = nil
	}
	o.Total = itemsTotal - distributed
	if o.Total < 0 {
		o.Total = 0
	}
}
