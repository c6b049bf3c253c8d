package pricing

import "sort"

// applyItemDiscounts cascades the order's item promotions over every line.
// Promotions apply in ascending assignment position, each one to the price
// left by the previous, so two stacked discounts compound rather than add.
// Derived discount fields are overwritten whether or not anything matched.
func applyItemDiscounts(items []*Item, assignments []Assignment) {
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	for _, it := range items {
		price := it.UnitPrice
		for _, a := range ordered {
			if !a.Promotion.AppliesTo(it.ProductType) {
				continue
			}
			price = ApplyPercent(price, a.Promotion.Percent)
		}

		it.ItemDiscountedUnitPrice = price
		it.DiscountValue = it.UnitPrice - price
		if it.DiscountValue > 0 {
			pct := EffectivePercent(it.UnitPrice, price)
			it.DiscountPercent = &pct
		} else {
			it.DiscountPercent = nil
		}
	}
}
