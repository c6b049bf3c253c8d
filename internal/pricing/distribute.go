package pricing

import "sort"

// distributeOrderDiscount splits the order promotion discount across items in
// proportion to their discounted line totals, in whole per-unit amounts, using
// largest-remainder rounding. It returns the amount actually distributed,
// which downstream totals use instead of the nominal discount. Items whose
// quantity exceeds the leftover after the floor pass get nothing extra; that
// remainder is deliberately not charged.
func distributeOrderDiscount(items []*Item, promo *Promotion) Money {
	for _, it := range items {
		it.DistributedOrderDiscount = 0
	}
	if promo == nil || len(items) == 0 {
		return 0
	}

	var subtotal Money
	for _, it := range items {
		subtotal += it.ItemDiscountedUnitPrice * Money(it.Qty)
	}
	if subtotal <= 0 {
		return 0
	}

	discount := subtotal - ApplyPercent(subtotal, promo.Percent)
	if discount <= 0 {
		return 0
	}

	fractions := make([]Money, len(items))
	var distributed Money
	for i, it := range items {
		it.DistributedOrderDiscount = discount * it.ItemDiscountedUnitPrice / subtotal
		fractions[i] = discount * it.ItemDiscountedUnitPrice % subtotal
		distributed += it.DistributedOrderDiscount * Money(it.Qty)
	}

	// Hand out the leftover one per-unit increment at a time, largest
	// fractional part first. Ties keep the original item order.
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]] > fractions[order[b]]
	})

	remaining := discount - distributed
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		qty := Money(items[i].Qty)
		if qty > remaining {
			continue
		}
		items[i].DistributedOrderDiscount++
		distributed += qty
		remaining -= qty
	}

	return distributed
}
