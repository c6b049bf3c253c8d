package pricing

// ApplyPercent returns amount reduced by percent, flooring the discount so
// the buyer keeps the rounding cent. Percent at or below zero leaves the
// amount unchanged; percent at or above one hundred zeroes it.
func ApplyPercent(amount Money, percent int) Money {
	if percent <= 0 {
		return amount
	}
	if percent >= 100 {
		return 0
	}
	return amount - amount*Money(percent)/100
}

// EffectivePercent reports the realized discount percent between the
// original and discounted amounts, floored. A non-positive original yields
// zero so a free item never reads as discounted.
func EffectivePercent(original, discounted Money) int {
	if original <= 0 {
		return 0
	}
	return int((original - discounted) * 100 / original)
}
