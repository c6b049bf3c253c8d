package pricing

// ExtractTax backs the tax portion out of a tax-inclusive total. The rate is
// a whole percent, so a 123 total at 23 percent contains floor(123*23/123)
// of tax. Non-positive totals or rates carry no tax.
func ExtractTax(total Money, rate int) Money {
	if total <= 0 || rate <= 0 {
		return 0
	}
	return total * Money(rate) / Money(100+rate)
}
