package costing

// Recompute derives every total of b from its inputs and returns the result;
// b itself is left untouched. Every edit goes through here.
//
// Non-finite inputs are zeroed first, and so is any product or sum that
// overflows. Negative values are kept and simply produce negative totals. The overhead base is set to the freshly computed
// subtotal, so calling Recompute again on its own output changes nothing.
func Recompute(b CostBreakdown) CostBreakdown {
	out := b.Clone()

	for _, c := range Categories {
		item := out.Item(c)
		item.Quantity = finite(item.Quantity)
		item.Rate = finite(item.Rate)
		item.Total = finite(item.Quantity * item.Rate)
	}

	for i := range out.Labor {
		l := &out.Labor[i]
		l.Hours = finite(l.Hours)
		l.Rate = finite(l.Rate)
		l.Total = finite(l.Hours * l.Rate)
	}

	for i := range out.OtherExpenses {
		e := &out.OtherExpenses[i]
		e.Quantity = finite(e.Quantity)
		e.Rate = finite(e.Rate)
		e.Total = finite(e.Quantity * e.Rate)
	}

	subtotal := out.Subtotal()
	out.Overhead.Percentage = finite(out.Overhead.Percentage)
	out.Overhead.Base = subtotal
	out.Overhead.Total = finite(subtotal * (out.Overhead.Percentage / 100))

	return out
}
