// Package costing holds the job cost breakdown engine: the breakdown data
// shape, migration of legacy records, recomputation of derived totals and the
// profitability figures shown for a job.
//
// Every function in this package is pure. Nothing here performs I/O.
package costing

import "encoding/json"

// Category names one of the five standard cost categories of a print job.
type Category string

const (
	Paper    Category = "paper"
	CTP      Category = "ctp"
	Printing Category = "printing"
	Binding  Category = "binding"
	Delivery Category = "delivery"
)

// Categories lists the standard categories in display order.
var Categories = []Category{Paper, CTP, Printing, Binding, Delivery}

// Valid reports whether c is one of the standard categories.
func (c Category) Valid() bool {
	switch c {
	case Paper, CTP, Printing, Binding, Delivery:
		return true
	}
	return false
}

// LineItem is a standard category line. Total is always Quantity * Rate.
type LineItem struct {
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
	Total    float64 `json:"total"`
}

// LaborLineItem is a labor row. Total is always Hours * Rate.
type LaborLineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
	Total       float64 `json:"total"`
}

// OtherExpenseLineItem is a free-form expense row. When TransactionID is
// set, Description and Rate are a snapshot of the linked expense taken when
// it was selected.
type OtherExpenseLineItem struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Rate          float64 `json:"rate"`
	Total         float64 `json:"total"`
	TransactionID string  `json:"transactionId,omitempty"`
}

// Overhead is the overhead line. Base is the subtotal it was computed
// against and is owned by Recompute; callers only set Percentage.
//
// Stored records use the line item shape: quantity carries the percentage
// and rate carries the base.
type Overhead struct {
	Percentage float64
	Base       float64
	Total      float64
}

type overheadWire struct {
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
	Total    float64 `json:"total"`
}

func (o Overhead) MarshalJSON() ([]byte, error) {
	return json.Marshal(overheadWire{Quantity: o.Percentage, Rate: o.Base, Total: o.Total})
}

func (o *Overhead) UnmarshalJSON(data []byte) error {
	fields, _ := object(data)
	*o = Overhead{
		Percentage: number(fields["quantity"]),
		Base:       number(fields["rate"]),
		Total:      number(fields["total"]),
	}
	return nil
}

// CostBreakdown is the current breakdown format owned by a job order.
type CostBreakdown struct {
	Paper         LineItem               `json:"paper"`
	CTP           LineItem               `json:"ctp"`
	Printing      LineItem               `json:"printing"`
	Binding       LineItem               `json:"binding"`
	Delivery      LineItem               `json:"delivery"`
	Labor         []LaborLineItem        `json:"labor"`
	Overhead      Overhead               `json:"overhead"`
	OtherExpenses []OtherExpenseLineItem `json:"otherExpenses"`
}

// UnmarshalJSON accepts either breakdown format and always yields the
// current shape. It never fails.
func (b *CostBreakdown) UnmarshalJSON(data []byte) error {
	*b = Normalize(Decode(data))
	return nil
}

// Empty returns the breakdown a job starts with before it is costed.
func Empty() CostBreakdown {
	fresh := LineItem{Quantity: 1}
	return CostBreakdown{
		Paper:         fresh,
		CTP:           fresh,
		Printing:      fresh,
		Binding:       fresh,
		Delivery:      fresh,
		Labor:         []LaborLineItem{},
		OtherExpenses: []OtherExpenseLineItem{},
	}
}

// Item returns the line for category c, or nil when c is not a standard
// category.
func (b *CostBreakdown) Item(c Category) *LineItem {
	switch c {
	case Paper:
		return &b.Paper
	case CTP:
		return &b.CTP
	case Printing:
		return &b.Printing
	case Binding:
		return &b.Binding
	case Delivery:
		return &b.Delivery
	}
	return nil
}

// Clone returns a deep copy of b. The copy shares no slices with b.
func (b CostBreakdown) Clone() CostBreakdown {
	out := b
	out.Labor = make([]LaborLineItem, len(b.Labor))
	copy(out.Labor, b.Labor)
	out.OtherExpenses = make([]OtherExpenseLineItem, len(b.OtherExpenses))
	copy(out.OtherExpenses, b.OtherExpenses)
	return out
}

// StandardTotal sums the five standard category totals. Like every sum
// below, a result that overflows reads as 0.
func (b CostBreakdown) StandardTotal() float64 {
	return finite(b.Paper.Total + b.CTP.Total + b.Printing.Total + b.Binding.Total + b.Delivery.Total)
}

// LaborTotal sums the labor row totals.
func (b CostBreakdown) LaborTotal() float64 {
	var total float64
	for _, l := range b.Labor {
		total += l.Total
	}
	return finite(total)
}

// OtherExpensesTotal sums the other expense row totals.
func (b CostBreakdown) OtherExpensesTotal() float64 {
	var total float64
	for _, e := range b.OtherExpenses {
		total += e.Total
	}
	return finite(total)
}

// Subtotal is every line except overhead.
func (b CostBreakdown) Subtotal() float64 {
	return finite(b.StandardTotal() + b.LaborTotal() + b.OtherExpensesTotal())
}

// GrandTotal is the subtotal plus the overhead total.
func (b CostBreakdown) GrandTotal() float64 {
	return finite(b.Subtotal() + b.Overhead.Total)
}

func (b CostBreakdown) Format() Format { return FormatCurrent }

// TotalCost reads the stored totals as they are; run Recompute first when
// the breakdown may have been edited.
func (b CostBreakdown) TotalCost() float64 { return b.GrandTotal() }

// CopyEstimatedToActual seeds an actual breakdown from the estimated one.
// The result is independent: editing either afterwards never touches the
// other.
func CopyEstimatedToActual(estimated CostBreakdown) CostBreakdown {
	return estimated.Clone()
}
