package costing

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Format tells which vintage a stored breakdown was written in.
type Format int

const (
	FormatAbsent Format = iota
	FormatLegacy
	FormatCurrent
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatCurrent:
		return "current"
	default:
		return "absent"
	}
}

// Stored is a breakdown as found on a job order: Absent, LegacyCostBreakdown
// or CostBreakdown.
type Stored interface {
	Format() Format
	TotalCost() float64
}

// Absent is a breakdown that was never recorded.
type Absent struct{}

func (Absent) Format() Format     { return FormatAbsent }
func (Absent) TotalCost() float64 { return 0 }

// LegacyExpense is an other expense row of the legacy format.
type LegacyExpense struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// LegacyCostBreakdown is the deprecated flat format: one amount per
// category, no labor and no overhead. It is only ever read.
type LegacyCostBreakdown struct {
	Paper         float64         `json:"paper"`
	CTP           float64         `json:"ctp"`
	Printing      float64         `json:"printing"`
	Binding       float64         `json:"binding"`
	Delivery      float64         `json:"delivery"`
	OtherExpenses []LegacyExpense `json:"otherExpenses"`
}

func (l LegacyCostBreakdown) Format() Format { return FormatLegacy }

func (l LegacyCostBreakdown) TotalCost() float64 {
	total := finite(l.Paper) + finite(l.CTP) + finite(l.Printing) + finite(l.Binding) + finite(l.Delivery)
	for _, e := range l.OtherExpenses {
		total += finite(e.Amount)
	}
	return finite(total)
}

// Upgrade converts l into the current format. Each amount becomes a line of
// quantity 1 at that rate; labor stays empty and overhead stays at zero.
func (l LegacyCostBreakdown) Upgrade() CostBreakdown {
	line := func(v float64) LineItem {
		v = finite(v)
		return LineItem{Quantity: 1, Rate: v, Total: v}
	}
	out := CostBreakdown{
		Paper:         line(l.Paper),
		CTP:           line(l.CTP),
		Printing:      line(l.Printing),
		Binding:       line(l.Binding),
		Delivery:      line(l.Delivery),
		Labor:         []LaborLineItem{},
		OtherExpenses: make([]OtherExpenseLineItem, 0, len(l.OtherExpenses)),
	}
	for _, e := range l.OtherExpenses {
		amount := finite(e.Amount)
		out.OtherExpenses = append(out.OtherExpenses, OtherExpenseLineItem{
			ID:          e.ID,
			Description: e.Description,
			Quantity:    1,
			Rate:        amount,
			Total:       amount,
		})
	}
	return out
}

// Decode classifies a raw stored breakdown. Null, empty or non-object input
// is Absent; an object whose paper field is itself an object is current;
// any other object is legacy. Decode never fails: missing or malformed
// fields read as zero or empty.
func Decode(raw []byte) Stored {
	fields, ok := object(raw)
	if !ok {
		return Absent{}
	}
	if _, ok := object(fields["paper"]); ok {
		return decodeCurrent(fields)
	}
	return decodeLegacy(fields)
}

// Normalize turns any stored breakdown into a current one the caller may
// mutate freely.
func Normalize(s Stored) CostBreakdown {
	switch v := s.(type) {
	case CostBreakdown:
		return v.Clone()
	case *CostBreakdown:
		if v != nil {
			return v.Clone()
		}
	case LegacyCostBreakdown:
		return v.Upgrade()
	case *LegacyCostBreakdown:
		if v != nil {
			return v.Upgrade()
		}
	}
	return Empty()
}

func decodeCurrent(fields map[string]json.RawMessage) CostBreakdown {
	out := CostBreakdown{
		Labor:         []LaborLineItem{},
		OtherExpenses: []OtherExpenseLineItem{},
	}
	for _, c := range Categories {
		item, _ := object(fields[string(c)])
		*out.Item(c) = LineItem{
			Quantity: number(item["quantity"]),
			Rate:     number(item["rate"]),
			Total:    number(item["total"]),
		}
	}
	_ = out.Overhead.UnmarshalJSON(fields["overhead"])

	laborIDs := rowIDs{}
	for _, raw := range list(fields["labor"]) {
		row, ok := object(raw)
		if !ok {
			continue
		}
		out.Labor = append(out.Labor, LaborLineItem{
			ID:          laborIDs.assign(row["id"]),
			Description: text(row["description"]),
			Hours:       number(row["hours"]),
			Rate:        number(row["rate"]),
			Total:       number(row["total"]),
		})
	}
	otherIDs := rowIDs{}
	for _, raw := range list(fields["otherExpenses"]) {
		row, ok := object(raw)
		if !ok {
			continue
		}
		out.OtherExpenses = append(out.OtherExpenses, OtherExpenseLineItem{
			ID:            otherIDs.assign(row["id"]),
			Description:   text(row["description"]),
			Quantity:      number(row["quantity"]),
			Rate:          number(row["rate"]),
			Total:         number(row["total"]),
			TransactionID: text(row["transactionId"]),
		})
	}
	return out
}

func decodeLegacy(fields map[string]json.RawMessage) LegacyCostBreakdown {
	out := LegacyCostBreakdown{
		Paper:         number(fields["paper"]),
		CTP:           number(fields["ctp"]),
		Printing:      number(fields["printing"]),
		Binding:       number(fields["binding"]),
		Delivery:      number(fields["delivery"]),
		OtherExpenses: []LegacyExpense{},
	}
	ids := rowIDs{}
	for _, raw := range list(fields["otherExpenses"]) {
		row, ok := object(raw)
		if !ok {
			continue
		}
		out.OtherExpenses = append(out.OtherExpenses, LegacyExpense{
			ID:          ids.assign(row["id"]),
			Description: text(row["description"]),
			Amount:      number(row["amount"]),
		})
	}
	return out
}

// rowIDs tracks the ids already used in one row list.
type rowIDs map[string]bool

// assign keeps the stored id. Rows saved without one, or with an id an
// earlier row already took, get a fresh id so edits can address each row.
func (seen rowIDs) assign(raw json.RawMessage) string {
	id := text(raw)
	if id == "" || seen[id] {
		id = uuid.NewString()
	}
	seen[id] = true
	return id
}
