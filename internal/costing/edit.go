package costing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field names the editable numeric or text field of a row.
type Field string

const (
	FieldQuantity    Field = "quantity"
	FieldRate        Field = "rate"
	FieldHours       Field = "hours"
	FieldDescription Field = "description"
)

// Expense is a recorded expense transaction an other expense row can be
// linked to.
type Expense struct {
	ID          string
	Description string
	Amount      float64
	Date        time.Time
}

// ExpenseLookup resolves expense transaction ids.
type ExpenseLookup interface {
	LookupExpense(id string) (Expense, bool)
}

// ExpenseIndex is an in-memory ExpenseLookup keyed by expense id.
type ExpenseIndex map[string]Expense

func (x ExpenseIndex) LookupExpense(id string) (Expense, bool) {
	e, ok := x[id]
	return e, ok
}

// NewExpenseIndex indexes expenses by id.
func NewExpenseIndex(expenses []Expense) ExpenseIndex {
	x := make(ExpenseIndex, len(expenses))
	for _, e := range expenses {
		x[e.ID] = e
	}
	return x
}

// Edit is one user change to a breakdown.
type Edit interface {
	// Kind is a short stable name for the edit, used in logs and metrics.
	Kind() string
	apply(b *CostBreakdown, expenses ExpenseLookup)
}

// Apply returns the breakdown that results from applying e to b. b is not
// modified. Edits that name an unknown category, field, row or expense leave
// the breakdown as it was; the result is recomputed either way.
func Apply(b CostBreakdown, e Edit, expenses ExpenseLookup) CostBreakdown {
	next := b.Clone()
	if e != nil {
		e.apply(&next, expenses)
	}
	return Recompute(next)
}

// ApplyAll applies edits in order.
func ApplyAll(b CostBreakdown, edits []Edit, expenses ExpenseLookup) CostBreakdown {
	next := Recompute(b)
	for _, e := range edits {
		next = Apply(next, e, expenses)
	}
	return next
}

// SetCategoryField changes the quantity or rate of a standard category.
type SetCategoryField struct {
	Category Category
	Field    Field
	Value    float64
}

func (SetCategoryField) Kind() string { return "set_category_field" }

func (e SetCategoryField) apply(b *CostBreakdown, _ ExpenseLookup) {
	item := b.Item(e.Category)
	if item == nil {
		return
	}
	switch e.Field {
	case FieldQuantity:
		item.Quantity = finite(e.Value)
	case FieldRate:
		item.Rate = finite(e.Value)
	}
}

// AddLabor appends an empty labor row. A fresh id is assigned when ID is
// empty or already taken.
type AddLabor struct {
	ID          string
	Description string
}

func (AddLabor) Kind() string { return "add_labor" }

func (e AddLabor) apply(b *CostBreakdown, _ ExpenseLookup) {
	id := e.ID
	if id == "" || b.laborIndex(id) >= 0 {
		id = uuid.NewString()
	}
	b.Labor = append(b.Labor, LaborLineItem{ID: id, Description: e.Description})
}

// UpdateLabor changes one field of a labor row. Text is used for the
// description and Value for hours or rate.
type UpdateLabor struct {
	ID    string
	Field Field
	Value float64
	Text  string
}

func (UpdateLabor) Kind() string { return "update_labor" }

func (e UpdateLabor) apply(b *CostBreakdown, _ ExpenseLookup) {
	i := b.laborIndex(e.ID)
	if i < 0 {
		return
	}
	row := &b.Labor[i]
	switch e.Field {
	case FieldDescription:
		row.Description = e.Text
	case FieldHours:
		row.Hours = finite(e.Value)
	case FieldRate:
		row.Rate = finite(e.Value)
	}
}

// RemoveLabor drops a labor row.
type RemoveLabor struct {
	ID string
}

func (RemoveLabor) Kind() string { return "remove_labor" }

func (e RemoveLabor) apply(b *CostBreakdown, _ ExpenseLookup) {
	if i := b.laborIndex(e.ID); i >= 0 {
		b.Labor = append(b.Labor[:i], b.Labor[i+1:]...)
	}
}

// AddOtherExpense appends an other expense row of quantity 1.
type AddOtherExpense struct {
	ID          string
	Description string
}

func (AddOtherExpense) Kind() string { return "add_other_expense" }

func (e AddOtherExpense) apply(b *CostBreakdown, _ ExpenseLookup) {
	id := e.ID
	if id == "" || b.otherIndex(id) >= 0 {
		id = uuid.NewString()
	}
	b.OtherExpenses = append(b.OtherExpenses, OtherExpenseLineItem{ID: id, Description: e.Description, Quantity: 1})
}

// UpdateOtherExpense changes one field of an other expense row.
type UpdateOtherExpense struct {
	ID    string
	Field Field
	Value float64
	Text  string
}

func (UpdateOtherExpense) Kind() string { return "update_other_expense" }

func (e UpdateOtherExpense) apply(b *CostBreakdown, _ ExpenseLookup) {
	i := b.otherIndex(e.ID)
	if i < 0 {
		return
	}
	row := &b.OtherExpenses[i]
	switch e.Field {
	case FieldDescription:
		row.Description = e.Text
	case FieldQuantity:
		row.Quantity = finite(e.Value)
	case FieldRate:
		row.Rate = finite(e.Value)
	}
}

// RemoveOtherExpense drops an other expense row.
type RemoveOtherExpense struct {
	ID string
}

func (RemoveOtherExpense) Kind() string { return "remove_other_expense" }

func (e RemoveOtherExpense) apply(b *CostBreakdown, _ ExpenseLookup) {
	if i := b.otherIndex(e.ID); i >= 0 {
		b.OtherExpenses = append(b.OtherExpenses[:i], b.OtherExpenses[i+1:]...)
	}
}

// SelectExpense links an other expense row to a recorded expense, copying
// its description and amount. The copy is a snapshot: later changes to the
// expense do not reach the row unless it is selected again.
type SelectExpense struct {
	ID            string
	TransactionID string
}

func (SelectExpense) Kind() string { return "select_expense" }

func (e SelectExpense) apply(b *CostBreakdown, expenses ExpenseLookup) {
	i := b.otherIndex(e.ID)
	if i < 0 || expenses == nil {
		return
	}
	tx, ok := expenses.LookupExpense(e.TransactionID)
	if !ok {
		return
	}
	row := &b.OtherExpenses[i]
	row.Description = tx.Description
	row.Quantity = 1
	row.Rate = finite(tx.Amount)
	row.TransactionID = tx.ID
}

// SetOverheadPercentage changes the overhead percentage.
type SetOverheadPercentage struct {
	Value float64
}

func (SetOverheadPercentage) Kind() string { return "set_overhead_percentage" }

func (e SetOverheadPercentage) apply(b *CostBreakdown, _ ExpenseLookup) {
	b.Overhead.Percentage = finite(e.Value)
}

func (b *CostBreakdown) laborIndex(id string) int {
	for i, l := range b.Labor {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (b *CostBreakdown) otherIndex(id string) int {
	for i, e := range b.OtherExpenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// EditSpec is the wire form of an Edit.
type EditSpec struct {
	Op            string `json:"op"`
	Category      string `json:"category,omitempty"`
	Field         string `json:"field,omitempty"`
	ID            string `json:"id,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Value         Number `json:"value,omitempty"`
	Text          string `json:"text,omitempty"`
}

// Edit converts s into an Edit. Only an unknown op is an error; unknown
// categories, fields and ids resolve to no-op edits.
func (s EditSpec) Edit() (Edit, error) {
	v := float64(s.Value)
	switch s.Op {
	case SetCategoryField{}.Kind():
		return SetCategoryField{Category: Category(s.Category), Field: Field(s.Field), Value: v}, nil
	case AddLabor{}.Kind():
		return AddLabor{ID: s.ID, Description: s.Text}, nil
	case UpdateLabor{}.Kind():
		return UpdateLabor{ID: s.ID, Field: Field(s.Field), Value: v, Text: s.Text}, nil
	case RemoveLabor{}.Kind():
		return RemoveLabor{ID: s.ID}, nil
	case AddOtherExpense{}.Kind():
		return AddOtherExpense{ID: s.ID, Description: s.Text}, nil
	case UpdateOtherExpense{}.Kind():
		return UpdateOtherExpense{ID: s.ID, Field: Field(s.Field), Value: v, Text: s.Text}, nil
	case RemoveOtherExpense{}.Kind():
		return RemoveOtherExpense{ID: s.ID}, nil
	case SelectExpense{}.Kind():
		return SelectExpense{ID: s.ID, TransactionID: s.TransactionID}, nil
	case SetOverheadPercentage{}.Kind():
		return SetOverheadPercentage{Value: v}, nil
	}
	return nil, fmt.Errorf("unknown edit op %q", s.Op)
}
