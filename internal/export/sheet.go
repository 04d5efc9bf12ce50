// Package export renders a job's cost sheet as plain text or PDF.
package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/store"
)

var categoryLabels = map[costing.Category]string{
	costing.Paper:    "Paper",
	costing.CTP:      "CTP plates",
	costing.Printing: "Printing",
	costing.Binding:  "Binding",
	costing.Delivery: "Delivery",
}

// Line is one printed row of a cost section. Quantity holds hours for labor.
type Line struct {
	Group    string
	Label    string
	Quantity float64
	Rate     float64
	Total    float64
}

// Section is one breakdown laid out for printing.
type Section struct {
	Title           string
	Lines           []Line
	Subtotal        float64
	OverheadPercent float64
	Overhead        float64
	Total           float64
	Summary         costing.Summary
}

// Sheet is the printable view of a job and its costing.
type Sheet struct {
	JobID       int64
	Customer    string
	Title       string
	Status      string
	DueDate     string
	Price       float64
	Currency    string
	Estimated   Section
	Actual      *Section
	Variance    *costing.Variance
	GeneratedAt time.Time
}

// NewSheet builds the sheet of job. The breakdowns are recomputed for
// display; the job itself is left as is.
func NewSheet(job store.Job, currency string, now time.Time) Sheet {
	jc := job.Costing()
	sheet := Sheet{
		JobID:       job.ID,
		Customer:    job.Customer,
		Title:       job.Title,
		Status:      string(job.Status),
		DueDate:     job.DueDate,
		Price:       job.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Estimated:   newSection("Estimated costs", job.Estimated, jc.Estimated),
		Variance:    jc.Variance,
		GeneratedAt: now,
	}
	if jc.Actual != nil {
		actual := newSection("Actual costs", job.Actual, *jc.Actual)
		sheet.Actual = &actual
	}
	return sheet
}

func newSection(title string, stored costing.Stored, summary costing.Summary) Section {
	b := costing.Recompute(costing.Normalize(stored))
	s := Section{
		Title:           title,
		Subtotal:        b.Subtotal(),
		OverheadPercent: b.Overhead.Percentage,
		Overhead:        b.Overhead.Total,
		Total:           b.GrandTotal(),
		Summary:         summary,
	}
	for _, c := range costing.Categories {
		item := b.Item(c)
		s.Lines = append(s.Lines, Line{Group: "Materials & services", Label: categoryLabels[c],
			Quantity: item.Quantity, Rate: item.Rate, Total: item.Total})
	}
	for _, l := range b.Labor {
		s.Lines = append(s.Lines, Line{Group: "Labor", Label: orDefault(l.Description, "Labor"),
			Quantity: l.Hours, Rate: l.Rate, Total: l.Total})
	}
	for _, e := range b.OtherExpenses {
		s.Lines = append(s.Lines, Line{Group: "Other expenses", Label: orDefault(e.Description, "Other expense"),
			Quantity: e.Quantity, Rate: e.Rate, Total: e.Total})
	}
	return s
}

// Filename is the download name of the sheet for the given extension.
func (s Sheet) Filename(ext string) string {
	return fmt.Sprintf("job-%d-costs.%s", s.JobID, strings.TrimPrefix(ext, "."))
}

func (s Sheet) money(v float64) string {
	out := amount(v)
	if s.Currency != "" {
		out += " " + s.Currency
	}
	return out
}

func amount(v float64) string {
	return toDecimal(v).StringFixed(2)
}

func quantity(v float64) string {
	return toDecimal(v).Round(3).String()
}

// toDecimal reads NaN and infinities as zero; decimal cannot hold them.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
