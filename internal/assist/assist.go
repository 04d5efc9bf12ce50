// Package assist drafts free text (cost analyses, payment reminders) with a
// generative text service. Drafts only read job data; nothing here writes a
// breakdown back.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/metrics"
	"github.com/Simplici0/pressworks/internal/store"
)

// ErrUnavailable is returned whenever no draft could be produced.
var ErrUnavailable = errors.New("text generation service unavailable")

const defaultTimeout = 30 * time.Second

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Drafter builds prompts from job data and sends them to a Generator.
type Drafter struct {
	gen     Generator
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewDrafter returns a Drafter. gen may be nil, in which case every draft
// fails with ErrUnavailable.
func NewDrafter(gen Generator, logger *zap.Logger, m *metrics.Metrics) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{gen: gen, log: logger, metrics: m, timeout: defaultTimeout}
}

// Available reports whether a generator is configured.
func (d *Drafter) Available() bool {
	return d != nil && d.gen != nil
}

type jobContext struct {
	ID        int64                  `json:"id"`
	Customer  string                 `json:"customer"`
	Title     string                 `json:"title"`
	Status    store.Status           `json:"status"`
	Price     float64                `json:"price"`
	DueDate   string                 `json:"dueDate,omitempty"`
	Costing   costing.JobCosting     `json:"costing"`
	Estimated costing.CostBreakdown  `json:"estimatedCostBreakdown"`
	Actual    *costing.CostBreakdown `json:"actualCostBreakdown,omitempty"`
}

func newJobContext(job store.Job) jobContext {
	c := jobContext{
		ID:        job.ID,
		Customer:  job.Customer,
		Title:     job.Title,
		Status:    job.Status,
		Price:     job.Price,
		DueDate:   job.DueDate,
		Costing:   job.Costing(),
		Estimated: costing.Normalize(job.Estimated),
	}
	if job.Actual != nil && job.Actual.Format() != costing.FormatAbsent {
		actual := costing.Normalize(job.Actual)
		c.Actual = &actual
	}
	return c
}

// CostAnalysis drafts a short analysis of where the job's money goes and how
// the actual costs compare with the estimate.
func (d *Drafter) CostAnalysis(ctx context.Context, job store.Job) (string, error) {
	const instruction = `You are the cost controller of a small print shop.
Review the job below. Point out the largest cost categories, comment on the
profit margin and, when actual costs are present, explain the variance
against the estimate. Answer in at most 150 words of plain text.`
	return d.draft(ctx, "cost_analysis", instruction, newJobContext(job))
}

// PaymentReminder drafts a polite reminder email for an unpaid job.
func (d *Drafter) PaymentReminder(ctx context.Context, job store.Job, daysOverdue int) (string, error) {
	instruction := fmt.Sprintf(`Write a short, polite payment reminder email to the
customer of the print job below. The invoice is %d days overdue. Include the
job title and the amount due. Plain text, no placeholders.`, daysOverdue)
	return d.draft(ctx, "payment_reminder", instruction, struct {
		Customer string  `json:"customer"`
		Title    string  `json:"title"`
		Amount   float64 `json:"amountDue"`
		DueDate  string  `json:"dueDate,omitempty"`
	}{job.Customer, job.Title, job.Price, job.DueDate})
}

func (d *Drafter) draft(ctx context.Context, kind, instruction string, data any) (string, error) {
	if !d.Available() {
		d.metrics.ObserveDraft(kind, "unavailable")
		return "", ErrUnavailable
	}

	prompt, err := buildPrompt(instruction, data)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	text, err := d.gen.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty draft")
	}
	if err != nil {
		d.metrics.ObserveDraft(kind, "error")
		d.log.Warn("draft failed", zap.String("kind", kind), zap.Error(err))
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	d.metrics.ObserveDraft(kind, "ok")
	d.log.Debug("draft generated", zap.String("kind", kind), zap.Duration("took", time.Since(started)))
	return strings.TrimSpace(text), nil
}

func buildPrompt(instruction string, data any) (string, error) {
	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode draft context: %w", err)
	}
	return instruction + "\n\nContext (JSON):\n" + string(blob), nil
}
