package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/pricing"
	"github.com/Simplici0/pressworks/internal/store"
)

type jobView struct {
	ID              int64              `json:"id"`
	Customer        string             `json:"customer"`
	Title           string             `json:"title"`
	Status          store.Status       `json:"status"`
	Price           float64            `json:"price"`
	DueDate         string             `json:"dueDate,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	EstimatedFormat string             `json:"estimatedFormat"`
	ActualFormat    string             `json:"actualFormat"`
	Costing         costing.JobCosting `json:"costing"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func newJobView(j store.Job) jobView {
	return jobView{
		ID:              j.ID,
		Customer:        j.Customer,
		Title:           j.Title,
		Status:          j.Status,
		Price:           j.Price,
		DueDate:         j.DueDate,
		Notes:           j.Notes,
		EstimatedFormat: formatOf(j.Estimated).String(),
		ActualFormat:    formatOf(j.Actual).String(),
		Costing:         j.Costing(),
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func formatOf(s costing.Stored) costing.Format {
	if s == nil {
		return costing.FormatAbsent
	}
	return s.Format()
}

type breakdownView struct {
	Kind       store.Kind            `json:"kind"`
	Format     string                `json:"format"`
	Breakdown  costing.CostBreakdown `json:"breakdown"`
	Subtotal   float64               `json:"subtotal"`
	GrandTotal float64               `json:"grandTotal"`
}

func newBreakdownView(k store.Kind, format costing.Format, b costing.CostBreakdown) breakdownView {
	return breakdownView{
		Kind:       k,
		Format:     format.String(),
		Breakdown:  b,
		Subtotal:   b.Subtotal(),
		GrandTotal: b.GrandTotal(),
	}
}

func (s *server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, newJobView(j))
	}
	writeJSON(w, http.StatusOK, views)
}

type createJobRequest struct {
	Customer  string                 `json:"customer"`
	Title     string                 `json:"title"`
	Price     costing.Number         `json:"price"`
	DueDate   string                 `json:"dueDate"`
	Notes     string                 `json:"notes"`
	Estimated *costing.CostBreakdown `json:"estimatedCostBreakdown"`
}

func (s *server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	job, err := s.store.CreateJob(r.Context(), store.NewJob{
		Customer:  req.Customer,
		Title:     req.Title,
		Price:     float64(req.Price),
		DueDate:   strings.TrimSpace(req.DueDate),
		Notes:     req.Notes,
		Estimated: req.Estimated,
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if req.Estimated != nil {
		s.metrics.ObserveSave(string(store.Estimated))
	}
	writeJSON(w, http.StatusCreated, newJobView(job))
}

func (s *server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newJobView(job))
}

type statusRequest struct {
	Status store.Status `json:"status"`
}

func (s *server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.store.SetStatus(r.Context(), id, req.Status); err != nil {
		s.storeError(w, r, err)
		return
	}
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(job))
}

func (s *server) handleBreakdownGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	stored := job.Breakdown(kind)
	b := costing.Recompute(costing.Normalize(stored))
	writeJSON(w, http.StatusOK, newBreakdownView(kind, formatOf(stored), b))
}

type editsRequest struct {
	Breakdown *costing.CostBreakdown `json:"breakdown"`
	Edits     []costing.EditSpec     `json:"edits"`
}

// handleBreakdownEdits reduces a batch of edits over a working copy and
// returns the result. Nothing is persisted; the client saves explicitly.
// Without a breakdown in the body the job's stored one is the starting point.
func (s *server) handleBreakdownEdits(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	var req editsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	edits := make([]costing.Edit, 0, len(req.Edits))
	var transactionIDs []string
	for i, spec := range req.Edits {
		e, err := spec.Edit()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_edit", map[string]any{"index": i, "reason": err.Error()})
			return
		}
		if sel, ok := e.(costing.SelectExpense); ok {
			transactionIDs = append(transactionIDs, sel.TransactionID)
		}
		edits = append(edits, e)
	}

	var working costing.CostBreakdown
	format := costing.FormatCurrent
	if req.Breakdown != nil {
		working = *req.Breakdown
	} else {
		stored := job.Breakdown(kind)
		format = formatOf(stored)
		working = costing.Normalize(stored)
	}

	expenses, err := s.store.LookupExpenses(r.Context(), transactionIDs)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	result := costing.ApplyAll(working, edits, expenses)
	for _, e := range edits {
		s.metrics.ObserveEdit(e.Kind())
	}
	writeJSON(w, http.StatusOK, newBreakdownView(kind, format, result))
}

func (s *server) handleBreakdownSave(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var b costing.CostBreakdown
	if !s.decodeJSON(w, r, &b) {
		return
	}

	job, err := s.store.SaveBreakdown(r.Context(), id, kind, b)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.metrics.ObserveSave(string(kind))
	writeJSON(w, http.StatusOK, newJobView(job))
}

// handleCopyEstimated replaces the actual breakdown with a copy of the
// estimate. It only ever runs on this explicit request.
func (s *server) handleCopyEstimated(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	actual := costing.CopyEstimatedToActual(costing.Normalize(job.Estimated))
	job, err := s.store.SaveBreakdown(r.Context(), job.ID, store.Actual, actual)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.metrics.ObserveSave(string(store.Actual))
	writeJSON(w, http.StatusOK, newJobView(job))
}

type quoteParams struct {
	SpoilagePercent costing.Number `json:"spoilagePercent"`
	MarkupPercent   costing.Number `json:"markupPercent"`
	TaxEnabled      bool           `json:"taxEnabled"`
	TaxPercent      costing.Number `json:"taxPercent"`
}

type calculatorRequest struct {
	Breakdown *costing.CostBreakdown `json:"breakdown"`
	Price     costing.Number         `json:"price"`
	Quote     *quoteParams           `json:"quote"`
}

type calculatorResponse struct {
	Breakdown costing.CostBreakdown `json:"breakdown"`
	Summary   costing.Summary       `json:"summary"`
	Quote     *pricing.Quote        `json:"quote,omitempty"`
}

func (s *server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	b := costing.Empty()
	if req.Breakdown != nil {
		b = *req.Breakdown
	}
	b = costing.Recompute(b)

	resp := calculatorResponse{
		Breakdown: b,
		Summary:   costing.Profitability(b, float64(req.Price)),
	}
	if p := req.Quote; p != nil {
		q := pricing.Calculate(pricing.Input{
			Cost:            b.GrandTotal(),
			SpoilagePercent: float64(p.SpoilagePercent),
			MarkupPercent:   float64(p.MarkupPercent),
			TaxEnabled:      p.TaxEnabled,
			TaxPercent:      float64(p.TaxPercent),
		})
		resp.Quote = &q
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) loadJob(w http.ResponseWriter, r *http.Request) (store.Job, bool) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return store.Job{}, false
	}
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return store.Job{}, false
	}
	return job, true
}

func kindParam(w http.ResponseWriter, r *http.Request) (store.Kind, bool) {
	kind, err := store.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_breakdown_kind", err.Error())
		return "", false
	}
	return kind, true
}
