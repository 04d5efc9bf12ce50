package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/store"
)

type expenseView struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	SpentOn     string    `json:"spentOn"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newExpenseView(e store.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		SpentOn:     e.SpentOn.Format("2006-01-02"),
		CreatedAt:   e.CreatedAt,
	}
}

func (s *server) handleExpensesList(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, newExpenseView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

type createExpenseRequest struct {
	Description string         `json:"description"`
	Amount      costing.Number `json:"amount"`
	Category    string         `json:"category"`
	SpentOn     string         `json:"spentOn"`
}

func (s *server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var spentOn time.Time
	if raw := strings.TrimSpace(req.SpentOn); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "spentOn must be YYYY-MM-DD")
			return
		}
		spentOn = t
	}

	e, err := s.store.CreateExpense(r.Context(), store.NewExpense{
		Description: req.Description,
		Amount:      float64(req.Amount),
		Category:    req.Category,
		SpentOn:     spentOn,
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseView(e))
}
