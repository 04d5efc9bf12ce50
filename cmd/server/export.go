package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Simplici0/pressworks/internal/assist"
	"github.com/Simplici0/pressworks/internal/export"
)

func (s *server) handleExportText(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	sheet := export.NewSheet(job, s.currency, s.now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WriteText(w, sheet); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.ObserveExport("text")
}

func (s *server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	sheet := export.NewSheet(job, s.currency, s.now())
	data, err := export.RenderPDF(sheet)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.Filename("pdf")))
	_, _ = w.Write(data)
	s.metrics.ObserveExport("pdf")
}

type draftResponse struct {
	Text string `json:"text"`
}

func (s *server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	text, err := s.drafter.CostAnalysis(r.Context(), job)
	if err != nil {
		s.draftError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Text: text})
}

type reminderRequest struct {
	DaysOverdue int `json:"daysOverdue"`
}

func (s *server) handleReminder(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	var req reminderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.DaysOverdue < 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "daysOverdue must be zero or more")
		return
	}

	text, err := s.drafter.PaymentReminder(r.Context(), job, req.DaysOverdue)
	if err != nil {
		s.draftError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Text: text})
}

func (s *server) draftError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, assist.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "drafting_unavailable", nil)
		return
	}
	s.serverError(w, r, err)
}
