package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/pressworks/internal/assist"
	"github.com/Simplici0/pressworks/internal/metrics"
	"github.com/Simplici0/pressworks/internal/store"
)

type server struct {
	store    *store.Store
	auth     *authService
	drafter  *assist.Drafter
	metrics  *metrics.Metrics
	log      *zap.Logger
	currency string
	now      func() time.Time
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Post("/calculator", s.handleCalculator)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleJobsList)
		r.Post("/", s.handleJobCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleJobGet)
			r.Patch("/status", s.handleJobStatus)
			r.Get("/breakdowns/{kind}", s.handleBreakdownGet)
			r.Put("/breakdowns/{kind}", s.handleBreakdownSave)
			r.Post("/breakdowns/{kind}/edits", s.handleBreakdownEdits)
			r.Post("/breakdowns/actual/copy", s.handleCopyEstimated)
			r.Get("/export.txt", s.handleExportText)
			r.Get("/export.pdf", s.handleExportPDF)
			r.Post("/analysis", s.handleAnalysis)
			r.Post("/reminder", s.handleReminder)
		})
	})

	r.Get("/expenses", s.handleExpensesList)
	r.Post("/expenses", s.handleExpenseCreate)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			zap.String("id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(started)))
	})
}
