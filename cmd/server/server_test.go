package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/pressworks/internal/assist"
	"github.com/Simplici0/pressworks/internal/db"
	"github.com/Simplici0/pressworks/internal/metrics"
	"github.com/Simplici0/pressworks/internal/migrations"
	"github.com/Simplici0/pressworks/internal/seed"
	"github.com/Simplici0/pressworks/internal/store"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret-pass"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

type testServer struct {
	srv     *server
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, gen assist.Generator) *testServer {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)
	_, err = seed.Run(ctx, database, seed.Config{AdminEmail: testEmail, AdminPassword: testPassword})
	require.NoError(t, err)

	st := store.New(database)
	m := metrics.New()
	srv := &server{
		store:    st,
		auth:     newAuthService(st, "test-secret", nil),
		drafter:  assist.NewDrafter(gen, zap.NewNop(), m),
		metrics:  m,
		log:      zap.NewNop(),
		currency: "USD",
		now:      func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) },
	}
	ts := &testServer{srv: srv, handler: srv.routes()}

	rr := ts.do(t, http.MethodPost, "/login", loginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			ts.cookie = c
		}
	}
	require.NotNil(t, ts.cookie)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (ts *testServer) createJob(t *testing.T, body string) jobView {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[jobView](t, rr)
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)
	anon := &testServer{handler: ts.handler}

	assert.Equal(t, http.StatusUnauthorized, anon.do(t, http.MethodGet, "/jobs", nil).Code)
	assert.Equal(t, http.StatusOK, anon.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, anon.do(t, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		anon.do(t, http.MethodPost, "/login", loginRequest{Email: testEmail, Password: "wrong"}).Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/jobs", nil).Code)
}

func TestSessionValueRejectsTampering(t *testing.T) {
	a := newAuthService(nil, "secret", nil)
	value := a.createSessionValue(" Admin@Example.com ")

	email, ok := a.verifySessionValue(value)
	assert.True(t, ok)
	assert.Equal(t, "admin@example.com", email)

	for _, bad := range []string{"", "abc", value + "00", value + ".x", strings.Replace(value, ".", "x.", 1)} {
		_, ok := a.verifySessionValue(bad)
		assert.False(t, ok, bad)
	}

	other := newAuthService(nil, "other", nil)
	_, ok = other.verifySessionValue(value)
	assert.False(t, ok)
}

func TestJobLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	job := ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":"2000","dueDate":"2026-06-01"}`)
	assert.Equal(t, store.StatusPending, job.Status)
	assert.Equal(t, "absent", job.EstimatedFormat)
	assert.InDelta(t, 2000, job.Costing.Estimated.Profit, 1e-9)
	assert.Nil(t, job.Costing.Actual)

	rr := ts.do(t, http.MethodPatch, "/jobs/1/status", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, store.StatusInProgress, decode[jobView](t, rr).Status)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, "/jobs/1/status", `{"status":"lost"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/jobs/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/jobs", `{"customer":"","title":"x"}`).Code)

	rr = ts.do(t, http.MethodGet, "/jobs?q=menu", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]jobView](t, rr), 1)
}

func TestBreakdownEditsAreNotPersisted(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":1000}`)

	rr := ts.do(t, http.MethodPost, "/jobs/1/breakdowns/estimated/edits", `{"edits":[
		{"op":"set_category_field","category":"paper","field":"rate","value":"250"},
		{"op":"add_labor","id":"l1","text":"Operator"},
		{"op":"update_labor","id":"l1","field":"hours","value":4},
		{"op":"update_labor","id":"l1","field":"rate","value":25},
		{"op":"set_overhead_percentage","value":10}
	]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[breakdownView](t, rr)
	assert.Equal(t, "absent", got.Format)
	assert.InDelta(t, 350, got.Subtotal, 1e-9)
	assert.InDelta(t, 385, got.GrandTotal, 1e-9)

	job := decode[jobView](t, ts.do(t, http.MethodGet, "/jobs/1", nil))
	assert.Equal(t, "absent", job.EstimatedFormat)

	rr = ts.do(t, http.MethodPost, "/jobs/1/breakdowns/estimated/edits", `{"edits":[{"op":"explode"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/jobs/1/breakdowns/planned/edits", `{"edits":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBreakdownEditsRequireExistingJob(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, body := range []string{
		`{"edits":[{"op":"set_overhead_percentage","value":5}]}`,
		`{"breakdown":{"paper":{"quantity":1,"rate":10}},"edits":[{"op":"set_overhead_percentage","value":5}]}`,
	} {
		rr := ts.do(t, http.MethodPost, "/jobs/77/breakdowns/estimated/edits", body)
		assert.Equal(t, http.StatusNotFound, rr.Code, body)
	}
}

func TestBreakdownEditsSelectExpense(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":1000}`)

	rr := ts.do(t, http.MethodPost, "/expenses", `{"description":"Ink cartridges","amount":"84.50","spentOn":"2026-03-02"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	expense := decode[expenseView](t, rr)

	rr = ts.do(t, http.MethodPost, "/jobs/1/breakdowns/actual/edits", map[string]any{
		"edits": []map[string]any{
			{"op": "add_other_expense", "id": "row"},
			{"op": "select_expense", "id": "row", "transactionId": expense.ID},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[breakdownView](t, rr)
	require.Len(t, got.Breakdown.OtherExpenses, 1)
	assert.Equal(t, "Ink cartridges", got.Breakdown.OtherExpenses[0].Description)
	assert.Equal(t, expense.ID, got.Breakdown.OtherExpenses[0].TransactionID)
	assert.InDelta(t, 84.5, got.GrandTotal, 1e-9)
}

func TestSaveAndCopyBreakdowns(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":1000}`)

	rr := ts.do(t, http.MethodPut, "/jobs/1/breakdowns/estimated",
		`{"paper":{"quantity":2,"rate":200,"total":1},"labor":[],"overhead":{"quantity":10},"otherExpenses":[]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	job := decode[jobView](t, rr)
	assert.Equal(t, "current", job.EstimatedFormat)
	assert.InDelta(t, 440, job.Costing.Estimated.TotalCost, 1e-9)
	assert.Nil(t, job.Costing.Actual)

	rr = ts.do(t, http.MethodPost, "/jobs/1/breakdowns/actual/copy", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	job = decode[jobView](t, rr)
	require.NotNil(t, job.Costing.Actual)
	require.NotNil(t, job.Costing.Variance)
	assert.InDelta(t, 440, job.Costing.Actual.TotalCost, 1e-9)
	assert.Equal(t, "on budget", job.Costing.Variance.Label)

	rr = ts.do(t, http.MethodGet, "/jobs/1/breakdowns/actual", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, 440, decode[breakdownView](t, rr).GrandTotal, 1e-9)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPut, "/jobs/42/breakdowns/actual", `{}`).Code)
}

func TestCalculator(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/calculator", `{"breakdown":{"paper":100,"ctp":50,"printing":200,"binding":30,"delivery":20},"price":"500"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[calculatorResponse](t, rr)
	assert.InDelta(t, 400, got.Summary.TotalCost, 1e-9)
	assert.InDelta(t, 20, got.Summary.MarginPercent, 1e-9)

	assert.Nil(t, got.Quote)

	rr = ts.do(t, http.MethodPost, "/calculator", `{"breakdown":{"paper":100},"price":0,
		"quote":{"spoilagePercent":10,"markupPercent":"30","taxEnabled":true,"taxPercent":19}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got = decode[calculatorResponse](t, rr)
	require.NotNil(t, got.Quote)
	assert.InDelta(t, 143, got.Quote.Price, 1e-9)
	assert.InDelta(t, 170.17, got.Quote.Total, 1e-9)

	rr = ts.do(t, http.MethodPost, "/calculator", `{"price":0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	got = decode[calculatorResponse](t, rr)
	assert.Equal(t, 0.0, got.Summary.MarginPercent)
	assert.InDelta(t, 0, got.Summary.TotalCost, 1e-9)
}

func TestExports(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":600,
		"estimatedCostBreakdown":{"paper":{"quantity":2,"rate":150},"overhead":{"quantity":10}}}`)

	rr := ts.do(t, http.MethodGet, "/jobs/1/export.txt", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "Total: 330.00 USD")

	rr = ts.do(t, http.MethodGet, "/jobs/1/export.pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "job-1-costs.pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
}

func TestAnalysis(t *testing.T) {
	ts := newTestServer(t, stubGenerator{reply: "Paper is the largest cost."})
	ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":600}`)

	rr := ts.do(t, http.MethodPost, "/jobs/1/analysis", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Paper is the largest cost.", decode[draftResponse](t, rr).Text)

	rr = ts.do(t, http.MethodPost, "/jobs/1/reminder", `{"daysOverdue":10}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestAnalysisUnavailable(t *testing.T) {
	for _, gen := range []assist.Generator{nil, stubGenerator{err: errors.New("quota")}} {
		ts := newTestServer(t, gen)
		ts.createJob(t, `{"customer":"Corner Café","title":"Menus","price":600}`)

		rr := ts.do(t, http.MethodPost, "/jobs/1/analysis", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	}
}
