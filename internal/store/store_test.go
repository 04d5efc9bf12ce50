package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/db"
	"github.com/Simplici0/pressworks/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	s := New(database)
	s.now = func() time.Time { return time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestCreateAndGetJob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	estimated := costing.Apply(costing.Empty(), costing.SetCategoryField{Category: costing.Paper, Field: costing.FieldRate, Value: 120}, nil)
	created, err := s.CreateJob(ctx, NewJob{
		Customer:  " Acme Bakery ",
		Title:     "Menu cards",
		Price:     400,
		DueDate:   "2026-05-20",
		Estimated: &estimated,
	})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Bakery", got.Customer)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, costing.FormatCurrent, got.Estimated.Format())
	assert.Equal(t, costing.FormatAbsent, got.Actual.Format())
	assert.InDelta(t, 120, got.Estimated.TotalCost(), 1e-9)
	assert.Equal(t, time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC), got.CreatedAt)

	jc := got.Costing()
	assert.InDelta(t, 280, jc.Estimated.Profit, 1e-9)
	assert.Nil(t, jc.Actual)
}

func TestCreateJobValidates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, n := range []NewJob{
		{Title: "No customer"},
		{Customer: "No title"},
		{Customer: "A", Title: "B", Price: -1},
		{Customer: "A", Title: "B", DueDate: "next week"},
	} {
		_, err := s.CreateJob(ctx, n)
		assert.ErrorIs(t, err, ErrInvalid, "%+v", n)
	}
}

func TestGetJobNotFound(t *testing.T) {
	_, err := newTestStore(t).GetJob(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListJobsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, n := range []NewJob{
		{Customer: "Acme", Title: "Flyers"},
		{Customer: "Globex", Title: "Annual report", Notes: "perfect binding"},
		{Customer: "Initech", Title: "Business cards"},
	} {
		_, err := s.CreateJob(ctx, n)
		require.NoError(t, err)
	}

	all, err := s.ListJobs(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Business cards", all[0].Title)

	filtered, err := s.ListJobs(ctx, "binding")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Globex", filtered[0].Customer)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	job, err := s.CreateJob(ctx, NewJob{Customer: "Acme", Title: "Flyers"})
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, job.ID, StatusInProgress))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	assert.ErrorIs(t, s.SetStatus(ctx, job.ID, "shipped"), ErrInvalid)
	assert.ErrorIs(t, s.SetStatus(ctx, 999, StatusDelivered), ErrNotFound)
}

func TestSaveBreakdownRecomputesBeforeStoring(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	job, err := s.CreateJob(ctx, NewJob{Customer: "Acme", Title: "Posters", Price: 1000})
	require.NoError(t, err)

	b := costing.Empty()
	b.Printing = costing.LineItem{Quantity: 4, Rate: 50, Total: 1} // stale total
	b.Overhead.Percentage = 10

	saved, err := s.SaveBreakdown(ctx, job.ID, Actual, b)
	require.NoError(t, err)

	assert.Equal(t, costing.FormatAbsent, saved.Estimated.Format())
	require.Equal(t, costing.FormatCurrent, saved.Actual.Format())
	assert.InDelta(t, 220, saved.Actual.TotalCost(), 1e-9)

	jc := saved.Costing()
	require.NotNil(t, jc.Actual)
	assert.InDelta(t, 780, jc.Actual.Profit, 1e-9)
	require.NotNil(t, jc.Variance)
	assert.Equal(t, costing.OverBudget, jc.Variance.Label)

	_, err = s.SaveBreakdown(ctx, 999, Estimated, b)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLegacyRowsDecodeAndNormalize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	job, err := s.CreateJob(ctx, NewJob{Customer: "Acme", Title: "Catalogue", Price: 500})
	require.NoError(t, err)

	legacy := `{"paper":100,"ctp":50,"printing":200,"binding":30,"delivery":20,"otherExpenses":[{"id":"e1","description":"Foil","amount":15}]}`
	_, err = s.db.ExecContext(ctx, `UPDATE jobs SET estimated_breakdown_json = ? WHERE id = ?`, legacy, job.ID)
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, costing.FormatLegacy, got.Estimated.Format())
	assert.InDelta(t, 415, got.Costing().Estimated.TotalCost, 1e-9)

	n, err := s.NormalizeLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, costing.FormatCurrent, got.Estimated.Format())
	assert.Equal(t, costing.FormatAbsent, got.Actual.Format())
	assert.InDelta(t, 415, got.Costing().Estimated.TotalCost, 1e-9)

	n, err = s.NormalizeLegacy(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("actual")
	require.NoError(t, err)
	assert.Equal(t, Actual, k)

	_, err = ParseKind("projected")
	assert.ErrorIs(t, err, ErrInvalid)
}
