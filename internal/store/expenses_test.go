package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pressworks/internal/costing"
)

func TestCreateAndFindExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateExpense(ctx, NewExpense{
		Description: " Plate processing chemicals ",
		Amount:      62.4,
		Category:    "supplies",
		SpentOn:     time.Date(2026, 4, 28, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := s.FindExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plate processing chemicals", got.Description)
	assert.InDelta(t, 62.4, got.Amount, 1e-9)
	assert.Equal(t, time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC), got.SpentOn)

	_, err = s.FindExpense(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateExpense(ctx, NewExpense{Amount: 3})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLookupExpensesFeedsSelectExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ink, err := s.CreateExpense(ctx, NewExpense{Description: "Ink", Amount: 40})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, NewExpense{Description: "Paper stock", Amount: 310, SpentOn: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	all, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ink", all[0].Description, "most recent first")

	index, err := s.LookupExpenses(ctx, []string{ink.ID, ink.ID, "missing", ""})
	require.NoError(t, err)
	assert.Len(t, index, 1, "only referenced, existing expenses are loaded")

	b := costing.Apply(costing.Empty(), costing.AddOtherExpense{ID: "row"}, nil)
	b = costing.Apply(b, costing.SelectExpense{ID: "row", TransactionID: ink.ID}, index)

	require.Len(t, b.OtherExpenses, 1)
	assert.Equal(t, ink.ID, b.OtherExpenses[0].TransactionID)
	assert.InDelta(t, 40, b.GrandTotal(), 1e-9)
}
