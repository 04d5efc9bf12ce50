package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/pressworks/internal/costing"
)

// Expense is a recorded expense transaction.
type Expense struct {
	ID          string
	Description string
	Amount      float64
	Category    string
	SpentOn     time.Time
	CreatedAt   time.Time
}

// Costing returns the view of e that breakdown rows link to.
func (e Expense) Costing() costing.Expense {
	return costing.Expense{ID: e.ID, Description: e.Description, Amount: e.Amount, Date: e.SpentOn}
}

// NewExpense holds the fields needed to record an expense. A zero SpentOn
// means today.
type NewExpense struct {
	Description string
	Amount      float64
	Category    string
	SpentOn     time.Time
}

// CreateExpense records an expense under a fresh id.
func (s *Store) CreateExpense(ctx context.Context, n NewExpense) (Expense, error) {
	description := strings.TrimSpace(n.Description)
	if description == "" {
		return Expense{}, fmt.Errorf("%w: description is required", ErrInvalid)
	}

	now := s.now()
	spentOn := n.SpentOn
	if spentOn.IsZero() {
		spentOn = now
	}

	e := Expense{
		ID:          uuid.NewString(),
		Description: description,
		Amount:      n.Amount,
		Category:    strings.TrimSpace(n.Category),
		SpentOn:     truncateDay(spentOn),
		CreatedAt:   now,
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount, category, spent_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Description, e.Amount, e.Category, e.SpentOn.Format(dateLayout), e.CreatedAt.Format(timestampLayout)); err != nil {
		return Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns expenses, most recent first.
func (s *Store) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, category, spent_on, created_at
		FROM expenses
		ORDER BY spent_on DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// FindExpense loads one expense by id.
func (s *Store) FindExpense(ctx context.Context, id string) (Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, amount, category, spent_on, created_at
		FROM expenses
		WHERE id = ?
	`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Expense{}, fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Expense{}, fmt.Errorf("query expense: %w", err)
	}
	return e, nil
}

// LookupExpenses resolves the given transaction ids through FindExpense into
// a lookup the costing reducer can use without touching the database. Ids
// with no matching expense are left out, so selecting them is a no-op.
func (s *Store) LookupExpenses(ctx context.Context, ids []string) (costing.ExpenseIndex, error) {
	found := make([]costing.Expense, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		e, err := s.FindExpense(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, e.Costing())
	}
	return costing.NewExpenseIndex(found), nil
}

func scanExpense(row rowScanner) (Expense, error) {
	var e Expense
	var spentOn, createdAt string
	if err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &spentOn, &createdAt); err != nil {
		return Expense{}, err
	}
	e.SpentOn, _ = time.Parse(dateLayout, spentOn)
	e.CreatedAt = parseTimestamp(createdAt)
	return e, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
