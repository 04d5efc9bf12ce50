package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/pressworks/internal/costing"
	"github.com/Simplici0/pressworks/internal/store"
)

const (
	sampleCustomer     = "Corner Café"
	sampleJobTitle     = "Tri-fold menus (500)"
	sampleExpenseLabel = "Coated paper, 10 reams"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Samples adds a demo job and expense, for development databases.
	Samples bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		return Stats{}, err
	}
	if cfg.Samples {
		expenseID, err := ensureSampleExpense(ctx, tx, &stats)
		if err != nil {
			return Stats{}, err
		}
		if err := ensureSampleJob(ctx, tx, expenseID, &stats); err != nil {
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}
	email = store.NormalizeEmail(email)

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSampleExpense(ctx context.Context, tx *sql.Tx, stats *Stats) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM expenses WHERE description = ? LIMIT 1`, sampleExpenseLabel).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("check sample expense existence: %w", err)
	}

	id = uuid.NewString()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount, category, spent_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, sampleExpenseLabel, 180.0, "paper", now.Format("2006-01-02"), now.Format(time.RFC3339Nano)); err != nil {
		return "", fmt.Errorf("insert sample expense: %w", err)
	}
	stats.Inserts++
	return id, nil
}

func ensureSampleJob(ctx context.Context, tx *sql.Tx, expenseID string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE title = ? LIMIT 1)`, sampleJobTitle).Scan(&exists); err != nil {
		return fmt.Errorf("check sample job existence: %w", err)
	}
	if exists {
		return nil
	}

	expenses := costing.NewExpenseIndex([]costing.Expense{{ID: expenseID, Description: sampleExpenseLabel, Amount: 180}})
	estimated := costing.ApplyAll(costing.Empty(), []costing.Edit{
		costing.SetCategoryField{Category: costing.CTP, Field: costing.FieldRate, Value: 45},
		costing.SetCategoryField{Category: costing.Printing, Field: costing.FieldQuantity, Value: 500},
		costing.SetCategoryField{Category: costing.Printing, Field: costing.FieldRate, Value: 0.18},
		costing.SetCategoryField{Category: costing.Binding, Field: costing.FieldRate, Value: 35},
		costing.AddLabor{Description: "Folding and trimming"},
		costing.AddOtherExpense{ID: "paper-stock"},
		costing.SelectExpense{ID: "paper-stock", TransactionID: expenseID},
		costing.SetOverheadPercentage{Value: 12},
	}, expenses)
	estimated = costing.Apply(estimated, costing.UpdateLabor{ID: estimated.Labor[0].ID, Field: costing.FieldHours, Value: 3}, nil)
	estimated = costing.Apply(estimated, costing.UpdateLabor{ID: estimated.Labor[0].ID, Field: costing.FieldRate, Value: 22}, nil)

	raw, err := json.Marshal(estimated)
	if err != nil {
		return fmt.Errorf("encode sample breakdown: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (customer, title, status, price, due_date, notes, estimated_breakdown_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sampleCustomer, sampleJobTitle, store.StatusPending, 650.0, "", "Sample job", string(raw), now, now); err != nil {
		return fmt.Errorf("insert sample job: %w", err)
	}
	stats.Inserts++
	return nil
}
