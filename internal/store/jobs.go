package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/pressworks/internal/costing"
)

// Status is the position of a job on the production board.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Kind selects one of the two breakdowns a job owns.
type Kind string

const (
	Estimated Kind = "estimated"
	Actual    Kind = "actual"
)

// ParseKind validates a breakdown kind taken from a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Estimated, Actual:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: breakdown must be estimated or actual, got %q", ErrInvalid, s)
}

func (k Kind) column() string {
	if k == Actual {
		return "actual_breakdown_json"
	}
	return "estimated_breakdown_json"
}

// Job is a job order together with its stored breakdowns.
type Job struct {
	ID        int64
	Customer  string
	Title     string
	Status    Status
	Price     float64
	DueDate   string
	Notes     string
	Estimated costing.Stored
	Actual    costing.Stored
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Breakdown returns the stored breakdown of kind k.
func (j Job) Breakdown(k Kind) costing.Stored {
	if k == Actual {
		return j.Actual
	}
	return j.Estimated
}

// Costing computes the job's profitability figures.
func (j Job) Costing() costing.JobCosting {
	return costing.CostJob(j.Price, j.Estimated, j.Actual)
}

// NewJob holds the fields needed to open a job order. Estimated is optional.
type NewJob struct {
	Customer  string
	Title     string
	Price     float64
	DueDate   string
	Notes     string
	Estimated *costing.CostBreakdown
}

func (n NewJob) validate() error {
	if strings.TrimSpace(n.Customer) == "" {
		return fmt.Errorf("%w: customer is required", ErrInvalid)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if n.Price < 0 {
		return fmt.Errorf("%w: price must be zero or more", ErrInvalid)
	}
	if n.DueDate != "" {
		if _, err := time.Parse(dateLayout, n.DueDate); err != nil {
			return fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalid)
		}
	}
	return nil
}

const jobColumns = `id, customer, title, status, price, due_date, notes,
	estimated_breakdown_json, actual_breakdown_json, created_at, updated_at`

// CreateJob opens a new job order in the pending status.
func (s *Store) CreateJob(ctx context.Context, n NewJob) (Job, error) {
	if err := n.validate(); err != nil {
		return Job{}, err
	}

	var estimated sql.NullString
	if n.Estimated != nil {
		raw, err := encodeBreakdown(*n.Estimated)
		if err != nil {
			return Job{}, err
		}
		estimated = sql.NullString{String: raw, Valid: true}
	}

	now := s.now().Format(timestampLayout)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (customer, title, status, price, due_date, notes, estimated_breakdown_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(n.Customer), strings.TrimSpace(n.Title), StatusPending, n.Price, n.DueDate,
		strings.TrimSpace(n.Notes), estimated, now, now)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Job{}, fmt.Errorf("read job id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob loads one job order.
func (s *Store) GetJob(ctx context.Context, id int64) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first. A non-empty query filters on title,
// customer and notes.
func (s *Store) ListJobs(ctx context.Context, query string) ([]Job, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE (? = '' OR title LIKE ? OR customer LIKE ? OR notes LIKE ?)
		ORDER BY id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// SetStatus moves a job to another status.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	result, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, s.now().Format(timestampLayout), id)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return requireAffected(result, id)
}

// SaveBreakdown recomputes b and writes it onto the job as its breakdown of
// kind k, replacing whatever was stored before.
func (s *Store) SaveBreakdown(ctx context.Context, id int64, k Kind, b costing.CostBreakdown) (Job, error) {
	raw, err := encodeBreakdown(b)
	if err != nil {
		return Job{}, err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET `+k.column()+` = ?, updated_at = ? WHERE id = ?`,
		raw, s.now().Format(timestampLayout), id)
	if err != nil {
		return Job{}, fmt.Errorf("update job breakdown: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return Job{}, err
	}
	return s.GetJob(ctx, id)
}

// NormalizeLegacy rewrites every breakdown still stored in the legacy format
// into the current one and reports how many it rewrote. Absent breakdowns
// stay absent.
func (s *Store) NormalizeLegacy(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin normalize transaction: %w", err)
	}
	defer tx.Rollback()

	type pending struct {
		id   int64
		kind Kind
		raw  string
	}
	var rewrites []pending

	rows, err := tx.QueryContext(ctx, `SELECT id, estimated_breakdown_json, actual_breakdown_json FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("query job breakdowns: %w", err)
	}
	for rows.Next() {
		var id int64
		var est, act sql.NullString
		if err := rows.Scan(&id, &est, &act); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan job breakdowns: %w", err)
		}
		for _, c := range []struct {
			kind Kind
			col  sql.NullString
		}{{Estimated, est}, {Actual, act}} {
			kind, col := c.kind, c.col
			if !col.Valid {
				continue
			}
			stored := costing.Decode([]byte(col.String))
			if stored.Format() != costing.FormatLegacy {
				continue
			}
			raw, err := encodeBreakdown(costing.Normalize(stored))
			if err != nil {
				rows.Close()
				return 0, err
			}
			rewrites = append(rewrites, pending{id: id, kind: kind, raw: raw})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate job breakdowns: %w", err)
	}
	rows.Close()

	now := s.now().Format(timestampLayout)
	for _, p := range rewrites {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET `+p.kind.column()+` = ?, updated_at = ? WHERE id = ?`,
			p.raw, now, p.id); err != nil {
			return 0, fmt.Errorf("rewrite job %d %s breakdown: %w", p.id, p.kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit normalize transaction: %w", err)
	}
	return len(rewrites), nil
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var est, act sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(
		&job.ID,
		&job.Customer,
		&job.Title,
		&job.Status,
		&job.Price,
		&job.DueDate,
		&job.Notes,
		&est,
		&act,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Job{}, err
	}
	job.Estimated = decodeColumn(est)
	job.Actual = decodeColumn(act)
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	return job, nil
}

func decodeColumn(col sql.NullString) costing.Stored {
	if !col.Valid {
		return costing.Absent{}
	}
	return costing.Decode([]byte(col.String))
}

func encodeBreakdown(b costing.CostBreakdown) (string, error) {
	raw, err := json.Marshal(costing.Recompute(b))
	if err != nil {
		return "", fmt.Errorf("encode breakdown: %w", err)
	}
	return string(raw), nil
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return nil
}
