package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PasswordHash returns the stored bcrypt hash for email.
func (s *Store) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, NormalizeEmail(email)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query user credentials: %w", err)
	}
	return hash, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
