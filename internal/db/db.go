package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas are set through the DSN so every pooled connection gets them,
// not only the first one.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

// DSN appends the connection pragmas to a SQLite path.
func DSN(dbPath string) string {
	var b strings.Builder
	b.WriteString(dbPath)
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Open opens the SQLite database at dbPath, applies the connection pragmas
// and checks connectivity.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	var fk int
	if err := db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		db.Close()
		return nil, fmt.Errorf("read sqlite pragmas: %w", err)
	}
	if fk != 1 {
		db.Close()
		return nil, fmt.Errorf("sqlite pragmas not applied for %s", dbPath)
	}

	return db, nil
}
