package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"entrate/internal/core"

	_ "modernc.org/sqlite"
)

// Repository stores income records in a local SQLite database. It is the
// alternative to the JSON file backend for installations that want real
// transactional storage.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements store.RecordAppender. SQLite assigns the row ID, which
// doubles as the record ID.
func (r *Repository) Append(ctx context.Context, rec core.IncomeRecord) (core.IncomeRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	const q = `INSERT INTO income_records (amount_cents, record_date, created_at)
VALUES (?, ?, ?)
RETURNING id`
	if err := r.db.QueryRowContext(ctx, q,
		rec.Amount.Cents,
		rec.Date.ISO(),
		rec.CreatedAt.Format(time.RFC3339),
	).Scan(&rec.ID); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("insert record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"amount_cents", rec.Amount.Cents,
		"date", rec.Date.ISO())
	return rec, nil
}

// Delete implements store.RecordDeleter. Unknown IDs are a no-op.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.InfoContext(ctx, "Delete for unknown record ignored", "id", id)
	}
	return nil
}

// List implements store.RecordLister.
func (r *Repository) List(ctx context.Context) ([]core.IncomeRecord, error) {
	const q = `SELECT id, amount_cents, record_date, created_at
FROM income_records
ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeRecord
	for rows.Next() {
		var (
			rec       core.IncomeRecord
			dateStr   string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Amount.Cents, &dateStr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("record %d has invalid date %q", rec.ID, dateStr)
		}
		rec.Date = d
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("record %d has invalid created_at %q", rec.ID, createdAt)
		}
		rec.CreatedAt = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
