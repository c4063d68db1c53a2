package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"entrate/internal/core"
)

// Store persists income records in a single human-readable JSON file. The
// whole file is rewritten on every mutation; the in-memory list is the
// working copy and is kept even when a write fails (best-effort durability).
type Store struct {
	path string

	mu      sync.Mutex
	records []core.IncomeRecord
	nextID  int64
}

// fileRecord is the on-disk shape of a single record.
type fileRecord struct {
	ID        int64       `json:"id"`
	Amount    json.Number `json:"amount"`
	Date      string      `json:"date"`
	CreatedAt string      `json:"createdAt"`
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{path: path, nextID: 1}
	s.load()
	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// load reads the backing file into memory. Absent, unreadable or malformed
// content degrades to an empty list so a broken file never blocks startup.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("No existing data file, starting empty", "path", s.path)
		} else {
			slog.Warn("Failed to read data file, starting empty", "path", s.path, "error", err)
		}
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		slog.Info("Data file is empty, starting empty", "path", s.path)
		return
	}

	var rows []fileRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		slog.Warn("Data file is malformed, starting empty", "path", s.path, "error", err)
		return
	}

	for i, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			slog.Warn("Skipping malformed record", "path", s.path, "index", i, "error", err)
			continue
		}
		s.records = append(s.records, rec)
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
	}
}

// Append implements store.RecordAppender. The store assigns the next ID from
// its monotonic counter and stamps CreatedAt when the caller left it zero.
func (s *Store) Append(ctx context.Context, r core.IncomeRecord) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	if r.CreatedAt.IsZero() {
		// Second precision: RFC3339 is what survives a round-trip through disk.
		r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	s.records = append(s.records, r)

	if err := s.save(); err != nil {
		slog.ErrorContext(ctx, "Failed to persist record", "id", r.ID, "error", err)
		return r, fmt.Errorf("save records: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"id", r.ID,
		"amount_cents", r.Amount.Cents,
		"date", r.Date.ISO())
	return r, nil
}

// Delete implements store.RecordDeleter. Unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		slog.InfoContext(ctx, "Delete for unknown record ignored", "id", id)
		return nil
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)

	if err := s.save(); err != nil {
		slog.ErrorContext(ctx, "Failed to persist deletion", "id", id, "error", err)
		return fmt.Errorf("save records: %w", err)
	}

	slog.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// List implements store.RecordLister.
func (s *Store) List(_ context.Context) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomeRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// save rewrites the whole backing file through a temp file and rename so a
// crash mid-write never leaves a truncated file behind. Callers hold s.mu.
func (s *Store) save() error {
	rows := make([]fileRecord, len(s.records))
	for i, r := range s.records {
		rows[i] = toFileRecord(r)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (fr fileRecord) toRecord() (core.IncomeRecord, error) {
	cents, err := core.ParseDecimalToCents(fr.Amount.String())
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("amount %q: %w", fr.Amount, err)
	}
	date, err := core.ParseDate(fr.Date)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("date %q: %w", fr.Date, err)
	}
	createdAt, err := time.Parse(time.RFC3339, fr.CreatedAt)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("createdAt %q: %w", fr.CreatedAt, err)
	}
	return core.IncomeRecord{
		ID:        fr.ID,
		Amount:    core.Money{Cents: cents},
		Date:      date,
		CreatedAt: createdAt,
	}, nil
}

func toFileRecord(r core.IncomeRecord) fileRecord {
	return fileRecord{
		ID:        r.ID,
		Amount:    json.Number(r.Amount.Decimal()),
		Date:      r.Date.ISO(),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
