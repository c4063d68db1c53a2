package memory

import (
	"context"
	"fmt"
	"sync"

	"entrate/internal/core"
)

// Store is an in-memory RecordWriter used by tests and local runs where no
// Google credentials are configured.
type Store struct {
	mu   sync.Mutex
	rows []core.IncomeRecord
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r core.IncomeRecord) (string, error) {
	if err := r.Amount.Validate(); err != nil {
		return "", err
	}
	if r.Date.IsZero() {
		return "", core.ErrInvalidDate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.IncomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomeRecord, len(s.rows))
	copy(out, s.rows)
	return out
}
