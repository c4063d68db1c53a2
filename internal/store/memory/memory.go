package memory

import (
	"context"
	"sync"
	"time"

	"entrate/internal/core"
)

// Store keeps records in memory only. It backs tests and the throwaway
// "memory" backend; nothing survives a restart.
type Store struct {
	mu      sync.Mutex
	records []core.IncomeRecord
	nextID  int64
}

func New() *Store {
	return &Store{nextID: 1}
}

// Append implements store.RecordAppender.
func (s *Store) Append(_ context.Context, r core.IncomeRecord) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	s.records = append(s.records, r)
	return r, nil
}

// Delete implements store.RecordDeleter. Unknown IDs are a no-op.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
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
