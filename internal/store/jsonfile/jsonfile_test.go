package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"entrate/internal/core"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "income_data.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, path
}

func mustAppend(t *testing.T, s *Store, cents int64, y, m, d int) core.IncomeRecord {
	t.Helper()
	r, err := s.Append(context.Background(), core.IncomeRecord{
		Amount: core.Money{Cents: cents},
		Date:   core.NewDate(y, m, d),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return r
}

func sameRecord(a, b core.IncomeRecord) bool {
	return a.ID == b.ID &&
		a.Amount.Cents == b.Amount.Cents &&
		a.Date.ISO() == b.Date.ISO() &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	s, _ := newTestStore(t)

	for want := int64(1); want <= 3; want++ {
		r := mustAppend(t, s, want*100, 2025, 1, int(want))
		if r.ID != want {
			t.Fatalf("expected ID %d, got %d", want, r.ID)
		}
		if r.CreatedAt.IsZero() {
			t.Fatalf("expected CreatedAt to be stamped")
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	first := mustAppend(t, s, 1050, 2025, 1, 2)
	second := mustAppend(t, s, 2500, 2025, 2, 14)

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !sameRecord(got[0], first) || !sameRecord(got[1], second) {
		t.Fatalf("round-trip mismatch: %+v vs %+v / %+v vs %+v", got[0], first, got[1], second)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d records", len(got))
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"whitespace only", "  \n\t"},
		{"not json", "definitely not json {"},
		{"wrong shape", `{"id": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "income_data.json")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			s, err := New(path)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := s.List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty store, got %d records", len(got))
			}
		})
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "income_data.json")
	content := `[
  {"id": 3, "amount": 10.50, "date": "2025-01-02", "createdAt": "2025-01-02T10:00:00Z"},
  {"id": 4, "amount": -5, "date": "2025-01-03", "createdAt": "2025-01-03T10:00:00Z"},
  {"id": 5, "amount": 2.00, "date": "not-a-date", "createdAt": "2025-01-04T10:00:00Z"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected only record 3 to survive, got %+v", got)
	}

	// The counter must still clear the highest surviving ID.
	r := mustAppend(t, s, 100, 2025, 1, 5)
	if r.ID != 4 {
		t.Fatalf("expected next ID 4, got %d", r.ID)
	}
}

func TestCounterSeedsPastMaxID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "income_data.json")
	content := `[
  {"id": 3, "amount": 1.00, "date": "2025-01-01", "createdAt": "2025-01-01T10:00:00Z"},
  {"id": 7, "amount": 2.00, "date": "2025-01-02", "createdAt": "2025-01-02T10:00:00Z"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := mustAppend(t, s, 300, 2025, 1, 3)
	if r.ID != 8 {
		t.Fatalf("expected ID 8 after max 7, got %d", r.ID)
	}
}

func TestDelete(t *testing.T) {
	s, path := newTestStore(t)
	first := mustAppend(t, s, 100, 2025, 1, 1)
	second := mustAppend(t, s, 200, 2025, 1, 2)

	if err := s.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("expected only record %d to remain, got %+v", second.ID, got)
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	mustAppend(t, s, 100, 2025, 1, 1)

	if err := s.Delete(context.Background(), 999); err != nil {
		t.Fatalf("expected no error for unknown ID, got %v", err)
	}
	got, _ := s.List(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected list unchanged, got %d records", len(got))
	}
}

func TestFileIsHumanReadable(t *testing.T) {
	s, path := newTestStore(t)
	mustAppend(t, s, 1050, 2025, 1, 2)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"id": 1`, `"amount": 10.50`, `"date": "2025-01-02"`, `"createdAt"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected file to contain %q, got:\n%s", want, content)
		}
	}
}

func TestFailedSaveKeepsMemoryState(t *testing.T) {
	// Point the store at an existing directory: the temp file writes fine but
	// the rename over a directory fails, simulating a persistence failure.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "income_data.json")
	if err := os.Mkdir(blocked, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s, err := New(blocked)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = s.Append(context.Background(), core.IncomeRecord{
		Amount: core.Money{Cents: 100},
		Date:   core.NewDate(2025, 1, 1),
	})
	if err == nil {
		t.Fatalf("expected save error")
	}

	got, _ := s.List(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected record kept in memory after failed save, got %d", len(got))
	}
}
