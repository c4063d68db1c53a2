package google

import (
	"context"
	"strings"
	"testing"
)

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Entrate", 2025, "2025 Entrate"},
		{" Entrate ", 2025, "2025 Entrate"},
		{"2024 Entrate", 2025, "2024 Entrate"}, // already prefixed, keep as-is
		{"", 2025, ""},
		{"1850 Old", 2025, "2025 1850 Old"}, // implausible year is treated as a name
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Fatalf("yearPrefixedName(%q, %d) = %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatalf("expected error without GOOGLE_SPREADSHEET_ID")
	}
	if !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("expected error to name the missing variable, got %v", err)
	}
}

func TestNewFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatalf("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
