package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": 42, "note": "stipendio"}`
	req := httptest.NewRequest("POST", "/records/delete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("IsJSON() = false, want true")
	}
	if got := parser.Get("id"); got != "42" {
		t.Errorf("Get(id) = %q, want %q", got, "42")
	}
	if got := parser.Get("note"); got != "stipendio" {
		t.Errorf("Get(note) = %q, want %q", got, "stipendio")
	}
	if got := parser.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=7&amount=12%2C34"
	req := httptest.NewRequest("POST", "/records/delete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("IsJSON() = true, want false")
	}
	if got := parser.Get("id"); got != "7" {
		t.Errorf("Get(id) = %q, want %q", got, "7")
	}
	if got := parser.Get("amount"); got != "12,34" {
		t.Errorf("Get(amount) = %q, want %q", got, "12,34")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/records/delete", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := parser.Get("id"); got != "" {
		t.Errorf("Get(id) = %q, want empty", got)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/records/delete", strings.NewReader(`{"id": `))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("Parse() error = nil, want JSON error")
	}
}

func TestRequestBodyParser_SanitizesValues(t *testing.T) {
	body := "id=%007&name=a%00b"
	req := httptest.NewRequest("POST", "/records/delete", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := parser.Get("id"); got != "7" {
		t.Errorf("Get(id) = %q, want control bytes stripped", got)
	}
	if got := parser.Get("name"); got != "ab" {
		t.Errorf("Get(name) = %q, want %q", got, "ab")
	}
}

func TestParseFormOrFail(t *testing.T) {
	t.Run("valid form", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/records", strings.NewReader("amount=10&date=2025-01-15"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		if resp := ParseFormOrFail(req); resp != nil {
			t.Error("ParseFormOrFail() returned error response for valid form")
		}
		if got := req.Form.Get("amount"); got != "10" {
			t.Errorf("Form.Get(amount) = %q, want %q", got, "10")
		}
	})

	t.Run("malformed form", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/records", strings.NewReader("%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp := ParseFormOrFail(req)
		if resp == nil {
			t.Fatal("ParseFormOrFail() = nil, want error response")
		}

		w := httptest.NewRecorder()
		resp.Write(w)
		if w.Code != 400 {
			t.Errorf("Status code = %d, want 400", w.Code)
		}
	})
}
