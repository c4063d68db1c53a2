package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"entrate/internal/core"
	"entrate/internal/log"
)

// handleCreateRecord registers a new income record from the dashboard form.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "method", r.Method, "url", r.URL.Path)
		errResp.Write(w)
		return
	}

	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	dateStr := sanitizeInput(r.Form.Get("date"))

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Importo non valido").Write(w)
		return
	}

	date := core.Today()
	if dateStr != "" {
		date, err = core.ParseDate(dateStr)
		if err != nil {
			UnprocessableEntityError("Data non valida").Write(w)
			return
		}
	}

	rec, err := s.records.Add(r.Context(), core.Money{Cents: cents}, date)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrFutureDate):
			UnprocessableEntityError("La data non può essere nel futuro").Write(w)
		case errors.Is(err, core.ErrInvalidAmount):
			UnprocessableEntityError("Importo non valido").Write(w)
		case errors.Is(err, core.ErrInvalidDate):
			UnprocessableEntityError("Data non valida").Write(w)
		default:
			s.handleCreateStorageFailure(w, r, rec, cents, date, err)
		}
		return
	}

	atomic.AddInt64(&s.metrics.recordsCreated, 1)
	s.invalidateCharts()

	slog.InfoContext(r.Context(), "Record created successfully",
		log.FieldRecordID, rec.ID,
		log.FieldAmountCents, rec.Amount.Cents,
		log.FieldRecordDate, rec.Date.ISO(),
		log.FieldComponent, log.ComponentRecord,
		log.FieldOperation, log.OpCreate)

	successMsg := fmt.Sprintf("Entrata registrata (#%d): %s del %s",
		rec.ID, core.FormatEuros(rec.Amount.Cents), rec.Date.Display())

	NewHTMXResponse().
		TriggerRecordCreated(rec.ID).
		TriggerFormReset().
		TriggerSuccessNotification(successMsg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(successMsg) + `</div>`).
		Write(w)
}

// handleCreateStorageFailure reports a failed save. When the store kept the
// record in memory (file write failed after the append) the dashboard still
// refreshes so the visible state matches memory; the user is warned that the
// record did not reach disk.
func (s *Server) handleCreateStorageFailure(w http.ResponseWriter, r *http.Request, rec core.IncomeRecord, cents int64, date core.Date, err error) {
	slog.ErrorContext(r.Context(), "Failed to save record",
		log.FieldError, err,
		log.FieldAmountCents, cents,
		log.FieldRecordDate, date.ISO(),
		log.FieldComponent, log.ComponentRecord,
		log.FieldOperation, log.OpCreate)

	if rec.ID == 0 {
		// Nothing was stored at all.
		InternalServerError("Errore nel salvataggio dell'entrata").Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.recordsCreated, 1)
	s.invalidateCharts()

	NewHTMXResponse().
		TriggerRecordCreated(rec.ID).
		TriggerFormReset().
		TriggerWarningNotification("Entrata registrata ma non salvata su disco").
		BodyHTML(`<div class="warning">Entrata registrata (#` + strconv.FormatInt(rec.ID, 10) + `) ma non salvata su disco</div>`).
		Write(w)
}

// handleDeleteRecord deletes a record identified by the id field of a form or
// JSON body. Used by the per-row delete buttons.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		slog.ErrorContext(r.Context(), "Parse delete request error", "error", err)
		BadRequestError("Formato richiesta non valido").Write(w)
		return
	}

	idStr := parser.Get("id")
	if idStr == "" {
		BadRequestError("ID entrata mancante").Write(w)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("ID entrata non valido").Write(w)
		return
	}

	s.deleteRecord(w, r, id)
}

// handleDeleteRecordByID deletes a record addressed by URL path.
func (s *Server) handleDeleteRecordByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("ID entrata non valido").Write(w)
		return
	}
	s.deleteRecord(w, r, id)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.records.Remove(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete record",
			log.FieldError, err,
			log.FieldRecordID, id,
			log.FieldComponent, log.ComponentRecord,
			log.FieldOperation, log.OpDelete)
		InternalServerError("Errore nella cancellazione dell'entrata").Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.recordsDeleted, 1)
	s.invalidateCharts()

	slog.InfoContext(r.Context(), "Record deleted successfully",
		log.FieldRecordID, id,
		log.FieldComponent, log.ComponentRecord,
		log.FieldOperation, log.OpDelete)

	NewHTMXResponse().
		TriggerRecordDeleted(id).
		TriggerSuccessNotification("Entrata cancellata con successo").
		Write(w)
}

// handleRecordsTable renders the records table partial, newest first.
func (s *Server) handleRecordsTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	records, err := s.records.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records error", "error", err)
		_, _ = w.Write([]byte(`<section id="records" class="records"><div class="placeholder">Errore nel caricamento delle entrate</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="records" class="records"><div class="placeholder">Nessuna entrata registrata</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "records_table.html", tableData{Rows: recordRows(records)}); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "records_table.html")
		_, _ = w.Write([]byte(`<section id="records" class="records"><div class="placeholder">Errore di rendering</div></section>`))
	}
}

// handleOverview renders the statistics overview partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	stats, err := s.records.Statistics(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Statistics error", "error", err)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Errore nel caricamento del riepilogo</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Totale: ` + core.FormatEuros(stats.Total.Cents) + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "overview.html", overviewFrom(stats)); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "overview.html")
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Errore di rendering</div></section>`))
	}
}
