package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"entrate/internal/core"
	"entrate/internal/log"
)

// View models shared between the full page and the HTMX partials.
type (
	recordRow struct {
		ID      int64
		Date    string
		Amount  string
		Created string
	}

	tableData struct {
		Rows []recordRow
	}

	overviewData struct {
		Total   string
		Count   int
		Average string
		Max     string
	}

	chartsData struct {
		HasCharts bool
	}

	indexData struct {
		Today    string
		Overview overviewData
		Charts   chartsData
		Table    tableData
	}
)

// recordRows converts records into display rows, newest first. Ties on the
// same date show the most recently inserted record on top.
func recordRows(records []core.IncomeRecord) []recordRow {
	newest := core.SortNewestFirst(records)
	rows := make([]recordRow, 0, len(newest))
	for _, rec := range newest {
		rows = append(rows, recordRow{
			ID:      rec.ID,
			Date:    rec.Date.Display(),
			Amount:  core.FormatEuros(rec.Amount.Cents),
			Created: rec.CreatedAt.Local().Format("02/01/2006 15:04"),
		})
	}
	return rows
}

func overviewFrom(stats core.Statistics) overviewData {
	return overviewData{
		Total:   core.FormatEuros(stats.Total.Cents),
		Count:   stats.Count,
		Average: core.FormatEuros(stats.Average.Cents),
		Max:     core.FormatEuros(stats.Max.Cents),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	records, err := s.records.List(r.Context())
	if err != nil {
		// Render an empty dashboard rather than a blank error page.
		slog.ErrorContext(r.Context(), "List records error", "error", err)
		records = nil
	}
	stats := core.ComputeStatistics(records)

	data := indexData{
		Today:    core.Today().ISO(),
		Overview: overviewFrom(stats),
		Charts:   chartsData{HasCharts: stats.Count > 1},
		Table:    tableData{Rows: recordRows(records)},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	// Check templates
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	// Check the record store with a lightweight list call
	records, err := s.records.List(ctx)
	if err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]interface{}{
			"records": len(records),
			"status":  "ok",
		}
	}

	checks["cache"] = map[string]interface{}{
		"chart_entries": s.chartCache.Size(),
		"status":        "ok",
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	requestsTotal := atomic.LoadInt64(&s.metrics.requestsTotal)
	recordsCreated := atomic.LoadInt64(&s.metrics.recordsCreated)
	recordsDeleted := atomic.LoadInt64(&s.metrics.recordsDeleted)
	rateLimitHits := atomic.LoadInt64(&s.security.rateLimitHits)
	suspiciousRequests := atomic.LoadInt64(&s.security.suspiciousRequests)
	uptime := time.Since(s.metrics.startedAt)

	chartStats := s.chartCache.Stats()
	activeClients := s.rateLimiter.ActiveClients()

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", requestsTotal)

	fmt.Fprintf(w, "# HELP records_created_total Total number of income records created\n")
	fmt.Fprintf(w, "# TYPE records_created_total counter\n")
	fmt.Fprintf(w, "records_created_total %d\n\n", recordsCreated)

	fmt.Fprintf(w, "# HELP records_deleted_total Total number of income records deleted\n")
	fmt.Fprintf(w, "# TYPE records_deleted_total counter\n")
	fmt.Fprintf(w, "records_deleted_total %d\n\n", recordsDeleted)

	fmt.Fprintf(w, "# HELP chart_cache_hits_total Total chart cache hits\n")
	fmt.Fprintf(w, "# TYPE chart_cache_hits_total counter\n")
	fmt.Fprintf(w, "chart_cache_hits_total %d\n\n", chartStats.Hits)

	fmt.Fprintf(w, "# HELP chart_cache_misses_total Total chart cache misses\n")
	fmt.Fprintf(w, "# TYPE chart_cache_misses_total counter\n")
	fmt.Fprintf(w, "chart_cache_misses_total %d\n\n", chartStats.Misses)

	fmt.Fprintf(w, "# HELP chart_cache_entries Current chart cache entries\n")
	fmt.Fprintf(w, "# TYPE chart_cache_entries gauge\n")
	fmt.Fprintf(w, "chart_cache_entries %d\n\n", chartStats.Size)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", suspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", activeClients)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}
