package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"entrate/internal/core"
)

// recentChartSize is how many records the recent-income bar chart shows.
const recentChartSize = 10

// handleChartData serves Plotly-ready JSON for a chart type. Payloads are
// cached until the next record mutation.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	chartType := chi.URLParam(r, "chartType")

	if cached, found := s.chartCache.Get(chartType); found {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(cached)
		return
	}

	records, err := s.records.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records error", "error", err, "chart_type", chartType)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var chartData map[string]interface{}

	switch chartType {
	case "timeline":
		chartData = buildTimelineChartData(records)
	case "recent":
		chartData = buildRecentChartData(records, recentChartSize)
	default:
		http.Error(w, "Unknown chart type", http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(chartData)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chart payload marshal error", "error", err, "chart_type", chartType)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.chartCache.Set(chartType, payload)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

// handleChartsSection renders the charts container partial. Charts only show
// once there are at least two records to plot.
func (s *Server) handleChartsSection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	records, err := s.records.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records error", "error", err)
		_, _ = w.Write([]byte(`<section id="charts" class="charts"><div class="placeholder">Errore nel caricamento dei grafici</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="charts" class="charts"></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "charts_section.html", chartsData{HasCharts: len(records) > 1}); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "charts_section.html")
		_, _ = w.Write([]byte(`<section id="charts" class="charts"><div class="placeholder">Errore di rendering</div></section>`))
	}
}

// buildTimelineChartData plots every record in date order as a filled line.
func buildTimelineChartData(records []core.IncomeRecord) map[string]interface{} {
	sorted := core.SortChronological(records)

	var dates []string
	var amounts []float64
	for _, rec := range sorted {
		dates = append(dates, rec.Date.ISO())
		amounts = append(amounts, rec.Amount.Euros())
	}

	return map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"type": "scatter",
				"mode": "lines+markers",
				"name": "Entrate",
				"x":    dates,
				"y":    amounts,
				"line": map[string]interface{}{
					"color": "#22c55e",
					"width": 2,
				},
				"fill":      "tozeroy",
				"fillcolor": "rgba(34, 197, 94, 0.1)",
			},
		},
		"layout": map[string]interface{}{
			"margin": map[string]interface{}{"t": 16, "r": 16},
			"yaxis": map[string]interface{}{
				"title": "Importo (€)",
			},
		},
	}
}

// buildRecentChartData plots the n most recent records, re-sorted into date
// order, as a bar chart. Labels carry the record ID so records sharing a
// date get their own bar instead of stacking on one x value.
func buildRecentChartData(records []core.IncomeRecord, n int) map[string]interface{} {
	recent := core.RecentChronological(records, n)

	var labels []string
	var amounts []float64
	for _, rec := range recent {
		labels = append(labels, fmt.Sprintf("%s #%d", rec.Date.Display(), rec.ID))
		amounts = append(amounts, rec.Amount.Euros())
	}

	return map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"type": "bar",
				"x":    labels,
				"y":    amounts,
				"marker": map[string]interface{}{
					"color": "#3b82f6",
				},
			},
		},
		"layout": map[string]interface{}{
			"margin": map[string]interface{}{"t": 16, "r": 16},
			"yaxis": map[string]interface{}{
				"title": "Importo (€)",
			},
		},
	}
}
