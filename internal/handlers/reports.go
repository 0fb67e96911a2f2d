package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/export"
	"github.com/ahmedhadihasan/iqraaexam/internal/metrics"
	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

type ReportHandler struct {
	service *app.Service
}

func NewReportHandler(service *app.Service) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

// HandleResults serves the full result rows, optionally filtered by session.
func (h *ReportHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	rows, err := h.service.ComputeResults(store.AssignmentFilter{SessionID: sessionID})
	if err != nil {
		logger.Error.Printf("Failed to compute results: %v", err)
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": rows,
	})
}

func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Summary(sessionID)
	if err != nil {
		logger.Error.Printf("Failed to build summary: %v", err)
		http.Error(w, "Failed to fetch summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) HandleGraderStats(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	stats, err := h.service.GraderStats(sessionID)
	if err != nil {
		logger.Error.Printf("Failed to fetch grader stats: %v", err)
		http.Error(w, "Failed to fetch grader stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": stats,
	})
}

// HandleExportCSV streams the detailed per-item export.
func (h *ReportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportCSV(w, r, false)
}

// HandleExportSummaryCSV streams the condensed export.
func (h *ReportHandler) HandleExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	h.exportCSV(w, r, true)
}

func (h *ReportHandler) exportCSV(w http.ResponseWriter, r *http.Request, condensed bool) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	rows, err := h.service.ComputeResults(store.AssignmentFilter{SessionID: sessionID})
	if err != nil {
		logger.Error.Printf("Failed to compute results for export: %v", err)
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	format := h.service.Config.Display.TimestampFormat
	if format == "" {
		format = "20060102_1504"
	}
	stamp := time.Now().Format(format)
	filename := fmt.Sprintf("results_%s.csv", stamp)
	if condensed {
		filename = fmt.Sprintf("results_summary_%s.csv", stamp)
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if condensed {
		err = export.WriteSummaryCSV(w, rows)
	} else {
		err = export.WriteDetailedCSV(w, rows, h.service.Engine.Items)
	}
	if err != nil {
		logger.Error.Printf("Failed to stream csv: %v", err)
	}
}
