package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/metrics"
	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

type GradeHandler struct {
	service *app.Service
}

func NewGradeHandler(service *app.Service) *GradeHandler {
	return &GradeHandler{
		service: service,
	}
}

// HandleBeginGrading stamps the moment a grader opened a paper. Repeated
// calls return the original stamp.
func (h *GradeHandler) HandleBeginGrading(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	assignmentID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}
	graderID, ok := parsePathID(r, "grader_id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateGraderAccess(r, graderID); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	startedAt, created, err := h.service.Controller.BeginGrading(assignmentID, graderID)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"assignment_id": assignmentID,
		"grader_id":     graderID,
		"started_at":    startedAt,
	})
}

// HandleSubmitMarks validates and persists a grader's marks. Partial
// resubmissions merge into the existing record.
func (h *GradeHandler) HandleSubmitMarks(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	assignmentID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}
	graderID, ok := parsePathID(r, "grader_id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateGraderAccess(r, graderID); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Marks models.MarkSet `json:"marks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(payload.Marks) == 0 {
		http.Error(w, "No marks provided", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Controller.SubmitMarks(assignmentID, graderID, payload.Marks)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	a, err := h.service.Store.GetAssignment(assignmentID)
	if err == nil && a != nil {
		if team, terr := h.service.Store.GetTeam(a.TeamID); terr == nil && team != nil {
			group := ""
			if g, gerr := h.service.Store.GetGroup(a.GroupID); gerr == nil && g != nil {
				group = g.Code
			}
			metrics.GradeSubmissionsTotal.WithLabelValues(team.Name, group).Inc()
			if rec.StartedAt != nil && rec.FinishedAt != nil && *rec.FinishedAt > *rec.StartedAt {
				minutes := float64(*rec.FinishedAt-*rec.StartedAt) / 60.0
				metrics.GradingMinutes.WithLabelValues(team.Name).Observe(minutes)
			}
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

// HandleListGraderGrades returns everything one grader has submitted, most
// recent first.
func (h *GradeHandler) HandleListGraderGrades(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	graderID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	records, err := h.service.Store.ListGraderGrades(graderID)
	if err != nil {
		logger.Error.Printf("Failed to list grader grades: %v", err)
		http.Error(w, "Failed to fetch grades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": records,
	})
}

// HandleDeleteGrade removes a single grade record. The assignment's flags are
// not recomputed here; supervisors use team reassignment for a full reset.
func (h *GradeHandler) HandleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	if err := h.service.ValidateSupervisorAccess(r); err != nil {
		logger.Error.Printf("Supervisor auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid grade id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteGrade(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Grade not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete grade: %v", err)
		http.Error(w, "Failed to delete grade", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleListGrades returns every grade record for one assignment.
func (h *GradeHandler) HandleListGrades(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	assignmentID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	records, err := h.service.Store.ListAssignmentGrades(assignmentID)
	if err != nil {
		logger.Error.Printf("Failed to list grades: %v", err)
		http.Error(w, "Failed to fetch grades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": records,
	})
}
