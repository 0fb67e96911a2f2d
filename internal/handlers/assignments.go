package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/models"
	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

type AssignmentHandler struct {
	service *app.Service
}

func NewAssignmentHandler(service *app.Service) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
	}
}

// HandleCreate binds a student to a team and question group.
func (h *AssignmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var payload struct {
		StudentID int64  `json:"student_id"`
		TeamID    int64  `json:"team_id"`
		GroupID   int64  `json:"group_id"`
		SessionID *int64 `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a := &models.Assignment{
		StudentID: payload.StudentID,
		TeamID:    payload.TeamID,
		GroupID:   payload.GroupID,
		SessionID: payload.SessionID,
	}
	created, err := h.service.Controller.CreateAssignment(a)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *AssignmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	a, err := h.service.Store.GetAssignment(id)
	if err != nil {
		logger.Error.Printf("Failed to get assignment: %v", err)
		http.Error(w, "Failed to fetch assignment", http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.Error(w, "Assignment not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	filter := store.AssignmentFilter{}
	sessionID, ok := sessionIDParam(r)
	if !ok {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}
	filter.SessionID = sessionID

	if raw := r.URL.Query().Get("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid team id", http.StatusBadRequest)
			return
		}
		filter.TeamID = &id
	}
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed := raw == "true"
		filter.Completed = &completed
	}

	assignments, err := h.service.Store.ListAssignments(filter)
	if err != nil {
		logger.Error.Printf("Failed to list assignments: %v", err)
		http.Error(w, "Failed to fetch assignments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": assignments,
	})
}

// HandleSetBonus stores the supervisor mark. Supervisor token required.
func (h *AssignmentHandler) HandleSetBonus(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	var payload struct {
		BonusMark *float64 `json:"bonus_mark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.BonusMark == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.service.Controller.SetBonusMark(id, *payload.BonusMark)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// HandleReassignTeam moves the assignment to a new team, discarding any
// grades the old team entered.
func (h *AssignmentHandler) HandleReassignTeam(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	var payload struct {
		TeamID int64 `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.TeamID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Controller.ReassignTeam(id, payload.TeamID); err != nil {
		writeGradingError(w, err)
		return
	}

	a, err := h.service.Store.GetAssignment(id)
	if err != nil {
		logger.Error.Printf("Failed to reload assignment: %v", err)
		http.Error(w, "Failed to fetch assignment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleReassignGroup swaps the rubric used for future submissions.
func (h *AssignmentHandler) HandleReassignGroup(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	var payload struct {
		GroupID int64 `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.GroupID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Controller.ReassignGroup(id, payload.GroupID); err != nil {
		writeGradingError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *AssignmentHandler) HandleMarkIncomplete(w http.ResponseWriter, r *http.Request) {
	h.setIncomplete(w, r, true)
}

func (h *AssignmentHandler) HandleClearIncomplete(w http.ResponseWriter, r *http.Request) {
	h.setIncomplete(w, r, false)
}

func (h *AssignmentHandler) setIncomplete(w http.ResponseWriter, r *http.Request, incomplete bool) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	var err error
	if incomplete {
		err = h.service.Controller.MarkIncomplete(id)
	} else {
		err = h.service.Controller.ClearIncomplete(id)
	}
	if err != nil {
		writeGradingError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *AssignmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteAssignment(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Assignment not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete assignment: %v", err)
		http.Error(w, "Failed to delete assignment", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleSyncBonus copies roster bonus marks onto assignments missing one.
func (h *AssignmentHandler) HandleSyncBonus(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	if err := h.service.ValidateSupervisorAccess(r); err != nil {
		logger.Error.Printf("Supervisor auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	synced, err := h.service.Controller.SyncBonusFromRoster()
	if err != nil {
		logger.Error.Printf("Bonus sync failed: %v", err)
		http.Error(w, "Failed to sync bonus marks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"synced": synced,
	})
}

// HandleCreateBackup writes a snapshot on demand.
func (h *AssignmentHandler) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	name, err := h.service.SnapshotResults()
	if err != nil {
		logger.Error.Printf("Snapshot failed: %v", err)
		http.Error(w, "Failed to write backup", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"backup": name,
	})
}

func (h *AssignmentHandler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	names, err := h.service.Backup.List()
	if err != nil {
		logger.Error.Printf("Failed to list backups: %v", err)
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backups": names,
	})
}
