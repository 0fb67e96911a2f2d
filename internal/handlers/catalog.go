package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

// CatalogHandler serves the reference data: teams, graders, question groups
// and exam sessions.
type CatalogHandler struct {
	service *app.Service
}

func NewCatalogHandler(service *app.Service) *CatalogHandler {
	return &CatalogHandler{
		service: service,
	}
}

func (h *CatalogHandler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var team models.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := team.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.CreateTeam(&team); err != nil {
		logger.Error.Printf("Failed to create team: %v", err)
		http.Error(w, "Failed to save team", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

func (h *CatalogHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	teams, err := h.service.Store.ListTeams()
	if err != nil {
		logger.Error.Printf("Failed to list teams: %v", err)
		http.Error(w, "Failed to fetch teams", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": teams,
	})
}

func (h *CatalogHandler) HandleListTeamGraders(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	teamID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid team id", http.StatusBadRequest)
		return
	}

	graders, err := h.service.Store.ListTeamGraders(teamID)
	if err != nil {
		logger.Error.Printf("Failed to list team graders: %v", err)
		http.Error(w, "Failed to fetch graders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": graders,
	})
}

func (h *CatalogHandler) HandleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid team id", http.StatusBadRequest)
		return
	}

	var team models.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	team.ID = id
	if err := team.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpdateTeam(&team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Team not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to update team: %v", err)
		http.Error(w, "Failed to update team", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

// HandleDeleteTeam removes a team and its graders. Teams that still own
// assignments are protected by the schema and come back as a conflict.
func (h *CatalogHandler) HandleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid team id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteTeam(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Team not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete team: %v", err)
		http.Error(w, "Team still has assignments", http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleCreateGrader registers a grader at a team position. Positions are
// unique per team; a collision comes back as a conflict.
func (h *CatalogHandler) HandleCreateGrader(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var grader models.Grader
	if err := json.NewDecoder(r.Body).Decode(&grader); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := grader.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if team, err := h.service.Store.GetTeam(grader.TeamID); err != nil {
		logger.Error.Printf("Failed to check team: %v", err)
		http.Error(w, "Failed to save grader", http.StatusInternalServerError)
		return
	} else if team == nil {
		http.Error(w, "Team not found", http.StatusNotFound)
		return
	}

	if err := h.service.Store.CreateGrader(&grader); err != nil {
		logger.Error.Printf("Failed to create grader: %v", err)
		http.Error(w, "Position already taken in this team", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, grader)
}

func (h *CatalogHandler) HandleListGraders(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	graders, err := h.service.Store.ListGraders()
	if err != nil {
		logger.Error.Printf("Failed to list graders: %v", err)
		http.Error(w, "Failed to fetch graders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": graders,
	})
}

func (h *CatalogHandler) HandleUpdateGrader(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	var grader models.Grader
	if err := json.NewDecoder(r.Body).Decode(&grader); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	grader.ID = id
	if err := grader.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpdateGrader(&grader); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Grader not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to update grader: %v", err)
		http.Error(w, "Position already taken in this team", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, grader)
}

func (h *CatalogHandler) HandleDeleteGrader(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteGrader(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Grader not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete grader: %v", err)
		http.Error(w, "Failed to delete grader", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleIssueGraderToken mints or refreshes a grader's access token.
// Supervisor token required; 404 when auth is disabled.
func (h *CatalogHandler) HandleIssueGraderToken(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	if h.service.Tokens == nil {
		http.Error(w, "Token auth is not enabled", http.StatusNotFound)
		return
	}
	if err := h.service.ValidateSupervisorAccess(r); err != nil {
		logger.Error.Printf("Supervisor auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	graderID, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid grader id", http.StatusBadRequest)
		return
	}

	grader, err := h.service.Store.GetGrader(graderID)
	if err != nil {
		logger.Error.Printf("Failed to get grader: %v", err)
		http.Error(w, "Failed to fetch grader", http.StatusInternalServerError)
		return
	}
	if grader == nil {
		http.Error(w, "Grader not found", http.StatusNotFound)
		return
	}

	info, isNew, err := h.service.Tokens.FetchOrCreateGraderToken(r.Context(), graderID)
	if err != nil {
		logger.Error.Printf("Failed to issue token: %v", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, info)
}

func (h *CatalogHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var group models.QuestionGroup
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := group.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.CreateGroup(&group); err != nil {
		logger.Error.Printf("Failed to create question group: %v", err)
		http.Error(w, "Failed to save question group", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *CatalogHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	groups, err := h.service.Store.ListGroups()
	if err != nil {
		logger.Error.Printf("Failed to list question groups: %v", err)
		http.Error(w, "Failed to fetch question groups", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": groups,
	})
}

func (h *CatalogHandler) HandleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid question group id", http.StatusBadRequest)
		return
	}

	var group models.QuestionGroup
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	group.ID = id
	if err := group.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpdateGroup(&group); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Question group not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to update question group: %v", err)
		http.Error(w, "Failed to update question group", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *CatalogHandler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid question group id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteGroup(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Question group not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete question group: %v", err)
		http.Error(w, "Failed to delete question group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *CatalogHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var session models.ExamSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if session.NumRooms == 0 {
		session.NumRooms = 1
	}
	if session.GradersPerRoom == 0 {
		session.GradersPerRoom = h.service.Config.Teams.DefaultGradersPerTeam
	}
	if err := session.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.CreateSession(&session); err != nil {
		logger.Error.Printf("Failed to create exam session: %v", err)
		http.Error(w, "Failed to save exam session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *CatalogHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	sessions, err := h.service.Store.ListSessions(activeOnly)
	if err != nil {
		logger.Error.Printf("Failed to list exam sessions: %v", err)
		http.Error(w, "Failed to fetch exam sessions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": sessions,
	})
}

func (h *CatalogHandler) HandleUpdateSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid exam session id", http.StatusBadRequest)
		return
	}

	var session models.ExamSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	session.ID = id
	if err := session.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpdateSession(&session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Exam session not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to update exam session: %v", err)
		http.Error(w, "Failed to update exam session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *CatalogHandler) HandleActivateSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid exam session id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.ActivateSession(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Exam session not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to activate exam session: %v", err)
		http.Error(w, "Failed to activate exam session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *CatalogHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid exam session id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteSession(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Exam session not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete exam session: %v", err)
		http.Error(w, "Failed to delete exam session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
