package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/grading"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

// writeGradingError maps the grading error taxonomy onto HTTP statuses:
// validation 400, missing reference 404, wrong team 403, duplicate 409.
func writeGradingError(w http.ResponseWriter, err error) {
	switch {
	case grading.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case grading.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, grading.ErrWrongTeam):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, grading.ErrDuplicateAssignment):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func parsePathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sessionIDParam reads the optional ?session_id= filter. Absent means all
// sessions, never "the active one".
func sessionIDParam(r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("session_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}
