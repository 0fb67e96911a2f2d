package handlers

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/metrics"
	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

type RosterHandler struct {
	service *app.Service
}

func NewRosterHandler(service *app.Service) *RosterHandler {
	return &RosterHandler{
		service: service,
	}
}

func (h *RosterHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var student models.Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := student.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.CreateStudent(&student); err != nil {
		logger.Error.Printf("Failed to create student: %v", err)
		http.Error(w, "Failed to save student", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

// HandleBulkCreate accepts a JSON array of students. Rows are independent
// like the CSV import: bad ones land in the errors list, the rest are saved.
func (h *RosterHandler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var students []models.Student
	if err := json.NewDecoder(r.Body).Decode(&students); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created := []models.Student{}
	bulkErrors := []string{}
	for i := range students {
		student := &students[i]
		if err := student.Validate(); err != nil {
			bulkErrors = append(bulkErrors, fmt.Sprintf("row %d: %v", i+1, err))
			metrics.RosterImportsTotal.WithLabelValues("error").Inc()
			continue
		}
		if err := h.service.Store.CreateStudent(student); err != nil {
			logger.Error.Printf("Failed to create student in bulk row %d: %v", i+1, err)
			bulkErrors = append(bulkErrors, fmt.Sprintf("row %d: failed to save", i+1))
			metrics.RosterImportsTotal.WithLabelValues("error").Inc()
			continue
		}
		created = append(created, *student)
		metrics.RosterImportsTotal.WithLabelValues("ok").Inc()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": created,
		"errors":  bulkErrors,
	})
}

func (h *RosterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid student id", http.StatusBadRequest)
		return
	}

	student, err := h.service.Store.GetStudent(id)
	if err != nil {
		logger.Error.Printf("Failed to get student: %v", err)
		http.Error(w, "Failed to fetch student", http.StatusInternalServerError)
		return
	}
	if student == nil {
		http.Error(w, "Student not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, student)
}

func (h *RosterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	students, err := h.service.Store.ListStudents(query.Get("search"), limit, offset)
	if err != nil {
		logger.Error.Printf("Failed to list students: %v", err)
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": students,
	})
}

func (h *RosterHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid student id", http.StatusBadRequest)
		return
	}

	var student models.Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	student.ID = id
	if err := student.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpdateStudent(&student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Student not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to update student: %v", err)
		http.Error(w, "Failed to update student", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, student)
}

func (h *RosterHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := parsePathID(r, "id")
	if !ok {
		http.Error(w, "Invalid student id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteStudent(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Student not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to delete student: %v", err)
		http.Error(w, "Failed to delete student", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleDeleteAll wipes the roster. Supervisor token required.
func (h *RosterHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	if err := h.service.ValidateSupervisorAccess(r); err != nil {
		logger.Error.Printf("Supervisor auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Store.DeleteAllStudents(); err != nil {
		logger.Error.Printf("Failed to wipe roster: %v", err)
		http.Error(w, "Failed to delete students", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// csvColumnAliases maps accepted header spellings onto canonical fields.
var csvColumnAliases = map[string]string{
	"name":            "name",
	"student_name":    "name",
	"phone":           "phone",
	"birth_year":      "birth_year",
	"teacher":         "regular_teacher",
	"regular_teacher": "regular_teacher",
	"bonus":           "bonus_mark",
	"bonus_mark":      "bonus_mark",
	"second_term":     "is_second_term",
	"is_second_term":  "is_second_term",
	"previous_group":  "previous_group",
	"group":           "previous_group",
}

// HandleImportCSV ingests a roster file. Each row is imported independently:
// a bad row lands in the errors list and the rest keep going.
func (h *RosterHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		http.Error(w, "Failed to read CSV header", http.StatusBadRequest)
		return
	}

	columns := make(map[int]string, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := csvColumnAliases[key]; ok {
			columns[i] = canonical
		}
	}

	imported := []models.Student{}
	importErrors := []string{}
	line := 1

	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			importErrors = append(importErrors, fmt.Sprintf("line %d: %v", line, err))
			metrics.RosterImportsTotal.WithLabelValues("error").Inc()
			continue
		}

		student, err := studentFromCSVRow(columns, record)
		if err != nil {
			importErrors = append(importErrors, fmt.Sprintf("line %d: %v", line, err))
			metrics.RosterImportsTotal.WithLabelValues("error").Inc()
			continue
		}

		if err := h.service.Store.CreateStudent(student); err != nil {
			logger.Error.Printf("Failed to import roster row %d: %v", line, err)
			importErrors = append(importErrors, fmt.Sprintf("line %d: failed to save", line))
			metrics.RosterImportsTotal.WithLabelValues("error").Inc()
			continue
		}

		imported = append(imported, *student)
		metrics.RosterImportsTotal.WithLabelValues("ok").Inc()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(imported),
		"created":  imported,
		"errors":   importErrors,
	})
}

func studentFromCSVRow(columns map[int]string, record []string) (*models.Student, error) {
	student := &models.Student{}
	for i, field := range columns {
		if i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		switch field {
		case "name":
			student.Name = value
		case "phone":
			student.Phone = &value
		case "birth_year":
			year, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("bad birth_year %q", value)
			}
			student.BirthYear = &year
		case "regular_teacher":
			student.RegularTeacher = &value
		case "bonus_mark":
			mark, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("bad bonus_mark %q", value)
			}
			student.BonusMark = &mark
		case "is_second_term":
			student.IsSecondTerm = value == "1" || strings.EqualFold(value, "true") || strings.EqualFold(value, "yes")
		case "previous_group":
			student.PreviousGroup = &value
		}
	}

	if student.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if err := student.Validate(); err != nil {
		return nil, err
	}
	return student, nil
}
