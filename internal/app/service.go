package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/export"
	"github.com/ahmedhadihasan/iqraaexam/internal/grading"
	"github.com/ahmedhadihasan/iqraaexam/internal/models"
	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

// Grading sessions left open longer than this are treated as abandoned and
// excluded from the per-grader timing averages.
const maxGradingMinutes = 120.0

type Service struct {
	Config     *Config
	Store      store.GradingStore
	Auth       *Auth
	Tokens     *TokenManager
	Engine     *grading.Engine
	Controller *grading.Controller
	Backup     *export.Backup
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	gradingStore, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	if err := gradingStore.ApplyMigrations(config.Database.MigrationsDir); err != nil {
		gradingStore.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		gradingStore.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	engine := &config.Grading
	controller := grading.NewController(gradingStore, engine, config.Teams.DefaultGradersPerTeam)

	s := &Service{
		Config:     config,
		Store:      gradingStore,
		Auth:       auth,
		Engine:     engine,
		Controller: controller,
		Backup:     export.NewBackup(config.Backup.Dir, config.Backup.KeepLatest),
	}

	if auth.enabled {
		s.Tokens = NewTokenManager(auth.redis, config.Auth.GraderKeyTemplate)
	}

	controller.AfterBonus = func(int64) error {
		_, err := s.SnapshotResults()
		return err
	}

	return s, nil
}

// ComputeResults builds the authoritative result rows for every assignment
// matching the filter. Reference data is preloaded in bulk; only the grade
// records go per assignment.
func (s *Service) ComputeResults(filter store.AssignmentFilter) ([]models.ResultRow, error) {
	assignments, err := s.Store.ListAssignments(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	students, err := s.Store.ListStudents("", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	studentByID := make(map[int64]*models.Student, len(students))
	for i := range students {
		studentByID[students[i].ID] = &students[i]
	}

	teams, err := s.Store.ListTeams()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teamNames := make(map[int64]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	groups, err := s.Store.ListGroups()
	if err != nil {
		return nil, fmt.Errorf("failed to list question groups: %w", err)
	}
	groupCodes := make(map[int64]string, len(groups))
	for _, g := range groups {
		groupCodes[g.ID] = g.Code
	}

	graders, err := s.Store.ListGraders()
	if err != nil {
		return nil, fmt.Errorf("failed to list graders: %w", err)
	}
	graderPositions := make(map[int64]int, len(graders))
	for _, g := range graders {
		graderPositions[g.ID] = g.Position
	}

	rows := make([]models.ResultRow, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		student, ok := studentByID[a.StudentID]
		if !ok {
			logger.Error.Printf("Assignment %d references missing student %d, skipping", a.ID, a.StudentID)
			continue
		}

		records, err := s.Store.ListAssignmentGrades(a.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list grades for assignment %d: %w", a.ID, err)
		}
		grades := make([]models.PositionedGrade, 0, len(records))
		for _, rec := range records {
			position, ok := graderPositions[rec.GraderID]
			if !ok {
				continue
			}
			grades = append(grades, models.PositionedGrade{Position: position, Record: rec})
		}

		rows = append(rows, s.Engine.ComputeResultRow(a, student, teamNames[a.TeamID], groupCodes[a.GroupID], grades))
	}

	return rows, nil
}

// GraderStats reports per-grader throughput and average grading time.
func (s *Service) GraderStats(sessionID *int64) ([]models.GraderStat, error) {
	rows, err := s.Store.FetchGraderStats(sessionID, maxGradingMinutes)
	if err != nil {
		return nil, err
	}

	stats := make([]models.GraderStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, models.GraderStat{
			GraderID:       row.GraderID,
			GraderName:     row.GraderName,
			TeamName:       row.TeamName,
			Position:       row.Position,
			StudentsGraded: row.StudentsGraded,
			AvgMinutes:     row.AvgMinutes,
		})
	}
	return stats, nil
}

// Summary aggregates grading progress, overall and per team.
func (s *Service) Summary(sessionID *int64) (*models.Summary, error) {
	assignments, err := s.Store.ListAssignments(store.AssignmentFilter{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	teams, err := s.Store.ListTeams()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teamNames := make(map[int64]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	requiredBySession := make(map[int64]int)
	sessions, err := s.Store.ListSessions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, session := range sessions {
		requiredBySession[session.ID] = session.GradersPerRoom
	}

	summary := &models.Summary{}
	byTeam := make(map[int64]*models.TeamBreakdown)

	for _, a := range assignments {
		summary.TotalStudents++

		required := s.Config.Teams.DefaultGradersPerTeam
		if a.SessionID != nil {
			if n, ok := requiredBySession[*a.SessionID]; ok && n >= 2 && n <= 3 {
				required = n
			}
		}

		if a.Completed {
			summary.Completed++
		} else {
			summary.Pending++
		}
		if !a.GradedByFirst {
			summary.PendingFirst++
		}
		if !a.GradedBySecond {
			summary.PendingSecond++
		}
		if required == 3 && !a.GradedByThird {
			summary.PendingThird++
		}
		if a.BonusMark == nil {
			summary.PendingBonus++
		}

		tb, ok := byTeam[a.TeamID]
		if !ok {
			tb = &models.TeamBreakdown{TeamID: a.TeamID, TeamName: teamNames[a.TeamID]}
			byTeam[a.TeamID] = tb
		}
		tb.Total++
		if a.Completed {
			tb.Completed++
		}
	}

	for _, t := range teams {
		if tb, ok := byTeam[t.ID]; ok {
			summary.TeamBreakdown = append(summary.TeamBreakdown, *tb)
		}
	}

	return summary, nil
}

// SnapshotResults writes a full JSON backup of the result set.
func (s *Service) SnapshotResults() (string, error) {
	rows, err := s.ComputeResults(store.AssignmentFilter{})
	if err != nil {
		return "", fmt.Errorf("failed to compute results for snapshot: %w", err)
	}
	return s.Backup.Write(rows)
}

func bearerToken(r *http.Request, header string) (string, error) {
	authHeader := r.Header.Get(header)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("Invalid authorization header format")
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

// ValidateGraderAccess checks the request's bearer token against the
// grader's issued token. No-op when auth is disabled.
func (s *Service) ValidateGraderAccess(r *http.Request, graderID int64) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}
	token, err := bearerToken(r, s.Auth.tokenHeader)
	if err != nil {
		return err
	}
	return s.Auth.ValidateGraderToken(r.Context(), graderID, token)
}

// ValidateSupervisorAccess checks the request carries the supervisor token.
func (s *Service) ValidateSupervisorAccess(r *http.Request) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}
	token, err := bearerToken(r, s.Auth.tokenHeader)
	if err != nil {
		return err
	}
	return s.Auth.ValidateSupervisorToken(token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
