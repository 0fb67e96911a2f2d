package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

// GradingStore is everything the service needs from a datastore. Mutating
// operations that touch derived state (subtotal, grader flags, completed)
// run as single transactions.
type GradingStore interface {
	Close() error
	ApplyMigrations(dir string) error

	// roster
	CreateStudent(s *models.Student) error
	GetStudent(id int64) (*models.Student, error)
	ListStudents(search string, limit, offset int) ([]models.Student, error)
	UpdateStudent(s *models.Student) error
	DeleteStudent(id int64) error
	DeleteAllStudents() error

	// teams and graders
	CreateTeam(t *models.Team) error
	GetTeam(id int64) (*models.Team, error)
	ListTeams() ([]models.Team, error)
	UpdateTeam(t *models.Team) error
	DeleteTeam(id int64) error
	CreateGrader(g *models.Grader) error
	GetGrader(id int64) (*models.Grader, error)
	ListGraders() ([]models.Grader, error)
	UpdateGrader(g *models.Grader) error
	DeleteGrader(id int64) error
	ListTeamGraders(teamID int64) ([]models.Grader, error)

	// question groups
	CreateGroup(g *models.QuestionGroup) error
	GetGroup(id int64) (*models.QuestionGroup, error)
	ListGroups() ([]models.QuestionGroup, error)
	UpdateGroup(g *models.QuestionGroup) error
	DeleteGroup(id int64) error

	// exam sessions
	CreateSession(s *models.ExamSession) error
	GetSession(id int64) (*models.ExamSession, error)
	ListSessions(activeOnly bool) ([]models.ExamSession, error)
	UpdateSession(s *models.ExamSession) error
	ActivateSession(id int64) error
	DeleteSession(id int64) error

	// assignments
	CreateAssignment(a *models.Assignment) error
	GetAssignment(id int64) (*models.Assignment, error)
	FindAssignment(studentID int64, sessionID *int64) (*models.Assignment, error)
	ListAssignments(f AssignmentFilter) ([]models.Assignment, error)
	SetBonusMark(assignmentID int64, mark float64, required int, now int64) error
	ResetAssignmentTeam(assignmentID, teamID, now int64) error
	UpdateAssignmentGroup(assignmentID, groupID, now int64) error
	SetExamIncomplete(assignmentID int64, incomplete bool, now int64) error
	DeleteAssignment(id int64) error
	ListBonusSyncCandidates() ([]models.BonusSyncCandidate, error)

	// grade records
	StartGrading(assignmentID, graderID, now int64) (startedAt int64, created bool, err error)
	SubmitGrade(assignmentID, graderID int64, marks models.MarkSet, position, required int, now int64) (*models.GradeRecord, error)
	GetGradeRecord(assignmentID, graderID int64) (*models.GradeRecord, error)
	ListAssignmentGrades(assignmentID int64) ([]models.GradeRecord, error)
	ListGraderGrades(graderID int64) ([]models.GradeRecord, error)
	DeleteGrade(id int64) error

	// reporting
	FetchGraderStats(sessionID *int64, maxMinutes float64) ([]GraderStatRow, error)
}

// BaseStore provides the shared SQL for the dialect-specific stores.
// Queries are written with `?` placeholders and run through Converter so
// the postgres store can rewrite them to `$n`.
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating
// dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *BaseStore) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
