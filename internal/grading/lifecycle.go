package grading

import (
	"fmt"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

// Store is the slice of the datastore the lifecycle controller needs. Every
// mutating method executes as a single transaction so a concurrent reader
// never sees marks without their subtotal or a completed flag ahead of its
// inputs.
type Store interface {
	GetAssignment(id int64) (*models.Assignment, error)
	GetGrader(id int64) (*models.Grader, error)
	GetTeam(id int64) (*models.Team, error)
	GetGroup(id int64) (*models.QuestionGroup, error)
	GetSession(id int64) (*models.ExamSession, error)
	GetStudent(id int64) (*models.Student, error)
	FindAssignment(studentID int64, sessionID *int64) (*models.Assignment, error)
	CreateAssignment(a *models.Assignment) error

	StartGrading(assignmentID, graderID, now int64) (startedAt int64, created bool, err error)
	SubmitGrade(assignmentID, graderID int64, marks models.MarkSet, position, required int, now int64) (*models.GradeRecord, error)
	SetBonusMark(assignmentID int64, mark float64, required int, now int64) error
	ResetAssignmentTeam(assignmentID, teamID, now int64) error
	UpdateAssignmentGroup(assignmentID, groupID, now int64) error
	SetExamIncomplete(assignmentID int64, incomplete bool, now int64) error
	ListBonusSyncCandidates() ([]models.BonusSyncCandidate, error)
}

// Controller drives assignment state transitions in response to grade
// submissions, bonus entry, reassignment and incomplete flagging.
type Controller struct {
	store          Store
	engine         *Engine
	defaultGraders int
	now            func() int64

	// AfterBonus runs after a successful bonus write. Best effort: its
	// failure is logged, never surfaced.
	AfterBonus func(assignmentID int64) error
}

func NewController(store Store, engine *Engine, defaultGraders int) *Controller {
	if defaultGraders < 2 || defaultGraders > 3 {
		defaultGraders = 2
	}
	return &Controller{
		store:          store,
		engine:         engine,
		defaultGraders: defaultGraders,
		now:            func() int64 { return time.Now().Unix() },
	}
}

// requiredPositions is how many grader flags the assignment needs before it
// can complete: the linked session decides, 2 when there is none.
func (c *Controller) requiredPositions(a *models.Assignment) int {
	if a.SessionID == nil {
		return c.defaultGraders
	}
	session, err := c.store.GetSession(*a.SessionID)
	if err != nil || session == nil {
		return c.defaultGraders
	}
	if session.GradersPerRoom < 2 || session.GradersPerRoom > 3 {
		return c.defaultGraders
	}
	return session.GradersPerRoom
}

// CreateAssignment binds a student to a team and question group. A roster
// bonus mark in range is copied onto the new assignment; completion is
// derived, never assumed.
func (c *Controller) CreateAssignment(a *models.Assignment) (*models.Assignment, error) {
	student, err := c.store.GetStudent(a.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Entity: "student", ID: a.StudentID}
	}
	if team, err := c.store.GetTeam(a.TeamID); err != nil {
		return nil, err
	} else if team == nil {
		return nil, &NotFoundError{Entity: "team", ID: a.TeamID}
	}
	if group, err := c.store.GetGroup(a.GroupID); err != nil {
		return nil, err
	} else if group == nil {
		return nil, &NotFoundError{Entity: "question group", ID: a.GroupID}
	}
	if a.SessionID != nil {
		if session, err := c.store.GetSession(*a.SessionID); err != nil {
			return nil, err
		} else if session == nil {
			return nil, &NotFoundError{Entity: "exam session", ID: *a.SessionID}
		}
	}

	existing, err := c.store.FindAssignment(a.StudentID, a.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAssignment
	}

	if student.BonusMark != nil && c.engine.ValidateBonus(*student.BonusMark) == nil {
		bonus := *student.BonusMark
		a.BonusMark = &bonus
	}
	a.GradedByFirst = false
	a.GradedBySecond = false
	a.GradedByThird = false
	a.DeriveCompleted(c.requiredPositions(a))
	a.CreatedAt = c.now()
	a.UpdatedAt = a.CreatedAt

	if err := c.store.CreateAssignment(a); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return a, nil
}

// BeginGrading records when a grader opened a paper. Idempotent: a repeated
// begin reports the original start time.
func (c *Controller) BeginGrading(assignmentID, graderID int64) (startedAt int64, created bool, err error) {
	if a, err := c.store.GetAssignment(assignmentID); err != nil {
		return 0, false, err
	} else if a == nil {
		return 0, false, &NotFoundError{Entity: "assignment", ID: assignmentID}
	}
	if g, err := c.store.GetGrader(graderID); err != nil {
		return 0, false, err
	} else if g == nil {
		return 0, false, &NotFoundError{Entity: "grader", ID: graderID}
	}
	return c.store.StartGrading(assignmentID, graderID, c.now())
}

// SubmitMarks validates a full submission against the assignment's rubric
// and, only if every provided mark passes, merges it into the grader's
// record, recomputes the subtotal and flips the grader-position flag — all
// in one transaction.
func (c *Controller) SubmitMarks(assignmentID, graderID int64, marks models.MarkSet) (*models.GradeRecord, error) {
	a, err := c.store.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "assignment", ID: assignmentID}
	}

	grader, err := c.store.GetGrader(graderID)
	if err != nil {
		return nil, err
	}
	if grader == nil {
		return nil, &NotFoundError{Entity: "grader", ID: graderID}
	}
	if grader.TeamID != a.TeamID {
		return nil, ErrWrongTeam
	}

	group, err := c.store.GetGroup(a.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, &NotFoundError{Entity: "question group", ID: a.GroupID}
	}

	if err := c.engine.ValidateMarks(group, marks); err != nil {
		return nil, err
	}

	required := c.requiredPositions(a)
	rec, err := c.store.SubmitGrade(assignmentID, graderID, marks, grader.Position, required, c.now())
	if err != nil {
		return nil, fmt.Errorf("failed to submit grade: %w", err)
	}
	return rec, nil
}

// SetBonusMark stores the supervisor mark and rederives completion. The
// caller is responsible for having checked the supervisor privilege.
func (c *Controller) SetBonusMark(assignmentID int64, mark float64) (*models.Assignment, error) {
	if err := c.engine.ValidateBonus(mark); err != nil {
		return nil, err
	}

	a, err := c.store.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "assignment", ID: assignmentID}
	}

	if err := c.store.SetBonusMark(assignmentID, mark, c.requiredPositions(a), c.now()); err != nil {
		return nil, fmt.Errorf("failed to set bonus mark: %w", err)
	}

	if c.AfterBonus != nil {
		if err := c.AfterBonus(assignmentID); err != nil {
			logger.Error.Printf("Post-bonus snapshot failed (non-critical): %v", err)
		}
	}

	return c.store.GetAssignment(assignmentID)
}

// ReassignTeam moves the assignment to a new team. The graders changed, so
// existing grade records are meaningless: they are deleted and every flag
// reset, atomically with the team switch.
func (c *Controller) ReassignTeam(assignmentID, teamID int64) error {
	a, err := c.store.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return &NotFoundError{Entity: "assignment", ID: assignmentID}
	}
	if team, err := c.store.GetTeam(teamID); err != nil {
		return err
	} else if team == nil {
		return &NotFoundError{Entity: "team", ID: teamID}
	}
	return c.store.ResetAssignmentTeam(assignmentID, teamID, c.now())
}

// ReassignGroup swaps the rubric for future submissions. Existing grade
// records are not re-validated.
func (c *Controller) ReassignGroup(assignmentID, groupID int64) error {
	a, err := c.store.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return &NotFoundError{Entity: "assignment", ID: assignmentID}
	}
	if group, err := c.store.GetGroup(groupID); err != nil {
		return err
	} else if group == nil {
		return &NotFoundError{Entity: "question group", ID: groupID}
	}
	return c.store.UpdateAssignmentGroup(assignmentID, groupID, c.now())
}

// MarkIncomplete flags a student as not having finished the exam. Purely a
// reporting annotation; grade entry stays open.
func (c *Controller) MarkIncomplete(assignmentID int64) error {
	return c.setIncomplete(assignmentID, true)
}

// ClearIncomplete reverts MarkIncomplete.
func (c *Controller) ClearIncomplete(assignmentID int64) error {
	return c.setIncomplete(assignmentID, false)
}

func (c *Controller) setIncomplete(assignmentID int64, incomplete bool) error {
	a, err := c.store.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return &NotFoundError{Entity: "assignment", ID: assignmentID}
	}
	return c.store.SetExamIncomplete(assignmentID, incomplete, c.now())
}

// SyncBonusFromRoster copies roster bonus marks onto assignments still
// missing one. Each assignment is its own transaction: a bad record is
// skipped (out of range) or logged (write failure) without touching the
// rest of the batch. Returns how many assignments were updated.
func (c *Controller) SyncBonusFromRoster() (int, error) {
	candidates, err := c.store.ListBonusSyncCandidates()
	if err != nil {
		return 0, fmt.Errorf("failed to list sync candidates: %w", err)
	}

	synced := 0
	for _, cand := range candidates {
		if c.engine.ValidateBonus(cand.RosterBonus) != nil {
			logger.Debug.Printf(
				"Skipping bonus sync for assignment %d: roster mark %g out of range",
				cand.AssignmentID, cand.RosterBonus,
			)
			continue
		}
		required := c.defaultGraders
		if cand.GradersPerRoom != nil && *cand.GradersPerRoom >= 2 && *cand.GradersPerRoom <= 3 {
			required = *cand.GradersPerRoom
		}
		if err := c.store.SetBonusMark(cand.AssignmentID, cand.RosterBonus, required, c.now()); err != nil {
			logger.Error.Printf("Bonus sync failed for assignment %d: %v", cand.AssignmentID, err)
			continue
		}
		synced++
	}
	return synced, nil
}
