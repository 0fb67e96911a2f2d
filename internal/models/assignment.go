package models

// Assignment binds one student to one grading team and one question group,
// optionally within an exam session. It owns the bonus mark and the
// lifecycle flags.
//
// Completed is derived, never set by a client: it is true iff every required
// position flag is true and the bonus mark is present. ExamIncomplete is a
// reporting annotation and does not interact with the other flags.
type Assignment struct {
	ID             int64    `db:"id" json:"id"`
	StudentID      int64    `db:"student_id" json:"student_id"`
	TeamID         int64    `db:"team_id" json:"team_id"`
	GroupID        int64    `db:"group_id" json:"group_id"`
	SessionID      *int64   `db:"session_id" json:"session_id,omitempty"`
	BonusMark      *float64 `db:"bonus_mark" json:"bonus_mark,omitempty"`
	GradedByFirst  bool     `db:"graded_by_first" json:"graded_by_first"`
	GradedBySecond bool     `db:"graded_by_second" json:"graded_by_second"`
	GradedByThird  bool     `db:"graded_by_third" json:"graded_by_third"`
	Completed      bool     `db:"completed" json:"completed"`
	ExamIncomplete bool     `db:"exam_incomplete" json:"exam_incomplete"`
	CreatedAt      int64    `db:"created_at" json:"created_at"`
	UpdatedAt      int64    `db:"updated_at" json:"updated_at"`
}

// GradedBy reports the flag for a grader position.
func (a *Assignment) GradedBy(position int) bool {
	switch position {
	case 1:
		return a.GradedByFirst
	case 2:
		return a.GradedBySecond
	case 3:
		return a.GradedByThird
	}
	return false
}

// SetGradedBy flips the flag for a grader position.
func (a *Assignment) SetGradedBy(position int, graded bool) {
	switch position {
	case 1:
		a.GradedByFirst = graded
	case 2:
		a.GradedBySecond = graded
	case 3:
		a.GradedByThird = graded
	}
}

// DeriveCompleted recomputes the completion invariant for the given number
// of required grader positions.
func (a *Assignment) DeriveCompleted(requiredPositions int) {
	done := a.BonusMark != nil
	for pos := 1; pos <= requiredPositions; pos++ {
		done = done && a.GradedBy(pos)
	}
	a.Completed = done
}
