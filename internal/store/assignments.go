package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

const assignmentColumns = `
	id, student_id, team_id, group_id, session_id, bonus_mark,
	graded_by_first, graded_by_second, graded_by_third,
	completed, exam_incomplete, created_at, updated_at
`

func (s *BaseStore) CreateAssignment(a *models.Assignment) error {
	query := s.Converter(`
		INSERT INTO assignments (
			student_id, team_id, group_id, session_id, bonus_mark,
			graded_by_first, graded_by_second, graded_by_third,
			completed, exam_incomplete, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&a.ID, query,
		a.StudentID,
		a.TeamID,
		a.GroupID,
		a.SessionID,
		a.BonusMark,
		a.GradedByFirst,
		a.GradedBySecond,
		a.GradedByThird,
		a.Completed,
		a.ExamIncomplete,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (s *BaseStore) GetAssignment(id int64) (*models.Assignment, error) {
	var a models.Assignment
	query := s.Converter(`SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`)
	err := s.DB.Get(&a, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

// FindAssignment looks up the assignment for a student within one session.
// A nil sessionID matches only assignments not linked to any session, so the
// same student can sit separate exams without colliding.
func (s *BaseStore) FindAssignment(studentID int64, sessionID *int64) (*models.Assignment, error) {
	var (
		a     models.Assignment
		query string
		args  []interface{}
	)
	if sessionID == nil {
		query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE student_id = ? AND session_id IS NULL`
		args = []interface{}{studentID}
	} else {
		query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE student_id = ? AND session_id = ?`
		args = []interface{}{studentID, *sessionID}
	}
	err := s.DB.Get(&a, s.Converter(query), args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return &a, nil
}

func (s *BaseStore) ListAssignments(f AssignmentFilter) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	conds := []string{}
	args := []interface{}{}
	if f.TeamID != nil {
		conds = append(conds, `team_id = ?`)
		args = append(args, *f.TeamID)
	}
	if f.GroupID != nil {
		conds = append(conds, `group_id = ?`)
		args = append(args, *f.GroupID)
	}
	if f.SessionID != nil {
		conds = append(conds, `session_id = ?`)
		args = append(args, *f.SessionID)
	}
	if f.Completed != nil {
		conds = append(conds, `completed = ?`)
		args = append(args, *f.Completed)
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY id`

	var assignments []models.Assignment
	if err := s.DB.Select(&assignments, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// SetBonusMark writes the bonus and rederives the completed flag in the same
// transaction.
func (s *BaseStore) SetBonusMark(assignmentID int64, mark float64, required int, now int64) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		var a models.Assignment
		query := s.Converter(`SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`)
		if err := tx.Get(&a, query, assignmentID); err != nil {
			return fmt.Errorf("failed to read assignment: %w", err)
		}

		a.BonusMark = &mark
		a.DeriveCompleted(required)

		update := s.Converter(`
			UPDATE assignments
			SET bonus_mark = ?, completed = ?, updated_at = ?
			WHERE id = ?
		`)
		if _, err := tx.Exec(update, mark, a.Completed, now, assignmentID); err != nil {
			return fmt.Errorf("failed to update bonus mark: %w", err)
		}
		return nil
	})
}

// ResetAssignmentTeam moves an assignment to another team and wipes the
// grading state that belonged to the old one: grade records, grader flags
// and the completed flag, all in one transaction.
func (s *BaseStore) ResetAssignmentTeam(assignmentID, teamID, now int64) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		update := s.Converter(`
			UPDATE assignments
			SET team_id = ?,
			    graded_by_first = FALSE,
			    graded_by_second = FALSE,
			    graded_by_third = FALSE,
			    completed = FALSE,
			    updated_at = ?
			WHERE id = ?
		`)
		res, err := tx.Exec(update, teamID, now, assignmentID)
		if err != nil {
			return fmt.Errorf("failed to reassign team: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}

		del := s.Converter(`DELETE FROM grade_records WHERE assignment_id = ?`)
		if _, err := tx.Exec(del, assignmentID); err != nil {
			return fmt.Errorf("failed to delete stale grade records: %w", err)
		}
		return nil
	})
}

func (s *BaseStore) UpdateAssignmentGroup(assignmentID, groupID, now int64) error {
	query := s.Converter(`UPDATE assignments SET group_id = ?, updated_at = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, groupID, now, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to update assignment group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) SetExamIncomplete(assignmentID int64, incomplete bool, now int64) error {
	query := s.Converter(`UPDATE assignments SET exam_incomplete = ?, updated_at = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, incomplete, now, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to set exam incomplete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) DeleteAssignment(id int64) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		del := s.Converter(`DELETE FROM grade_records WHERE assignment_id = ?`)
		if _, err := tx.Exec(del, id); err != nil {
			return fmt.Errorf("failed to delete grade records: %w", err)
		}
		res, err := tx.Exec(s.Converter(`DELETE FROM assignments WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// ListBonusSyncCandidates finds assignments with no bonus mark whose roster
// student carries one, along with the session's grader count when linked.
func (s *BaseStore) ListBonusSyncCandidates() ([]models.BonusSyncCandidate, error) {
	var candidates []models.BonusSyncCandidate
	err := s.DB.Select(&candidates, `
		SELECT a.id AS assignment_id,
		       s.bonus_mark AS roster_bonus,
		       es.graders_per_room AS graders_per_room
		FROM assignments a
		JOIN students s ON s.id = a.student_id
		LEFT JOIN exam_sessions es ON es.id = a.session_id
		WHERE a.bonus_mark IS NULL
		  AND s.bonus_mark IS NOT NULL
		ORDER BY a.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus sync candidates: %w", err)
	}
	return candidates, nil
}
