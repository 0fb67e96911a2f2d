package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

const gradeColumns = `
	id, assignment_id, grader_id, marks, subtotal,
	started_at, finished_at, created_at, updated_at
`

// StartGrading stamps the moment a grader opened a paper. If a record with a
// start time already exists the original stamp is returned untouched.
func (s *BaseStore) StartGrading(assignmentID, graderID, now int64) (int64, bool, error) {
	var (
		startedAt int64
		created   bool
	)
	err := s.inTx(func(tx *sqlx.Tx) error {
		var rec models.GradeRecord
		query := s.Converter(`
			SELECT ` + gradeColumns + `
			FROM grade_records
			WHERE assignment_id = ? AND grader_id = ?
		`)
		err := tx.Get(&rec, query, assignmentID, graderID)
		if err == sql.ErrNoRows {
			insert := s.Converter(`
				INSERT INTO grade_records (assignment_id, grader_id, marks, started_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`)
			if _, err := tx.Exec(insert, assignmentID, graderID, models.MarkSet{}, now, now, now); err != nil {
				return fmt.Errorf("failed to create grade record: %w", err)
			}
			startedAt = now
			created = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read grade record: %w", err)
		}

		if rec.StartedAt != nil {
			startedAt = *rec.StartedAt
			return nil
		}

		update := s.Converter(`UPDATE grade_records SET started_at = ?, updated_at = ? WHERE id = ?`)
		if _, err := tx.Exec(update, now, now, rec.ID); err != nil {
			return fmt.Errorf("failed to stamp start time: %w", err)
		}
		startedAt = now
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return startedAt, created, nil
}

// SubmitGrade merges the provided marks into the grader's record, recomputes
// the subtotal, flips the grader-position flag on the assignment and
// rederives completion. Everything happens in one transaction so readers
// never see a flag ahead of its marks.
func (s *BaseStore) SubmitGrade(assignmentID, graderID int64, marks models.MarkSet, position, required int, now int64) (*models.GradeRecord, error) {
	var out models.GradeRecord
	err := s.inTx(func(tx *sqlx.Tx) error {
		var rec models.GradeRecord
		query := s.Converter(`
			SELECT ` + gradeColumns + `
			FROM grade_records
			WHERE assignment_id = ? AND grader_id = ?
		`)
		err := tx.Get(&rec, query, assignmentID, graderID)
		switch {
		case err == sql.ErrNoRows:
			rec = models.GradeRecord{
				AssignmentID: assignmentID,
				GraderID:     graderID,
				Marks:        models.MarkSet{},
				CreatedAt:    now,
			}
			started := now
			rec.StartedAt = &started
		case err != nil:
			return fmt.Errorf("failed to read grade record: %w", err)
		}

		if rec.Marks == nil {
			rec.Marks = models.MarkSet{}
		}
		for item, mark := range marks {
			rec.Marks[item] = mark
		}
		subtotal := rec.Marks.Sum()
		rec.Subtotal = &subtotal
		finished := now
		rec.FinishedAt = &finished
		rec.UpdatedAt = now

		if rec.ID == 0 {
			insert := s.Converter(`
				INSERT INTO grade_records (assignment_id, grader_id, marks, subtotal, started_at, finished_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id
			`)
			err = tx.Get(&rec.ID, insert,
				rec.AssignmentID, rec.GraderID, rec.Marks, rec.Subtotal,
				rec.StartedAt, rec.FinishedAt, rec.CreatedAt, rec.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert grade record: %w", err)
			}
		} else {
			update := s.Converter(`
				UPDATE grade_records
				SET marks = ?, subtotal = ?, finished_at = ?, updated_at = ?
				WHERE id = ?
			`)
			if _, err := tx.Exec(update, rec.Marks, rec.Subtotal, rec.FinishedAt, rec.UpdatedAt, rec.ID); err != nil {
				return fmt.Errorf("failed to update grade record: %w", err)
			}
		}

		var a models.Assignment
		aQuery := s.Converter(`SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`)
		if err := tx.Get(&a, aQuery, assignmentID); err != nil {
			return fmt.Errorf("failed to read assignment: %w", err)
		}
		a.SetGradedBy(position, true)
		a.DeriveCompleted(required)

		aUpdate := s.Converter(`
			UPDATE assignments
			SET graded_by_first = ?, graded_by_second = ?, graded_by_third = ?,
			    completed = ?, updated_at = ?
			WHERE id = ?
		`)
		_, err = tx.Exec(aUpdate,
			a.GradedByFirst, a.GradedBySecond, a.GradedByThird,
			a.Completed, now, assignmentID,
		)
		if err != nil {
			return fmt.Errorf("failed to update assignment flags: %w", err)
		}

		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BaseStore) GetGradeRecord(assignmentID, graderID int64) (*models.GradeRecord, error) {
	var rec models.GradeRecord
	query := s.Converter(`
		SELECT ` + gradeColumns + `
		FROM grade_records
		WHERE assignment_id = ? AND grader_id = ?
	`)
	err := s.DB.Get(&rec, query, assignmentID, graderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grade record: %w", err)
	}
	return &rec, nil
}

func (s *BaseStore) ListAssignmentGrades(assignmentID int64) ([]models.GradeRecord, error) {
	var recs []models.GradeRecord
	query := s.Converter(`
		SELECT ` + gradeColumns + `
		FROM grade_records
		WHERE assignment_id = ?
		ORDER BY grader_id
	`)
	if err := s.DB.Select(&recs, query, assignmentID); err != nil {
		return nil, fmt.Errorf("failed to list assignment grades: %w", err)
	}
	return recs, nil
}

func (s *BaseStore) ListGraderGrades(graderID int64) ([]models.GradeRecord, error) {
	var recs []models.GradeRecord
	query := s.Converter(`
		SELECT ` + gradeColumns + `
		FROM grade_records
		WHERE grader_id = ?
		ORDER BY assignment_id
	`)
	if err := s.DB.Select(&recs, query, graderID); err != nil {
		return nil, fmt.Errorf("failed to list grader grades: %w", err)
	}
	return recs, nil
}

func (s *BaseStore) DeleteGrade(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM grade_records WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete grade record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
