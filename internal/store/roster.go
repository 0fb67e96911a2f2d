package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

func (s *BaseStore) CreateStudent(student *models.Student) error {
	if student.CreatedAt == 0 {
		student.CreatedAt = time.Now().Unix()
	}
	query := s.Converter(`
		INSERT INTO students (name, phone, birth_year, regular_teacher, bonus_mark, is_second_term, previous_group, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&student.ID, query,
		student.Name,
		student.Phone,
		student.BirthYear,
		student.RegularTeacher,
		student.BonusMark,
		student.IsSecondTerm,
		student.PreviousGroup,
		student.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *BaseStore) GetStudent(id int64) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, name, phone, birth_year, regular_teacher, bonus_mark, is_second_term, previous_group, created_at
		FROM students
		WHERE id = ?
	`)
	err := s.DB.Get(&student, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

// ListStudents supports optional name search and pagination. limit <= 0
// means no limit.
func (s *BaseStore) ListStudents(search string, limit, offset int) ([]models.Student, error) {
	query := `
		SELECT id, name, phone, birth_year, regular_teacher, bonus_mark, is_second_term, previous_group, created_at
		FROM students
	`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	var students []models.Student
	if err := s.DB.Select(&students, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *BaseStore) UpdateStudent(student *models.Student) error {
	query := s.Converter(`
		UPDATE students
		SET name = ?, phone = ?, birth_year = ?, regular_teacher = ?, bonus_mark = ?, is_second_term = ?, previous_group = ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query,
		student.Name,
		student.Phone,
		student.BirthYear,
		student.RegularTeacher,
		student.BonusMark,
		student.IsSecondTerm,
		student.PreviousGroup,
		student.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) DeleteStudent(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM students WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) DeleteAllStudents() error {
	if _, err := s.DB.Exec(`DELETE FROM students`); err != nil {
		return fmt.Errorf("failed to delete students: %w", err)
	}
	return nil
}
