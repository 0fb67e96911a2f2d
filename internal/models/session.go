package models

import (
	"github.com/go-playground/validator/v10"
)

// ExamSession groups assignments for one exam occasion. GradersPerRoom
// decides how many position flags an assignment needs before it can
// complete (2 or 3). IsActive is a roster-UI default only: core queries
// always take a session filter explicitly.
type ExamSession struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name" validate:"required,max=100"`
	Date           string `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
	IsActive       bool   `db:"is_active" json:"is_active"`
	NumRooms       int    `db:"num_rooms" json:"num_rooms" validate:"min=1"`
	GradersPerRoom int    `db:"graders_per_room" json:"graders_per_room" validate:"min=2,max=3"`
	CreatedAt      int64  `db:"created_at" json:"created_at"`
}

func (s *ExamSession) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
