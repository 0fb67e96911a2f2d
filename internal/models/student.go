package models

import (
	"github.com/go-playground/validator/v10"
)

// Student is a roster record. BonusMark is the supervisor mark imported with
// the roster (if any); it is copied onto assignments, never read directly by
// the aggregation engine.
type Student struct {
	ID             int64    `db:"id" json:"id"`
	Name           string   `db:"name" json:"name" validate:"required,max=100"`
	Phone          *string  `db:"phone" json:"phone,omitempty"`
	BirthYear      *int     `db:"birth_year" json:"birth_year,omitempty"`
	RegularTeacher *string  `db:"regular_teacher" json:"regular_teacher,omitempty"`
	BonusMark      *float64 `db:"bonus_mark" json:"bonus_mark,omitempty" validate:"omitempty,min=0,max=10"`
	IsSecondTerm   bool     `db:"is_second_term" json:"is_second_term"`
	PreviousGroup  *string  `db:"previous_group" json:"previous_group,omitempty" validate:"omitempty,len=1"`
	CreatedAt      int64    `db:"created_at" json:"created_at"`
}

func (s *Student) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
