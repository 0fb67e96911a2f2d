package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// QuestionGroup is the rubric one assignment is graded against: one maximum
// mark per item 1..9. Groups are shared read-only between assignments.
type QuestionGroup struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=50"`
	Code      string    `db:"code" json:"code" validate:"required,len=1"`
	Marks     ItemMarks `db:"marks" json:"marks" validate:"required"`
	Total     int       `db:"total" json:"total"`
	CreatedAt int64     `db:"created_at" json:"created_at"`
}

func (g *QuestionGroup) Validate() error {
	validate := validator.New()
	if err := validate.Struct(g); err != nil {
		return err
	}
	for i := 1; i <= NumItems; i++ {
		max, ok := g.Marks[i]
		if !ok {
			return fmt.Errorf("marks structure is missing item %d", i)
		}
		if max <= 0 {
			return fmt.Errorf("maximum for item %d must be positive, got %d", i, max)
		}
	}
	return nil
}

// MaxFor returns the validation ceiling for an item, false for item indexes
// outside 1..9.
func (g *QuestionGroup) MaxFor(item int) (int, bool) {
	if item < 1 || item > NumItems {
		return 0, false
	}
	max, ok := g.Marks[item]
	return max, ok
}
