package models

import (
	"github.com/go-playground/validator/v10"
)

type Team struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name" validate:"required,max=50"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// Grader marks papers as part of a team. Position is the grader's slot
// within the team (1..3); completion flags on an assignment key off it.
type Grader struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name" validate:"required,max=100"`
	TeamID    int64  `db:"team_id" json:"team_id" validate:"required"`
	Position  int    `db:"position" json:"position" validate:"required,min=1,max=3"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

func (t *Team) Validate() error {
	validate := validator.New()
	return validate.Struct(t)
}

func (g *Grader) Validate() error {
	validate := validator.New()
	return validate.Struct(g)
}
