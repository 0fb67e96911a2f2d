package grading

import (
	"fmt"
	"math"
	"sort"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

// Engine holds the aggregation rules: per-item averaging over the marks
// actually present, subtotal over present averages, final score gated on a
// real subtotal. All methods are pure.
type Engine struct {
	Items         int     `toml:"items"`
	BonusMax      float64 `toml:"bonus_max"`
	PassThreshold float64 `toml:"pass_threshold"`
}

func NewEngine(items int, bonusMax, passThreshold float64) *Engine {
	if items <= 0 {
		items = models.NumItems
	}
	return &Engine{
		Items:         items,
		BonusMax:      bonusMax,
		PassThreshold: passThreshold,
	}
}

// ValidateMarks checks every provided mark against the group's ceilings.
// The first violation rejects the whole submission; the caller must not
// have persisted anything yet.
func (e *Engine) ValidateMarks(group *models.QuestionGroup, marks models.MarkSet) error {
	items := make([]int, 0, len(marks))
	for item := range marks {
		items = append(items, item)
	}
	sort.Ints(items)

	for _, item := range items {
		max, known := group.MaxFor(item)
		if !known {
			return &MarkError{Item: item, Reason: "unknown item"}
		}
		mark := marks[item]
		if mark < 0 {
			return &MarkError{Item: item, Reason: "mark cannot be negative"}
		}
		if mark > float64(max) {
			return &MarkError{Item: item, Reason: fmt.Sprintf("mark cannot exceed %d", max)}
		}
	}
	return nil
}

// ValidateBonus checks the supervisor mark range. The bonus is item 10.
func (e *Engine) ValidateBonus(mark float64) error {
	if mark < 0 || mark > e.BonusMax {
		return &MarkError{
			Item:   e.Items + 1,
			Reason: fmt.Sprintf("bonus mark must be between 0 and %g", e.BonusMax),
		}
	}
	return nil
}

// AverageItems combines grader mark sets into per-item means. Graders who
// did not mark an item are excluded from that item's denominator; an item
// nobody marked is absent from the result.
func (e *Engine) AverageItems(grades []models.PositionedGrade) map[int]float64 {
	averages := make(map[int]float64, e.Items)
	for item := 1; item <= e.Items; item++ {
		var sum float64
		var n int
		for _, g := range grades {
			if mark, ok := g.Record.Marks[item]; ok {
				sum += mark
				n++
			}
		}
		if n > 0 {
			averages[item] = sum / float64(n)
		}
	}
	return averages
}

// Subtotal sums the present per-item averages. Absent items contribute
// nothing; they are not zeros.
func (e *Engine) Subtotal(averages map[int]float64) float64 {
	var total float64
	for _, avg := range averages {
		total += avg
	}
	return total
}

// FinalScore is subtotal plus bonus, defined only when the subtotal is real
// (> 0) and the bonus is present. A fully graded all-zero paper therefore
// stays undefined, matching the source system's behavior.
func (e *Engine) FinalScore(subtotal float64, bonus *float64) *float64 {
	if subtotal <= 0 || bonus == nil {
		return nil
	}
	final := subtotal + *bonus
	return &final
}

// Verdict labels the final score. An incomplete exam fails regardless of
// any computed score.
func (e *Engine) Verdict(final *float64, examIncomplete bool) string {
	if examIncomplete {
		return models.VerdictFail
	}
	if final == nil {
		return models.VerdictPending
	}
	if *final >= e.PassThreshold {
		return models.VerdictPass
	}
	return models.VerdictFail
}

// StatusLabel derives the display status for an assignment.
func (e *Engine) StatusLabel(a *models.Assignment) string {
	switch {
	case a.ExamIncomplete:
		return models.StatusIncomplete
	case a.Completed:
		return models.StatusCompleted
	default:
		return models.StatusPending
	}
}

// ComputeResultRow assembles the authoritative read model for one
// assignment. Export and API callers share it so their numbers can never
// drift apart.
func (e *Engine) ComputeResultRow(
	a *models.Assignment,
	student *models.Student,
	teamName, groupCode string,
	grades []models.PositionedGrade,
) models.ResultRow {
	graderMarks := make(map[int]models.MarkSet, len(grades))
	for _, g := range grades {
		graderMarks[g.Position] = g.Record.Marks
	}

	averages := e.AverageItems(grades)
	rounded := make(map[int]float64, len(averages))
	for item, avg := range averages {
		rounded[item] = round2(avg)
	}

	row := models.ResultRow{
		AssignmentID:   a.ID,
		StudentID:      student.ID,
		StudentName:    student.Name,
		BirthYear:      student.BirthYear,
		RegularTeacher: student.RegularTeacher,
		TeamName:       teamName,
		GroupCode:      groupCode,
		GraderMarks:    graderMarks,
		Averages:       rounded,
		BonusMark:      a.BonusMark,
		Status:         e.StatusLabel(a),
		ExamIncomplete: a.ExamIncomplete,
	}

	subtotal := e.Subtotal(averages)
	if subtotal > 0 {
		st := round2(subtotal)
		row.Subtotal = &st
	}
	if final := e.FinalScore(subtotal, a.BonusMark); final != nil {
		f := round2(*final)
		row.FinalScore = &f
	}
	row.Verdict = e.Verdict(row.FinalScore, a.ExamIncomplete)

	return row
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
