package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

func testGroup() *models.QuestionGroup {
	return &models.QuestionGroup{
		ID:   1,
		Name: "Group A",
		Code: "A",
		Marks: models.ItemMarks{
			1: 10, 2: 10, 3: 10, 4: 10, 5: 10,
			6: 10, 7: 10, 8: 10, 9: 20,
		},
	}
}

func testEngine() *Engine {
	return NewEngine(9, 10, 80)
}

func TestValidateMarks(t *testing.T) {
	engine := testEngine()
	group := testGroup()

	tests := []struct {
		name    string
		marks   models.MarkSet
		wantErr string
	}{
		{
			name:  "full valid submission",
			marks: models.MarkSet{1: 10, 2: 9.5, 3: 8, 4: 7, 5: 10, 6: 6, 7: 5, 8: 9, 9: 18},
		},
		{
			name:  "partial submission is fine",
			marks: models.MarkSet{1: 5, 9: 20},
		},
		{
			name:  "zero marks are valid",
			marks: models.MarkSet{1: 0, 2: 0},
		},
		{
			name:    "mark above ceiling",
			marks:   models.MarkSet{1: 10.5},
			wantErr: "item 1: mark cannot exceed 10",
		},
		{
			name:    "negative mark",
			marks:   models.MarkSet{3: -1},
			wantErr: "item 3: mark cannot be negative",
		},
		{
			name:    "unknown item",
			marks:   models.MarkSet{11: 5},
			wantErr: "item 11: unknown item",
		},
		{
			name:    "one bad mark rejects the batch",
			marks:   models.MarkSet{1: 5, 2: 5, 9: 25},
			wantErr: "item 9: mark cannot exceed 20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.ValidateMarks(group, tt.marks)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidateBonus(t *testing.T) {
	engine := testEngine()

	assert.NoError(t, engine.ValidateBonus(0))
	assert.NoError(t, engine.ValidateBonus(7.5))
	assert.NoError(t, engine.ValidateBonus(10))
	assert.Error(t, engine.ValidateBonus(-0.5))
	assert.Error(t, engine.ValidateBonus(10.5))
}

func TestAverageItems(t *testing.T) {
	engine := testEngine()

	grades := []models.PositionedGrade{
		{Position: 1, Record: models.GradeRecord{Marks: models.MarkSet{1: 8, 2: 6, 3: 10}}},
		{Position: 2, Record: models.GradeRecord{Marks: models.MarkSet{1: 10, 2: 7}}},
	}

	averages := engine.AverageItems(grades)

	assert.InDelta(t, 9.0, averages[1], 0.001)
	assert.InDelta(t, 6.5, averages[2], 0.001)
	// only the first grader marked item 3, so no averaging dilution
	assert.InDelta(t, 10.0, averages[3], 0.001)
	_, present := averages[4]
	assert.False(t, present, "unmarked item should be absent, not zero")
}

func TestSubtotalIgnoresAbsentItems(t *testing.T) {
	engine := testEngine()

	averages := map[int]float64{1: 9, 2: 6.5, 3: 10}
	assert.InDelta(t, 25.5, engine.Subtotal(averages), 0.001)
	assert.Zero(t, engine.Subtotal(map[int]float64{}))
}

func TestFinalScoreGating(t *testing.T) {
	engine := testEngine()
	bonus := 5.0

	t.Run("defined when subtotal positive and bonus present", func(t *testing.T) {
		final := engine.FinalScore(78, &bonus)
		require.NotNil(t, final)
		assert.InDelta(t, 83.0, *final, 0.001)
	})

	t.Run("undefined without bonus", func(t *testing.T) {
		assert.Nil(t, engine.FinalScore(78, nil))
	})

	t.Run("undefined on zero subtotal even with bonus", func(t *testing.T) {
		assert.Nil(t, engine.FinalScore(0, &bonus))
	})
}

func TestVerdict(t *testing.T) {
	engine := testEngine()

	pass := 85.0
	fail := 79.9
	exact := 80.0

	assert.Equal(t, models.VerdictPass, engine.Verdict(&pass, false))
	assert.Equal(t, models.VerdictPass, engine.Verdict(&exact, false))
	assert.Equal(t, models.VerdictFail, engine.Verdict(&fail, false))
	assert.Equal(t, models.VerdictPending, engine.Verdict(nil, false))
	// incomplete overrides any computed score
	assert.Equal(t, models.VerdictFail, engine.Verdict(&pass, true))
	assert.Equal(t, models.VerdictFail, engine.Verdict(nil, true))
}

func TestComputeResultRow(t *testing.T) {
	engine := testEngine()
	bonus := 6.0
	student := &models.Student{ID: 7, Name: "Yusuf"}

	a := &models.Assignment{
		ID:             3,
		StudentID:      7,
		TeamID:         1,
		GroupID:        1,
		BonusMark:      &bonus,
		GradedByFirst:  true,
		GradedBySecond: true,
		Completed:      true,
	}
	grades := []models.PositionedGrade{
		{Position: 1, Record: models.GradeRecord{Marks: models.MarkSet{1: 9, 2: 8, 9: 19}}},
		{Position: 2, Record: models.GradeRecord{Marks: models.MarkSet{1: 10, 2: 9, 9: 20}}},
	}

	row := engine.ComputeResultRow(a, student, "Room 1", "A", grades)

	assert.Equal(t, int64(3), row.AssignmentID)
	assert.Equal(t, "Yusuf", row.StudentName)
	assert.Equal(t, "Room 1", row.TeamName)
	assert.Equal(t, "A", row.GroupCode)
	assert.Equal(t, models.StatusCompleted, row.Status)

	assert.InDelta(t, 9.5, row.Averages[1], 0.001)
	assert.InDelta(t, 8.5, row.Averages[2], 0.001)
	assert.InDelta(t, 19.5, row.Averages[9], 0.001)

	require.NotNil(t, row.Subtotal)
	assert.InDelta(t, 37.5, *row.Subtotal, 0.001)
	require.NotNil(t, row.FinalScore)
	assert.InDelta(t, 43.5, *row.FinalScore, 0.001)
	assert.Equal(t, models.VerdictFail, row.Verdict)
}

func TestComputeResultRowAllZeroMarks(t *testing.T) {
	engine := testEngine()
	bonus := 10.0
	student := &models.Student{ID: 1, Name: "Amina"}

	a := &models.Assignment{
		ID:             1,
		StudentID:      1,
		BonusMark:      &bonus,
		GradedByFirst:  true,
		GradedBySecond: true,
		Completed:      true,
	}
	grades := []models.PositionedGrade{
		{Position: 1, Record: models.GradeRecord{Marks: models.MarkSet{1: 0, 2: 0}}},
		{Position: 2, Record: models.GradeRecord{Marks: models.MarkSet{1: 0, 2: 0}}},
	}

	row := engine.ComputeResultRow(a, student, "Room 1", "A", grades)

	assert.Nil(t, row.Subtotal, "all-zero paper has no real subtotal")
	assert.Nil(t, row.FinalScore)
	assert.Equal(t, models.VerdictPending, row.Verdict)
}

func TestDeriveCompleted(t *testing.T) {
	bonus := 5.0

	t.Run("two grader mode", func(t *testing.T) {
		a := &models.Assignment{GradedByFirst: true, GradedBySecond: true, BonusMark: &bonus}
		a.DeriveCompleted(2)
		assert.True(t, a.Completed)

		a.BonusMark = nil
		a.DeriveCompleted(2)
		assert.False(t, a.Completed)
	})

	t.Run("third flag only counts in three grader mode", func(t *testing.T) {
		a := &models.Assignment{GradedByFirst: true, GradedBySecond: true, BonusMark: &bonus}
		a.DeriveCompleted(3)
		assert.False(t, a.Completed)

		a.SetGradedBy(3, true)
		a.DeriveCompleted(3)
		assert.True(t, a.Completed)
	})
}
