// internal/store/sqlite/store_test.go
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(&store.DBConfig{DSN: ":memory:", Type: store.DBTypeSQLite})
	require.NoError(t, err, "Failed to create store")

	err = s.ApplyMigrations("../../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type fixture struct {
	store      *SQLiteStore
	team       models.Team
	grader1    models.Grader
	grader2    models.Grader
	group      models.QuestionGroup
	student    models.Student
	assignment models.Assignment
}

func setupFixture(t *testing.T) (*fixture, func()) {
	s, cleanup := setupTestDB(t)

	f := &fixture{store: s}

	f.team = models.Team{Name: "Room 1"}
	require.NoError(t, s.CreateTeam(&f.team))

	f.grader1 = models.Grader{Name: "Ahmad", TeamID: f.team.ID, Position: 1}
	require.NoError(t, s.CreateGrader(&f.grader1))
	f.grader2 = models.Grader{Name: "Bilal", TeamID: f.team.ID, Position: 2}
	require.NoError(t, s.CreateGrader(&f.grader2))

	f.group = models.QuestionGroup{
		Name: "Group A",
		Code: "A",
		Marks: models.ItemMarks{
			1: 10, 2: 10, 3: 10, 4: 10, 5: 10,
			6: 10, 7: 10, 8: 10, 9: 20,
		},
	}
	require.NoError(t, s.CreateGroup(&f.group))
	assert.Equal(t, 100, f.group.Total, "total recomputed from marks")

	f.student = models.Student{Name: "Yusuf"}
	require.NoError(t, s.CreateStudent(&f.student))

	f.assignment = models.Assignment{
		StudentID: f.student.ID,
		TeamID:    f.team.ID,
		GroupID:   f.group.ID,
		CreatedAt: 1700000000,
		UpdatedAt: 1700000000,
	}
	require.NoError(t, s.CreateAssignment(&f.assignment))

	return f, cleanup
}

func TestGraderPositionUniquePerTeam(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	dup := models.Grader{Name: "Imposter", TeamID: f.team.ID, Position: 1}
	assert.Error(t, f.store.CreateGrader(&dup))
}

func TestStartGradingIsIdempotent(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	startedAt, created, err := f.store.StartGrading(f.assignment.ID, f.grader1.ID, 1700000100)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1700000100), startedAt)

	startedAt, created, err = f.store.StartGrading(f.assignment.ID, f.grader1.ID, 1700000500)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1700000100), startedAt, "repeat begin keeps the original stamp")
}

func TestSubmitGradeMergesMarksAndRecomputesState(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	rec, err := f.store.SubmitGrade(
		f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5, 2: 4}, 1, 2, 1700000200)
	require.NoError(t, err)
	require.NotNil(t, rec.Subtotal)
	assert.InDelta(t, 9.0, *rec.Subtotal, 0.001)

	a, err := f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	assert.True(t, a.GradedByFirst)
	assert.False(t, a.GradedBySecond)
	assert.False(t, a.Completed)

	// resubmission merges, does not replace
	rec, err = f.store.SubmitGrade(
		f.assignment.ID, f.grader1.ID, models.MarkSet{2: 6, 9: 18}, 1, 2, 1700000300)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, rec.Marks[1], 0.001, "untouched mark survives")
	assert.InDelta(t, 6.0, rec.Marks[2], 0.001, "resubmitted mark wins")
	require.NotNil(t, rec.Subtotal)
	assert.InDelta(t, 29.0, *rec.Subtotal, 0.001)

	records, err := f.store.ListAssignmentGrades(f.assignment.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1, "one record per grader")
}

func TestCompletionNeedsAllGradersAndBonus(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, err := f.store.SubmitGrade(f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5}, 1, 2, 1700000200)
	require.NoError(t, err)
	_, err = f.store.SubmitGrade(f.assignment.ID, f.grader2.ID, models.MarkSet{1: 7}, 2, 2, 1700000300)
	require.NoError(t, err)

	a, err := f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	assert.True(t, a.GradedByFirst)
	assert.True(t, a.GradedBySecond)
	assert.False(t, a.Completed, "missing bonus keeps it pending")

	require.NoError(t, f.store.SetBonusMark(f.assignment.ID, 8.5, 2, 1700000400))

	a, err = f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	require.NotNil(t, a.BonusMark)
	assert.InDelta(t, 8.5, *a.BonusMark, 0.001)
	assert.True(t, a.Completed)
}

func TestResetAssignmentTeamWipesGrades(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, err := f.store.SubmitGrade(f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5}, 1, 2, 1700000200)
	require.NoError(t, err)

	newTeam := models.Team{Name: "Room 2"}
	require.NoError(t, f.store.CreateTeam(&newTeam))

	require.NoError(t, f.store.ResetAssignmentTeam(f.assignment.ID, newTeam.ID, 1700000500))

	a, err := f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, newTeam.ID, a.TeamID)
	assert.False(t, a.GradedByFirst)
	assert.False(t, a.Completed)

	records, err := f.store.ListAssignmentGrades(f.assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindAssignmentIsSessionAware(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	found, err := f.store.FindAssignment(f.student.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, f.assignment.ID, found.ID)

	session := models.ExamSession{Name: "Winter", Date: "2024-01-20", NumRooms: 2, GradersPerRoom: 2}
	require.NoError(t, f.store.CreateSession(&session))

	found, err = f.store.FindAssignment(f.student.ID, &session.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "sessionless assignment does not collide with a session one")
}

func TestListBonusSyncCandidates(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	candidates, err := f.store.ListBonusSyncCandidates()
	require.NoError(t, err)
	assert.Empty(t, candidates, "student without roster bonus yields nothing")

	bonus := 6.0
	f.student.BonusMark = &bonus
	require.NoError(t, f.store.UpdateStudent(&f.student))

	candidates, err = f.store.ListBonusSyncCandidates()
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, f.assignment.ID, candidates[0].AssignmentID)
	assert.InDelta(t, 6.0, candidates[0].RosterBonus, 0.001)

	require.NoError(t, f.store.SetBonusMark(f.assignment.ID, 6.0, 2, 1700000600))

	candidates, err = f.store.ListBonusSyncCandidates()
	require.NoError(t, err)
	assert.Empty(t, candidates, "assignments with a bonus drop out")
}

func TestActivateSessionDeactivatesOthers(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	first := models.ExamSession{Name: "Winter", Date: "2024-01-20", NumRooms: 1, GradersPerRoom: 2, IsActive: true}
	require.NoError(t, s.CreateSession(&first))
	second := models.ExamSession{Name: "Summer", Date: "2024-06-20", NumRooms: 1, GradersPerRoom: 3}
	require.NoError(t, s.CreateSession(&second))

	require.NoError(t, s.ActivateSession(second.ID))

	sessions, err := s.ListSessions(true)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].ID)
}

func TestFetchGraderStats(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, _, err := f.store.StartGrading(f.assignment.ID, f.grader1.ID, 1700000000)
	require.NoError(t, err)
	_, err = f.store.SubmitGrade(f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5}, 1, 2, 1700000600)
	require.NoError(t, err)

	rows, err := f.store.FetchGraderStats(nil, 120)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[int64]store.GraderStatRow{}
	for _, row := range rows {
		byID[row.GraderID] = row
	}

	busy := byID[f.grader1.ID]
	assert.Equal(t, 1, busy.StudentsGraded)
	require.NotNil(t, busy.AvgMinutes)
	assert.InDelta(t, 10.0, *busy.AvgMinutes, 0.001)

	idle := byID[f.grader2.ID]
	assert.Equal(t, 0, idle.StudentsGraded)
	assert.Nil(t, idle.AvgMinutes)
}
