package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := pgcontainer.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn)
	require.NoError(t, err, "Failed to create store")

	err = s.ApplyMigrations("../../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

type fixture struct {
	store      *PostgresStore
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

func TestSubmitGradeRoundTrip(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, created, err := f.store.StartGrading(f.assignment.ID, f.grader1.ID, 1700000100)
	require.NoError(t, err)
	assert.True(t, created)

	rec, err := f.store.SubmitGrade(
		f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5, 9: 18}, 1, 2, 1700000200)
	require.NoError(t, err)
	require.NotNil(t, rec.Subtotal)
	assert.InDelta(t, 23.0, *rec.Subtotal, 0.001)

	a, err := f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	assert.True(t, a.GradedByFirst)
	assert.False(t, a.Completed)
}

func TestCompletionRequiresBonus(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, err := f.store.SubmitGrade(f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5}, 1, 2, 1700000200)
	require.NoError(t, err)
	_, err = f.store.SubmitGrade(f.assignment.ID, f.grader2.ID, models.MarkSet{1: 7}, 2, 2, 1700000300)
	require.NoError(t, err)

	require.NoError(t, f.store.SetBonusMark(f.assignment.ID, 9.0, 2, 1700000400))

	a, err := f.store.GetAssignment(f.assignment.ID)
	require.NoError(t, err)
	assert.True(t, a.Completed)
}

func TestFetchGraderStatsFilterClauses(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	_, _, err := f.store.StartGrading(f.assignment.ID, f.grader1.ID, 1700000000)
	require.NoError(t, err)
	_, err = f.store.SubmitGrade(f.assignment.ID, f.grader1.ID, models.MarkSet{1: 5}, 1, 2, 1700000600)
	require.NoError(t, err)

	rows, err := f.store.FetchGraderStats(nil, 120)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		if row.GraderID == f.grader1.ID {
			assert.Equal(t, 1, row.StudentsGraded)
			require.NotNil(t, row.AvgMinutes)
			assert.InDelta(t, 10.0, *row.AvgMinutes, 0.001)
		} else {
			assert.Equal(t, 0, row.StudentsGraded)
		}
	}

	session := models.ExamSession{Name: "Winter", Date: "2024-01-20", NumRooms: 1, GradersPerRoom: 2}
	require.NoError(t, f.store.CreateSession(&session))

	rows, err = f.store.FetchGraderStats(&session.ID, 120)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, 0, row.StudentsGraded, "sessionless grades do not count toward a session")
	}
}
