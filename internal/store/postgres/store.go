package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// FetchGraderStats aggregates throughput per grader. Grading durations only
// count when both stamps exist, the delta is positive and shorter than
// maxMinutes, so a paper left open overnight does not poison the average.
func (s *PostgresStore) FetchGraderStats(sessionID *int64, maxMinutes float64) ([]store.GraderStatRow, error) {
	sessCond := ""
	args := []interface{}{}
	if sessionID != nil {
		sessCond = ` AND a.session_id = ?`
		args = append(args, *sessionID)
	}
	args = append(args, maxMinutes)
	if sessionID != nil {
		args = append(args, *sessionID)
	}

	query := `
		SELECT
			g.id AS grader_id,
			g.name AS grader_name,
			t.name AS team_name,
			g.position,
			COUNT(gr.id) FILTER (
				WHERE gr.finished_at IS NOT NULL` + sessCond + `
			) AS students_graded,
			AVG((gr.finished_at - gr.started_at) / 60.0) FILTER (
				WHERE gr.started_at IS NOT NULL
				AND gr.finished_at IS NOT NULL
				AND gr.finished_at > gr.started_at
				AND (gr.finished_at - gr.started_at) / 60.0 < ?` + sessCond + `
			) AS avg_minutes
		FROM graders g
		JOIN teams t ON t.id = g.team_id
		LEFT JOIN grade_records gr ON gr.grader_id = g.id
		LEFT JOIN assignments a ON a.id = gr.assignment_id
		GROUP BY g.id, g.name, t.name, g.position
		ORDER BY t.name, g.position
	`

	var rows []store.GraderStatRow
	if err := s.DB.Select(&rows, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch grader stats: %w", err)
	}
	return rows, nil
}
