// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ahmedhadihasan/iqraaexam/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(config *store.DBConfig) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres migration SQL to SQLite dialect.
// Runtime queries are left alone: the bundled sqlite supports RETURNING.
func translateToSQLite(sql string) string {
	replacements := map[string]string{
		"BIGSERIAL PRIMARY KEY": "INTEGER PRIMARY KEY AUTOINCREMENT",
		"BIGINT":                "INTEGER",
		"DOUBLE PRECISION":      "REAL",
	}
	result := sql
	for from, to := range replacements {
		result = strings.ReplaceAll(result, from, to)
	}
	return result
}

// FetchGraderStats mirrors the postgres aggregate with CASE expressions in
// place of FILTER clauses.
func (s *SQLiteStore) FetchGraderStats(sessionID *int64, maxMinutes float64) ([]store.GraderStatRow, error) {
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
			COUNT(CASE
				WHEN gr.finished_at IS NOT NULL` + sessCond + ` THEN 1
			END) AS students_graded,
			AVG(CASE
				WHEN gr.started_at IS NOT NULL
				AND gr.finished_at IS NOT NULL
				AND gr.finished_at > gr.started_at
				AND (gr.finished_at - gr.started_at) / 60.0 < ?` + sessCond + `
				THEN (gr.finished_at - gr.started_at) / 60.0
			END) AS avg_minutes
		FROM graders g
		JOIN teams t ON t.id = g.team_id
		LEFT JOIN grade_records gr ON gr.grader_id = g.id
		LEFT JOIN assignments a ON a.id = gr.assignment_id
		GROUP BY g.id, g.name, t.name, g.position
		ORDER BY t.name, g.position
	`

	var rows []store.GraderStatRow
	if err := s.DB.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch grader stats: %w", err)
	}
	return rows, nil
}
