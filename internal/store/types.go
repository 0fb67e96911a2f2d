package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// AssignmentFilter narrows ListAssignments. Nil fields match everything;
// the session is always an explicit parameter, never ambient state.
type AssignmentFilter struct {
	TeamID    *int64
	GroupID   *int64
	SessionID *int64
	Completed *bool
}

// GraderStatRow is the raw per-grader aggregate from the stats query.
type GraderStatRow struct {
	GraderID       int64    `db:"grader_id"`
	GraderName     string   `db:"grader_name"`
	TeamName       string   `db:"team_name"`
	Position       int      `db:"position"`
	StudentsGraded int      `db:"students_graded"`
	AvgMinutes     *float64 `db:"avg_minutes"`
}
