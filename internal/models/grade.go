package models

// GradeRecord is one grader's full mark submission for one assignment.
// There is at most one record per (assignment, grader): resubmissions merge
// into the existing record. Subtotal is the sum of currently-set marks and
// is rewritten in the same transaction as the marks themselves.
type GradeRecord struct {
	ID           int64    `db:"id" json:"id"`
	AssignmentID int64    `db:"assignment_id" json:"assignment_id"`
	GraderID     int64    `db:"grader_id" json:"grader_id"`
	Marks        MarkSet  `db:"marks" json:"marks"`
	Subtotal     *float64 `db:"subtotal" json:"subtotal,omitempty"`
	StartedAt    *int64   `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *int64   `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt    int64    `db:"created_at" json:"created_at"`
	UpdatedAt    int64    `db:"updated_at" json:"updated_at"`
}

// PositionedGrade pairs a grade record with its grader's team position, the
// shape the aggregation engine consumes.
type PositionedGrade struct {
	Position int
	Record   GradeRecord
}
