package models

// Status labels derived for an assignment.
const (
	StatusCompleted  = "completed"
	StatusPending    = "pending"
	StatusIncomplete = "incomplete"
)

// Verdict labels derived from the final score.
const (
	VerdictPass    = "pass"
	VerdictFail    = "fail"
	VerdictPending = "pending"
)

// ResultRow is the authoritative read model for one assignment: per-grader
// marks, per-item averages, subtotal, bonus and final score. The live API,
// CSV exports and JSON backups all serialize this exact structure so they
// can never disagree.
type ResultRow struct {
	AssignmentID   int64               `json:"assignment_id"`
	StudentID      int64               `json:"student_id"`
	StudentName    string              `json:"student_name"`
	BirthYear      *int                `json:"birth_year,omitempty"`
	RegularTeacher *string             `json:"regular_teacher,omitempty"`
	TeamName       string              `json:"team_name"`
	GroupCode      string              `json:"group_code"`
	GraderMarks    map[int]MarkSet     `json:"grader_marks"` // position -> marks
	Averages       map[int]float64     `json:"averages"`     // item -> mean of present marks
	Subtotal       *float64            `json:"subtotal,omitempty"`
	BonusMark      *float64            `json:"bonus_mark,omitempty"`
	FinalScore     *float64            `json:"final_score,omitempty"`
	Status         string              `json:"status"`
	Verdict        string              `json:"verdict"`
	ExamIncomplete bool                `json:"exam_incomplete"`
}

// BonusSyncCandidate is one assignment still missing a bonus mark whose
// roster record has one.
type BonusSyncCandidate struct {
	AssignmentID   int64   `db:"assignment_id" json:"assignment_id"`
	RosterBonus    float64 `db:"roster_bonus" json:"roster_bonus"`
	GradersPerRoom *int    `db:"graders_per_room" json:"graders_per_room,omitempty"`
}

// GraderStat is one grader's throughput summary for the reports endpoint.
type GraderStat struct {
	GraderID       int64    `json:"grader_id"`
	GraderName     string   `json:"grader_name"`
	TeamName       string   `json:"team_name"`
	Position       int      `json:"position"`
	StudentsGraded int      `json:"students_graded"`
	AvgMinutes     *float64 `json:"avg_grading_minutes,omitempty"`
}

// TeamBreakdown is the per-team slice of the summary report.
type TeamBreakdown struct {
	TeamID    int64  `json:"team_id"`
	TeamName  string `json:"team_name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Summary is the overall progress report for an exam (optionally one
// session of it).
type Summary struct {
	TotalStudents  int             `json:"total_students"`
	Completed      int             `json:"completed"`
	Pending        int             `json:"pending"`
	PendingFirst   int             `json:"pending_first_grading"`
	PendingSecond  int             `json:"pending_second_grading"`
	PendingThird   int             `json:"pending_third_grading,omitempty"`
	PendingBonus   int             `json:"pending_bonus"`
	TeamBreakdown  []TeamBreakdown `json:"team_breakdown"`
}
