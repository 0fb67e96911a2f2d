package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

// WriteDetailedCSV renders result rows with one column per rubric item
// average. The numbers come from the same read model the API serves.
func WriteDetailedCSV(w io.Writer, rows []models.ResultRow, items int) error {
	cw := csv.NewWriter(w)

	header := []string{"assignment_id", "student_id", "student_name", "birth_year", "regular_teacher", "team", "group"}
	for item := 1; item <= items; item++ {
		header = append(header, fmt.Sprintf("avg_q%d", item))
	}
	header = append(header, "subtotal", "bonus_mark", "final_score", "status", "verdict")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.AssignmentID, 10),
			strconv.FormatInt(row.StudentID, 10),
			row.StudentName,
			formatInt(row.BirthYear),
			formatString(row.RegularTeacher),
			row.TeamName,
			row.GroupCode,
		}
		for item := 1; item <= items; item++ {
			if avg, ok := row.Averages[item]; ok {
				record = append(record, formatFloat(avg))
			} else {
				record = append(record, "")
			}
		}
		record = append(record,
			formatFloatPtr(row.Subtotal),
			formatFloatPtr(row.BonusMark),
			formatFloatPtr(row.FinalScore),
			row.Status,
			row.Verdict,
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV renders the condensed per-student view: totals only, no
// per-item columns.
func WriteSummaryCSV(w io.Writer, rows []models.ResultRow) error {
	cw := csv.NewWriter(w)

	header := []string{"student_name", "team", "group", "subtotal", "bonus_mark", "final_score", "verdict"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.StudentName,
			row.TeamName,
			row.GroupCode,
			formatFloatPtr(row.Subtotal),
			formatFloatPtr(row.BonusMark),
			formatFloatPtr(row.FinalScore),
			row.Verdict,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
