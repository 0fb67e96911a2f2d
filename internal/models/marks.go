package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NumItems is how many graded items an exam paper has. The bonus mark is
// item 10 and lives on the assignment, not in a mark set.
const NumItems = 9

// MarkSet maps item index (1..9) to the mark one grader gave for it.
// Items the grader has not marked yet are simply absent from the map.
// Stored as a JSON column so the set stays one atomic unit.
type MarkSet map[int]float64

func (m MarkSet) Value() (driver.Value, error) {
	if m == nil {
		m = MarkSet{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mark set: %w", err)
	}
	return string(data), nil
}

func (m *MarkSet) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*m = MarkSet{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MarkSet", src)
	}
	if len(data) == 0 {
		*m = MarkSet{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Sum adds up every mark currently set. Absent items contribute nothing.
func (m MarkSet) Sum() float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// ItemMarks maps item index (1..9) to the maximum mark for that item in a
// question group. Same JSON-column treatment as MarkSet.
type ItemMarks map[int]int

func (m ItemMarks) Value() (driver.Value, error) {
	if m == nil {
		m = ItemMarks{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item marks: %w", err)
	}
	return string(data), nil
}

func (m *ItemMarks) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*m = ItemMarks{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ItemMarks", src)
	}
	if len(data) == 0 {
		*m = ItemMarks{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Total is the maximum achievable over items 1..9, always recomputed from
// the mapping.
func (m ItemMarks) Total() int {
	var total int
	for _, v := range m {
		total += v
	}
	return total
}
