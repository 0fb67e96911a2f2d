package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

func (s *BaseStore) CreateTeam(team *models.Team) error {
	if team.CreatedAt == 0 {
		team.CreatedAt = time.Now().Unix()
	}
	query := s.Converter(`INSERT INTO teams (name, created_at) VALUES (?, ?) RETURNING id`)
	if err := s.DB.Get(&team.ID, query, team.Name, team.CreatedAt); err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (s *BaseStore) GetTeam(id int64) (*models.Team, error) {
	var team models.Team
	query := s.Converter(`SELECT id, name, created_at FROM teams WHERE id = ?`)
	err := s.DB.Get(&team, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (s *BaseStore) ListTeams() ([]models.Team, error) {
	var teams []models.Team
	err := s.DB.Select(&teams, `SELECT id, name, created_at FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *BaseStore) UpdateTeam(team *models.Team) error {
	res, err := s.DB.Exec(s.Converter(`UPDATE teams SET name = ? WHERE id = ?`), team.Name, team.ID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTeam removes the team and its graders. Teams with assignments still
// pointing at them are protected by the foreign key.
func (s *BaseStore) DeleteTeam(id int64) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(s.Converter(`DELETE FROM graders WHERE team_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete team graders: %w", err)
		}
		res, err := tx.Exec(s.Converter(`DELETE FROM teams WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// CreateGrader enforces position uniqueness within a team via the schema's
// unique constraint; the caller turns the violation into a conflict.
func (s *BaseStore) CreateGrader(grader *models.Grader) error {
	if grader.CreatedAt == 0 {
		grader.CreatedAt = time.Now().Unix()
	}
	query := s.Converter(`
		INSERT INTO graders (name, team_id, position, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&grader.ID, query, grader.Name, grader.TeamID, grader.Position, grader.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create grader: %w", err)
	}
	return nil
}

func (s *BaseStore) GetGrader(id int64) (*models.Grader, error) {
	var grader models.Grader
	query := s.Converter(`SELECT id, name, team_id, position, created_at FROM graders WHERE id = ?`)
	err := s.DB.Get(&grader, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grader: %w", err)
	}
	return &grader, nil
}

func (s *BaseStore) ListGraders() ([]models.Grader, error) {
	var graders []models.Grader
	err := s.DB.Select(&graders, `
		SELECT id, name, team_id, position, created_at
		FROM graders
		ORDER BY team_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list graders: %w", err)
	}
	return graders, nil
}

func (s *BaseStore) UpdateGrader(grader *models.Grader) error {
	query := s.Converter(`UPDATE graders SET name = ?, team_id = ?, position = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, grader.Name, grader.TeamID, grader.Position, grader.ID)
	if err != nil {
		return fmt.Errorf("failed to update grader: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) DeleteGrader(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM graders WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete grader: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) ListTeamGraders(teamID int64) ([]models.Grader, error) {
	var graders []models.Grader
	query := s.Converter(`
		SELECT id, name, team_id, position, created_at
		FROM graders
		WHERE team_id = ?
		ORDER BY position
	`)
	if err := s.DB.Select(&graders, query, teamID); err != nil {
		return nil, fmt.Errorf("failed to list team graders: %w", err)
	}
	return graders, nil
}

// CreateGroup stores a question group. Total is always recomputed from the
// marks mapping, never trusted from the caller.
func (s *BaseStore) CreateGroup(group *models.QuestionGroup) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.Total = group.Marks.Total()
	query := s.Converter(`
		INSERT INTO question_groups (name, code, marks, total, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&group.ID, query, group.Name, group.Code, group.Marks, group.Total, group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question group: %w", err)
	}
	return nil
}

func (s *BaseStore) GetGroup(id int64) (*models.QuestionGroup, error) {
	var group models.QuestionGroup
	query := s.Converter(`SELECT id, name, code, marks, total, created_at FROM question_groups WHERE id = ?`)
	err := s.DB.Get(&group, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question group: %w", err)
	}
	return &group, nil
}

func (s *BaseStore) ListGroups() ([]models.QuestionGroup, error) {
	var groups []models.QuestionGroup
	err := s.DB.Select(&groups, `
		SELECT id, name, code, marks, total, created_at
		FROM question_groups
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list question groups: %w", err)
	}
	return groups, nil
}

func (s *BaseStore) UpdateGroup(group *models.QuestionGroup) error {
	group.Total = group.Marks.Total()
	query := s.Converter(`
		UPDATE question_groups
		SET name = ?, code = ?, marks = ?, total = ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query, group.Name, group.Code, group.Marks, group.Total, group.ID)
	if err != nil {
		return fmt.Errorf("failed to update question group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) DeleteGroup(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM question_groups WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete question group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *BaseStore) CreateSession(session *models.ExamSession) error {
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}
	query := s.Converter(`
		INSERT INTO exam_sessions (name, date, is_active, num_rooms, graders_per_room, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&session.ID, query,
		session.Name,
		session.Date,
		session.IsActive,
		session.NumRooms,
		session.GradersPerRoom,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create exam session: %w", err)
	}
	return nil
}

func (s *BaseStore) GetSession(id int64) (*models.ExamSession, error) {
	var session models.ExamSession
	query := s.Converter(`
		SELECT id, name, date, is_active, num_rooms, graders_per_room, created_at
		FROM exam_sessions
		WHERE id = ?
	`)
	err := s.DB.Get(&session, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam session: %w", err)
	}
	return &session, nil
}

func (s *BaseStore) ListSessions(activeOnly bool) ([]models.ExamSession, error) {
	query := `
		SELECT id, name, date, is_active, num_rooms, graders_per_room, created_at
		FROM exam_sessions
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY date DESC`

	var sessions []models.ExamSession
	if err := s.DB.Select(&sessions, query); err != nil {
		return nil, fmt.Errorf("failed to list exam sessions: %w", err)
	}
	return sessions, nil
}

func (s *BaseStore) UpdateSession(session *models.ExamSession) error {
	query := s.Converter(`
		UPDATE exam_sessions
		SET name = ?, date = ?, num_rooms = ?, graders_per_room = ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query,
		session.Name,
		session.Date,
		session.NumRooms,
		session.GradersPerRoom,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update exam session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ActivateSession flags one session active and deactivates the rest in the
// same transaction. The flag is a roster-UI default only; core queries take
// the session filter explicitly.
func (s *BaseStore) ActivateSession(id int64) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`UPDATE exam_sessions SET is_active = FALSE`); err != nil {
			return fmt.Errorf("failed to deactivate sessions: %w", err)
		}
		res, err := tx.Exec(s.Converter(`UPDATE exam_sessions SET is_active = TRUE WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to activate session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (s *BaseStore) DeleteSession(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM exam_sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete exam session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
