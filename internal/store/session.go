package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one workout, from start until it is finished.
type Session struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	Manual          bool       `json:"manual"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds float64    `json:"durationSeconds"`
	TotalPushups    int        `json:"totalPushups"`
	AvgFormScore    float64    `json:"avgFormScore"`
	BestFormScore   float64    `json:"bestFormScore"`
	CaloriesBurned  float64    `json:"caloriesBurned"`
}

// Finished reports whether the session has ended.
func (s *Session) Finished() bool {
	return s.EndedAt != nil
}

// Totals aggregates every finished session.
type Totals struct {
	Sessions       int     `json:"sessions"`
	Pushups        int     `json:"pushups"`
	BestFormScore  float64 `json:"bestFormScore"`
	CaloriesBurned float64 `json:"caloriesBurned"`
	ActiveSeconds  float64 `json:"activeSeconds"`
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, source, manual, started_at, ended_at, duration_seconds,
	total_pushups, avg_form_score, best_form_score, calories_burned`

// Create inserts a new session. An empty ID is filled with a UUID and a zero
// StartedAt with the current time.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Source, s.Manual, s.StartedAt.UTC(), nullTime(s.EndedAt), s.DurationSeconds,
		s.TotalPushups, s.AvgFormScore, s.BestFormScore, s.CaloriesBurned,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

// Finish stores the final stats of a session and marks it ended.
func (r *SessionRepository) Finish(s *Session) error {
	if s.EndedAt == nil {
		now := time.Now()
		s.EndedAt = &now
	}

	result, err := r.db.Exec(
		`UPDATE sessions
		 SET manual = ?, ended_at = ?, duration_seconds = ?, total_pushups = ?,
		     avg_form_score = ?, best_form_score = ?, calories_burned = ?
		 WHERE id = ?`,
		s.Manual, s.EndedAt.UTC(), s.DurationSeconds, s.TotalPushups,
		s.AvgFormScore, s.BestFormScore, s.CaloriesBurned, s.ID,
	)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", s.ID, err)
	}
	return requireRow(result)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns sessions, newest first. limit <= 0 returns all of them.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Delete removes a session and its reps.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Totals sums up all finished sessions.
func (r *SessionRepository) Totals() (Totals, error) {
	var t Totals
	err := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(total_pushups), 0), COALESCE(MAX(best_form_score), 0),
		        COALESCE(SUM(calories_burned), 0), COALESCE(SUM(duration_seconds), 0)
		 FROM sessions WHERE ended_at IS NOT NULL`,
	).Scan(&t.Sessions, &t.Pushups, &t.BestFormScore, &t.CaloriesBurned, &t.ActiveSeconds)
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime

	err := row.Scan(
		&s.ID, &s.Source, &s.Manual, &s.StartedAt, &ended, &s.DurationSeconds,
		&s.TotalPushups, &s.AvgFormScore, &s.BestFormScore, &s.CaloriesBurned,
	)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
