package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Rep is one confirmed repetition within a session.
type Rep struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"sessionId"`
	Number      int       `json:"number"`
	FormScore   float64   `json:"formScore"`
	Angle       float64   `json:"angle"`
	Symmetry    float64   `json:"symmetry"`
	CompletedAt time.Time `json:"completedAt"`
}

// RepRepository stores the reps of each session.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Add inserts a rep. The session must exist.
func (r *RepRepository) Add(rep *Rep) error {
	if rep.CompletedAt.IsZero() {
		rep.CompletedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO reps (session_id, number, form_score, angle, symmetry, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rep.SessionID, rep.Number, rep.FormScore, rep.Angle, rep.Symmetry, rep.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert rep %d of session %s: %w", rep.Number, rep.SessionID, err)
	}

	rep.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the reps of a session in order.
func (r *RepRepository) ListBySession(sessionID string) ([]Rep, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, number, form_score, angle, symmetry, completed_at
		 FROM reps WHERE session_id = ? ORDER BY number`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reps := make([]Rep, 0)
	for rows.Next() {
		var rep Rep
		if err := rows.Scan(&rep.ID, &rep.SessionID, &rep.Number, &rep.FormScore,
			&rep.Angle, &rep.Symmetry, &rep.CompletedAt); err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}
