package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no session matches.
	ErrNotFound = errors.New("session not found")
	// ErrAmbiguous is returned when an id prefix matches several sessions.
	ErrAmbiguous = errors.New("session id prefix is ambiguous")
)

// SessionRepo handles sessions.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sessions(id, host, mode, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Host, s.Mode, s.StartedAt, s.EndedAt)
	return err
}

// End stamps ended_at. Ending a session twice keeps the first stamp.
func (r *SessionRepo) End(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET ended_at = COALESCE(ended_at, ?) WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, host, mode, started_at, ended_at FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return s, err
}

// Find resolves a full id or a unique id prefix.
func (r *SessionRepo) Find(ctx context.Context, prefix string) (Session, error) {
	if prefix == "" {
		return Session{}, ErrNotFound
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, host, mode, started_at, ended_at FROM sessions WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, prefix)
	if err != nil {
		return Session{}, err
	}
	defer rows.Close()
	var found []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return Session{}, err
		}
		if s.ID == prefix {
			return s, nil
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return Session{}, err
	}
	switch len(found) {
	case 0:
		return Session{}, fmt.Errorf("%s: %w", prefix, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return Session{}, fmt.Errorf("%s: %w", prefix, ErrAmbiguous)
	}
}

// Latest returns the most recently started session.
func (r *SessionRepo) Latest(ctx context.Context) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, host, mode, started_at, ended_at FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// List returns sessions newest first with their message counts.
func (r *SessionRepo) List(ctx context.Context) ([]SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT s.id, s.host, s.mode, s.started_at, s.ended_at, COUNT(m.seq)
	FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
	GROUP BY s.id
	ORDER BY s.started_at DESC, s.rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var ended sql.NullTime
		if err := rows.Scan(&ss.ID, &ss.Host, &ss.Mode, &ss.StartedAt, &ended, &ss.Messages); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			ss.EndedAt = &t
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Prune deletes every session except the keep newest and reports how many
// were removed. Messages go with them through the foreign key.
func (r *SessionRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
	DELETE FROM sessions WHERE id NOT IN (
	 SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var ended sql.NullTime
	if err := row.Scan(&s.ID, &s.Host, &s.Mode, &s.StartedAt, &ended); err != nil {
		return Session{}, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}
