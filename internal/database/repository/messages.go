package repository

import (
	"context"
	"database/sql"
)

// MessageRepo handles journaled messages.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores one message. Seq is assigned by the caller and must be
// unique within the session.
func (r *MessageRepo) Append(ctx context.Context, m Message) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO messages(session_id, seq, direction, command, payload, received_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, m.SessionID, m.Seq, m.Direction, m.Command, m.Payload, m.ReceivedAt)
	return err
}

// List returns a session's messages in seq order. An empty direction
// returns both directions.
func (r *MessageRepo) List(ctx context.Context, sessionID, direction string) ([]Message, error) {
	query := `SELECT session_id, seq, direction, command, payload, received_at FROM messages WHERE session_id = ?`
	args := []any{sessionID}
	if direction != "" {
		query += ` AND direction = ?`
		args = append(args, direction)
	}
	query += ` ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.SessionID, &m.Seq, &m.Direction, &m.Command, &m.Payload, &m.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// LastSeq returns the highest seq stored for a session, or 0.
func (r *MessageRepo) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var n sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	return n.Int64, err
}
