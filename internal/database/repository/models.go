package repository

import "time"

// Message directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Session represents a sessions row: one connection to a host.
type Session struct {
	ID        string
	Host      string
	Mode      string
	StartedAt time.Time
	EndedAt   *time.Time
}

// SessionSummary is a session with its message count.
type SessionSummary struct {
	Session
	Messages int
}

// Message represents a messages row. Payload holds the raw data field.
type Message struct {
	SessionID  string
	Seq        int64
	Direction  string
	Command    string
	Payload    string
	ReceivedAt time.Time
}
