package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/database"
	"github.com/jask/solvetree/internal/database/repository"
	"github.com/jask/solvetree/internal/protocol"
)

// JournalService records every message exchanged with a host. A nil
// *JournalService records nothing, which is how journaling is disabled.
type JournalService struct {
	Sessions *repository.SessionRepo
	Messages *repository.MessageRepo
	Log      *zap.Logger

	mu  sync.Mutex
	seq map[string]int64
}

// Start opens a new session and returns it. With journaling disabled the
// session still gets an id so the UI can show one.
func (s *JournalService) Start(ctx context.Context, host, mode string) (repository.Session, error) {
	sess := repository.Session{
		ID:        uuid.NewString(),
		Host:      host,
		Mode:      mode,
		StartedAt: database.Now(),
	}
	if s == nil {
		return sess, nil
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return repository.Session{}, fmt.Errorf("start session: %w", err)
	}
	s.logger().Info("session started", zap.String("session", sess.ID), zap.String("host", host), zap.String("mode", mode))
	return sess, nil
}

// RecordInbound appends an envelope received from the host.
func (s *JournalService) RecordInbound(ctx context.Context, sessionID string, env protocol.Envelope) error {
	if s == nil {
		return nil
	}
	return s.append(ctx, sessionID, repository.DirectionIn, env)
}

// RecordOutbound appends a request sent to the host.
func (s *JournalService) RecordOutbound(ctx context.Context, sessionID string, req protocol.Request) error {
	if s == nil {
		return nil
	}
	env, err := protocol.EnvelopeOf(req)
	if err != nil {
		return err
	}
	return s.append(ctx, sessionID, repository.DirectionOut, env)
}

// End stamps the session's end time.
func (s *JournalService) End(ctx context.Context, sessionID string) error {
	if s == nil {
		return nil
	}
	if err := s.Sessions.End(ctx, sessionID, database.Now()); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.mu.Lock()
	delete(s.seq, sessionID)
	s.mu.Unlock()
	s.logger().Info("session ended", zap.String("session", sessionID))
	return nil
}

// append serializes writers so seq stays gapless and ordered across the
// pump and the sender.
func (s *JournalService) append(ctx context.Context, sessionID, direction string, env protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		s.seq = make(map[string]int64)
	}
	seq, ok := s.seq[sessionID]
	if !ok {
		last, err := s.Messages.LastSeq(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("journal seq: %w", err)
		}
		seq = last
	}
	seq++
	payload := string(env.Data)
	if payload == "" {
		payload = "null"
	}
	err := s.Messages.Append(ctx, repository.Message{
		SessionID:  sessionID,
		Seq:        seq,
		Direction:  direction,
		Command:    env.Command,
		Payload:    payload,
		ReceivedAt: database.Now(),
	})
	if err != nil {
		return fmt.Errorf("journal %s %s: %w", direction, env.Command, err)
	}
	s.seq[sessionID] = seq
	return nil
}

func (s *JournalService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
