package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/host"
	"github.com/jask/solvetree/internal/protocol"
)

// Pump reads envelopes from a host connection, journals them and hands them
// to Deliver in arrival order. It is the only reader of Conn.
type Pump struct {
	Conn      host.Conn
	Journal   *JournalService
	SessionID string
	Deliver   func(protocol.Envelope)
	Log       *zap.Logger
}

// Run blocks until the connection closes or ctx is done. A closed
// connection or a cancelled context is a clean stop and returns nil.
// Malformed frames are logged and skipped.
func (p *Pump) Run(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = p.Conn.Close()
		case <-done:
		}
	}()

	for {
		env, err := p.Conn.Receive(ctx)
		switch {
		case err == nil:
		case errors.Is(err, host.ErrClosed), ctx.Err() != nil:
			return nil
		case errors.Is(err, protocol.ErrMalformed):
			log.Warn("dropping malformed frame", zap.Error(err))
			continue
		default:
			return fmt.Errorf("receive: %w", err)
		}

		if err := p.Journal.RecordInbound(ctx, p.SessionID, env); err != nil {
			log.Error("journal inbound", zap.String("command", env.Command), zap.Error(err))
		}
		if p.Deliver != nil {
			p.Deliver(env)
		}
	}
}

// Sender writes requests to the host and journals them.
type Sender struct {
	Conn      host.Conn
	Journal   *JournalService
	SessionID string
	Log       *zap.Logger
}

func (s *Sender) Send(ctx context.Context, req protocol.Request) error {
	if err := s.Conn.Send(ctx, req); err != nil {
		return fmt.Errorf("send %s: %w", req.Command, err)
	}
	if err := s.Journal.RecordOutbound(ctx, s.SessionID, req); err != nil && s.Log != nil {
		s.Log.Error("journal outbound", zap.String("command", req.Command), zap.Error(err))
	}
	return nil
}
