package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/database/repository"
	"github.com/jask/solvetree/internal/host"
	"github.com/jask/solvetree/internal/protocol"
	"github.com/jask/solvetree/internal/tree"
	"github.com/jask/solvetree/internal/treesync"
)

// ReplayService rebuilds panel state from a journaled session.
type ReplayService struct {
	Sessions      *repository.SessionRepo
	Messages      *repository.MessageRepo
	SpacingFactor int
	Log           *zap.Logger
}

// ReplayResult is the state after every inbound message was applied.
type ReplayResult struct {
	Session repository.Session
	State   *tree.State
	Applied int
	Errors  []error
}

// Envelopes loads the inbound messages of the session matching idOrPrefix.
// An empty idOrPrefix selects the latest session.
func (s *ReplayService) Envelopes(ctx context.Context, idOrPrefix string) (repository.Session, []protocol.Envelope, error) {
	var (
		sess repository.Session
		err  error
	)
	if idOrPrefix == "" {
		sess, err = s.Sessions.Latest(ctx)
	} else {
		sess, err = s.Sessions.Find(ctx, idOrPrefix)
	}
	if err != nil {
		return repository.Session{}, nil, err
	}
	msgs, err := s.Messages.List(ctx, sess.ID, repository.DirectionIn)
	if err != nil {
		return repository.Session{}, nil, fmt.Errorf("load messages: %w", err)
	}
	envs := make([]protocol.Envelope, 0, len(msgs))
	for _, m := range msgs {
		envs = append(envs, protocol.Envelope{Command: m.Command, Data: json.RawMessage(m.Payload)})
	}
	return sess, envs, nil
}

// Replay applies a session's inbound messages, in journal order, to a fresh
// state. Per-message failures are collected and do not stop the replay.
func (s *ReplayService) Replay(ctx context.Context, idOrPrefix string) (ReplayResult, error) {
	sess, envs, err := s.Envelopes(ctx, idOrPrefix)
	if err != nil {
		return ReplayResult{}, err
	}
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	factor := s.SpacingFactor
	if factor <= 0 {
		factor = treesync.DefaultSpacingFactor
	}
	state := tree.NewState()
	syncer := treesync.New(state, nil, nil, treesync.WithSpacingFactor(factor), treesync.WithLogger(log))

	res := ReplayResult{Session: sess, State: state}
	for i, env := range envs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := syncer.Handle(env); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("message %d (%s): %w", i+1, env.Command, err))
		}
		res.Applied++
	}
	return res, nil
}

// ReplayConn serves journaled envelopes as if a host were sending them.
// Requests are accepted and dropped.
type ReplayConn struct {
	mu     sync.Mutex
	envs   []protocol.Envelope
	closed chan struct{}
	once   sync.Once
}

func NewReplayConn(envs []protocol.Envelope) *ReplayConn {
	return &ReplayConn{envs: envs, closed: make(chan struct{})}
}

// Receive returns the next envelope. Once exhausted it blocks until Close or
// ctx is done, like an idle host.
func (c *ReplayConn) Receive(ctx context.Context) (protocol.Envelope, error) {
	c.mu.Lock()
	if len(c.envs) > 0 {
		env := c.envs[0]
		c.envs = c.envs[1:]
		c.mu.Unlock()
		return env, nil
	}
	c.mu.Unlock()
	select {
	case <-c.closed:
		return protocol.Envelope{}, host.ErrClosed
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

func (c *ReplayConn) Send(context.Context, protocol.Request) error {
	select {
	case <-c.closed:
		return host.ErrClosed
	default:
		return nil
	}
}

func (c *ReplayConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
