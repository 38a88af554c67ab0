// Package hosttest provides an in-process websocket solver host for tests.
//
// Usage:
//
//	s := hosttest.New(
//		hosttest.WithGreeting(envs...),
//		hosttest.WithResponder(func(req protocol.Envelope) []protocol.Envelope { ... }),
//	)
//	defer s.Close()
//	conn, err := host.Dial(ctx, s.URL(), host.DialOptions{})
package hosttest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jask/solvetree/internal/protocol"
)

// Responder answers one request with zero or more envelopes.
type Responder func(req protocol.Envelope) []protocol.Envelope

// Server wraps an httptest.Server speaking the host protocol.
type Server struct {
	*httptest.Server

	greeting  []protocol.Envelope
	responder Responder
	upgrader  websocket.Upgrader

	mu        sync.Mutex
	requests  []protocol.Envelope
	authz     []string
	requested chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithGreeting sets envelopes written as soon as a client connects.
func WithGreeting(envs ...protocol.Envelope) Option {
	return func(s *Server) { s.greeting = envs }
}

// WithResponder sets the function answering client requests.
func WithResponder(r Responder) Option {
	return func(s *Server) { s.responder = r }
}

// New starts a server.
func New(opts ...Option) *Server {
	s := &Server{
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		requested: make(chan struct{}, 1024),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Requests returns the requests received so far.
func (s *Server) Requests() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Envelope(nil), s.requests...)
}

// Authorizations returns the Authorization headers seen on upgrade.
func (s *Server) Authorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authz...)
}

// Requested is signalled once per received request.
func (s *Server) Requested() <-chan struct{} { return s.requested }

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.authz = append(s.authz, r.Header.Get("Authorization"))
	s.mu.Unlock()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	for _, env := range s.greeting {
		if err := ws.WriteJSON(env); err != nil {
			return
		}
	}
	for {
		var req protocol.Envelope
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		select {
		case s.requested <- struct{}{}:
		default:
		}
		if s.responder == nil {
			continue
		}
		for _, env := range s.responder(req) {
			if err := ws.WriteJSON(env); err != nil {
				return
			}
		}
	}
}
