// Package host connects the panel to a solver host.
package host

import (
	"context"
	"errors"

	"github.com/jask/solvetree/internal/protocol"
)

// ErrClosed is returned by Receive and Send once the connection is gone.
var ErrClosed = errors.New("host connection closed")

// Conn is a bidirectional message stream with the host. Receive is called
// from a single goroutine; Send may be called concurrently with Receive.
type Conn interface {
	Receive(ctx context.Context) (protocol.Envelope, error)
	Send(ctx context.Context, req protocol.Request) error
	Close() error
}
