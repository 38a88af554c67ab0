package host

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jask/solvetree/internal/protocol"
)

const maxLine = 16 << 20

// Lines is a Conn over newline-delimited JSON, used when the host spawns
// the panel and talks to it over stdin/stdout.
type Lines struct {
	scanner *bufio.Scanner
	closer  io.Closer

	writeMu sync.Mutex
	w       io.Writer

	closeOnce sync.Once
	closed    chan struct{}
}

// NewLines reads envelopes from r and writes requests to w. If r or w is an
// io.Closer it is closed by Close.
func NewLines(r io.Reader, w io.Writer) *Lines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	l := &Lines{scanner: sc, w: w, closed: make(chan struct{})}
	if c, ok := r.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Receive returns the next non-blank line as an envelope.
func (l *Lines) Receive(ctx context.Context) (protocol.Envelope, error) {
	for {
		if err := ctx.Err(); err != nil {
			return protocol.Envelope{}, err
		}
		if !l.scanner.Scan() {
			if err := l.scanner.Err(); err != nil {
				select {
				case <-l.closed:
					return protocol.Envelope{}, ErrClosed
				default:
				}
				return protocol.Envelope{}, fmt.Errorf("read: %w", err)
			}
			return protocol.Envelope{}, ErrClosed
		}
		line := l.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return protocol.ParseEnvelope(line)
	}
}

// Send writes one request per line.
func (l *Lines) Send(_ context.Context, req protocol.Request) error {
	b, err := protocol.Encode(req)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	if _, err := l.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", req.Command, err)
	}
	return nil
}

// Close stops the connection. A blocked Receive returns once the reader is
// closed or reaches EOF.
func (l *Lines) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}
