package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/protocol"
)

// Writer is the panel's only path to the host. Update queues requests
// without blocking; Run sends them one at a time, in queue order, from a
// single goroutine owned by the session.
type Writer struct {
	sender Sender
	log    *zap.Logger

	mu    sync.Mutex
	queue []protocol.Request
	wake  chan struct{}
}

func NewWriter(sender Sender, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{sender: sender, log: log, wake: make(chan struct{}, 1)}
}

// Enqueue appends reqs to the send queue.
func (w *Writer) Enqueue(reqs ...protocol.Request) {
	if len(reqs) == 0 {
		return
	}
	w.mu.Lock()
	w.queue = append(w.queue, reqs...)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many requests wait to be sent.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Run sends queued requests until ctx is done. Each failed send is
// reported through report, normally tea.Program.Send.
func (w *Writer) Run(ctx context.Context, report func(tea.Msg)) error {
	for {
		w.SendPending(ctx, report)
		select {
		case <-ctx.Done():
			return nil
		case <-w.wake:
		}
	}
}

// SendPending sends everything queued so far and returns.
func (w *Writer) SendPending(ctx context.Context, report func(tea.Msg)) {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		req := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		err := w.sender.Send(ctx, req)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("request not sent", zap.String("command", req.Command), zap.Error(err))
		if report != nil {
			report(sentMsg{req: req, err: err})
		}
	}
}
