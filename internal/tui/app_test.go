package tui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/solvetree/internal/config"
	"github.com/jask/solvetree/internal/protocol"
)

type recordingSender struct {
	mu   sync.Mutex
	reqs []protocol.Request
	err  error
}

func (s *recordingSender) Send(_ context.Context, req protocol.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reqs = append(s.reqs, req)
	return nil
}

func (s *recordingSender) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reqs))
	for _, r := range s.reqs {
		out = append(out, r.Command)
	}
	return out
}

func (s *recordingSender) requests() []protocol.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Request(nil), s.reqs...)
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	s.reqs = nil
	s.mu.Unlock()
}

// run executes cmd the way the Bubble Tea runtime would, then lets the
// writer deliver what the update queued. Send failures come back as messages.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd != nil {
		if batch, ok := cmd().(tea.BatchMsg); ok {
			for _, c := range batch {
				run(t, a, c)
			}
		}
	}
	var failed []tea.Msg
	a.writer.SendPending(context.Background(), func(m tea.Msg) { failed = append(failed, m) })
	for _, m := range failed {
		send(t, a, m)
	}
}

func send(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	_, cmd := a.Update(msg)
	run(t, a, cmd)
}

func envelope(t *testing.T, command, data string) EnvelopeMsg {
	t.Helper()
	return EnvelopeMsg{Envelope: protocol.Envelope{Command: command, Data: json.RawMessage(data)}}
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

const coreData = `[
 {"nodeId":0,"parentId":-1,"label":"root","decendantCount":9,"children":[1,4],"isSolution":false},
 {"nodeId":1,"parentId":0,"label":"x = 1","decendantCount":3,"children":[2,3],"isSolution":false},
 {"nodeId":3,"parentId":1,"label":"y = 2","decendantCount":0,"children":[],"isSolution":true}
]`

func newTestApp(t *testing.T) (*App, *recordingSender) {
	t.Helper()
	s := &recordingSender{}
	a := New(NewWriter(s, nil), Options{SessionID: "0123456789abcdef", Host: "ws://h"})
	// a blinking cursor would make every keystroke command wait for the blink
	a.search.Cursor.SetMode(cursor.CursorStatic)
	return a, s
}

func TestInitSendsReady(t *testing.T) {
	a, s := newTestApp(t)
	run(t, a, a.Init())
	require.Equal(t, []string{protocol.RequestReady}, s.commands())
	require.True(t, a.State().Waiting())
}

func TestLoadCoreRendersMarkersAndRequestsChildren(t *testing.T) {
	a, s := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandLoadCore, coreData))

	st := a.State()
	require.Equal(t, 5, st.Len())
	require.False(t, st.Waiting())
	require.Equal(t, []string{protocol.RequestLoadChildren, protocol.RequestLoadChildren}, s.commands())

	view := a.View()
	require.Contains(t, view, glyphSolution)
	require.Contains(t, view, glyphAncestor)
	require.Contains(t, view, "x = 1")
	require.Contains(t, view, "y = 2")
	require.Contains(t, view, "5/?")
	require.Contains(t, view, "session 01234567")
}

func TestNavigationSendsPrettyAndExpandLoadsChildren(t *testing.T) {
	a, s := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandLoadCore, coreData))
	s.reset()

	send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, a.State().Selected())
	require.Equal(t, []string{protocol.RequestPretty}, s.commands())

	// node 1 holds placeholder 2, so enter asks for details.
	s.reset()
	send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{protocol.RequestLoadChildren}, s.commands())

	s.reset()
	send(t, a, keyRunes("n"))
	require.Equal(t, []string{protocol.RequestLoadNodes}, s.commands())
	require.JSONEq(t, `{"nodeId":1,"depth":2}`, mustJSON(t, s.reqs[0].Data))

	s.reset()
	send(t, a, keyRunes("h"))
	n, ok := a.State().Node(1)
	require.True(t, ok)
	require.True(t, n.Collapsed)
	require.Empty(t, s.commands())
}

func TestExpandAsksForUnknownChildrenThroughLoadNodes(t *testing.T) {
	a, s := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandLoadNodes, `[{"nodeId":10,"parentId":-1,"label":"r","children":[11]}]`))
	require.Empty(t, s.commands())

	send(t, a, keyRunes("l"))
	require.Equal(t, []string{protocol.RequestLoadNodes}, s.commands())
	require.JSONEq(t, `{"nodeId":10,"depth":1}`, mustJSON(t, s.reqs[0].Data))
}

func TestDomainPaneViewsAndLazySet(t *testing.T) {
	a, s := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandInit, `{
	  "pretty":{"name":"root","children":[{"name":"x","value":"int(1..5)"},{"name":"S","lazy":true}]},
	  "simple":{"vars":[{"name":"x","rng":"1..5"}]}
	}`))
	require.Contains(t, a.View(), "int(1..5)")

	send(t, a, keyRunes("w"))
	send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, a.domainCursor)
	send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{protocol.RequestLoadSet}, s.commands())
	require.JSONEq(t, `{"nodeId":0,"path":"S"}`, mustJSON(t, s.reqs[0].Data))

	var persisted string
	a.opts.OnDomainView = func(v string) { persisted = v }
	send(t, a, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, config.DomainViewSimple, persisted)

	send(t, a, envelope(t, protocol.CommandSimpleDomains, `{"vars":[{"name":"x","rng":"2..3"}],"changedNames":["x"]}`))
	view := a.View()
	require.Contains(t, view, "2..3")
	require.Contains(t, view, "x *")
}

func TestSearchJumpsToVariable(t *testing.T) {
	a, _ := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandSimpleDomains, `{"vars":[{"name":"alpha","rng":"1"},{"name":"beta","rng":"2"},{"name":"gamma","rng":"3"}],"changedNames":[]}`))

	send(t, a, keyRunes("/"))
	require.True(t, a.searching)
	for _, r := range "gam" {
		send(t, a, keyRunes(string(r)))
	}
	require.NotEmpty(t, a.matches)
	require.Equal(t, "gamma", a.matches[0].Name)

	send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, a.searching)
	require.Equal(t, paneDomains, a.focus)
	require.Equal(t, config.DomainViewSimple, a.domainView)
	require.Equal(t, 2, a.domainCursor)
}

func TestMalformedMessageShowsErrorAndKeepsState(t *testing.T) {
	a, _ := newTestApp(t)
	send(t, a, envelope(t, protocol.CommandLoadCore, coreData))
	before := a.State().Len()

	send(t, a, envelope(t, protocol.CommandLoadNodes, `{"nope":1}`))
	require.Equal(t, before, a.State().Len())
	require.Contains(t, a.View(), "error:")

	send(t, a, envelope(t, "noop", `{}`))
	require.Equal(t, before, a.State().Len())
	require.False(t, a.State().Waiting())
}

func TestSendFailureClearsWaiting(t *testing.T) {
	a, s := newTestApp(t)
	s.err = errors.New("broken pipe")
	run(t, a, a.Init())
	require.False(t, a.State().Waiting())
	require.Contains(t, a.View(), "broken pipe")
}

func TestHostClosedAndQuit(t *testing.T) {
	a, _ := newTestApp(t)
	send(t, a, HostClosedMsg{})
	require.Contains(t, a.View(), "host closed the connection")

	_, cmd := a.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
