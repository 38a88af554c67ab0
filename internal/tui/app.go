package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/config"
	"github.com/jask/solvetree/internal/protocol"
	"github.com/jask/solvetree/internal/tree"
	"github.com/jask/solvetree/internal/treesync"
)

// Sender delivers requests to the host.
type Sender interface {
	Send(ctx context.Context, req protocol.Request) error
}

// Options configures the panel.
type Options struct {
	SessionID     string
	Host          string
	DomainView    string
	SpacingFactor int
	// MoreDepth is how many levels `n` asks for below the selection.
	MoreDepth int
	Log       *zap.Logger
	// OnDomainView is called when the user switches the domain view.
	OnDomainView func(view string)
}

// EnvelopeMsg carries one inbound host message into the update loop.
type EnvelopeMsg struct{ Envelope protocol.Envelope }

// HostClosedMsg reports that the host connection ended.
type HostClosedMsg struct{ Err error }

// sentMsg reports a request the Writer failed to send.
type sentMsg struct {
	req protocol.Request
	err error
}

type pane int

const (
	paneTree pane = iota
	paneDomains
)

// App is the Bubble Tea model of the panel. It owns the session state and
// implements treesync.View for the synchronizer that writes to it.
type App struct {
	writer *Writer
	opts   Options
	log    *zap.Logger

	state *tree.State
	sync  *treesync.Synchronizer
	queue *outbox

	loaded     int
	spacing    int
	lastSimple *tree.SimpleDomain
	dirty      bool

	focus        pane
	domainView   string
	domainCursor int

	searching bool
	search    textinput.Model
	matches   []tree.Match

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	treeVP   viewport.Model
	domainVP viewport.Model
	width    int
	height   int

	status string
	err    error
	closed bool
}

// New builds the panel for one session. Requests leave through w, whose
// Run loop the caller owns.
func New(w *Writer, opts Options) *App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.DomainView != config.DomainViewSimple {
		opts.DomainView = config.DomainViewPretty
	}
	if opts.MoreDepth <= 0 {
		opts.MoreDepth = 2
	}
	in := textinput.New()
	in.Placeholder = "variable"
	in.Prompt = "/ "
	in.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	a := &App{
		writer:     w,
		opts:       opts,
		log:        opts.Log,
		state:      tree.NewState(),
		queue:      &outbox{},
		domainView: opts.DomainView,
		search:     in,
		keys:       defaultKeys(),
		help:       help.New(),
		spinner:    sp,
		treeVP:     viewport.New(0, 0),
		domainVP:   viewport.New(0, 0),
	}
	a.sync = treesync.New(a.state, a, a.queue,
		treesync.WithSpacingFactor(opts.SpacingFactor),
		treesync.WithLogger(opts.Log),
	)
	a.resize(100, 30)
	return a
}

// State exposes the session state for read-only inspection.
func (a *App) State() *tree.State { return a.state }

func (a *App) Init() tea.Cmd {
	a.sync.Request(protocol.Ready())
	a.flush()
	return a.spinner.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
	case EnvelopeMsg:
		if err := a.sync.Handle(m.Envelope); err != nil {
			a.setError(err)
		}
	case HostClosedMsg:
		a.closed = true
		a.state.SetWaiting(false)
		if m.Err != nil {
			a.setError(fmt.Errorf("host: %w", m.Err))
		} else {
			a.status = "host closed the connection"
		}
	case sentMsg:
		a.state.SetWaiting(false)
		a.setError(m.err)
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if a.searching {
			cmds = append(cmds, a.handleSearchKey(m))
			break
		}
		cmd, quit := a.handleKey(m)
		if quit {
			return a, tea.Quit
		}
		a.dirty = true
		cmds = append(cmds, cmd)
	}
	a.flush()
	if a.dirty {
		a.refresh()
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return nil, true
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.resize(a.width, a.height)
	case key.Matches(m, a.keys.SwitchPane):
		if a.focus == paneTree {
			a.focus = paneDomains
		} else {
			a.focus = paneTree
		}
	case key.Matches(m, a.keys.DomainView):
		a.toggleDomainView()
	case key.Matches(m, a.keys.Search):
		a.searching = true
		a.search.SetValue("")
		a.matches = nil
		a.resize(a.width, a.height)
		return a.search.Focus(), false
	case key.Matches(m, a.keys.Cancel):
		a.status, a.err = "", nil
	case key.Matches(m, a.keys.Up):
		a.move(-1)
	case key.Matches(m, a.keys.Down):
		a.move(1)
	case key.Matches(m, a.keys.Collapse):
		if a.focus == paneTree {
			a.collapseSelected()
		}
	case key.Matches(m, a.keys.Expand):
		if a.focus == paneTree {
			a.expandSelected()
		}
	case key.Matches(m, a.keys.Children):
		if a.focus == paneTree {
			a.loadChildrenOfSelected()
		} else {
			a.loadSetAtCursor()
		}
	case key.Matches(m, a.keys.More):
		if a.focus == paneTree {
			a.sync.Request(protocol.LoadNodesBelow(a.state.Selected(), a.opts.MoreDepth))
		}
	}
	return nil, false
}

func (a *App) handleSearchKey(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyEsc:
		a.endSearch()
		return nil
	case tea.KeyEnter:
		if len(a.matches) > 0 {
			a.jumpTo(a.matches[0].Name)
		}
		a.endSearch()
		a.dirty = true
		return nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	a.matches = a.state.Domains.Search(a.search.Value(), 8)
	return cmd
}

func (a *App) endSearch() {
	a.searching = false
	a.search.Blur()
	a.matches = nil
	a.resize(a.width, a.height)
}

// jumpTo focuses the domain pane on the named variable.
func (a *App) jumpTo(name string) {
	for i, row := range a.domainRows() {
		if row.name == name {
			a.focus = paneDomains
			a.domainCursor = i
			return
		}
	}
	if a.domainView == config.DomainViewPretty {
		a.toggleDomainView()
		a.jumpTo(name)
		return
	}
	a.status = "no row for " + name
}

func (a *App) toggleDomainView() {
	if a.domainView == config.DomainViewPretty {
		a.domainView = config.DomainViewSimple
	} else {
		a.domainView = config.DomainViewPretty
	}
	a.domainCursor = 0
	if a.opts.OnDomainView != nil {
		a.opts.OnDomainView(a.domainView)
	}
}

func (a *App) move(delta int) {
	if a.focus == paneDomains {
		rows := a.domainRows()
		a.domainCursor = clamp(a.domainCursor+delta, 0, len(rows)-1)
		return
	}
	rows := a.state.Visible()
	if len(rows) == 0 {
		return
	}
	idx := a.selectedRow(rows)
	next := clamp(idx+delta, 0, len(rows)-1)
	if next != idx {
		a.selectNode(rows[next].Node.ID)
	}
}

func (a *App) selectNode(id int) {
	if err := a.state.Select(id); err != nil {
		a.setError(err)
		return
	}
	a.sync.Request(protocol.Pretty(id))
}

func (a *App) collapseSelected() {
	id := a.state.Selected()
	n, ok := a.state.Node(id)
	if !ok {
		return
	}
	if !n.Collapsed && len(n.Children) > 0 {
		_ = a.state.SetCollapsed(id, true)
		return
	}
	if root, ok := a.state.Root(); ok && id != root {
		a.selectNode(n.ParentID)
	}
}

func (a *App) expandSelected() {
	id := a.state.Selected()
	n, ok := a.state.Node(id)
	if !ok {
		return
	}
	if n.Collapsed {
		_ = a.state.SetCollapsed(id, false)
	}
	a.requestMissing(id)
}

func (a *App) loadChildrenOfSelected() {
	id := a.state.Selected()
	_ = a.state.SetCollapsed(id, false)
	if !a.requestMissing(id) {
		a.sync.Request(protocol.LoadChildrenOf(id))
	}
}

// requestMissing asks for whatever the node's children still lack: unknown
// ids through loadNodes, placeholders through loadChildren.
func (a *App) requestMissing(id int) bool {
	if len(a.state.MissingChildren(id)) > 0 {
		a.sync.Request(protocol.LoadNodesBelow(id, 1))
		return true
	}
	if a.state.NeedsChildren(id) {
		a.sync.Request(protocol.LoadChildrenOf(id))
		return true
	}
	return false
}

func (a *App) loadSetAtCursor() {
	rows := a.domainRows()
	if a.domainCursor < 0 || a.domainCursor >= len(rows) {
		return
	}
	row := rows[a.domainCursor]
	if !row.lazy {
		return
	}
	a.sync.Request(protocol.LoadSetAt(a.state.Selected(), row.path))
}

func (a *App) setError(err error) {
	a.err = err
	a.status = ""
	var dec *protocol.DecodeError
	switch {
	case errors.As(err, &dec):
		a.log.Warn("malformed host message", zap.String("command", dec.Command), zap.Error(err))
	case errors.Is(err, tree.ErrUnknownNode), errors.Is(err, tree.ErrUnknownEntry):
		a.log.Info("message referenced unknown ids", zap.Error(err))
	default:
		a.log.Error("panel error", zap.Error(err))
	}
}

// flush hands the requests queued during this update to the Writer.
func (a *App) flush() {
	reqs := a.queue.drain()
	if a.writer == nil {
		return
	}
	a.writer.Enqueue(reqs...)
}

// treesync.View

func (a *App) RefreshTree(int)       { a.dirty = true }
func (a *App) RefreshNode(int)       { a.dirty = true }
func (a *App) SelectNode(int)        { a.dirty = true }
func (a *App) SetNodeSpacing(n int)  { a.spacing = n }
func (a *App) ShowLoadedCount(n int) { a.loaded = n }
func (a *App) RefreshDomains()       { a.dirty = true }

func (a *App) ShowSimpleDomain(d tree.SimpleDomain) {
	a.lastSimple = &d
	a.dirty = true
}

type outbox struct {
	reqs []protocol.Request
}

func (o *outbox) Send(req protocol.Request) { o.reqs = append(o.reqs, req) }

func (o *outbox) drain() []protocol.Request {
	out := o.reqs
	o.reqs = nil
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
