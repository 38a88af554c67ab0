// Package treesync applies host messages to a session's tree state.
//
// A Synchronizer shares its tree.State with the goroutine that calls it
// (the UI update loop or a replay). Each message is applied to completion,
// the view is told what to redraw, and the waiting flag is cleared, whatever
// the outcome.
package treesync

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/protocol"
	"github.com/jask/solvetree/internal/tree"
)

// View receives redraw requests. Implementations read the state; they must
// not mutate it.
type View interface {
	RefreshTree(rootID int)
	RefreshNode(id int)
	SelectNode(id int)
	SetNodeSpacing(spacing int)
	ShowLoadedCount(loaded int)
	RefreshDomains()
	ShowSimpleDomain(d tree.SimpleDomain)
}

// Outbox delivers requests to the host.
type Outbox interface {
	Send(req protocol.Request)
}

// DefaultSpacingFactor converts the longest branching variable length into
// node spacing.
const DefaultSpacingFactor = 1

// Synchronizer dispatches messages onto a tree.State.
type Synchronizer struct {
	state         *tree.State
	view          View
	out           Outbox
	spacingFactor int
	log           *zap.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSpacingFactor sets the multiplier applied to longestBranchingVariable.
func WithSpacingFactor(f int) Option {
	return func(s *Synchronizer) {
		if f > 0 {
			s.spacingFactor = f
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a Synchronizer. A nil view or outbox discards the calls.
func New(state *tree.State, view View, out Outbox, opts ...Option) *Synchronizer {
	if view == nil {
		view = NopView{}
	}
	if out == nil {
		out = NopOutbox{}
	}
	s := &Synchronizer{
		state:         state,
		view:          view,
		out:           out,
		spacingFactor: DefaultSpacingFactor,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state the synchronizer writes to.
func (s *Synchronizer) State() *tree.State { return s.state }

// Request sends a request to the host and marks the state as waiting.
func (s *Synchronizer) Request(req protocol.Request) {
	s.state.SetWaiting(true)
	s.out.Send(req)
}

// Handle decodes and applies one envelope. A payload that fails to decode
// changes nothing but still clears the waiting flag.
func (s *Synchronizer) Handle(env protocol.Envelope) error {
	msg, err := protocol.Decode(env)
	if err != nil {
		s.state.SetWaiting(false)
		s.log.Warn("dropping malformed message", zap.String("command", env.Command), zap.Error(err))
		return err
	}
	return s.Apply(msg)
}

// Apply applies one decoded message.
func (s *Synchronizer) Apply(msg protocol.Message) error {
	defer s.state.SetWaiting(false)

	var err error
	switch m := msg.(type) {
	case protocol.LoadSet:
		err = s.loadSet(m)
	case protocol.Init:
		s.init(m)
	case protocol.LoadChildren:
		err = s.loadChildren(m)
	case protocol.LoadCore:
		s.loadCore(m)
	case protocol.LongestBranchingVariable:
		s.longestBranchingVariable(m)
	case protocol.LoadNodes:
		s.loadNodes(m)
	case protocol.SimpleDomains:
		s.simpleDomains(m)
	case protocol.PrettyDomains:
		s.prettyDomains(m)
	case protocol.Unknown:
		s.log.Debug("ignoring unknown command", zap.String("command", m.Name))
	default:
		s.log.Debug("ignoring unhandled message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
	if err != nil {
		s.log.Warn("message applied with errors", zap.String("command", msg.Command()), zap.Error(err))
	}
	return err
}

func (s *Synchronizer) loadSet(m protocol.LoadSet) error {
	if err := s.state.Domains.SetChildren(m.Structure.Name, toEntries(m.Structure.Children)); err != nil {
		return fmt.Errorf("loadSet: %w", err)
	}
	s.view.RefreshDomains()
	s.state.Domains.UpdateEntries([]*tree.DomainEntry{toEntry(m.Update)})
	s.view.RefreshDomains()
	s.Request(protocol.Pretty(s.state.Selected()))
	return nil
}

func (s *Synchronizer) init(m protocol.Init) {
	s.state.Domains.Replace(toEntry(m.Pretty))
	vars := make([]tree.SimpleDomain, 0, len(m.Simple.Vars))
	for _, v := range m.Simple.Vars {
		vars = append(vars, tree.SimpleDomain{Name: v.Name, Range: v.Rng})
	}
	s.state.Domains.SetRootVariables(vars)
	s.view.RefreshDomains()
}

// loadChildren only updates nodes already in the table. Entries for absent
// nodes are skipped and reported together once the rest are applied.
func (s *Synchronizer) loadChildren(m protocol.LoadChildren) error {
	var errs []error
	for _, c := range m.Nodes {
		if err := s.state.UpdateDetail(c.NodeID, c.DescendantCount, c.Label, c.PrettyLabel, c.Children); err != nil {
			errs = append(errs, err)
			continue
		}
		s.view.RefreshNode(c.NodeID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("loadChildren: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Synchronizer) loadCore(m protocol.LoadCore) {
	for _, r := range m.Nodes {
		s.state.MarkSolutionAncestor(r.NodeID)
	}

	var parents []int
	for _, r := range m.Nodes {
		if r.IsSolution {
			s.state.MarkSolution(r.NodeID)
		}
		if !s.addNode(r.Record()) {
			continue
		}
		created := false
		for _, kid := range r.Children {
			if s.state.IsSolutionAncestor(kid) {
				continue
			}
			if s.state.AddPlaceholder(kid, r.NodeID) {
				created = true
			}
		}
		if created {
			parents = append(parents, r.NodeID)
		}
	}

	root, ok := s.state.Root()
	if ok {
		s.state.CollapseNode(root)
		s.view.RefreshTree(root)
	}
	s.view.SelectNode(s.state.Selected())
	s.view.ShowLoadedCount(s.state.Len())

	for _, p := range parents {
		s.Request(protocol.LoadChildrenOf(p))
	}
}

// addNode creates r unless its id is already known.
func (s *Synchronizer) addNode(r protocol.NodeRecord) bool {
	return s.state.AddNode(r.NodeID, r.ParentID, r.Label, r.PrettyLabel, r.DescendantCount, r.Children)
}

func (s *Synchronizer) longestBranchingVariable(m protocol.LongestBranchingVariable) {
	s.state.SetSpacing(m.Length * s.spacingFactor)
	s.view.SetNodeSpacing(s.state.Spacing())
}

func (s *Synchronizer) loadNodes(m protocol.LoadNodes) {
	for _, r := range m.Nodes {
		s.addNode(r)
	}
	if root, ok := s.state.Root(); ok {
		s.view.RefreshTree(root)
	}
	s.view.SelectNode(s.state.Selected())
	s.view.ShowLoadedCount(s.state.Len())
}

func (s *Synchronizer) simpleDomains(m protocol.SimpleDomains) {
	changed := make(map[string]bool, len(m.ChangedNames))
	for _, n := range m.ChangedNames {
		changed[n] = true
	}
	for _, v := range m.Vars {
		d := s.state.Domains.SetSimple(v.Name, v.Rng, changed[v.Name])
		s.view.ShowSimpleDomain(d)
	}
}

func (s *Synchronizer) prettyDomains(m protocol.PrettyDomains) {
	s.state.Domains.SetChangedExpressions(toEntries(m.ChangedExpressions))
	if missing := s.state.Domains.UpdateEntries(toEntries(m.Vars)); len(missing) > 0 {
		s.log.Debug("pretty update for unknown entries", zap.Strings("names", missing))
	}
	s.state.Domains.SetChanged(m.Changed)
	s.view.RefreshDomains()
}

func toEntry(p protocol.PrettyEntry) *tree.DomainEntry {
	return &tree.DomainEntry{
		Name:     p.Name,
		Value:    p.Value,
		Lazy:     p.Lazy,
		Children: toEntries(p.Children),
	}
}

func toEntries(ps []protocol.PrettyEntry) []*tree.DomainEntry {
	if ps == nil {
		return nil
	}
	out := make([]*tree.DomainEntry, 0, len(ps))
	for _, p := range ps {
		out = append(out, toEntry(p))
	}
	return out
}

// NopView discards redraw requests; replays and tests use it.
type NopView struct{}

func (NopView) RefreshTree(int)                    {}
func (NopView) RefreshNode(int)                    {}
func (NopView) SelectNode(int)                     {}
func (NopView) SetNodeSpacing(int)                 {}
func (NopView) ShowLoadedCount(int)                {}
func (NopView) RefreshDomains()                    {}
func (NopView) ShowSimpleDomain(tree.SimpleDomain) {}

// NopOutbox drops requests.
type NopOutbox struct{}

func (NopOutbox) Send(protocol.Request) {}
