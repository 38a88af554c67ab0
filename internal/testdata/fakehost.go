package testdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jask/solvetree/internal/host"
	"github.com/jask/solvetree/internal/protocol"
)

// lazySet is the name of the pretty entry whose children are sent on request.
const lazySet = "pairs"

// wire records use the host's own spelling of the count field.
type wireNode struct {
	NodeID         int    `json:"nodeId"`
	ParentID       int    `json:"parentId"`
	Label          string `json:"label"`
	PrettyLabel    string `json:"prettyLabel,omitempty"`
	DecendantCount int    `json:"decendantCount"`
	Children       []int  `json:"children"`
	IsSolution     *bool  `json:"isSolution,omitempty"`
}

type wireChild struct {
	NodeID         int    `json:"nodeId"`
	DecendantCount int    `json:"decendantCount"`
	Label          string `json:"label"`
	Children       []int  `json:"children"`
}

// FakeHost is an in-process host.Conn serving a generated Search. It
// greets with longestBranchingVariable and loadCore and answers every
// request the panel can send.
type FakeHost struct {
	search *Search

	mu       sync.Mutex
	queue    []protocol.Envelope
	requests []protocol.Request

	notify chan struct{}
	closed chan struct{}
	once   sync.Once
}

var _ host.Conn = (*FakeHost)(nil)

// NewFakeHost queues the greeting for s.
func NewFakeHost(s *Search) *FakeHost {
	h := &FakeHost{
		search: s,
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	h.push(protocol.CommandLongestBranchingVariable, s.LongestVarName())
	h.push(protocol.CommandLoadCore, h.core())
	return h
}

// Search returns the tree being served.
func (h *FakeHost) Search() *Search { return h.search }

// Requests returns every request received so far.
func (h *FakeHost) Requests() []protocol.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.Request(nil), h.requests...)
}

// Pending reports how many envelopes wait to be received.
func (h *FakeHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *FakeHost) Receive(ctx context.Context) (protocol.Envelope, error) {
	for {
		h.mu.Lock()
		if len(h.queue) > 0 {
			env := h.queue[0]
			h.queue = h.queue[1:]
			h.mu.Unlock()
			return env, nil
		}
		h.mu.Unlock()
		select {
		case <-h.closed:
			return protocol.Envelope{}, host.ErrClosed
		case <-ctx.Done():
			return protocol.Envelope{}, ctx.Err()
		case <-h.notify:
		}
	}
}

// Send answers req by queueing the host's replies.
func (h *FakeHost) Send(_ context.Context, req protocol.Request) error {
	select {
	case <-h.closed:
		return host.ErrClosed
	default:
	}
	env, err := protocol.EnvelopeOf(req)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.requests = append(h.requests, req)
	h.mu.Unlock()

	switch req.Command {
	case protocol.RequestReady:
		h.push(protocol.CommandInit, map[string]any{
			"pretty": h.prettyRoot(h.search.Root),
			"simple": map[string]any{"vars": h.simpleVars(h.search.Root)},
		})
	case protocol.RequestPretty:
		var ref protocol.NodeRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return fmt.Errorf("pretty: %w", err)
		}
		h.pretty(ref.NodeID)
	case protocol.RequestLoadChildren:
		var ref protocol.NodeRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return fmt.Errorf("loadChildren: %w", err)
		}
		h.push(protocol.CommandLoadChildren, h.children(ref.NodeID))
	case protocol.RequestLoadNodes:
		var nr protocol.NodesRequest
		if err := json.Unmarshal(env.Data, &nr); err != nil {
			return fmt.Errorf("loadNodes: %w", err)
		}
		h.push(protocol.CommandLoadNodes, h.below(nr.NodeID, nr.Depth))
	case protocol.RequestLoadSet:
		var sr protocol.SetRequest
		if err := json.Unmarshal(env.Data, &sr); err != nil {
			return fmt.Errorf("loadSet: %w", err)
		}
		h.loadSet(sr)
	}
	return nil
}

func (h *FakeHost) Close() error {
	h.once.Do(func() { close(h.closed) })
	return nil
}

func (h *FakeHost) push(command string, data any) {
	env, err := protocol.NewEnvelope(command, data)
	if err != nil {
		panic(fmt.Sprintf("testdata: encode %s: %v", command, err))
	}
	h.mu.Lock()
	h.queue = append(h.queue, env)
	h.mu.Unlock()
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *FakeHost) core() []wireNode {
	s := h.search
	var out []wireNode
	for _, id := range s.Path(s.Solution) {
		n := s.Nodes[id]
		sol := n.Solution
		out = append(out, wireNode{
			NodeID:         n.ID,
			ParentID:       n.Parent,
			Label:          n.Label(s.Vars),
			DecendantCount: n.Descendants,
			Children:       nonNil(n.Children),
			IsSolution:     &sol,
		})
	}
	return out
}

func (h *FakeHost) children(id int) []wireChild {
	s := h.search
	n, ok := s.Nodes[id]
	if !ok {
		return []wireChild{}
	}
	out := make([]wireChild, 0, len(n.Children))
	for _, c := range n.Children {
		cn := s.Nodes[c]
		out = append(out, wireChild{
			NodeID:         cn.ID,
			DecendantCount: cn.Descendants,
			Label:          cn.Label(s.Vars),
			Children:       nonNil(cn.Children),
		})
	}
	return out
}

func (h *FakeHost) below(id, depth int) []wireNode {
	s := h.search
	out := []wireNode{}
	level := []int{id}
	for d := 0; d < depth && len(level) > 0; d++ {
		var next []int
		for _, pid := range level {
			p, ok := s.Nodes[pid]
			if !ok {
				continue
			}
			for _, c := range p.Children {
				cn := s.Nodes[c]
				out = append(out, wireNode{
					NodeID:         cn.ID,
					ParentID:       cn.Parent,
					Label:          cn.Label(s.Vars),
					DecendantCount: cn.Descendants,
					Children:       nonNil(cn.Children),
				})
				next = append(next, c)
			}
		}
		level = next
	}
	return out
}

func (h *FakeHost) prettyRoot(id int) protocol.PrettyEntry {
	root := protocol.PrettyEntry{Name: "Domains"}
	for _, v := range h.search.Domains(id) {
		root.Children = append(root.Children, protocol.PrettyEntry{Name: v.Name, Value: "int(" + v.Range() + ")"})
	}
	root.Children = append(root.Children, protocol.PrettyEntry{Name: lazySet, Lazy: true})
	return root
}

func (h *FakeHost) simpleVars(id int) []protocol.SimpleVar {
	doms := h.search.Domains(id)
	out := make([]protocol.SimpleVar, 0, len(doms))
	for _, v := range doms {
		out = append(out, protocol.SimpleVar{Name: v.Name, Rng: v.Range()})
	}
	return out
}

// pretty answers with both domain views, flagging what changed since the parent.
func (h *FakeHost) pretty(id int) {
	s := h.search
	n, ok := s.Nodes[id]
	if !ok {
		return
	}
	cur := s.Domains(id)
	prev := cur
	if id != s.Root {
		prev = s.Domains(n.Parent)
	}
	var (
		vars     []protocol.PrettyEntry
		changed  []protocol.PrettyEntry
		names    []string
		simple   []protocol.SimpleVar
		anyDelta bool
	)
	for i, v := range cur {
		e := protocol.PrettyEntry{Name: v.Name, Value: "int(" + v.Range() + ")"}
		vars = append(vars, e)
		simple = append(simple, protocol.SimpleVar{Name: v.Name, Rng: v.Range()})
		if v != prev[i] {
			changed = append(changed, e)
			names = append(names, v.Name)
			anyDelta = true
		}
	}
	h.push(protocol.CommandPrettyDomains, protocol.PrettyDomains{
		ChangedExpressions: nonNilEntries(changed),
		Vars:               vars,
		Changed:            anyDelta,
	})
	h.push(protocol.CommandSimpleDomains, protocol.SimpleDomains{
		Vars:         simple,
		ChangedNames: nonNilStrings(names),
	})
}

// loadSet expands the lazy set into every pair of variables whose ranges
// at the node still overlap.
func (h *FakeHost) loadSet(sr protocol.SetRequest) {
	name := sr.Path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name != lazySet {
		return
	}
	doms := h.search.Domains(sr.NodeID)
	children := []protocol.PrettyEntry{}
	for i := 0; i < len(doms); i++ {
		for j := i + 1; j < len(doms); j++ {
			a, b := doms[i], doms[j]
			if a.Hi < b.Lo || b.Hi < a.Lo {
				continue
			}
			children = append(children, protocol.PrettyEntry{
				Name:  fmt.Sprintf("(%s,%s)", a.Name, b.Name),
				Value: fmt.Sprintf("%s × %s", a.Range(), b.Range()),
			})
		}
	}
	h.push(protocol.CommandLoadSet, protocol.LoadSet{
		Structure: protocol.SetStructure{Name: lazySet, Children: children},
		Update:    protocol.PrettyEntry{Name: lazySet, Value: fmt.Sprintf("%d pairs", len(children))},
	})
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func nonNilEntries(es []protocol.PrettyEntry) []protocol.PrettyEntry {
	if es == nil {
		return []protocol.PrettyEntry{}
	}
	return es
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
