// Package tree holds the panel's view of one solver session: the search tree
// node table, the solution sets, the domain panels and the waiting flag.
//
// A State is owned by a single goroutine (the UI update loop or a replay) and
// is not safe for concurrent use.
package tree

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrUnknownNode is returned when a message addresses a node id the table does not hold.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEntry is returned when a message addresses a domain entry that does not exist.
	ErrUnknownEntry = errors.New("unknown domain entry")
)

// Node is a vertex of the search tree.
type Node struct {
	ID              int
	ParentID        int
	Label           string
	PrettyLabel     string
	DescendantCount int
	Children        []int
	Collapsed       bool
	// Placeholder is set for nodes created before their details arrived.
	Placeholder bool
}

// State is the session model.
type State struct {
	nodes map[int]*Node
	order []int

	rootID   int
	hasRoot  bool
	selected int

	solutionAncestors map[int]struct{}
	solutions         map[int]struct{}

	waiting bool
	spacing int

	Domains *Domains
}

// NewState returns an empty session model.
func NewState() *State {
	return &State{
		nodes:             make(map[int]*Node),
		solutionAncestors: make(map[int]struct{}),
		solutions:         make(map[int]struct{}),
		Domains:           NewDomains(),
	}
}

// Len is the number of nodes loaded so far.
func (s *State) Len() int { return len(s.nodes) }

// Has reports whether id is in the table.
func (s *State) Has(id int) bool {
	_, ok := s.nodes[id]
	return ok
}

// Node returns the node with the given id.
func (s *State) Node(id int) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Root returns the root id. The first node ever added becomes the root.
func (s *State) Root() (int, bool) { return s.rootID, s.hasRoot }

// AddNode inserts a node unless one with the same id exists. It reports
// whether the node was created; existing nodes are left untouched.
func (s *State) AddNode(id, parentID int, label, prettyLabel string, descendants int, children []int) bool {
	if _, ok := s.nodes[id]; ok {
		return false
	}
	s.insert(&Node{
		ID:              id,
		ParentID:        parentID,
		Label:           label,
		PrettyLabel:     prettyLabel,
		DescendantCount: descendants,
		Children:        slices.Clone(children),
	})
	return true
}

// AddPlaceholder inserts an empty node under parentID unless id exists.
func (s *State) AddPlaceholder(id, parentID int) bool {
	if _, ok := s.nodes[id]; ok {
		return false
	}
	s.insert(&Node{ID: id, ParentID: parentID, Placeholder: true, Collapsed: true})
	return true
}

func (s *State) insert(n *Node) {
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	if !s.hasRoot {
		s.rootID = n.ID
		s.selected = n.ID
		s.hasRoot = true
	}
}

// UpdateDetail overwrites the count, labels and child ids of an existing node.
func (s *State) UpdateDetail(id, descendants int, label, prettyLabel string, children []int) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("update node %d: %w", id, ErrUnknownNode)
	}
	n.DescendantCount = descendants
	n.Label = label
	n.PrettyLabel = prettyLabel
	n.Children = slices.Clone(children)
	n.Placeholder = false
	return nil
}

// Children returns the ordered child ids of id, including ids not yet loaded.
func (s *State) Children(id int) []int {
	if n, ok := s.nodes[id]; ok {
		return n.Children
	}
	return nil
}

// MissingChildren returns the child ids of id that are not in the table yet.
func (s *State) MissingChildren(id int) []int {
	var out []int
	for _, c := range s.Children(id) {
		if _, ok := s.nodes[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// NeedsChildren reports whether id has children that are missing or still placeholders.
func (s *State) NeedsChildren(id int) bool {
	for _, c := range s.Children(id) {
		n, ok := s.nodes[c]
		if !ok || n.Placeholder {
			return true
		}
	}
	return false
}

// Selected returns the selected node id; it is the root until the user moves.
func (s *State) Selected() int { return s.selected }

// Select moves the selection to id.
func (s *State) Select(id int) error {
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("select %d: %w", id, ErrUnknownNode)
	}
	s.selected = id
	return nil
}

// MarkSolutionAncestor records id as lying on a path to a solution.
func (s *State) MarkSolutionAncestor(id int) { s.solutionAncestors[id] = struct{}{} }

// IsSolutionAncestor reports whether id lies on a path to a solution.
func (s *State) IsSolutionAncestor(id int) bool {
	_, ok := s.solutionAncestors[id]
	return ok
}

// MarkSolution records id as a solution node.
func (s *State) MarkSolution(id int) { s.solutions[id] = struct{}{} }

// IsSolution reports whether id is a solution node.
func (s *State) IsSolution(id int) bool {
	_, ok := s.solutions[id]
	return ok
}

// SolutionAncestors returns the recorded ids in ascending order.
func (s *State) SolutionAncestors() []int { return sortedKeys(s.solutionAncestors) }

// Solutions returns the solution ids in ascending order.
func (s *State) Solutions() []int { return sortedKeys(s.solutions) }

// Waiting reports whether a request to the host is outstanding.
func (s *State) Waiting() bool { return s.waiting }

// SetWaiting sets the waiting flag.
func (s *State) SetWaiting(w bool) { s.waiting = w }

// Spacing is the horizontal node spacing requested by the host.
func (s *State) Spacing() int { return s.spacing }

// SetSpacing records the node spacing.
func (s *State) SetSpacing(n int) {
	if n < 0 {
		n = 0
	}
	s.spacing = n
}

// SetCollapsed folds or unfolds a single node.
func (s *State) SetCollapsed(id int, collapsed bool) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("collapse %d: %w", id, ErrUnknownNode)
	}
	n.Collapsed = collapsed
	return nil
}

// CollapseNode folds the subtree under id: every descendant that is not a
// solution ancestor is collapsed, while id itself and the solution paths stay
// open. Unknown ids are ignored.
func (s *State) CollapseNode(id int) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.Collapsed = false
	stack := slices.Clone(n.Children)
	seen := map[int]bool{id: true}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		c, ok := s.nodes[cur]
		if !ok {
			continue
		}
		c.Collapsed = !s.IsSolutionAncestor(cur)
		stack = append(stack, c.Children...)
	}
}

// Nodes returns copies of all nodes in insertion order.
func (s *State) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		n := *s.nodes[id]
		n.Children = slices.Clone(n.Children)
		out = append(out, n)
	}
	return out
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
