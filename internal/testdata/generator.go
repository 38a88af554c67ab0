// Package testdata builds synthetic solver searches and an in-process host
// that serves them, for the demo command and for tests.
package testdata

import (
	"fmt"
	"math/rand"
)

// Var is a decision variable with an integer range.
type Var struct {
	Name   string
	Lo, Hi int
}

// Node is one search decision: Var = Value on the left branch, Var != Value
// on the right.
type Node struct {
	ID          int
	Parent      int
	Var         int
	Value       int
	Equal       bool
	Children    []int
	Solution    bool
	Descendants int
}

// Label renders the decision that led to the node.
func (n *Node) Label(vars []Var) string {
	if n.Var < 0 {
		return "root"
	}
	op := "="
	if !n.Equal {
		op = "!="
	}
	return fmt.Sprintf("%s %s %d", vars[n.Var].Name, op, n.Value)
}

// Search is a complete generated search tree.
type Search struct {
	Vars     []Var
	Nodes    map[int]*Node
	Root     int
	Solution int
}

// Generate builds a binary search of the given depth over nvars variables.
// The same seed always yields the same tree. Exactly one leaf, picked at
// random, is a solution.
func Generate(seed int64, nvars, depth int) *Search {
	if nvars < 1 {
		nvars = 1
	}
	if depth < 1 {
		depth = 1
	}
	rnd := rand.New(rand.NewSource(seed))
	s := &Search{Nodes: make(map[int]*Node)}
	for i := 0; i < nvars; i++ {
		hi := 2 + rnd.Intn(8)
		s.Vars = append(s.Vars, Var{Name: varName(i), Lo: 1, Hi: hi})
	}

	next := 0
	var build func(parent, v, value int, equal bool, level int) int
	build = func(parent, v, value int, equal bool, level int) int {
		id := next
		next++
		n := &Node{ID: id, Parent: parent, Var: v, Value: value, Equal: equal}
		s.Nodes[id] = n
		if level == depth {
			return id
		}
		bv := level % nvars
		val := s.Vars[bv].Lo + rnd.Intn(s.Vars[bv].Hi-s.Vars[bv].Lo+1)
		left := build(id, bv, val, true, level+1)
		right := build(id, bv, val, false, level+1)
		n.Children = []int{left, right}
		n.Descendants = 2 + s.Nodes[left].Descendants + s.Nodes[right].Descendants
		return id
	}
	s.Root = build(-1, -1, 0, true, 0)

	// walk down a random path to pick the solution leaf
	cur := s.Root
	for len(s.Nodes[cur].Children) > 0 {
		cur = s.Nodes[cur].Children[rnd.Intn(2)]
	}
	s.Nodes[cur].Solution = true
	s.Solution = cur
	return s
}

// Path returns ids from the root to id inclusive.
func (s *Search) Path(id int) []int {
	var rev []int
	for {
		n, ok := s.Nodes[id]
		if !ok {
			break
		}
		rev = append(rev, id)
		if id == s.Root {
			break
		}
		id = n.Parent
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// Domains returns each variable's range after the decisions on the path to id.
func (s *Search) Domains(id int) []Var {
	out := make([]Var, len(s.Vars))
	copy(out, s.Vars)
	for _, pid := range s.Path(id) {
		n := s.Nodes[pid]
		if n.Var < 0 {
			continue
		}
		v := &out[n.Var]
		switch {
		case n.Equal:
			v.Lo, v.Hi = n.Value, n.Value
		case n.Value == v.Lo:
			v.Lo++
		case n.Value == v.Hi:
			v.Hi--
		}
	}
	return out
}

// LongestVarName is the length of the longest variable name.
func (s *Search) LongestVarName() int {
	n := 0
	for _, v := range s.Vars {
		n = max(n, len(v.Name))
	}
	return n
}

// Range renders a variable range the way hosts print them.
func (v Var) Range() string {
	switch {
	case v.Lo > v.Hi:
		return "{}"
	case v.Lo == v.Hi:
		return fmt.Sprint(v.Lo)
	default:
		return fmt.Sprintf("%d..%d", v.Lo, v.Hi)
	}
}

func varName(i int) string {
	names := []string{"x", "y", "z", "queen", "colour", "slot", "amount", "w"}
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("v%d", i)
}
