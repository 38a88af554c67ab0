package tree

// Row is one visible line of the search tree.
type Row struct {
	Node  *Node
	Depth int
	// Last is set when the node is the last visible sibling.
	Last bool
	// Trail holds, for every ancestor below the root, whether that ancestor
	// was a last sibling. Renderers use it to draw branch guides.
	Trail []bool
	// Pending counts child ids the table does not hold yet.
	Pending int
}

// Visible flattens the tree from the root in display order, skipping the
// children of collapsed nodes.
func (s *State) Visible() []Row {
	root, ok := s.Root()
	if !ok {
		return nil
	}
	var rows []Row
	seen := make(map[int]bool)
	var walk func(id, depth int, last bool, trail []bool)
	walk = func(id, depth int, last bool, trail []bool) {
		n, ok := s.nodes[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		rows = append(rows, Row{
			Node:    n,
			Depth:   depth,
			Last:    last,
			Trail:   trail,
			Pending: len(s.MissingChildren(id)),
		})
		if n.Collapsed {
			return
		}
		present := make([]int, 0, len(n.Children))
		for _, c := range n.Children {
			if _, ok := s.nodes[c]; ok {
				present = append(present, c)
			}
		}
		next := trail
		if depth > 0 {
			next = append(append([]bool(nil), trail...), last)
		}
		for i, c := range present {
			walk(c, depth+1, i == len(present)-1, next)
		}
	}
	walk(root, 0, true, nil)
	return rows
}

// Path returns the ids from the root down to id, inclusive.
func (s *State) Path(id int) []int {
	var rev []int
	seen := map[int]bool{}
	for {
		n, ok := s.nodes[id]
		if !ok || seen[id] {
			break
		}
		seen[id] = true
		rev = append(rev, id)
		if s.hasRoot && id == s.rootID {
			break
		}
		id = n.ParentID
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// Reveal expands every ancestor of id so it appears in Visible.
func (s *State) Reveal(id int) {
	path := s.Path(id)
	for _, p := range path[:max(len(path)-1, 0)] {
		s.nodes[p].Collapsed = false
	}
}
