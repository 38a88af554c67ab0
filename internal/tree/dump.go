package tree

import (
	"fmt"
	"io"
	"strings"
)

// DisplayLabel returns the text shown for a node: the pretty label when present,
// the raw label otherwise, and an ellipsis for placeholders.
func (n *Node) DisplayLabel() string {
	switch {
	case n.PrettyLabel != "":
		return n.PrettyLabel
	case n.Label != "":
		return n.Label
	case n.Placeholder:
		return "…"
	default:
		return fmt.Sprintf("#%d", n.ID)
	}
}

// Dump writes an indented plain-text rendering of every visible node.
func (s *State) Dump(w io.Writer) error {
	for _, row := range s.Visible() {
		marker := " "
		switch {
		case s.IsSolution(row.Node.ID):
			marker = "*"
		case s.IsSolutionAncestor(row.Node.ID):
			marker = "+"
		}
		line := fmt.Sprintf("%s%s %d %s", strings.Repeat("  ", row.Depth), marker, row.Node.ID, row.Node.DisplayLabel())
		if row.Node.DescendantCount > 0 {
			line += fmt.Sprintf(" (%d)", row.Node.DescendantCount)
		}
		if row.Pending > 0 {
			line += fmt.Sprintf(" [+%d pending]", row.Pending)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
