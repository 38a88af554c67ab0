package tree

import "fmt"

// DomainEntry is a node of the pretty domain tree, keyed by name.
type DomainEntry struct {
	Name     string
	Value    string
	Lazy     bool
	Children []*DomainEntry
}

// SimpleDomain is a variable with its range text as shown in the simple view.
type SimpleDomain struct {
	Name    string
	Range   string
	Changed bool
}

// Domains is the state behind the domain pane: the pretty tree, the simple
// variable list and the change markers.
type Domains struct {
	root   *DomainEntry
	byName map[string]*DomainEntry

	changedExpressions []*DomainEntry
	changed            bool

	simple      map[string]*SimpleDomain
	simpleOrder []string

	rootVars []SimpleDomain
}

// NewDomains returns empty domain state.
func NewDomains() *Domains {
	return &Domains{
		byName: make(map[string]*DomainEntry),
		simple: make(map[string]*SimpleDomain),
	}
}

// Replace swaps in a complete pretty snapshot.
func (d *Domains) Replace(root *DomainEntry) {
	d.root = root
	d.reindex()
}

// Root returns the pretty snapshot root, nil before init.
func (d *Domains) Root() *DomainEntry { return d.root }

// Entry looks up a pretty entry by name.
func (d *Domains) Entry(name string) (*DomainEntry, bool) {
	e, ok := d.byName[name]
	return e, ok
}

// SetChildren replaces the children of a named entry.
func (d *Domains) SetChildren(name string, children []*DomainEntry) error {
	e, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("set children of %q: %w", name, ErrUnknownEntry)
	}
	e.Children = children
	e.Lazy = false
	d.reindex()
	return nil
}

// UpdateEntries applies partial updates by name and returns the names it
// could not find. Updates with nil children keep the current children.
func (d *Domains) UpdateEntries(updates []*DomainEntry) []string {
	var missing []string
	for _, u := range updates {
		e, ok := d.byName[u.Name]
		if !ok {
			missing = append(missing, u.Name)
			continue
		}
		e.Value = u.Value
		e.Lazy = u.Lazy
		if u.Children != nil {
			e.Children = u.Children
		}
	}
	d.reindex()
	return missing
}

// SetChangedExpressions records the expressions whose value changed at the
// selected node.
func (d *Domains) SetChangedExpressions(exprs []*DomainEntry) { d.changedExpressions = exprs }

// ChangedExpressions returns the last recorded changed expressions.
func (d *Domains) ChangedExpressions() []*DomainEntry { return d.changedExpressions }

// SetChanged sets the pane-wide changed flag.
func (d *Domains) SetChanged(changed bool) { d.changed = changed }

// Changed reports the pane-wide changed flag.
func (d *Domains) Changed() bool { return d.changed }

// SetSimple updates the range text of a variable and sets its changed
// marker, creating the variable on first sight.
func (d *Domains) SetSimple(name, rng string, changed bool) SimpleDomain {
	sd, ok := d.simple[name]
	if !ok {
		sd = &SimpleDomain{Name: name}
		d.simple[name] = sd
		d.simpleOrder = append(d.simpleOrder, name)
	}
	sd.Range = rng
	sd.Changed = changed
	return *sd
}

// Simple returns one simple variable.
func (d *Domains) Simple(name string) (SimpleDomain, bool) {
	sd, ok := d.simple[name]
	if !ok {
		return SimpleDomain{}, false
	}
	return *sd, true
}

// SimpleList returns the simple variables in first-seen order.
func (d *Domains) SimpleList() []SimpleDomain {
	out := make([]SimpleDomain, 0, len(d.simpleOrder))
	for _, name := range d.simpleOrder {
		out = append(out, *d.simple[name])
	}
	return out
}

// SetRootVariables stores the simple variables at the root node.
func (d *Domains) SetRootVariables(vars []SimpleDomain) {
	d.rootVars = append([]SimpleDomain(nil), vars...)
}

// RootVariables returns the simple variables at the root node.
func (d *Domains) RootVariables() []SimpleDomain { return d.rootVars }

// EntryRow is one visible line of the pretty tree.
type EntryRow struct {
	Entry *DomainEntry
	Depth int
	Path  string
}

// Rows flattens the pretty tree below the root. Path is the slash-joined
// chain of names used when asking the host for a lazy set.
func (d *Domains) Rows() []EntryRow {
	if d.root == nil {
		return nil
	}
	var rows []EntryRow
	var walk func(e *DomainEntry, depth int, path string)
	walk = func(e *DomainEntry, depth int, path string) {
		for _, c := range e.Children {
			p := c.Name
			if path != "" {
				p = path + "/" + c.Name
			}
			rows = append(rows, EntryRow{Entry: c, Depth: depth, Path: p})
			walk(c, depth+1, p)
		}
	}
	walk(d.root, 0, "")
	return rows
}

func (d *Domains) reindex() {
	d.byName = make(map[string]*DomainEntry)
	if d.root == nil {
		return
	}
	stack := []*DomainEntry{d.root}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := d.byName[e.Name]; !dup {
			d.byName[e.Name] = e
		}
		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
}
