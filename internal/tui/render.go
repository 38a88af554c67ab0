package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/solvetree/internal/config"
	"github.com/jask/solvetree/internal/tree"
)

const maxLabelWidth = 40

// domainRow is one line of the domain pane in either view.
type domainRow struct {
	name    string
	value   string
	depth   int
	path    string
	lazy    bool
	changed bool
}

func (a *App) domainRows() []domainRow {
	d := a.state.Domains
	if a.domainView == config.DomainViewSimple {
		list := d.SimpleList()
		if len(list) == 0 {
			list = d.RootVariables()
		}
		rows := make([]domainRow, 0, len(list))
		for _, v := range list {
			rows = append(rows, domainRow{name: v.Name, value: v.Range, changed: v.Changed})
		}
		return rows
	}
	changed := make(map[string]bool)
	for _, e := range d.ChangedExpressions() {
		changed[e.Name] = true
	}
	entries := d.Rows()
	rows := make([]domainRow, 0, len(entries))
	for _, r := range entries {
		rows = append(rows, domainRow{
			name:    r.Entry.Name,
			value:   r.Entry.Value,
			depth:   r.Depth,
			path:    r.Path,
			lazy:    r.Entry.Lazy,
			changed: changed[r.Entry.Name],
		})
	}
	return rows
}

func (a *App) selectedRow(rows []tree.Row) int {
	sel := a.state.Selected()
	for i, r := range rows {
		if r.Node.ID == sel {
			return i
		}
	}
	return 0
}

func (a *App) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.width, a.height = w, h
	a.help.Width = w

	chrome := 3 // header, status, help
	if a.help.ShowAll {
		chrome += 3
	}
	if a.searching {
		chrome++
	}
	paneH := max(h-chrome-2, 1)
	treeW := max(w*3/5-4, 10)
	domainW := max(w-treeW-8, 10)
	a.treeVP.Width, a.treeVP.Height = treeW, paneH
	a.domainVP.Width, a.domainVP.Height = domainW, paneH
	a.dirty = true
	a.refresh()
}

// refresh re-renders both panes into their viewports and scrolls them to
// keep the cursor visible.
func (a *App) refresh() {
	rows := a.state.Visible()
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, a.renderNode(r))
	}
	if len(lines) == 0 {
		lines = append(lines, pendingStyle.Render("waiting for the host…"))
	}
	a.treeVP.SetContent(strings.Join(lines, "\n"))
	follow(&a.treeVP, a.selectedRow(rows))

	drows := a.domainRows()
	a.domainCursor = clamp(a.domainCursor, 0, len(drows)-1)
	dlines := make([]string, 0, len(drows))
	for i, r := range drows {
		dlines = append(dlines, a.renderDomainRow(r, i == a.domainCursor && a.focus == paneDomains))
	}
	if len(dlines) == 0 {
		dlines = append(dlines, pendingStyle.Render("no domains yet"))
	}
	a.domainVP.SetContent(strings.Join(dlines, "\n"))
	follow(&a.domainVP, a.domainCursor)
	a.dirty = false
}

func follow(vp *viewport.Model, line int) {
	switch {
	case line < vp.YOffset:
		vp.SetYOffset(line)
	case line >= vp.YOffset+vp.Height:
		vp.SetYOffset(line - vp.Height + 1)
	}
}

func (a *App) renderNode(r tree.Row) string {
	var b strings.Builder
	for _, last := range r.Trail {
		if last {
			b.WriteString(glyphBlank)
		} else {
			b.WriteString(glyphPipe)
		}
	}
	if r.Depth > 0 {
		if r.Last {
			b.WriteString(glyphLast)
		} else {
			b.WriteString(glyphBranch)
		}
	}
	guides := guideStyle.Render(b.String())

	n := r.Node
	indicator := glyphLeaf
	if len(n.Children) > 0 || n.Placeholder {
		indicator = glyphOpen
		if n.Collapsed {
			indicator = glyphClosed
		}
	}

	marker := " "
	label := n.DisplayLabel()
	if width := min(a.spacing, maxLabelWidth); width > len([]rune(label)) {
		label += strings.Repeat(" ", width-len([]rune(label)))
	}
	switch {
	case a.state.IsSolution(n.ID):
		marker = solutionStyle.Render(glyphSolution)
		label = solutionStyle.Render(label)
	case a.state.IsSolutionAncestor(n.ID):
		marker = ancestorStyle.Render(glyphAncestor)
		label = ancestorStyle.Render(label)
	case n.Placeholder:
		label = pendingStyle.Render(label)
	default:
		label = nameStyle.Render(label)
	}

	line := fmt.Sprintf("%s%s %s %s", guides, indicator, marker, label)
	if n.DescendantCount > 0 {
		line += countStyle.Render(fmt.Sprintf(" (%d)", n.DescendantCount))
	}
	if r.Pending > 0 {
		line += pendingStyle.Render(fmt.Sprintf(" … +%d", r.Pending))
	}
	if n.ID == a.state.Selected() && a.focus == paneTree {
		return selectedStyle.Render(line)
	}
	return line
}

func (a *App) renderDomainRow(r domainRow, selected bool) string {
	name := nameStyle.Render(r.name)
	if r.changed {
		name = changedStyle.Render(r.name + " *")
	}
	line := strings.Repeat("  ", r.depth) + name
	if r.value != "" {
		line += " " + countStyle.Render(r.value)
	}
	if r.lazy {
		line += " " + lazyStyle.Render(glyphClosed+" more")
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (a *App) View() string {
	header := titleStyle.Render("solvetree") + " " + headerStyle.Render(a.headerText())
	if a.state.Waiting() {
		header += " " + a.spinner.View()
	}

	treePane, domainPane := paneStyle, paneStyle
	if a.focus == paneTree {
		treePane = focusedPaneStyle
	} else {
		domainPane = focusedPaneStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		treePane.Render(a.treeVP.View()),
		domainPane.Render(a.domainTitle()+"\n"+a.domainVP.View()),
	)

	parts := []string{header, body}
	if a.searching {
		parts = append(parts, a.search.View()+" "+a.renderMatches())
	}
	parts = append(parts, a.statusLine(), a.help.View(a.keys))
	return strings.Join(parts, "\n")
}

func (a *App) headerText() string {
	session := a.opts.SessionID
	if len(session) > 8 {
		session = session[:8]
	}
	parts := []string{}
	if session != "" {
		parts = append(parts, "session "+session)
	}
	if a.opts.Host != "" {
		parts = append(parts, a.opts.Host)
	}
	parts = append(parts, fmt.Sprintf("%d/?", a.loaded))
	if a.spacing > 0 {
		parts = append(parts, fmt.Sprintf("spacing %d", a.spacing))
	}
	return strings.Join(parts, " · ")
}

func (a *App) domainTitle() string {
	title := "pretty"
	if a.domainView == config.DomainViewSimple {
		title = "simple"
	}
	if a.state.Domains.Changed() {
		title += changedStyle.Render(" (changed)")
	}
	return headerStyle.Render("domains: ") + title
}

func (a *App) renderMatches() string {
	if len(a.matches) == 0 {
		return countStyle.Render("no matches")
	}
	names := make([]string, 0, len(a.matches))
	for _, m := range a.matches {
		names = append(names, m.Name)
	}
	return countStyle.Render(strings.Join(names, "  "))
}

func (a *App) statusLine() string {
	switch {
	case a.err != nil:
		return errorStyle.Render("error: " + a.err.Error())
	case a.status != "":
		return statusStyle.Render(a.status)
	case a.closed:
		return statusStyle.Render("disconnected")
	case a.lastSimple != nil:
		d := a.lastSimple
		text := fmt.Sprintf("%s ∈ %s", d.Name, d.Range)
		if d.Changed {
			return changedStyle.Render(text)
		}
		return statusStyle.Render(text)
	}
	return ""
}
