package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the panel uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle   = lipgloss.NewStyle().Foreground(colorSubtext0)
	statusStyle   = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	guideStyle    = lipgloss.NewStyle().Foreground(colorSurface1)
	countStyle    = lipgloss.NewStyle().Foreground(colorOverlay1)
	pendingStyle  = lipgloss.NewStyle().Foreground(colorOverlay1).Italic(true)
	solutionStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	ancestorStyle = lipgloss.NewStyle().Foreground(colorPeach)
	changedStyle  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	nameStyle     = lipgloss.NewStyle().Foreground(colorText)
	lazyStyle     = lipgloss.NewStyle().Foreground(colorOverlay1)
	selectedStyle = lipgloss.NewStyle().Background(colorSurface0).Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(colorFocus)
)

// Tree glyphs.
const (
	glyphBranch   = "├─"
	glyphLast     = "└─"
	glyphPipe     = "│ "
	glyphBlank    = "  "
	glyphOpen     = "▾"
	glyphClosed   = "▸"
	glyphLeaf     = "·"
	glyphSolution = "★"
	glyphAncestor = "◆"
)
