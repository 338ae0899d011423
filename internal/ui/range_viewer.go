package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/corpeningc/kpatch/internal/conflict"
)

// RangeViewerModel shows one conflict range with each side coloured.
type RangeViewerModel struct {
	filePath string
	start    int
	end      int
	lines    []string
	viewport viewport.Model
	ready    bool
	err      error

	// Styles
	titleStyle    lipgloss.Style
	currentStyle  lipgloss.Style
	incomingStyle lipgloss.Style
	baseStyle     lipgloss.Style
	markerStyle   lipgloss.Style
	numberStyle   lipgloss.Style
	errorStyle    lipgloss.Style
	helpStyle     lipgloss.Style
}

type rangeLoadedMsg struct {
	lines []string
	err   error
}

func NewRangeViewerModel(filePath string, start, end int) RangeViewerModel {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()

	return RangeViewerModel{
		filePath: filePath,
		start:    start,
		end:      end,
		viewport: vp,

		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		currentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		incomingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")),

		baseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		markerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		numberStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

func (m RangeViewerModel) Init() tea.Cmd {
	return m.loadRange()
}

func (m RangeViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 3 // Title + help
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		if m.lines != nil {
			m.viewport.SetContent(m.formatRange())
		}

	case rangeLoadedMsg:
		m.lines = msg.lines
		m.err = msg.err
		if m.ready && m.err == nil {
			m.viewport.SetContent(m.formatRange())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "enter", "ctrl+c":
			return m, tea.Quit

		case "j", "down":
			m.viewport.ScrollDown(1)

		case "k", "up":
			m.viewport.ScrollUp(1)

		case "d", "ctrl+d":
			m.viewport.HalfPageDown()

		case "u", "ctrl+u":
			m.viewport.HalfPageUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m RangeViewerModel) View() string {
	title := m.titleStyle.Render(fmt.Sprintf("Conflict - %s:%d-%d", m.filePath, m.start, m.end))

	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			m.errorStyle.Render("Error loading conflict: "+m.err.Error()),
			"",
			m.helpStyle.Render("q: continue"))
	}

	if !m.ready {
		return "Loading conflict..."
	}

	help := m.helpStyle.Render("j/k: line by line | d/u: half page | g/G: top/bottom | q/enter: choose resolution")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), help)
}

func (m RangeViewerModel) loadRange() tea.Cmd {
	return func() tea.Msg {
		lines, err := conflict.ReadLines(m.filePath, m.start, m.end)
		return rangeLoadedMsg{lines: lines, err: err}
	}
}

// formatRange numbers each line and colours it by the side it belongs to.
func (m RangeViewerModel) formatRange() string {
	width := len(fmt.Sprint(m.end))
	style := m.baseStyle

	var b strings.Builder
	for i, line := range m.lines {
		lineStyle := style
		if kind, ok := conflict.Classify(line); ok {
			lineStyle = m.markerStyle
			switch kind {
			case conflict.Start:
				style = m.currentStyle
			case conflict.Divider:
				style = m.incomingStyle
			case conflict.End:
				style = m.baseStyle
			}
		} else if strings.HasPrefix(line, conflict.BasePrefix) {
			lineStyle = m.markerStyle
			style = m.baseStyle
		}

		num := m.numberStyle.Render(fmt.Sprintf("%*d", width, m.start+i))
		b.WriteString(num + " " + lineStyle.Render(line))
		if i < len(m.lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RangeViewer implements conflict.Viewer with a full-screen viewport.
type RangeViewer struct{}

func (RangeViewer) Show(ctx context.Context, path string, start, end int) error {
	m := NewRangeViewerModel(path, start, end)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
