// Package statsui provides the Bubble Tea analysis interface.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keycoach/internal/stats"
)

const (
	tabOverview = iota
	tabKeys
	tabBigrams
	tabFingers
	tabInsights
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Loader produces the analysis to display.
type Loader func() (stats.Analysis, error)

// Model implements the Bubble Tea analysis UI.
type Model struct {
	title string
	load  Loader

	analysis stats.Analysis
	errMsg   string

	tabs      []string
	activeTab int
	viewports map[int]*viewport.Model
	tables    map[int]*table.Model

	width  int
	height int
}

// NewModel constructs an analysis UI. The loader runs now and on refresh.
func NewModel(title string, load Loader) *Model {
	m := &Model{
		title: title,
		load:  load,
		tabs:  []string{"Overview", "Keys", "Bigrams", "Fingers", "Insights"},
	}
	m.viewports = map[int]*viewport.Model{
		tabOverview: newViewport(),
		tabInsights: newViewport(),
	}
	m.tables = map[int]*table.Model{
		tabKeys:    newTable(),
		tabBigrams: newTable(),
		tabFingers: newTable(),
	}
	m.refresh()
	return m
}

func newViewport() *viewport.Model {
	vp := viewport.New(0, 0)
	return &vp
}

func newTable() *table.Model {
	t := table.New(table.WithStyles(tableStyles()))
	return &t
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			return m, nil
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t, ok := m.tables[m.activeTab]; ok {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			*vp, cmd = vp.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) refresh() {
	a, err := m.load()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.analysis = a
	m.renderContents()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for _, vp := range m.viewports {
		vp.Width = m.width
		vp.Height = bodyHeight
	}
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	if t, ok := m.tables[m.activeTab]; ok {
		t.Blur()
	}
	m.activeTab = next
	if t, ok := m.tables[m.activeTab]; ok {
		t.Focus()
	}
}

func (m *Model) renderContents() {
	a := m.analysis
	m.viewports[tabOverview].SetContent(renderOverview(a, m.width))
	m.viewports[tabInsights].SetContent(renderInsights(a))
	setTable(m.tables[tabKeys], keyColumns, keyRows(a))
	setTable(m.tables[tabBigrams], bigramColumns, bigramRows(a))
	setTable(m.tables[tabFingers], fingerColumns, fingerRows(a))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Session: %s  keystrokes=%d  tier=%s",
		m.title, m.analysis.Overall.TotalKeystrokes, stats.TierForAccuracy(m.analysis.Overall.Accuracy))
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if t, ok := m.tables[m.activeTab]; ok {
		if len(t.Rows()) == 0 {
			return "Not enough samples yet."
		}
		return t.View()
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func renderOverview(a stats.Analysis, width int) string {
	o := a.Overall
	if o.TotalKeystrokes == 0 {
		return "No keystrokes recorded yet."
	}
	cards := []string{
		metricCard("Keystrokes", fmt.Sprintf("%d", o.TotalKeystrokes)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", o.Accuracy*100)),
		metricCard("WPM", fmt.Sprintf("%.1f", o.WPM)),
		metricCard("Avg latency", fmt.Sprintf("%.0f ms", o.AvgLatencyMs)),
		metricCard("Error run", fmt.Sprintf("%d", o.MaxErrorStreak)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	lines := []string{summary, ""}
	if a.Temporal != nil {
		lines = append(lines, fmt.Sprintf("Fatigue: %s", a.Temporal.Fatigue))
	}
	if a.Trend != nil {
		lines = append(lines,
			"WPM "+stats.Sparkline(a.Trend.WindowWPM),
			fmt.Sprintf("Projected %.1f WPM (%s confidence)", a.Trend.PredictedWPM, a.Trend.Confidence))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func renderInsights(a stats.Analysis) string {
	var buf bytes.Buffer
	for _, in := range a.Insights {
		fmt.Fprintf(&buf, "- %s\n", in.Message)
	}
	if len(a.FocusAreas) > 0 {
		buf.WriteString("\nFocus\n")
		for _, area := range a.FocusAreas {
			fmt.Fprintf(&buf, "  %s: %s\n", area.Kind, strings.Join(area.Items, " "))
		}
	}
	if len(a.Mastered) > 0 {
		buf.WriteString("\nMastered\n")
		for _, item := range a.Mastered {
			fmt.Fprintf(&buf, "  %s: %s\n", item.Kind, strings.Join(item.Items, " "))
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
