// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/keycoach/internal/engine"
	statsPkg "github.com/verte-zerg/keycoach/internal/stats"
)

// Model implements the Bubble Tea typing UI on top of an engine session.
type Model struct {
	ctx       context.Context
	engine    *engine.Engine
	sessionID string

	width  int
	height int

	state   engine.State
	message string

	textStartedAt time.Time
	textErrors    int

	lastWPM float64
	lastAcc float64
	hasLast bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	messageStyle     = incorrectStyle.Copy()
)

// NewModel starts (or resumes) a session and returns the typing UI for it.
// An empty sessionID gets a random one.
func NewModel(ctx context.Context, eng *engine.Engine, account engine.Account, sessionID string) (*Model, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	res, err := eng.Start(ctx, sessionID, account)
	if err != nil {
		return nil, err
	}
	return &Model{
		ctx:        ctx,
		engine:     eng,
		sessionID:  sessionID,
		state:      res.State,
		textErrors: res.Errors,
	}, nil
}

// SessionID returns the id of the session driven by the model.
func (m *Model) SessionID() string {
	return m.sessionID
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
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.toggleLearnMode()
			return m, nil
		case tea.KeyCtrlN:
			m.nextText()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	target := []rune(m.state.Text)
	if len(target) == 0 {
		return ""
	}
	cursorIndex := -1
	if m.state.Position < len(target) {
		cursorIndex = m.state.Position
	}
	styledRunes := buildStyledRunes(target, m.state.Marks, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 2
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLines := lipgloss.Place(m.width, 2, lipgloss.Center, lipgloss.Bottom, footer)
	return body + "\n" + footerLines
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if m.textStartedAt.IsZero() {
			m.textStartedAt = time.Now()
		}
		res, err := m.engine.ProcessKeystroke(m.ctx, m.sessionID, string(r), time.Now())
		if err != nil {
			m.message = err.Error()
			return
		}
		m.message = res.Message
		m.refresh()
		if res.Complete {
			m.finishText(res)
			return
		}
	}
}

func (m *Model) finishText(res engine.KeystrokeResult) {
	elapsed := time.Since(m.textStartedAt)
	wpm, acc := statsPkg.SessionMetrics(res.Position, res.Errors-m.textErrors, elapsed)
	m.lastWPM = wpm
	m.lastAcc = acc
	m.hasLast = true
	m.nextText()
}

func (m *Model) nextText() {
	if _, err := m.engine.GenerateNewText(m.ctx, m.sessionID); err != nil {
		if !errors.Is(err, engine.ErrGenerationInProgress) {
			m.message = err.Error()
		}
		return
	}
	m.refresh()
	m.textStartedAt = time.Time{}
	m.textErrors = m.state.Errors
}

func (m *Model) toggleLearnMode() {
	if err := m.engine.SetLearnMode(m.sessionID, !m.state.LearnMode); err != nil {
		m.message = err.Error()
		return
	}
	m.refresh()
}

func (m *Model) refresh() {
	st, err := m.engine.State(m.sessionID)
	if err != nil {
		m.message = err.Error()
		return
	}
	m.state = st
}

func (m *Model) renderFooter() string {
	text := []rune(m.state.Text)
	if len(text) == 0 {
		return ""
	}
	progress := int(float64(m.state.Position) / float64(len(text)) * 100)
	mode := "Learn"
	if !m.state.LearnMode {
		mode = "Free"
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("Score %d", m.state.Score),
		fmt.Sprintf("Combo x%.1f", m.state.Combo),
		fmt.Sprintf("Streak %d", m.state.Streak),
		fmt.Sprintf("Level %d", m.state.Level),
		fmt.Sprintf("Tier %s", m.state.Tier),
		mode + " (ctrl+l)",
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.message == "" {
		return "\n" + footer
	}
	return messageStyle.Render(m.message) + "\n" + footer
}
