package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/stats"
)

// Session is the in-memory state of one practice session. All fields below
// mu are guarded by it; generating is checked without taking mu.
type Session struct {
	id         string
	account    Account
	startedAt  time.Time
	generating atomic.Bool

	mu        sync.Mutex
	text      []rune
	cursor    int
	typed     []model.KeystrokeEvent
	marks     []bool
	wordIndex int
	charIndex int
	lastKeyAt time.Time

	score         int
	lastPersisted int
	errors        int
	streak        int
	maxStreak     int
	comboTenths   int
	level         int

	tier               model.Tier
	analysis           stats.Analysis
	lastAnalysisAt     time.Time
	charsSinceAnalysis int
	learnMode          bool

	history []TextRecord
}

// TextRecord archives a finished or replaced text.
type TextRecord struct {
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Account returns the session owner.
func (s *Session) Account() Account { return s.account }

func (s *Session) combo() float64 {
	return float64(s.comboTenths) / 10
}

func (s *Session) expected() string {
	if s.cursor >= len(s.text) {
		return ""
	}
	return string(s.text[s.cursor])
}

// window returns up to two characters before the cursor plus the expected one.
func (s *Session) window() string {
	if s.cursor >= len(s.text) {
		return ""
	}
	start := s.cursor - 2
	if start < 0 {
		start = 0
	}
	return string(s.text[start : s.cursor+1])
}

func (s *Session) resetText(text string) {
	s.text = []rune(text)
	s.cursor = 0
	s.typed = nil
	s.marks = nil
	s.wordIndex = 0
	s.charIndex = 0
	s.lastKeyAt = time.Time{}
}

// State is a point-in-time view of a session. Marks holds one entry per
// typed position of the current text, true when typed correctly.
type State struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Position  int               `json:"position"`
	Marks     []bool            `json:"marks"`
	Score     int               `json:"score"`
	Streak    int               `json:"streak"`
	MaxStreak int               `json:"max_streak"`
	Combo     float64           `json:"combo_multiplier"`
	Errors    int               `json:"errors"`
	Level     int               `json:"level"`
	Tier      model.Tier        `json:"tier"`
	LearnMode bool              `json:"learn_mode"`
	History   []TextRecord      `json:"history"`
	Focus     []model.FocusArea `json:"focus_areas"`
}

func (s *Session) state() State {
	marks := make([]bool, len(s.marks))
	copy(marks, s.marks)
	history := make([]TextRecord, len(s.history))
	copy(history, s.history)
	return State{
		SessionID: s.id,
		Text:      string(s.text),
		Position:  s.cursor,
		Marks:     marks,
		Score:     s.score,
		Streak:    s.streak,
		MaxStreak: s.maxStreak,
		Combo:     s.combo(),
		Errors:    s.errors,
		Level:     s.level,
		Tier:      s.tier,
		LearnMode: s.learnMode,
		History:   history,
		Focus:     s.analysis.FocusAreas,
	}
}
