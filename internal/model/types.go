// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Tier is the difficulty classification that drives text generation.
type Tier string

// Known tiers, ordered from easiest to hardest.
const (
	TierFoundational Tier = "foundational"
	TierControlled   Tier = "controlled"
	TierPerformance  Tier = "performance"
)

// Tiers lists every valid tier.
var Tiers = []Tier{TierFoundational, TierControlled, TierPerformance}

// ParseTier converts a stored or user-supplied tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFoundational, TierControlled, TierPerformance:
		return true
	}
	return false
}

// Hand identifies which hand types a key.
type Hand string

const (
	HandLeft    Hand = "left"
	HandRight   Hand = "right"
	HandBoth    Hand = "both"
	HandUnknown Hand = "unknown"
)

// Finger identifies which finger types a key.
type Finger string

const (
	FingerPinky   Finger = "pinky"
	FingerRing    Finger = "ring"
	FingerMiddle  Finger = "middle"
	FingerIndex   Finger = "index"
	FingerThumb   Finger = "thumb"
	FingerUnknown Finger = "unknown"
)

// KeystrokeEvent is one logged keystroke. Events are immutable once logged.
type KeystrokeEvent struct {
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	KeyPressed  string    `json:"key_pressed"`
	ExpectedKey string    `json:"expected_key"`
	Correct     bool      `json:"is_correct"`
	// Latency is the time since the previous keystroke in the same text.
	Latency time.Duration `json:"time_since_last"`
	// Timed is false for the first keystroke of a text, which has no latency.
	Timed     bool   `json:"timed"`
	WordIndex int    `json:"word_index"`
	CharIndex int           `json:"character_index"`
	Context   string `json:"context"`
	Hand      Hand   `json:"hand_used"`
	Finger    Finger `json:"finger_used"`
}

// HasLatency reports whether the event carries a usable, non-zero latency.
// Zero gaps are kept in the log but skipped by latency statistics.
func (e KeystrokeEvent) HasLatency() bool {
	return e.Latency > 0
}

// User is a registered typist.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProgress is the durable per-user progress record.
type UserProgress struct {
	CurrentLevel int     `json:"current_level"`
	TotalScore   int     `json:"total_score"`
	MaxWPM       float64 `json:"max_wpm"`
}

// ProfileSnapshot is the durable per-user projection of the latest analysis.
type ProfileSnapshot struct {
	Tier        Tier      `json:"tier"`
	WeakKeys    []string  `json:"weak_keys"`
	WeakFingers []string  `json:"weak_fingers"`
	SlowBigrams []string  `json:"slow_bigrams"`
	AccuracyAvg float64   `json:"accuracy_avg"`
	WPMAvg      float64   `json:"wpm_avg"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionPatch carries the session-store fields to update. Nil fields are left untouched.
type SessionPatch struct {
	TotalWords       *int
	TotalCharacters  *int
	TotalErrors      *int
	TotalTimeSeconds *float64
	CurrentScore     *int
	HighestStreak    *int
	CurrentLevel     *int
}

// SessionRecord is the stored view of a practice session.
type SessionRecord struct {
	SessionID        string
	CreatedAt        time.Time
	TotalWords       int
	TotalCharacters  int
	TotalErrors      int
	TotalTimeSeconds float64
	CurrentScore     int
	HighestStreak    int
	CurrentLevel     int
	UnlockedLevels   []int
}

// FocusKind names a weakness category the generator reinforces.
type FocusKind string

const (
	FocusHighErrorKeys   FocusKind = "high_error_keys"
	FocusSlowTransitions FocusKind = "slow_transitions"
	FocusWeakFingers     FocusKind = "weak_fingers"
)

// FocusArea is a weakness with the items to practice.
type FocusArea struct {
	Kind     FocusKind `json:"type"`
	Items    []string  `json:"items"`
	Priority string    `json:"priority,omitempty"`
}

// MasteredKind names a category of mastered items.
type MasteredKind string

const (
	MasteredKeys            MasteredKind = "mastered_keys"
	MasteredFastTransitions MasteredKind = "fast_transitions"
)

// MasteredItem lists items the typist no longer needs to drill.
type MasteredItem struct {
	Kind  MasteredKind `json:"type"`
	Items []string     `json:"items"`
}

// FocusKeys returns the items of every high-error-keys focus area.
func FocusKeys(areas []FocusArea) []string {
	var keys []string
	for _, area := range areas {
		if area.Kind == FocusHighErrorKeys {
			keys = append(keys, area.Items...)
		}
	}
	return keys
}

// Config defines practice settings resolved from flags and the config file.
type Config struct {
	UserID        int64
	LearnMode     bool
	EasyWordsPath string
}

// EngineConfig tunes the session engine checkpoints.
type EngineConfig struct {
	InitialWords     int
	AnalysisInterval time.Duration
	AnalysisChars    int
	HistoryLimit     int
}

// ServerConfig defines HTTP listener settings.
type ServerConfig struct {
	Addr         string
	AllowOrigins []string
}
