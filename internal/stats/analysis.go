package stats

import (
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
)

// Minimum sample sizes before a group is reported.
const (
	minKeySamples    = 3
	minBigramSamples = 5
	minFingerSamples = 5

	maxKeys     = 10
	maxBigrams  = 15
	maxInsights = 5

	welcomeInsight = "Welcome! Start typing to get personalized feedback."
)

// Analysis is the full skill profile computed from a keystroke log.
type Analysis struct {
	Overall    Overall              `json:"overall"`
	Keys       []KeyStats           `json:"key_level"`
	Bigrams    []BigramStats        `json:"bigram_level"`
	Fingers    []FingerStats        `json:"finger_level"`
	Hands      []HandStats          `json:"hand_level"`
	Temporal   *Temporal            `json:"temporal_patterns,omitempty"`
	Insights   []Insight            `json:"insights"`
	FocusAreas []model.FocusArea    `json:"focus_areas"`
	Mastered   []model.MasteredItem `json:"mastered_items"`
	Trend      *Trend               `json:"ml_prediction,omitempty"`
}

// Overall holds log-wide metrics.
type Overall struct {
	TotalKeystrokes int            `json:"total_keystrokes"`
	Accuracy        float64        `json:"accuracy"`
	ErrorRate       float64        `json:"error_rate"`
	AvgLatencyMs    float64        `json:"avg_speed_ms"`
	WPM             float64        `json:"wpm"`
	MaxErrorStreak  int            `json:"max_error_streak"`
	ErrorPatterns   []ErrorPattern `json:"common_error_patterns"`
}

// ErrorPattern is a recurring three-character context ending at an error.
type ErrorPattern struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// KeyStats describes one expected character.
type KeyStats struct {
	Key          string  `json:"key"`
	Accuracy     float64 `json:"accuracy"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_time_ms"`
	StdLatencyMs float64 `json:"time_consistency"`
	Samples      int     `json:"sample_size"`
}

// BigramStats describes the transition between two correctly typed characters.
type BigramStats struct {
	Bigram       string  `json:"bigram"`
	AvgLatencyMs float64 `json:"avg_transition_time_ms"`
	P90LatencyMs float64 `json:"slow_transition_threshold"`
	Samples      int     `json:"sample_size"`
}

// FingerStats describes one finger.
type FingerStats struct {
	Finger       model.Finger `json:"finger"`
	Accuracy     float64      `json:"accuracy"`
	AvgLatencyMs float64      `json:"avg_time_ms"`
	Samples      int          `json:"sample_size"`
}

// HandStats describes one hand.
type HandStats struct {
	Hand         model.Hand `json:"hand"`
	Accuracy     float64    `json:"accuracy"`
	AvgLatencyMs float64    `json:"avg_time_ms"`
	Samples      int        `json:"sample_size"`
}

// Insight is a human-readable observation.
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Message string      `json:"message"`
}

// InsightKind tags an insight with the check that produced it.
type InsightKind string

const (
	InsightWelcome       InsightKind = "welcome"
	InsightKeyErrors     InsightKind = "key_errors"
	InsightKeySlow       InsightKind = "key_slow"
	InsightBigramSlow    InsightKind = "bigram_slow"
	InsightWeakFinger    InsightKind = "weak_finger"
	InsightHandImbalance InsightKind = "hand_imbalance"
	InsightFatigue       InsightKind = "fatigue"
)

// Key returns the stats for key, if reported.
func (a Analysis) Key(key string) (KeyStats, bool) {
	for _, ks := range a.Keys {
		if ks.Key == key {
			return ks, true
		}
	}
	return KeyStats{}, false
}

// Hand returns the stats for hand, if reported.
func (a Analysis) Hand(hand model.Hand) (HandStats, bool) {
	for _, hs := range a.Hands {
		if hs.Hand == hand {
			return hs, true
		}
	}
	return HandStats{}, false
}

// DefaultAnalysis is the result for a log with no keystrokes.
func DefaultAnalysis() Analysis {
	return Analysis{
		Overall:    Overall{ErrorPatterns: []ErrorPattern{}},
		Keys:       []KeyStats{},
		Bigrams:    []BigramStats{},
		Fingers:    []FingerStats{},
		Hands:      []HandStats{},
		Insights:   []Insight{{Kind: InsightWelcome, Message: welcomeInsight}},
		FocusAreas: []model.FocusArea{},
		Mastered:   []model.MasteredItem{},
	}
}

// Analyze converts a chronologically ordered keystroke log into a skill profile.
func Analyze(log []model.KeystrokeEvent) Analysis {
	if len(log) == 0 {
		return DefaultAnalysis()
	}
	a := Analysis{
		Overall:  overallMetrics(log),
		Keys:     keyPerformance(log),
		Bigrams:  bigramPerformance(log),
		Fingers:  fingerPerformance(log),
		Hands:    handPerformance(log),
		Temporal: temporalPatterns(log),
	}
	a.Insights = insights(a)
	a.FocusAreas = focusAreas(a)
	a.Mastered = masteredItems(a)
	a.Trend = predictTrend(log)
	return a
}

// Window keeps the events at or after since.
func Window(log []model.KeystrokeEvent, since time.Time) []model.KeystrokeEvent {
	out := make([]model.KeystrokeEvent, 0, len(log))
	for _, ev := range log {
		if !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out
}
