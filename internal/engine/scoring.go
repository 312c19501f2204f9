package engine

import (
	"math/rand"
	"time"
)

// Combo is tracked in tenths so repeated 0.1 steps stay exact.
const (
	comboMin       = 10
	comboMax       = 30
	comboStep      = 1
	comboPenalty   = 2
	comboStreakMin = 10

	firstKeyScore   = 10
	levelScoreStep  = 1000
	blockedTemplate = "Type '%s'"
)

var latencyTiers = []struct {
	below time.Duration
	score int
}{
	{50 * time.Millisecond, 20},
	{100 * time.Millisecond, 15},
	{200 * time.Millisecond, 12},
	{300 * time.Millisecond, 8},
}

// baseScore rewards faster keystrokes. Untimed keystrokes (the first of a
// text) get a flat score; a timed gap of zero falls in the fastest tier.
func baseScore(latency time.Duration, timed bool) int {
	if !timed {
		return firstKeyScore
	}
	for _, tier := range latencyTiers {
		if latency < tier.below {
			return tier.score
		}
	}
	return 5
}

func keyScore(latency time.Duration, timed bool, comboTenths int) int {
	return baseScore(latency, timed) * comboTenths / 10
}

func levelFor(score int) int {
	if score < 0 {
		return 1
	}
	return 1 + score/levelScoreStep
}

var lengthTiers = []struct {
	above    float64
	min, max int
}{
	{200, 100, 150},
	{120, 60, 100},
	{90, 40, 60},
	{60, 25, 40},
	{30, 15, 25},
}

// wordsForWPM picks a text length uniformly within the tier for wpm.
func wordsForWPM(rnd *rand.Rand, wpm float64) int {
	lo, hi := 10, 15
	for _, tier := range lengthTiers {
		if wpm > tier.above {
			lo, hi = tier.min, tier.max
			break
		}
	}
	return lo + rnd.Intn(hi-lo+1)
}
