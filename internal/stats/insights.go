package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/keycoach/internal/model"
)

// Insight thresholds.
const (
	insightKeyErrorRate    = 0.30
	insightKeyLatencyMs    = 300
	insightBigramLatencyMs = 400
	insightFingerAccuracy  = 0.85
	insightHandGap         = 0.15
)

// Focus and mastery thresholds.
const (
	focusKeyErrorRate    = 0.20
	focusBigramLatencyMs = 350
	focusFingerAccuracy  = 0.90
	focusTopItems        = 3

	masteredKeyErrorRate    = 0.05
	masteredBigramLatencyMs = 200
	masteredMinSamples      = 10
	masteredTopItems        = 5
)

func insights(a Analysis) []Insight {
	var out []Insight
	for _, ks := range a.Keys {
		if ks.ErrorRate > insightKeyErrorRate {
			out = append(out, Insight{
				Kind:    InsightKeyErrors,
				Message: fmt.Sprintf("Key '%s' has high error rate (%s)", ks.Key, percent(ks.ErrorRate)),
			})
		}
		if ks.AvgLatencyMs > insightKeyLatencyMs {
			out = append(out, Insight{
				Kind:    InsightKeySlow,
				Message: fmt.Sprintf("Key '%s' is consistently slow (%.0fms avg)", ks.Key, ks.AvgLatencyMs),
			})
		}
	}
	for _, bs := range a.Bigrams {
		if bs.AvgLatencyMs > insightBigramLatencyMs {
			out = append(out, Insight{
				Kind:    InsightBigramSlow,
				Message: fmt.Sprintf("Transition '%s' is slow (%.0fms)", bs.Bigram, bs.AvgLatencyMs),
			})
		}
	}
	if len(a.Fingers) > 0 {
		worst := a.Fingers[0]
		for _, fs := range a.Fingers[1:] {
			if fs.Accuracy < worst.Accuracy {
				worst = fs
			}
		}
		if worst.Accuracy < insightFingerAccuracy {
			out = append(out, Insight{
				Kind:    InsightWeakFinger,
				Message: fmt.Sprintf("%s finger has low accuracy (%s)", capitalize(string(worst.Finger)), percent(worst.Accuracy)),
			})
		}
	}
	left, hasLeft := a.Hand(model.HandLeft)
	right, hasRight := a.Hand(model.HandRight)
	if hasLeft && hasRight && math.Abs(left.Accuracy-right.Accuracy) > insightHandGap {
		out = append(out, Insight{
			Kind:    InsightHandImbalance,
			Message: fmt.Sprintf("Hand imbalance: Left %s vs Right %s", percent(left.Accuracy), percent(right.Accuracy)),
		})
	}
	if a.Temporal != nil && (a.Temporal.Fatigue == FatigueModerate || a.Temporal.Fatigue == FatigueHigh) {
		out = append(out, Insight{
			Kind:    InsightFatigue,
			Message: "Performance declining - consider taking a break",
		})
	}
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	if out == nil {
		out = []Insight{}
	}
	return out
}

func focusAreas(a Analysis) []model.FocusArea {
	areas := []model.FocusArea{}

	var keys []string
	for _, ks := range a.Keys {
		if ks.ErrorRate > focusKeyErrorRate {
			keys = append(keys, ks.Key)
		}
	}
	if len(keys) > 0 {
		areas = append(areas, model.FocusArea{
			Kind:     model.FocusHighErrorKeys,
			Items:    head(keys, focusTopItems),
			Priority: "high",
		})
	}

	var bigrams []string
	for _, bs := range a.Bigrams {
		if bs.AvgLatencyMs > focusBigramLatencyMs {
			bigrams = append(bigrams, bs.Bigram)
		}
	}
	if len(bigrams) > 0 {
		areas = append(areas, model.FocusArea{
			Kind:     model.FocusSlowTransitions,
			Items:    head(bigrams, focusTopItems),
			Priority: "medium",
		})
	}

	var fingers []string
	for _, fs := range a.Fingers {
		if fs.Accuracy < focusFingerAccuracy {
			fingers = append(fingers, string(fs.Finger))
		}
	}
	if len(fingers) > 0 {
		areas = append(areas, model.FocusArea{
			Kind:     model.FocusWeakFingers,
			Items:    fingers,
			Priority: "medium",
		})
	}
	return areas
}

func masteredItems(a Analysis) []model.MasteredItem {
	items := []model.MasteredItem{}

	var keys []string
	for _, ks := range a.Keys {
		if ks.ErrorRate < masteredKeyErrorRate && ks.Samples >= masteredMinSamples {
			keys = append(keys, ks.Key)
		}
	}
	if len(keys) > 0 {
		items = append(items, model.MasteredItem{Kind: model.MasteredKeys, Items: head(keys, masteredTopItems)})
	}

	var bigrams []string
	for _, bs := range a.Bigrams {
		if bs.AvgLatencyMs < masteredBigramLatencyMs && bs.Samples >= masteredMinSamples {
			bigrams = append(bigrams, bs.Bigram)
		}
	}
	if len(bigrams) > 0 {
		items = append(items, model.MasteredItem{Kind: model.MasteredFastTransitions, Items: head(bigrams, masteredTopItems)})
	}
	return items
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
