package stats

import "github.com/verte-zerg/keycoach/internal/model"

// Snapshot thresholds.
const (
	foundationalBelow   = 0.90
	controlledBelow     = 0.96
	weakKeyErrorRate    = 0.10
	weakFingerAccuracy  = 0.90
	slowBigramLatencyMs = 300
	snapshotTopItems    = 5
)

// TierForAccuracy classifies overall accuracy (0-1) into a tier.
func TierForAccuracy(accuracy float64) model.Tier {
	switch {
	case accuracy < foundationalBelow:
		return model.TierFoundational
	case accuracy < controlledBelow:
		return model.TierControlled
	default:
		return model.TierPerformance
	}
}

// BuildSnapshot projects an analysis into the durable per-user profile.
// The averages carry the latest computed values; they are not decayed.
func BuildSnapshot(a Analysis) model.ProfileSnapshot {
	weakKeys := []string{}
	for _, ks := range a.Keys {
		if ks.ErrorRate > weakKeyErrorRate {
			weakKeys = append(weakKeys, ks.Key)
		}
	}
	weakFingers := []string{}
	for _, fs := range a.Fingers {
		if fs.Accuracy < weakFingerAccuracy {
			weakFingers = append(weakFingers, string(fs.Finger))
		}
	}
	slowBigrams := []string{}
	for _, bs := range a.Bigrams {
		if bs.AvgLatencyMs > slowBigramLatencyMs {
			slowBigrams = append(slowBigrams, bs.Bigram)
		}
	}
	return model.ProfileSnapshot{
		Tier:        TierForAccuracy(a.Overall.Accuracy),
		WeakKeys:    head(weakKeys, snapshotTopItems),
		WeakFingers: weakFingers,
		SlowBigrams: head(slowBigrams, snapshotTopItems),
		AccuracyAvg: a.Overall.Accuracy * 100,
		WPMAvg:      a.Overall.WPM,
	}
}

// FocusFromSnapshot rebuilds focus areas from a stored profile.
func FocusFromSnapshot(snap model.ProfileSnapshot) []model.FocusArea {
	areas := []model.FocusArea{}
	if len(snap.WeakKeys) > 0 {
		areas = append(areas, model.FocusArea{Kind: model.FocusHighErrorKeys, Items: snap.WeakKeys, Priority: "high"})
	}
	if len(snap.WeakFingers) > 0 {
		areas = append(areas, model.FocusArea{Kind: model.FocusWeakFingers, Items: snap.WeakFingers, Priority: "medium"})
	}
	if len(snap.SlowBigrams) > 0 {
		areas = append(areas, model.FocusArea{Kind: model.FocusSlowTransitions, Items: snap.SlowBigrams, Priority: "medium"})
	}
	return areas
}

// RestoredAnalysis seeds a session analysis from a stored profile.
func RestoredAnalysis(snap model.ProfileSnapshot) Analysis {
	a := DefaultAnalysis()
	a.FocusAreas = FocusFromSnapshot(snap)
	a.Overall.Accuracy = snap.AccuracyAvg / 100
	a.Overall.WPM = snap.WPMAvg
	a.Insights = []Insight{{Kind: InsightWelcome, Message: "Welcome back! We've restored your training profile."}}
	return a
}
