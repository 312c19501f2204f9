package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/keycoach/internal/keymap"
	"github.com/verte-zerg/keycoach/internal/model"
)

const (
	errorContextMin   = 2
	maxErrorPatterns  = 5
	wpmCharsPerWord   = 5.0
	secondsPerMinute  = 60.0
	millisecondsInSec = 1000.0
)

// sampleGroup accumulates correctness and latency for one grouping key.
type sampleGroup struct {
	total     int
	correct   int
	latencies []float64
}

func (g *sampleGroup) add(ev model.KeystrokeEvent) {
	g.total++
	if ev.Correct {
		g.correct++
	}
	if ev.HasLatency() {
		g.latencies = append(g.latencies, latencyMs(ev))
	}
}

func (g *sampleGroup) accuracy() float64 {
	if g.total == 0 {
		return 0
	}
	return float64(g.correct) / float64(g.total)
}

// orderedGroups keeps groups in first-seen order.
type orderedGroups struct {
	order  []string
	groups map[string]*sampleGroup
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{groups: map[string]*sampleGroup{}}
}

func (o *orderedGroups) get(name string) *sampleGroup {
	g, ok := o.groups[name]
	if !ok {
		g = &sampleGroup{}
		o.groups[name] = g
		o.order = append(o.order, name)
	}
	return g
}

func latencyMs(ev model.KeystrokeEvent) float64 {
	return float64(ev.Latency.Microseconds()) / millisecondsInSec
}

func normalizedKey(ev model.KeystrokeEvent) string {
	return strings.ToLower(ev.ExpectedKey)
}

func wpmFromLatencyMs(avgMs float64) float64 {
	if avgMs <= 0 {
		return 0
	}
	return secondsPerMinute / (avgMs / millisecondsInSec * wpmCharsPerWord)
}

func overallMetrics(log []model.KeystrokeEvent) Overall {
	total := len(log)
	correct := 0
	for _, ev := range log {
		if ev.Correct {
			correct++
		}
	}
	var latencies []float64
	for _, ev := range log[1:] {
		if ev.HasLatency() {
			latencies = append(latencies, latencyMs(ev))
		}
	}
	avg := mean(latencies)

	maxRun, run := 0, 0
	for _, ev := range log {
		if ev.Correct {
			run = 0
			continue
		}
		run++
		if run > maxRun {
			maxRun = run
		}
	}

	return Overall{
		TotalKeystrokes: total,
		Accuracy:        float64(correct) / float64(total),
		ErrorRate:       float64(total-correct) / float64(total),
		AvgLatencyMs:    avg,
		WPM:             wpmFromLatencyMs(avg),
		MaxErrorStreak:  maxRun,
		ErrorPatterns:   errorPatterns(log),
	}
}

func errorPatterns(log []model.KeystrokeEvent) []ErrorPattern {
	counts := map[string]int{}
	var order []string
	for i := 1; i < len(log); i++ {
		if log[i].Correct {
			continue
		}
		var b strings.Builder
		if i >= 2 {
			b.WriteString(normalizedKey(log[i-2]))
		}
		b.WriteString(normalizedKey(log[i-1]))
		b.WriteString(normalizedKey(log[i]))
		ctx := b.String()
		if _, ok := counts[ctx]; !ok {
			order = append(order, ctx)
		}
		counts[ctx]++
	}
	patterns := make([]ErrorPattern, 0, len(order))
	for _, ctx := range order {
		patterns = append(patterns, ErrorPattern{Pattern: ctx, Count: counts[ctx]})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	if len(patterns) > maxErrorPatterns {
		patterns = patterns[:maxErrorPatterns]
	}
	out := make([]ErrorPattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Count >= errorContextMin {
			out = append(out, p)
		}
	}
	return out
}

func keyPerformance(log []model.KeystrokeEvent) []KeyStats {
	groups := newOrderedGroups()
	for _, ev := range log {
		groups.get(normalizedKey(ev)).add(ev)
	}
	result := make([]KeyStats, 0, len(groups.order))
	for _, key := range groups.order {
		g := groups.groups[key]
		if g.total < minKeySamples {
			continue
		}
		acc := g.accuracy()
		std := 0.0
		if len(g.latencies) > 1 {
			std = stddev(g.latencies)
		}
		result = append(result, KeyStats{
			Key:          key,
			Accuracy:     acc,
			ErrorRate:    1 - acc,
			AvgLatencyMs: mean(g.latencies),
			StdLatencyMs: std,
			Samples:      g.total,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ErrorRate > result[j].ErrorRate
	})
	if len(result) > maxKeys {
		result = result[:maxKeys]
	}
	return result
}

func bigramPerformance(log []model.KeystrokeEvent) []BigramStats {
	groups := newOrderedGroups()
	for i := 1; i < len(log); i++ {
		prev, curr := log[i-1], log[i]
		if !prev.Correct || !curr.Correct || !curr.HasLatency() {
			continue
		}
		groups.get(normalizedKey(prev) + normalizedKey(curr)).add(curr)
	}
	result := make([]BigramStats, 0, len(groups.order))
	for _, bigram := range groups.order {
		g := groups.groups[bigram]
		if g.total < minBigramSamples {
			continue
		}
		result = append(result, BigramStats{
			Bigram:       bigram,
			AvgLatencyMs: mean(g.latencies),
			P90LatencyMs: percentile(g.latencies, 90),
			Samples:      g.total,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AvgLatencyMs > result[j].AvgLatencyMs
	})
	if len(result) > maxBigrams {
		result = result[:maxBigrams]
	}
	return result
}

// fingerPerformance groups by the finger of the expected key. Keys off the
// QWERTY map (digits, symbols, past-the-end) are left out rather than pooled
// into an "unknown" finger.
func fingerPerformance(log []model.KeystrokeEvent) []FingerStats {
	groups := newOrderedGroups()
	for _, ev := range log {
		_, finger := keymap.Classify(ev.ExpectedKey)
		if finger == model.FingerUnknown {
			continue
		}
		groups.get(string(finger)).add(ev)
	}
	result := make([]FingerStats, 0, len(groups.order))
	for _, name := range groups.order {
		g := groups.groups[name]
		if g.total < minFingerSamples {
			continue
		}
		result = append(result, FingerStats{
			Finger:       model.Finger(name),
			Accuracy:     g.accuracy(),
			AvgLatencyMs: mean(g.latencies),
			Samples:      g.total,
		})
	}
	return result
}

func handPerformance(log []model.KeystrokeEvent) []HandStats {
	hands := []model.Hand{model.HandLeft, model.HandRight, model.HandBoth}
	groups := map[model.Hand]*sampleGroup{}
	for _, h := range hands {
		groups[h] = &sampleGroup{}
	}
	for _, ev := range log {
		hand, _ := keymap.Classify(ev.ExpectedKey)
		if g, ok := groups[hand]; ok {
			g.add(ev)
		}
	}
	result := make([]HandStats, 0, len(hands))
	for _, h := range hands {
		g := groups[h]
		if g.total == 0 {
			continue
		}
		result = append(result, HandStats{
			Hand:         h,
			Accuracy:     g.accuracy(),
			AvgLatencyMs: mean(g.latencies),
			Samples:      g.total,
		})
	}
	return result
}
