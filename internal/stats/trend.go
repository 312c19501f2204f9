package stats

import (
	"math"

	"github.com/verte-zerg/keycoach/internal/model"
)

const (
	minTrendEvents   = 30
	trendWindow      = 10
	trendStep        = 5
	minTrendWindows  = 3
	highConfWindows  = 10
	trendLookahead   = 50
	trendSlopeEvents = 100
)

// Trend is a linear projection of rolling WPM. It is a heuristic, not a model.
type Trend struct {
	SlopePer100  float64   `json:"current_wpm_trend"`
	PredictedWPM float64   `json:"predicted_next_wpm"`
	Confidence   string    `json:"confidence"`
	WindowWPM    []float64 `json:"window_wpm"`
}

// predictTrend returns nil when there are too few events or windows.
func predictTrend(log []model.KeystrokeEvent) *Trend {
	if len(log) < minTrendEvents {
		return nil
	}
	var xs, ys []float64
	for i := 0; i < len(log)-trendWindow; i += trendStep {
		var latencies []float64
		for _, ev := range log[i : i+trendWindow] {
			if ev.HasLatency() {
				latencies = append(latencies, latencyMs(ev))
			}
		}
		if len(latencies) == 0 {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, wpmFromLatencyMs(mean(latencies)))
	}
	if len(ys) < minTrendWindows {
		return nil
	}
	slope, intercept, ok := linearFit(xs, ys)
	if !ok {
		return nil
	}
	next := xs[len(xs)-1] + trendLookahead
	confidence := "Low"
	if len(ys) > highConfWindows {
		confidence = "High"
	}
	return &Trend{
		SlopePer100:  round(slope*trendSlopeEvents, 2),
		PredictedWPM: round(slope*next+intercept, 1),
		Confidence:   confidence,
		WindowWPM:    ys,
	}
}

// linearFit is an ordinary least-squares fit of y = slope*x + intercept.
func linearFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	return slope, my - slope*mx, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
