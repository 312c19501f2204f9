package stats

import "github.com/verte-zerg/keycoach/internal/model"

const (
	minTemporalEvents = 10
	minChunkSize      = 10
	minKeptChunk      = 5
	temporalChunks    = 5
	fatigueWindow     = 3
)

// Fatigue classifies the performance drift over the last chunks.
type Fatigue string

const (
	FatigueHigh         Fatigue = "high"
	FatigueModerate     Fatigue = "moderate"
	FatigueNone         Fatigue = "none"
	FatigueInsufficient Fatigue = "insufficient_data"
)

// Temporal describes how performance changes across the log.
type Temporal struct {
	Chunks        []Chunk `json:"chunks"`
	AccuracyTrend float64 `json:"accuracy_trend"`
	LatencyTrend  float64 `json:"speed_trend"`
	Fatigue       Fatigue `json:"fatigue_indicator"`
}

// Chunk is one chronological slice of the log.
type Chunk struct {
	Index        int     `json:"chunk_index"`
	Accuracy     float64 `json:"accuracy"`
	AvgLatencyMs float64 `json:"avg_speed_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

func temporalPatterns(log []model.KeystrokeEvent) *Temporal {
	if len(log) < minTemporalEvents {
		return nil
	}
	size := len(log) / temporalChunks
	if size < minChunkSize {
		size = minChunkSize
	}

	var chunks []Chunk
	for start := 0; start < len(log); start += size {
		end := start + size
		if end > len(log) {
			end = len(log)
		}
		part := log[start:end]
		if len(part) < minKeptChunk {
			continue
		}
		correct := 0
		for _, ev := range part {
			if ev.Correct {
				correct++
			}
		}
		var latencies []float64
		for _, ev := range part[1:] {
			if ev.HasLatency() {
				latencies = append(latencies, latencyMs(ev))
			}
		}
		acc := float64(correct) / float64(len(part))
		chunks = append(chunks, Chunk{
			Index:        start / size,
			Accuracy:     acc,
			AvgLatencyMs: mean(latencies),
			ErrorRate:    1 - acc,
		})
	}

	t := &Temporal{Chunks: chunks, Fatigue: detectFatigue(chunks)}
	if len(chunks) >= 2 {
		first, last := chunks[0], chunks[len(chunks)-1]
		t.AccuracyTrend = last.Accuracy - first.Accuracy
		t.LatencyTrend = last.AvgLatencyMs - first.AvgLatencyMs
	}
	return t
}

func detectFatigue(chunks []Chunk) Fatigue {
	if len(chunks) < fatigueWindow {
		return FatigueInsufficient
	}
	tail := chunks[len(chunks)-fatigueWindow:]
	accuracyDeclining := true
	latencyRising := true
	for i := 0; i < len(tail)-1; i++ {
		if !(tail[i].Accuracy > tail[i+1].Accuracy) {
			accuracyDeclining = false
		}
		if !(tail[i].AvgLatencyMs < tail[i+1].AvgLatencyMs) {
			latencyRising = false
		}
	}
	switch {
	case accuracyDeclining && latencyRising:
		return FatigueHigh
	case accuracyDeclining || latencyRising:
		return FatigueModerate
	default:
		return FatigueNone
	}
}
