package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
)

func TestRenderAnalysisSections(t *testing.T) {
	var log []model.KeystrokeEvent
	for i := 0; i < 10; i++ {
		log = append(log, event("q", i%2 == 0, 120))
	}
	log = append(log, repeatEvents("the lazy dog jumps over the fox", 150)...)

	var buf bytes.Buffer
	if err := RenderAnalysis(&buf, Analyze(log), ReportOptions{Width: 40}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Overall",
		"Keystrokes: 41",
		"Keys by error rate",
		"Fingers and hands",
		"Trend",
		"Insights",
		"- Key 'q' has high error rate (50.0%)",
		"Focus (high_error_keys): q",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes")
	}
}

func TestRenderAnalysisDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderAnalysis(&buf, DefaultAnalysis(), ReportOptions{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, welcomeInsight) {
		t.Fatalf("expected welcome insight:\n%s", out)
	}
	if strings.Contains(out, "Keys by error rate") || strings.Contains(out, "Trend") {
		t.Fatalf("expected empty sections to be skipped:\n%s", out)
	}
}

func TestFitSeriesKeepsRecent(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	got := fitSeries(values, 7)
	if len(got) != 3 || got[0] != 6 {
		t.Fatalf("unexpected series %v", got)
	}
	if len(fitSeries(values, 0)) != len(values) {
		t.Fatalf("expected unbounded width to keep everything")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	wpm, acc := SessionMetrics(50, 5, time.Minute)
	if wpm != 10 || acc != 0.9 {
		t.Fatalf("unexpected metrics wpm=%f acc=%f", wpm, acc)
	}
	wpm, acc = SessionMetrics(0, 0, 0)
	if wpm != 0 || acc != 0 {
		t.Fatalf("expected zero metrics, got %f %f", wpm, acc)
	}
}
