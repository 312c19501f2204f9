package engine

import (
	"math/rand"
	"testing"
	"time"
)

func TestBaseScore(t *testing.T) {
	tests := []struct {
		latency time.Duration
		timed   bool
		want    int
	}{
		{0, false, 10},
		{time.Second, false, 10},
		{0, true, 20},
		{time.Millisecond, true, 20},
		{49 * time.Millisecond, true, 20},
		{50 * time.Millisecond, true, 15},
		{99 * time.Millisecond, true, 15},
		{100 * time.Millisecond, true, 12},
		{199 * time.Millisecond, true, 12},
		{200 * time.Millisecond, true, 8},
		{299 * time.Millisecond, true, 8},
		{300 * time.Millisecond, true, 5},
		{3 * time.Second, true, 5},
	}
	for _, tt := range tests {
		if got := baseScore(tt.latency, tt.timed); got != tt.want {
			t.Fatalf("baseScore(%v, %v) = %d, want %d", tt.latency, tt.timed, got, tt.want)
		}
	}
}

func TestKeyScoreTruncates(t *testing.T) {
	if got := keyScore(40*time.Millisecond, true, 15); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := keyScore(250*time.Millisecond, true, 13); got != 10 {
		t.Fatalf("expected 8*1.3 truncated to 10, got %d", got)
	}
}

func TestLevelFor(t *testing.T) {
	tests := map[int]int{-5: 1, 0: 1, 999: 1, 1000: 2, 2500: 3}
	for score, want := range tests {
		if got := levelFor(score); got != want {
			t.Fatalf("levelFor(%d) = %d, want %d", score, got, want)
		}
	}
}

func TestWordsForWPM(t *testing.T) {
	tests := []struct {
		wpm      float64
		min, max int
	}{
		{0, 10, 15},
		{30, 10, 15},
		{31, 15, 25},
		{60.5, 25, 40},
		{95, 40, 60},
		{121, 60, 100},
		{201, 100, 150},
	}
	rnd := rand.New(rand.NewSource(3))
	for _, tt := range tests {
		for i := 0; i < 50; i++ {
			got := wordsForWPM(rnd, tt.wpm)
			if got < tt.min || got > tt.max {
				t.Fatalf("wordsForWPM(%v) = %d, want %d-%d", tt.wpm, got, tt.min, tt.max)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	first, inserted := r.Insert(&Session{id: "a", account: User{ID: 1}})
	if !inserted || first.ID() != "a" {
		t.Fatalf("expected insert")
	}
	again, inserted := r.Insert(&Session{id: "a", account: Guest{}})
	if inserted || again != first {
		t.Fatalf("duplicate id replaced the session")
	}
	r.Insert(&Session{id: "b", account: User{ID: 1}})
	r.Insert(&Session{id: "c", account: Guest{}})

	if r.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", r.Len())
	}
	if got := len(r.ForUser(1)); got != 2 {
		t.Fatalf("expected 2 sessions for user 1, got %d", got)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("unexpected session")
	}
}
