package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "keycoach.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func intPtr(v int) *int { return &v }

func TestCreateUserInitializesProgress(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.CreateUser(ctx, "ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	progress, ok, err := st.UserProgress(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected progress row, ok=%v err=%v", ok, err)
	}
	if progress != (model.UserProgress{CurrentLevel: 1}) {
		t.Fatalf("unexpected initial progress %+v", progress)
	}

	if _, err := st.CreateUser(ctx, "ada"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := st.CreateUser(ctx, "  "); err == nil {
		t.Fatalf("expected error for blank name")
	}

	users, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Name != "ada" || users[0].ID != id {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestUserProgressMissing(t *testing.T) {
	st := openTestStore(t)
	_, ok, err := st.UserProgress(context.Background(), 42)
	if err != nil || ok {
		t.Fatalf("expected missing progress, ok=%v err=%v", ok, err)
	}
}

func TestUpdateUserProgressKeepsMaxima(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.CreateUser(ctx, "grace")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	steps := []struct {
		delta int
		wpm   float64
		level int
	}{
		{1200, 45, 2},
		{300, 30, 1},
		{0, 0, 0},
	}
	for _, step := range steps {
		if err := st.UpdateUserProgress(ctx, id, step.delta, step.wpm, step.level); err != nil {
			t.Fatalf("update progress: %v", err)
		}
	}
	progress, _, err := st.UserProgress(ctx, id)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	want := model.UserProgress{CurrentLevel: 2, TotalScore: 1500, MaxWPM: 45}
	if progress != want {
		t.Fatalf("expected %+v, got %+v", want, progress)
	}
}

func TestProfileSnapshotUpsert(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.CreateUser(ctx, "linus")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, ok, err := st.ProfileSnapshot(ctx, id); err != nil || ok {
		t.Fatalf("expected no snapshot, ok=%v err=%v", ok, err)
	}

	first := model.ProfileSnapshot{Tier: model.TierControlled, AccuracyAvg: 100}
	if err := st.UpdateProfileSnapshot(ctx, id, first); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
	second := model.ProfileSnapshot{
		Tier:        model.TierFoundational,
		WeakKeys:    []string{"q", "z"},
		WeakFingers: []string{"pinky"},
		SlowBigrams: []string{"qu"},
		AccuracyAvg: 87.5,
		WPMAvg:      31.2,
	}
	if err := st.UpdateProfileSnapshot(ctx, id, second); err != nil {
		t.Fatalf("update snapshot: %v", err)
	}

	got, ok, err := st.ProfileSnapshot(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%v err=%v", ok, err)
	}
	if got.Tier != second.Tier || got.AccuracyAvg != second.AccuracyAvg || got.WPMAvg != second.WPMAvg {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if !reflect.DeepEqual(got.WeakKeys, second.WeakKeys) || !reflect.DeepEqual(got.WeakFingers, second.WeakFingers) || !reflect.DeepEqual(got.SlowBigrams, second.SlowBigrams) {
		t.Fatalf("unexpected snapshot lists %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected updated timestamp")
	}
}

func TestKeystrokeHistoryOrderAndLatency(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	events := []model.KeystrokeEvent{
		{SessionID: "s1", Timestamp: base, KeyPressed: "t", ExpectedKey: "t", Correct: true, Hand: model.HandLeft, Finger: model.FingerIndex, Context: "t"},
		{SessionID: "s1", Timestamp: base.Add(100 * time.Millisecond), KeyPressed: "x", ExpectedKey: "h", Latency: 100 * time.Millisecond, CharIndex: 1, Context: "th", Hand: model.HandRight, Finger: model.FingerIndex},
		{SessionID: "s1", Timestamp: base.Add(1250 * time.Millisecond), KeyPressed: "e", ExpectedKey: "e", Correct: true, Latency: 1150 * time.Millisecond, CharIndex: 2, Context: "the", Hand: model.HandLeft, Finger: model.FingerMiddle},
		{SessionID: "s2", Timestamp: base, KeyPressed: "a", ExpectedKey: "a", Correct: true},
	}
	for _, ev := range events {
		if err := st.LogKeystroke(ctx, ev); err != nil {
			t.Fatalf("log keystroke: %v", err)
		}
	}

	history, err := st.KeystrokeHistory(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}
	if history[0].ExpectedKey != "e" || history[2].ExpectedKey != "t" {
		t.Fatalf("expected most recent first, got %+v", history)
	}
	if history[2].HasLatency() {
		t.Fatalf("expected first keystroke without latency")
	}
	if history[1].Latency != 100*time.Millisecond || history[1].Correct {
		t.Fatalf("unexpected middle event %+v", history[1])
	}
	if history[0].Finger != model.FingerMiddle || history[0].Context != "the" || !history[0].Timestamp.Equal(events[2].Timestamp) {
		t.Fatalf("unexpected latest event %+v", history[0])
	}

	limited, err := st.KeystrokeHistory(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 2 || limited[0].ExpectedKey != "e" {
		t.Fatalf("unexpected limited history %+v", limited)
	}
}

func TestKeystrokeHistoryFollowsInsertionOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// A client clock running behind the server fallback.
	events := []model.KeystrokeEvent{
		{SessionID: "s1", Timestamp: base.Add(time.Second), KeyPressed: "a", ExpectedKey: "a", Correct: true},
		{SessionID: "s1", Timestamp: base, KeyPressed: "b", ExpectedKey: "b", Correct: true, Timed: true},
		{SessionID: "s1", Timestamp: base.Add(-time.Second), KeyPressed: "c", ExpectedKey: "c", Correct: true, Timed: true, Latency: 30 * time.Millisecond},
	}
	for _, ev := range events {
		if err := st.LogKeystroke(ctx, ev); err != nil {
			t.Fatalf("log keystroke: %v", err)
		}
	}

	history, err := st.KeystrokeHistory(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var keys string
	for _, ev := range history {
		keys += ev.KeyPressed
	}
	if keys != "cba" {
		t.Fatalf("expected reverse insertion order, got %q", keys)
	}
	if history[2].Timed {
		t.Fatalf("first keystroke should be untimed")
	}
	if !history[1].Timed || history[1].Latency != 0 || history[1].HasLatency() {
		t.Fatalf("zero gap should round-trip as timed, got %+v", history[1])
	}
	if !history[0].Timed || history[0].Latency != 30*time.Millisecond {
		t.Fatalf("unexpected latest event %+v", history[0])
	}
}

func TestUpdateSessionStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.SessionRecord(ctx, "abc"); err != nil || ok {
		t.Fatalf("expected no record, ok=%v err=%v", ok, err)
	}
	if err := st.UpdateSessionStats(ctx, "abc", model.SessionPatch{CurrentLevel: intPtr(3)}); err != nil {
		t.Fatalf("update level: %v", err)
	}
	if err := st.UpdateSessionStats(ctx, "abc", model.SessionPatch{
		CurrentScore:    intPtr(2400),
		HighestStreak:   intPtr(17),
		TotalErrors:     intPtr(4),
		TotalCharacters: intPtr(120),
	}); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	if err := st.UpdateSessionStats(ctx, "abc", model.SessionPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}

	rec, ok, err := st.SessionRecord(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("expected record, ok=%v err=%v", ok, err)
	}
	if rec.CurrentLevel != 3 || rec.CurrentScore != 2400 || rec.HighestStreak != 17 || rec.TotalErrors != 4 || rec.TotalCharacters != 120 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !reflect.DeepEqual(rec.UnlockedLevels, []int{1, 2, 3}) {
		t.Fatalf("unexpected unlocked levels %v", rec.UnlockedLevels)
	}

	latest, ok, err := st.LatestSessionID(ctx)
	if err != nil || !ok || latest != "abc" {
		t.Fatalf("unexpected latest session %q ok=%v err=%v", latest, ok, err)
	}
}

func TestSessionRecordDefaults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.UpdateSessionStats(ctx, "fresh", model.SessionPatch{CurrentScore: intPtr(10)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, _, err := st.SessionRecord(ctx, "fresh")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.CurrentLevel != 1 || !reflect.DeepEqual(rec.UnlockedLevels, []int{1}) {
		t.Fatalf("unexpected defaults %+v", rec)
	}
}
