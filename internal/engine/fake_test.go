package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
)

var errStoreDown = errors.New("store down")

type progressCall struct {
	userID int64
	delta  int
	wpm    float64
	level  int
}

// memStore is an in-memory Persistence.
type memStore struct {
	mu          sync.Mutex
	progress    map[int64]model.UserProgress
	snapshots   map[int64]model.ProfileSnapshot
	sessions    map[string]model.SessionRecord
	keystrokes  []model.KeystrokeEvent
	calls       []progressCall
	historyReqs int
	failLog     bool
	failStats   bool
}

func newMemStore() *memStore {
	return &memStore{
		progress:  map[int64]model.UserProgress{},
		snapshots: map[int64]model.ProfileSnapshot{},
		sessions:  map[string]model.SessionRecord{},
	}
}

func (m *memStore) UserProgress(_ context.Context, userID int64) (model.UserProgress, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userID]
	return p, ok, nil
}

func (m *memStore) UpdateUserProgress(_ context.Context, userID int64, delta int, wpm float64, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, progressCall{userID: userID, delta: delta, wpm: wpm, level: level})
	p := m.progress[userID]
	p.TotalScore += delta
	p.MaxWPM = max(p.MaxWPM, wpm)
	if level > 0 {
		p.CurrentLevel = max(p.CurrentLevel, level)
	}
	m.progress[userID] = p
	return nil
}

func (m *memStore) ProfileSnapshot(_ context.Context, userID int64) (model.ProfileSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[userID]
	return s, ok, nil
}

func (m *memStore) UpdateProfileSnapshot(_ context.Context, userID int64, snap model.ProfileSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = snap
	return nil
}

func (m *memStore) LogKeystroke(_ context.Context, ev model.KeystrokeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLog {
		return errStoreDown
	}
	m.keystrokes = append(m.keystrokes, ev)
	return nil
}

func (m *memStore) UpdateSessionStats(_ context.Context, sessionID string, patch model.SessionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStats {
		return errStoreDown
	}
	rec, ok := m.sessions[sessionID]
	if !ok {
		rec = model.SessionRecord{SessionID: sessionID, CurrentLevel: 1, UnlockedLevels: []int{1}}
	}
	if patch.CurrentScore != nil {
		rec.CurrentScore = *patch.CurrentScore
	}
	if patch.TotalErrors != nil {
		rec.TotalErrors = *patch.TotalErrors
	}
	if patch.CurrentLevel != nil {
		rec.CurrentLevel = *patch.CurrentLevel
		rec.UnlockedLevels = nil
		for l := 1; l <= *patch.CurrentLevel; l++ {
			rec.UnlockedLevels = append(rec.UnlockedLevels, l)
		}
	}
	m.sessions[sessionID] = rec
	return nil
}

func (m *memStore) SessionRecord(_ context.Context, sessionID string) (model.SessionRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[sessionID]
	return rec, ok, nil
}

func (m *memStore) KeystrokeHistory(_ context.Context, sessionID string, limit int) ([]model.KeystrokeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyReqs++
	var out []model.KeystrokeEvent
	for i := len(m.keystrokes) - 1; i >= 0; i-- {
		if m.keystrokes[i].SessionID != sessionID {
			continue
		}
		out = append(out, m.keystrokes[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) loggedFor(sessionID string) []model.KeystrokeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.KeystrokeEvent
	for _, ev := range m.keystrokes {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out
}

func (m *memStore) progressCalls() []progressCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]progressCall(nil), m.calls...)
}

type genCall struct {
	tier  model.Tier
	words int
	focus []model.FocusArea
}

// scriptedText returns a fixed text. When entered is set the call signals it
// and then waits for release.
type scriptedText struct {
	mu      sync.Mutex
	text    string
	calls   []genCall
	entered chan struct{}
	release chan struct{}
}

func (g *scriptedText) Generate(tier model.Tier, words int, focus []model.FocusArea, _ []model.MasteredItem) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, genCall{tier: tier, words: words, focus: focus})
	entered, release := g.entered, g.release
	g.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return g.text, nil
}

func (g *scriptedText) lastCall() genCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return genCall{}
	}
	return g.calls[len(g.calls)-1]
}

func (g *scriptedText) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type fixture struct {
	engine *Engine
	store  *memStore
	gen    *scriptedText
	clock  *clock
}

func newFixture(text string, opts Options) fixture {
	st := newMemStore()
	gen := &scriptedText{text: text}
	clk := newClock()
	opts.Now = clk.Now
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	return fixture{
		engine: New(st, gen, nil, opts),
		store:  st,
		gen:    gen,
		clock:  clk,
	}
}

// typeText sends each rune of s, spacing keystrokes by gap.
func (f fixture) typeText(ctx context.Context, sessionID, s string, gap time.Duration) (KeystrokeResult, error) {
	var res KeystrokeResult
	for _, r := range s {
		var err error
		res, err = f.engine.ProcessKeystroke(ctx, sessionID, string(r), f.clock.Advance(gap))
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
