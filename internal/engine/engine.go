// Package engine runs adaptive practice sessions: it scores keystrokes,
// re-analyzes performance at checkpoints and picks the next text.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/keycoach/internal/keymap"
	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/stats"
)

var (
	// ErrSessionNotFound is returned for ids that were never started in this process.
	ErrSessionNotFound = errors.New("session not found")
	// ErrProgressMissing means a registered user has no progress row.
	ErrProgressMissing = errors.New("user progress not found")
	// ErrGenerationInProgress rejects a concurrent GenerateNewText for one session.
	ErrGenerationInProgress = errors.New("text generation already in progress")
)

// Defaults applied to zero Options fields.
const (
	DefaultInitialWords     = 12
	DefaultAnalysisInterval = 30 * time.Second
	DefaultAnalysisChars    = 50
)

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	InitialWords     int
	AnalysisInterval time.Duration
	AnalysisChars    int
	// HistoryLimit caps the keystrokes read for analysis; zero reads all.
	HistoryLimit int
	// FreeMode starts sessions with learn mode off.
	FreeMode bool
	Logger   *slog.Logger
	Now      func() time.Time
	Rand     *rand.Rand
}

// OptionsFromConfig converts resolved engine settings.
func OptionsFromConfig(cfg model.EngineConfig) Options {
	return Options{
		InitialWords:     cfg.InitialWords,
		AnalysisInterval: cfg.AnalysisInterval,
		AnalysisChars:    cfg.AnalysisChars,
		HistoryLimit:     cfg.HistoryLimit,
	}
}

// Engine owns the active sessions and applies operations to them.
type Engine struct {
	store    Persistence
	gen      TextSource
	sessions *Registry
	log      *slog.Logger
	opts     Options
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// New wires an engine. A nil registry gets a fresh one.
func New(store Persistence, gen TextSource, sessions *Registry, opts Options) *Engine {
	if sessions == nil {
		sessions = NewRegistry()
	}
	if opts.InitialWords <= 0 {
		opts.InitialWords = DefaultInitialWords
	}
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = DefaultAnalysisInterval
	}
	if opts.AnalysisChars <= 0 {
		opts.AnalysisChars = DefaultAnalysisChars
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		store:    store,
		gen:      gen,
		sessions: sessions,
		log:      logger.With("component", "engine"),
		opts:     opts,
		now:      now,
		rnd:      rnd,
	}
}

// StartResult is returned by Start.
type StartResult struct {
	State
	Stats      Stats          `json:"stats"`
	TotalScore int            `json:"total_score"`
	Analysis   stats.Analysis `json:"analysis"`
	// Resumed is true when the session was already active.
	Resumed bool `json:"resumed"`
}

// Start creates the session if it does not exist. Starting an active session
// changes nothing and returns its current state.
func (e *Engine) Start(ctx context.Context, sessionID string, account Account) (StartResult, error) {
	if s, ok := e.sessions.Get(sessionID); ok {
		return e.startResult(ctx, s, true)
	}

	progress := model.UserProgress{CurrentLevel: 1}
	var snap *model.ProfileSnapshot
	if u, ok := account.(User); ok {
		p, found, err := e.store.UserProgress(ctx, u.ID)
		if err != nil {
			return StartResult{}, fmt.Errorf("load progress for user %d: %w", u.ID, err)
		}
		if !found {
			return StartResult{}, fmt.Errorf("user %d: %w", u.ID, ErrProgressMissing)
		}
		progress = p
		if snap, err = e.loadOrSeedSnapshot(ctx, u); err != nil {
			return StartResult{}, err
		}
	}
	if progress.CurrentLevel < 1 {
		progress.CurrentLevel = 1
	}

	tier := model.TierControlled
	analysis := stats.DefaultAnalysis()
	if snap != nil {
		tier = snap.Tier
		analysis = stats.RestoredAnalysis(*snap)
	}
	text, err := e.gen.Generate(tier, e.opts.InitialWords, analysis.FocusAreas, nil)
	if err != nil {
		return StartResult{}, fmt.Errorf("generate initial text: %w", err)
	}

	level := progress.CurrentLevel
	if err := e.store.UpdateSessionStats(ctx, sessionID, model.SessionPatch{CurrentLevel: &level}); err != nil {
		return StartResult{}, fmt.Errorf("record session %s: %w", sessionID, err)
	}

	now := e.now()
	s := &Session{
		id:             sessionID,
		account:        account,
		startedAt:      now,
		score:          progress.TotalScore,
		lastPersisted:  progress.TotalScore,
		comboTenths:    comboMin,
		level:          level,
		tier:           tier,
		analysis:       analysis,
		lastAnalysisAt: now,
		learnMode:      !e.opts.FreeMode,
	}
	s.resetText(text)

	registered, inserted := e.sessions.Insert(s)
	if inserted {
		e.log.Info("session started", "session", sessionID, "tier", tier, "level", level)
	}
	return e.startResult(ctx, registered, !inserted)
}

// loadOrSeedSnapshot returns the stored profile, or nil after seeding a
// default one for a user without history.
func (e *Engine) loadOrSeedSnapshot(ctx context.Context, u User) (*model.ProfileSnapshot, error) {
	snap, found, err := e.store.ProfileSnapshot(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile for user %d: %w", u.ID, err)
	}
	if found {
		return &snap, nil
	}
	seed := model.ProfileSnapshot{Tier: model.TierControlled, AccuracyAvg: 100}
	if err := e.store.UpdateProfileSnapshot(ctx, u.ID, seed); err != nil {
		return nil, fmt.Errorf("seed profile for user %d: %w", u.ID, err)
	}
	return nil, nil
}

func (e *Engine) startResult(ctx context.Context, s *Session, resumed bool) (StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := e.sessionStats(ctx, s)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{
		State:      s.state(),
		Stats:      st,
		TotalScore: s.score,
		Analysis:   s.analysis,
		Resumed:    resumed,
	}, nil
}

// KeystrokeResult reports the effect of one keystroke.
type KeystrokeResult struct {
	Correct      bool     `json:"correct"`
	Blocked      bool     `json:"blocked,omitempty"`
	Message      string   `json:"message,omitempty"`
	ExpectedChar string   `json:"expected_char"`
	Position     int      `json:"position"`
	Streak       int      `json:"streak"`
	MaxStreak    int      `json:"max_streak"`
	Combo        float64  `json:"combo_multiplier"`
	Score        int      `json:"score"`
	Errors       int      `json:"errors"`
	Level        int      `json:"level"`
	Complete     bool     `json:"is_complete"`
	LatencyMs    *float64 `json:"time_since_last_ms"`
}

// ProcessKeystroke applies one key to the session. A zero at uses the engine
// clock. If the keystroke cannot be logged the session is left unchanged.
func (e *Engine) ProcessKeystroke(ctx context.Context, sessionID, key string, at time.Time) (KeystrokeResult, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return KeystrokeResult{}, ErrSessionNotFound
	}
	if at.IsZero() {
		at = e.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Out-of-order timestamps clamp to a zero gap.
	var latency time.Duration
	timed := !s.lastKeyAt.IsZero()
	if timed {
		latency = max(0, at.Sub(s.lastKeyAt))
	}
	expected := s.expected()
	correct := expected != "" && key == expected
	hand, finger := keymap.Classify(expected)
	ev := model.KeystrokeEvent{
		SessionID:   sessionID,
		Timestamp:   at,
		KeyPressed:  key,
		ExpectedKey: expected,
		Correct:     correct,
		Latency:     latency,
		Timed:       timed,
		WordIndex:   s.wordIndex,
		CharIndex:   s.charIndex,
		Context:     s.window(),
		Hand:        hand,
		Finger:      finger,
	}
	if err := e.store.LogKeystroke(ctx, ev); err != nil {
		return KeystrokeResult{}, fmt.Errorf("log keystroke for %s: %w", sessionID, err)
	}
	s.typed = append(s.typed, ev)
	s.lastKeyAt = at
	s.charsSinceAnalysis++

	advanced := false
	if correct {
		s.cursor++
		s.marks = append(s.marks, true)
		advanced = true
		s.streak++
		if s.streak > s.maxStreak {
			s.maxStreak = s.streak
		}
		s.score += keyScore(latency, timed, s.comboTenths)
		if s.streak >= comboStreakMin {
			s.comboTenths = min(comboMax, s.comboTenths+comboStep)
		}
	} else {
		s.errors++
		s.streak = 0
		s.comboTenths = max(comboMin, s.comboTenths-comboPenalty)
		if !s.learnMode && s.cursor < len(s.text) {
			s.cursor++
			s.marks = append(s.marks, false)
			advanced = true
		}
	}

	res := KeystrokeResult{
		Correct:      correct,
		ExpectedChar: expected,
	}
	if timed {
		ms := float64(latency.Microseconds()) / 1000
		res.LatencyMs = &ms
	}

	if !correct && s.learnMode {
		e.pushStats(ctx, s)
		res.Blocked = true
		res.Message = fmt.Sprintf(blockedTemplate, expected)
		e.fillCounters(&res, s)
		return res, nil
	}

	if advanced {
		if expected == " " || s.cursor >= len(s.text) {
			s.wordIndex++
			s.charIndex = 0
		} else {
			s.charIndex++
		}
	}

	res.Complete = s.cursor >= len(s.text)
	if res.Complete {
		wpm, _ := stats.SessionMetrics(s.cursor, 0, at.Sub(s.startedAt))
		if err := e.persistUser(ctx, s, wpm); err != nil {
			e.log.Warn("persist progress on completion", "session", sessionID, "error", err)
		}
	}
	e.pushStats(ctx, s)
	e.fillCounters(&res, s)
	return res, nil
}

func (e *Engine) fillCounters(res *KeystrokeResult, s *Session) {
	res.Position = s.cursor
	res.Streak = s.streak
	res.MaxStreak = s.maxStreak
	res.Combo = s.combo()
	res.Score = s.score
	res.Errors = s.errors
	res.Level = s.level
}

// pushStats writes the session counters and raises the level when the score
// crosses a step. Failures are logged; the keystroke itself already counted.
func (e *Engine) pushStats(ctx context.Context, s *Session) {
	words := s.wordIndex
	chars := s.cursor
	errs := s.errors
	elapsed := e.now().Sub(s.startedAt).Seconds()
	score := s.score
	streak := s.maxStreak
	patch := model.SessionPatch{
		TotalWords:       &words,
		TotalCharacters:  &chars,
		TotalErrors:      &errs,
		TotalTimeSeconds: &elapsed,
		CurrentScore:     &score,
		HighestStreak:    &streak,
	}
	if next := levelFor(s.score); next > s.level {
		s.level = next
		level := next
		patch.CurrentLevel = &level
		e.log.Info("level up", "session", s.id, "level", next)
		if err := e.persistUser(ctx, s, 0); err != nil {
			e.log.Warn("persist progress on level up", "session", s.id, "error", err)
		}
	}
	if err := e.store.UpdateSessionStats(ctx, s.id, patch); err != nil {
		e.log.Warn("push session stats", "session", s.id, "error", err)
	}
}

// persistUser flushes the unsaved score delta. Guests are skipped.
func (e *Engine) persistUser(ctx context.Context, s *Session, wpm float64) error {
	u, ok := s.account.(User)
	if !ok {
		return nil
	}
	delta := s.score - s.lastPersisted
	if delta <= 0 && wpm <= 0 && s.level <= 0 {
		return nil
	}
	if err := e.store.UpdateUserProgress(ctx, u.ID, delta, wpm, s.level); err != nil {
		return fmt.Errorf("update progress for user %d: %w", u.ID, err)
	}
	s.lastPersisted = s.score
	return nil
}

// GenerateNewText archives the current text and replaces it. The analysis is
// refreshed first when the checkpoint interval has passed or enough keys
// were typed since the last one.
func (e *Engine) GenerateNewText(ctx context.Context, sessionID string) (string, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.generating.CompareAndSwap(false, true) {
		return "", ErrGenerationInProgress
	}
	defer s.generating.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := e.now()
	if now.Sub(s.lastAnalysisAt) >= e.opts.AnalysisInterval || s.charsSinceAnalysis > e.opts.AnalysisChars {
		if err := e.refreshAnalysis(ctx, s, now); err != nil {
			return "", err
		}
	}

	focus := s.analysis.FocusAreas
	wpm := s.analysis.Overall.WPM
	if u, ok := s.account.(User); ok {
		snap, found, err := e.store.ProfileSnapshot(ctx, u.ID)
		if err != nil {
			return "", fmt.Errorf("load profile for user %d: %w", u.ID, err)
		}
		if found {
			focus = stats.FocusFromSnapshot(snap)
			wpm = snap.WPMAvg
		}
	}

	words := e.wordsFor(wpm)
	text, err := e.gen.Generate(s.tier, words, focus, s.analysis.Mastered)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}

	s.history = append(s.history, TextRecord{
		Text:      string(s.text),
		Score:     s.score,
		Errors:    s.errors,
		Timestamp: now,
	})
	s.resetText(text)
	return text, nil
}

func (e *Engine) refreshAnalysis(ctx context.Context, s *Session, now time.Time) error {
	recent, err := e.store.KeystrokeHistory(ctx, s.id, e.opts.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load keystrokes for %s: %w", s.id, err)
	}
	log := make([]model.KeystrokeEvent, len(recent))
	for i, ev := range recent {
		log[len(recent)-1-i] = ev
	}
	analysis := stats.Analyze(log)
	snap := stats.BuildSnapshot(analysis)
	if u, ok := s.account.(User); ok {
		if err := e.store.UpdateProfileSnapshot(ctx, u.ID, snap); err != nil {
			return fmt.Errorf("save profile for user %d: %w", u.ID, err)
		}
	}
	e.log.Debug("analysis refreshed", "session", s.id, "tier", snap.Tier, "events", len(log))
	s.tier = snap.Tier
	s.analysis = analysis
	s.lastAnalysisAt = now
	s.charsSinceAnalysis = 0
	return nil
}

func (e *Engine) wordsFor(wpm float64) int {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return wordsForWPM(e.rnd, wpm)
}

// ForceSaveUser flushes pending progress for every active session of the
// user. It is a no-op when none is active.
func (e *Engine) ForceSaveUser(ctx context.Context, userID int64) error {
	var errs []error
	for _, s := range e.sessions.ForUser(userID) {
		s.mu.Lock()
		err := e.persistUser(ctx, s, 0)
		s.mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats summarizes a session for display.
type Stats struct {
	Score          int     `json:"score"`
	Streak         int     `json:"streak"`
	MaxStreak      int     `json:"max_streak"`
	Combo          float64 `json:"combo_multiplier"`
	Errors         int     `json:"errors"`
	WPM            float64 `json:"wpm"`
	Accuracy       float64 `json:"accuracy"`
	Level          int     `json:"level"`
	UnlockedLevels []int   `json:"unlocked_levels"`
}

// SessionStats returns live counters with the stored level information.
func (e *Engine) SessionStats(ctx context.Context, sessionID string) (Stats, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return Stats{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.sessionStats(ctx, s)
}

func (e *Engine) sessionStats(ctx context.Context, s *Session) (Stats, error) {
	wpm, accuracy := stats.SessionMetrics(s.cursor, s.errors, e.now().Sub(s.startedAt))
	st := Stats{
		Score:          s.score,
		Streak:         s.streak,
		MaxStreak:      s.maxStreak,
		Combo:          s.combo(),
		Errors:         s.errors,
		WPM:            wpm,
		Accuracy:       accuracy,
		Level:          1,
		UnlockedLevels: []int{1},
	}
	rec, found, err := e.store.SessionRecord(ctx, s.id)
	if err != nil {
		return Stats{}, fmt.Errorf("load session %s: %w", s.id, err)
	}
	if found {
		st.Level = rec.CurrentLevel
		st.UnlockedLevels = rec.UnlockedLevels
	}
	return st, nil
}

// Analysis returns the latest analysis computed for the session.
func (e *Engine) Analysis(sessionID string) (stats.Analysis, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return stats.Analysis{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis, nil
}

// SetLearnMode switches between learn mode, where errors block the cursor,
// and free mode.
func (e *Engine) SetLearnMode(sessionID string, on bool) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	s.learnMode = on
	s.mu.Unlock()
	return nil
}

// State returns a snapshot of the session.
func (e *Engine) State(sessionID string) (State, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(), nil
}
