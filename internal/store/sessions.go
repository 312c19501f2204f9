package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
)

// LogKeystroke appends one keystroke to the log. Untimed keystrokes store a NULL latency.
func (s *Store) LogKeystroke(ctx context.Context, ev model.KeystrokeEvent) error {
	var latency sql.NullInt64
	if ev.Timed || ev.HasLatency() {
		latency = sql.NullInt64{Int64: ev.Latency.Microseconds(), Valid: true}
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keystrokes (session_id, timestamp, key_pressed, expected_key, is_correct, latency_us, word_index, character_index, context, hand_used, finger_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID,
		formatTime(ts),
		ev.KeyPressed,
		ev.ExpectedKey,
		ev.Correct,
		latency,
		ev.WordIndex,
		ev.CharIndex,
		ev.Context,
		string(ev.Hand),
		string(ev.Finger),
	)
	return err
}

// KeystrokeHistory returns up to limit keystrokes for a session, most recently
// logged first. Order follows insertion, not the client-supplied timestamps. A limit of zero or less returns the whole log.
func (s *Store) KeystrokeHistory(ctx context.Context, sessionID string, limit int) ([]model.KeystrokeEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, timestamp, key_pressed, expected_key, is_correct, latency_us, word_index, character_index, context, hand_used, finger_used
		 FROM keystrokes
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var events []model.KeystrokeEvent
	for rows.Next() {
		var (
			ev           model.KeystrokeEvent
			ts           string
			latency      sql.NullInt64
			hand, finger string
		)
		if err := rows.Scan(&ev.SessionID, &ts, &ev.KeyPressed, &ev.ExpectedKey, &ev.Correct, &latency,
			&ev.WordIndex, &ev.CharIndex, &ev.Context, &hand, &finger); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if latency.Valid {
			ev.Timed = true
			ev.Latency = time.Duration(latency.Int64) * time.Microsecond
		}
		ev.Hand = model.Hand(hand)
		ev.Finger = model.Finger(finger)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateSessionStats applies the non-nil fields of patch to the session row,
// creating the row first if needed. Setting a level also unlocks every level
// up to it.
func (s *Store) UpdateSessionStats(ctx context.Context, sessionID string, patch model.SessionPatch) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_sessions (session_id, created_at) VALUES (?, ?)`,
		sessionID, formatTime(s.now()),
	); err != nil {
		return err
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.TotalWords != nil {
		add("total_words", *patch.TotalWords)
	}
	if patch.TotalCharacters != nil {
		add("total_characters", *patch.TotalCharacters)
	}
	if patch.TotalErrors != nil {
		add("total_errors", *patch.TotalErrors)
	}
	if patch.TotalTimeSeconds != nil {
		add("total_time_seconds", *patch.TotalTimeSeconds)
	}
	if patch.CurrentScore != nil {
		add("current_score", *patch.CurrentScore)
	}
	if patch.HighestStreak != nil {
		add("highest_streak", *patch.HighestStreak)
	}
	if patch.CurrentLevel != nil {
		level := *patch.CurrentLevel
		if level < 1 {
			level = 1
		}
		unlocked, err := json.Marshal(levelsUpTo(level))
		if err != nil {
			return err
		}
		add("current_level", level)
		add("unlocked_levels", string(unlocked))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, sessionID)
	query := fmt.Sprintf(`UPDATE user_sessions SET %s WHERE session_id = ?`, strings.Join(sets, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// SessionRecord returns the stored session row, if any.
func (s *Store) SessionRecord(ctx context.Context, sessionID string) (model.SessionRecord, bool, error) {
	var (
		rec      model.SessionRecord
		created  string
		unlocked string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, total_words, total_characters, total_errors, total_time_seconds,
			current_score, highest_streak, current_level, unlocked_levels
		 FROM user_sessions WHERE session_id = ?`, sessionID,
	).Scan(&rec.SessionID, &created, &rec.TotalWords, &rec.TotalCharacters, &rec.TotalErrors, &rec.TotalTimeSeconds,
		&rec.CurrentScore, &rec.HighestStreak, &rec.CurrentLevel, &unlocked)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionRecord{}, false, nil
	}
	if err != nil {
		return model.SessionRecord{}, false, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return model.SessionRecord{}, false, err
	}
	if err := json.Unmarshal([]byte(unlocked), &rec.UnlockedLevels); err != nil {
		return model.SessionRecord{}, false, fmt.Errorf("decode unlocked levels for %s: %w", sessionID, err)
	}
	return rec, true, nil
}

// LatestSessionID returns the most recently created session id.
func (s *Store) LatestSessionID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM user_sessions ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func levelsUpTo(level int) []int {
	levels := make([]int, level)
	for i := range levels {
		levels[i] = i + 1
	}
	return levels
}
