package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/keycoach/internal/model"
)

// ErrUserExists is returned when a user name is already taken.
var ErrUserExists = errors.New("user already exists")

// CreateUser registers a user together with an initial progress row.
func (s *Store) CreateUser(ctx context.Context, name string) (id int64, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("user name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			// Best-effort rollback.
			_ = tx.Rollback()
		}
	}()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("%q: %w", name, ErrUserExists)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO users (name, created_at) VALUES (?, ?)`, name, formatTime(s.now()))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO user_progress (user_id) VALUES (?)`, id); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var users []model.User
	for rows.Next() {
		var u model.User
		var created string
		if err := rows.Scan(&u.ID, &u.Name, &created); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserProgress returns the progress row for a user, if any.
func (s *Store) UserProgress(ctx context.Context, userID int64) (model.UserProgress, bool, error) {
	var p model.UserProgress
	err := s.db.QueryRowContext(ctx,
		`SELECT current_level, total_score, max_wpm FROM user_progress WHERE user_id = ?`, userID,
	).Scan(&p.CurrentLevel, &p.TotalScore, &p.MaxWPM)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProgress{}, false, nil
	}
	if err != nil {
		return model.UserProgress{}, false, err
	}
	return p, true, nil
}

// UpdateUserProgress adds scoreDelta to the total score and keeps the highest
// WPM and level seen. A level of zero leaves the level untouched. Missing
// progress rows are ignored.
func (s *Store) UpdateUserProgress(ctx context.Context, userID int64, scoreDelta int, wpm float64, level int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_progress SET
			total_score = total_score + ?,
			max_wpm = MAX(max_wpm, ?),
			current_level = CASE WHEN ? > 0 THEN MAX(current_level, ?) ELSE current_level END,
			last_login = ?
		WHERE user_id = ?`,
		scoreDelta, wpm, level, level, formatTime(s.now()), userID,
	)
	return err
}

// ProfileSnapshot returns the stored analysis profile for a user, if any.
func (s *Store) ProfileSnapshot(ctx context.Context, userID int64) (model.ProfileSnapshot, bool, error) {
	var (
		snap                   model.ProfileSnapshot
		tier, updated          string
		keys, fingers, bigrams string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT tier, weak_keys, weak_fingers, slow_bigrams, accuracy_avg, wpm_avg, updated_at
		 FROM user_analysis WHERE user_id = ?`, userID,
	).Scan(&tier, &keys, &fingers, &bigrams, &snap.AccuracyAvg, &snap.WPMAvg, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProfileSnapshot{}, false, nil
	}
	if err != nil {
		return model.ProfileSnapshot{}, false, err
	}
	if snap.Tier, err = model.ParseTier(tier); err != nil {
		return model.ProfileSnapshot{}, false, err
	}
	for _, field := range []struct {
		raw string
		dst *[]string
	}{{keys, &snap.WeakKeys}, {fingers, &snap.WeakFingers}, {bigrams, &snap.SlowBigrams}} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return model.ProfileSnapshot{}, false, fmt.Errorf("decode profile for user %d: %w", userID, err)
		}
	}
	if snap.UpdatedAt, err = parseTime(updated); err != nil {
		return model.ProfileSnapshot{}, false, err
	}
	return snap, true, nil
}

// UpdateProfileSnapshot upserts the analysis profile for a user.
func (s *Store) UpdateProfileSnapshot(ctx context.Context, userID int64, snap model.ProfileSnapshot) error {
	keys, err := encodeList(snap.WeakKeys)
	if err != nil {
		return err
	}
	fingers, err := encodeList(snap.WeakFingers)
	if err != nil {
		return err
	}
	bigrams, err := encodeList(snap.SlowBigrams)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_analysis (user_id, tier, weak_keys, weak_fingers, slow_bigrams, accuracy_avg, wpm_avg, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			tier = excluded.tier,
			weak_keys = excluded.weak_keys,
			weak_fingers = excluded.weak_fingers,
			slow_bigrams = excluded.slow_bigrams,
			accuracy_avg = excluded.accuracy_avg,
			wpm_avg = excluded.wpm_avg,
			updated_at = excluded.updated_at`,
		userID, string(snap.Tier), keys, fingers, bigrams, snap.AccuracyAvg, snap.WPMAvg, formatTime(s.now()),
	)
	return err
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
