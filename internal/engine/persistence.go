package engine

import (
	"context"

	"github.com/verte-zerg/keycoach/internal/model"
)

// Persistence is the durable store the engine reads and writes.
// Each call is expected to be short and individually atomic.
type Persistence interface {
	UserProgress(ctx context.Context, userID int64) (model.UserProgress, bool, error)
	UpdateUserProgress(ctx context.Context, userID int64, scoreDelta int, wpm float64, level int) error
	ProfileSnapshot(ctx context.Context, userID int64) (model.ProfileSnapshot, bool, error)
	UpdateProfileSnapshot(ctx context.Context, userID int64, snap model.ProfileSnapshot) error
	LogKeystroke(ctx context.Context, ev model.KeystrokeEvent) error
	UpdateSessionStats(ctx context.Context, sessionID string, patch model.SessionPatch) error
	SessionRecord(ctx context.Context, sessionID string) (model.SessionRecord, bool, error)
	// KeystrokeHistory returns the most recent events first.
	KeystrokeHistory(ctx context.Context, sessionID string, limit int) ([]model.KeystrokeEvent, error)
}

// TextSource produces practice text for a tier.
type TextSource interface {
	Generate(tier model.Tier, words int, focus []model.FocusArea, mastered []model.MasteredItem) (string, error)
}
