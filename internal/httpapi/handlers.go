package httpapi

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verte-zerg/keycoach/internal/engine"
)

func newSessionID() string {
	return uuid.NewString()
}

type startRequest struct {
	UserID int64 `json:"user_id"`
}

type keystrokeRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Key       string `json:"key" binding:"required"`
	// Timestamp is seconds since the Unix epoch; the server clock is used when absent.
	Timestamp *float64 `json:"timestamp"`
	UserID    int64    `json:"user_id"`
}

type sessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserID    int64  `json:"user_id"`
}

type modeRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	LearnMode *bool  `json:"learn_mode"`
	UserID    int64  `json:"user_id"`
}

type saveRequest struct {
	UserID int64 `json:"user_id"`
}

type historyEntry struct {
	Key       string    `json:"key"`
	Expected  string    `json:"expected"`
	Correct   bool      `json:"correct"`
	LatencyMs *float64  `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
			return
		}
	}
	res, err := s.engine.Start(c.Request.Context(), s.newID(), engine.AccountFor(req.UserID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) keystroke(c *gin.Context) {
	var req keystrokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session_id or key"})
		return
	}
	var at time.Time
	if req.Timestamp != nil {
		sec, frac := math.Modf(*req.Timestamp)
		at = time.Unix(int64(sec), int64(frac*1e9))
	}

	ctx := c.Request.Context()
	res, err := s.engine.ProcessKeystroke(ctx, req.SessionID, req.Key, at)
	if errors.Is(err, engine.ErrSessionNotFound) {
		// Sessions live in memory; a restart loses them.
		if _, err = s.engine.Start(ctx, req.SessionID, engine.AccountFor(req.UserID)); err == nil {
			s.log.Info("recovered session", "session", req.SessionID)
			res, err = s.engine.ProcessKeystroke(ctx, req.SessionID, req.Key, at)
		}
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if res.Complete {
		s.log.Info("text completed", "session", req.SessionID, "score", res.Score)
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) newText(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session_id"})
		return
	}
	ctx := c.Request.Context()
	if _, err := s.engine.Start(ctx, req.SessionID, engine.AccountFor(req.UserID)); err != nil {
		s.fail(c, err)
		return
	}
	text, err := s.engine.GenerateNewText(ctx, req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (s *Server) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session_id"})
		return
	}
	learn := true
	if req.LearnMode != nil {
		learn = *req.LearnMode
	}
	if _, err := s.engine.Start(c.Request.Context(), req.SessionID, engine.AccountFor(req.UserID)); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.engine.SetLearnMode(req.SessionID, learn); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "learn_mode": learn})
}

func (s *Server) saveProgress(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}
	if err := s.engine.ForceSaveUser(c.Request.Context(), req.UserID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress saved successfully"})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.engine.SessionStats(c.Request.Context(), c.Param("session"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) analysis(c *gin.Context) {
	a, err := s.engine.Analysis(c.Param("session"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) keystrokeHistory(c *gin.Context) {
	events, err := s.history.KeystrokeHistory(c.Request.Context(), c.Param("session"), historyLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]historyEntry, 0, len(events))
	for _, ev := range events {
		entry := historyEntry{
			Key:       ev.KeyPressed,
			Expected:  ev.ExpectedKey,
			Correct:   ev.Correct,
			Timestamp: ev.Timestamp,
		}
		if ev.Timed {
			ms := float64(ev.Latency.Microseconds()) / 1000
			entry.LatencyMs = &ms
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, engine.ErrProgressMissing):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "User progress not found"})
	case errors.Is(err, engine.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Text generation already in progress"})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
