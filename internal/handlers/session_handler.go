package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/draftarena/backend/internal/auth"
	"github.com/draftarena/backend/internal/broadcast"
	"github.com/draftarena/backend/internal/models"
	"github.com/draftarena/backend/internal/repositories"
	"github.com/draftarena/backend/internal/session"
)

// SessionHandler handles draft session HTTP requests: owner-authenticated
// lifecycle operations plus the token-authorized action and spectator
// surfaces. Generalized 1:1 from the reference draft handler's shape.
type SessionHandler struct {
	svc     *session.Service
	actors  *session.ActorHub
	hub     *broadcast.Hub
	presets repositories.PresetRepository
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *session.Service, actors *session.ActorHub, hub *broadcast.Hub, presets repositories.PresetRepository) *SessionHandler {
	return &SessionHandler{svc: svc, actors: actors, hub: hub, presets: presets}
}

// shape loads the referenced cost preset (if any) and returns the wire view.
func (h *SessionHandler) shape(c *gin.Context, s *models.Session) session.ShapedSession {
	var preset *models.CostPreset
	if s.CostProfileID != nil {
		if p, err := h.presets.Get(c.Request.Context(), *s.CostProfileID); err == nil {
			preset = p
		}
	}
	return session.ShapeSession(s, preset)
}

// writeServiceError maps the session package's sentinel error classes to
// transport codes via errors.Is, replacing the reference handler's
// err.Error() == "..." string comparison with a typed equivalent.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, session.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access to draft session"})
	case errors.Is(err, session.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrSessionComplete):
		c.JSON(http.StatusConflict, gin.H{"error": "draft session is already complete"})
	case errors.Is(err, session.ErrPresetLimit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)

	var req session.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), ownerID.String(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.shape(c, sess))
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shape(c, sess))
}

// Recent handles GET /api/sessions/recent
func (h *SessionHandler) Recent(c *gin.Context) {
	limit, offset := pageParams(c)
	sessions, err := h.svc.Recent(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": shapeAll(h, c, sessions)})
}

// Live handles GET /api/sessions/live
func (h *SessionHandler) Live(c *gin.Context) {
	limit, offset := pageParams(c)
	windowMinutes := 120
	if w, err := strconv.Atoi(c.Query("windowMinutes")); err == nil && w > 0 {
		windowMinutes = w
	}
	sessions, err := h.svc.Live(c.Request.Context(), windowMinutes, limit, offset)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": shapeAll(h, c, sessions)})
}

func shapeAll(h *SessionHandler, c *gin.Context, sessions []*models.Session) []session.ShapedSession {
	out := make([]session.ShapedSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.shape(c, s))
	}
	return out
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit = 20
	offset = 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}

// ResolveToken handles GET /api/sessions/:id/token/:token
func (h *SessionHandler) ResolveToken(c *gin.Context) {
	side, err := h.svc.ResolveToken(c.Request.Context(), c.Param("id"), c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"side": string(side)})
}

// ApplyAction handles POST /api/sessions/:id/actions. It is unauthenticated
// at the HTTP boundary; the player token in the envelope authorizes the side.
func (h *SessionHandler) ApplyAction(c *gin.Context) {
	sessionID := c.Param("id")

	var req session.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side, err := h.svc.ResolveToken(c.Request.Context(), sessionID, req.PlayerToken)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	action, ok := req.ToAction()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action op"})
		return
	}

	sess, rej, err := h.actors.ApplyAction(c.Request.Context(), sessionID, side, action)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if rej != nil {
		c.JSON(http.StatusConflict, gin.H{"rejected": rej.Code})
		return
	}

	// The actor's onAfter callback pushes this result to the broadcast hub,
	// in persist order, on the actor's goroutine right after it replies, so
	// the push may land just before or just after this response.
	c.JSON(http.StatusOK, h.shape(c, sess))
}

// OwnerUpdate handles PATCH /api/sessions/:id
func (h *SessionHandler) OwnerUpdate(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)
	sessionID := c.Param("id")

	var req session.OwnerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.actors.OwnerUpdate(c.Request.Context(), sessionID, ownerID.String(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.shape(c, sess))
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)
	sessionID := c.Param("id")

	if err := h.actors.Delete(c.Request.Context(), sessionID, ownerID.String()); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "draft session deleted"})
}

// Stream handles GET /api/sessions/:id/stream, the SSE spectator feed.
func (h *SessionHandler) Stream(c *gin.Context) {
	h.hub.StreamHandler(func(sessionID string) (session.ShapedSession, bool) {
		sess, err := h.svc.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			return session.ShapedSession{}, false
		}
		return h.shape(c, sess), true
	})(c)
}

// RegisterRoutes registers all session routes. authed gates owner-only
// mutations; mutationLimit and actionLimit are the two rate-limit buckets
// (per-owner, per-session-and-client-address); action application and reads are
// unauthenticated at the HTTP boundary (token possession and public
// visibility, respectively). The stream endpoint carries neither middleware,
// per the rate limiter's stream exclusion.
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup, authed, mutationLimit, actionLimit gin.HandlerFunc) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", authed, mutationLimit, h.CreateSession)
		sessions.PATCH("/:id", authed, mutationLimit, h.OwnerUpdate)
		sessions.DELETE("/:id", authed, mutationLimit, h.DeleteSession)

		sessions.GET("/recent", h.Recent)
		sessions.GET("/live", h.Live)
		sessions.GET("/:id", h.GetSession)
		sessions.GET("/:id/token/:token", h.ResolveToken)
		sessions.GET("/:id/stream", h.Stream)
		sessions.POST("/:id/actions", actionLimit, h.ApplyAction)
	}
}
