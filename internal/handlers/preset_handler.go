package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftarena/backend/internal/auth"
	"github.com/draftarena/backend/internal/models"
	"github.com/draftarena/backend/internal/session"
)

// PresetHandler handles cost preset HTTP requests: a small, owner-scoped
// CRUD surface with one business invariant (the per-owner preset limit)
// enforced by session.PresetService rather than the database.
type PresetHandler struct {
	svc *session.PresetService
}

// NewPresetHandler creates a new preset handler.
func NewPresetHandler(svc *session.PresetService) *PresetHandler {
	return &PresetHandler{svc: svc}
}

type createPresetRequest struct {
	Name          string            `json:"name" binding:"required"`
	CharCost      map[string][7]int `json:"charCost"`
	AccessoryCost map[string][5]int `json:"accessoryCost"`
}

// CreatePreset handles POST /api/cost-presets
func (h *PresetHandler) CreatePreset(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)

	var req createPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	preset := &models.CostPreset{
		ID:            uuid.New().String(),
		OwnerID:       ownerID.String(),
		Name:          req.Name,
		CharCost:      req.CharCost,
		AccessoryCost: req.AccessoryCost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.svc.Create(c.Request.Context(), preset); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, preset)
}

// ListPresets handles GET /api/cost-presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)

	presets, err := h.svc.ListByOwner(c.Request.Context(), ownerID.String())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// DeletePreset handles DELETE /api/cost-presets/:id
func (h *PresetHandler) DeletePreset(c *gin.Context) {
	ownerID, _ := auth.GetUserID(c)

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), ownerID.String()); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cost preset deleted"})
}

// RegisterRoutes registers all cost preset routes, all owner-authenticated
// and subject to the per-owner mutation rate limit (reads are exempt).
func (h *PresetHandler) RegisterRoutes(router *gin.RouterGroup, authed, mutationLimit gin.HandlerFunc) {
	presets := router.Group("/cost-presets", authed)
	{
		presets.POST("", mutationLimit, h.CreatePreset)
		presets.GET("", h.ListPresets)
		presets.DELETE("/:id", mutationLimit, h.DeletePreset)
	}
}
