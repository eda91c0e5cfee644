package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/draftarena/backend/internal/models"
)

func TestShapeSessionDefaultsPenalty(t *testing.T) {
	s := &models.Session{
		ID:             "sess-1",
		Mode:           "2ban",
		LastActivityAt: time.Now(),
	}

	shaped := ShapeSession(s, nil)
	assert.Equal(t, defaultPenaltyPerPoint, shaped.PenaltyPerPoint)
	assert.Nil(t, shaped.CostProfile)
}

func TestShapeSessionKeepsExplicitPenalty(t *testing.T) {
	s := &models.Session{
		ID:              "sess-1",
		PenaltyPerPoint: 1000,
		LastActivityAt:  time.Now(),
	}

	shaped := ShapeSession(s, nil)
	assert.Equal(t, 1000, shaped.PenaltyPerPoint)
}

func TestShapeSessionEmbedsCostProfileWhenPresent(t *testing.T) {
	s := &models.Session{ID: "sess-1", LastActivityAt: time.Now()}
	preset := &models.CostPreset{ID: "preset-1", Name: "default"}

	shaped := ShapeSession(s, preset)
	assert.NotNil(t, shaped.CostProfile)
	assert.Equal(t, "preset-1", shaped.CostProfile.ID)
}

func TestShapeSessionSetsCompletedAtMillis(t *testing.T) {
	completed := time.Now()
	s := &models.Session{ID: "sess-1", CompletedAt: &completed, LastActivityAt: completed}

	shaped := ShapeSession(s, nil)
	assert.NotNil(t, shaped.CompletedAt)
	assert.Equal(t, completed.UnixMilli(), *shaped.CompletedAt)
}

func TestShapeSessionNilCompletedAtStaysNil(t *testing.T) {
	s := &models.Session{ID: "sess-1", LastActivityAt: time.Now()}

	shaped := ShapeSession(s, nil)
	assert.Nil(t, shaped.CompletedAt)
}

func TestDefaultCostLimitByMode(t *testing.T) {
	tests := []struct {
		mode string
		want float64
	}{
		{"2ban", 6},
		{"2v2", 6},
		{"3ban", 9},
		{"3v3", 9},
		{"6ban", 9},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultCostLimit(tt.mode))
		})
	}
}
