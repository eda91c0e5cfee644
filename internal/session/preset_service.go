package session

import (
	"context"

	"github.com/draftarena/backend/internal/models"
)

// maxPresetsPerOwner is the at-most-two-per-owner limit named in the data
// model for the variant that uses cost presets.
const maxPresetsPerOwner = 2

// PresetRepository is the persistence surface the session service needs
// from cost presets. internal/repositories.PresetRepository implements it.
type PresetRepository interface {
	Get(ctx context.Context, id string) (*models.CostPreset, error)
	Create(ctx context.Context, p *models.CostPreset) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.CostPreset, error)
	Delete(ctx context.Context, id string) error
	ClearSessionReferences(ctx context.Context, presetID string) error
}

// PresetService enforces the per-owner preset count limit the way the
// teacher enforces business invariants at the request-validation layer
// rather than as a database constraint.
type PresetService struct {
	repo PresetRepository
}

func NewPresetService(repo PresetRepository) *PresetService {
	return &PresetService{repo: repo}
}

func (s *PresetService) Create(ctx context.Context, p *models.CostPreset) error {
	existing, err := s.repo.ListByOwner(ctx, p.OwnerID)
	if err != nil {
		return err
	}
	if len(existing) >= maxPresetsPerOwner {
		return ErrPresetLimit
	}
	return s.repo.Create(ctx, p)
}

func (s *PresetService) ListByOwner(ctx context.Context, ownerID string) ([]*models.CostPreset, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Delete removes a preset and clears (does not cascade) any session that
// referenced it.
func (s *PresetService) Delete(ctx context.Context, id, ownerID string) error {
	preset, err := s.repo.Get(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if preset.OwnerID != ownerID {
		return ErrUnauthorized
	}
	if err := s.repo.ClearSessionReferences(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
