package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/draftarena/backend/internal/database"
	"github.com/draftarena/backend/internal/models"
)

// PresetRepository defines the interface for cost preset data access
type PresetRepository interface {
	Get(ctx context.Context, id string) (*models.CostPreset, error)
	Create(ctx context.Context, preset *models.CostPreset) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.CostPreset, error)
	Delete(ctx context.Context, id string) error
	ClearSessionReferences(ctx context.Context, presetID string) error
}

// PostgresPresetRepository implements PresetRepository for PostgreSQL
type PostgresPresetRepository struct {
	db *database.PostgresDB
}

// NewPostgresPresetRepository creates a new PostgreSQL preset repository
func NewPostgresPresetRepository(db *database.PostgresDB) PresetRepository {
	return &PostgresPresetRepository{db: db}
}

// Create inserts a new cost preset
func (r *PostgresPresetRepository) Create(ctx context.Context, preset *models.CostPreset) error {
	charCostJSON, err := json.Marshal(preset.CharCost)
	if err != nil {
		return fmt.Errorf("failed to marshal char cost: %w", err)
	}

	accessoryCostJSON, err := json.Marshal(preset.AccessoryCost)
	if err != nil {
		return fmt.Errorf("failed to marshal accessory cost: %w", err)
	}

	query := `
		INSERT INTO cost_presets (
			id, owner_user_id, name, char_cost, accessory_cost, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.DB.ExecContext(ctx, query,
		preset.ID,
		preset.OwnerID,
		preset.Name,
		charCostJSON,
		accessoryCostJSON,
		preset.CreatedAt,
		preset.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create cost preset: %w", err)
	}

	return nil
}

// Get retrieves a cost preset by its ID
func (r *PostgresPresetRepository) Get(ctx context.Context, id string) (*models.CostPreset, error) {
	query := `
		SELECT id, owner_user_id, name, char_cost, accessory_cost, created_at, updated_at
		FROM cost_presets
		WHERE id = $1
	`

	preset := &models.CostPreset{}
	var charCostJSON, accessoryCostJSON []byte

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&preset.ID,
		&preset.OwnerID,
		&preset.Name,
		&charCostJSON,
		&accessoryCostJSON,
		&preset.CreatedAt,
		&preset.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cost preset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cost preset: %w", err)
	}

	if err := json.Unmarshal(charCostJSON, &preset.CharCost); err != nil {
		return nil, fmt.Errorf("failed to unmarshal char cost: %w", err)
	}
	if err := json.Unmarshal(accessoryCostJSON, &preset.AccessoryCost); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accessory cost: %w", err)
	}

	return preset, nil
}

// ListByOwner retrieves all cost presets belonging to an owner
func (r *PostgresPresetRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.CostPreset, error) {
	query := `
		SELECT id, owner_user_id, name, char_cost, accessory_cost, created_at, updated_at
		FROM cost_presets
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost presets: %w", err)
	}
	defer rows.Close()

	var presets []*models.CostPreset

	for rows.Next() {
		preset := &models.CostPreset{}
		var charCostJSON, accessoryCostJSON []byte

		err := rows.Scan(
			&preset.ID,
			&preset.OwnerID,
			&preset.Name,
			&charCostJSON,
			&accessoryCostJSON,
			&preset.CreatedAt,
			&preset.UpdatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan cost preset: %w", err)
		}

		if err := json.Unmarshal(charCostJSON, &preset.CharCost); err != nil {
			return nil, fmt.Errorf("failed to unmarshal char cost: %w", err)
		}
		if err := json.Unmarshal(accessoryCostJSON, &preset.AccessoryCost); err != nil {
			return nil, fmt.Errorf("failed to unmarshal accessory cost: %w", err)
		}

		presets = append(presets, preset)
	}

	return presets, nil
}

// Delete removes a cost preset
func (r *PostgresPresetRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM cost_presets WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete cost preset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("cost preset not found")
	}

	return nil
}

// ClearSessionReferences nulls out cost_profile_id on every session that
// references presetID. Deleting a preset does not cascade into the
// sessions that used it; it just stops being joined at read time.
func (r *PostgresPresetRepository) ClearSessionReferences(ctx context.Context, presetID string) error {
	query := `UPDATE draft_sessions SET cost_profile_id = NULL WHERE cost_profile_id = $1`

	_, err := r.db.DB.ExecContext(ctx, query, presetID)
	if err != nil {
		return fmt.Errorf("failed to clear cost preset references: %w", err)
	}

	return nil
}
