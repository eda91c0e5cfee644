package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/draftarena/backend/internal/database"
	"github.com/draftarena/backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Repository defines persistence access for draft sessions: one row per
// session, state and featured stored as JSON columns.
type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	GetOpenByOwner(ctx context.Context, ownerID string) (*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
	Recent(ctx context.Context, limit, offset int) ([]*models.Session, error)
	Live(ctx context.Context, windowMinutes, limit, offset int) ([]*models.Session, error)
	ResolveToken(ctx context.Context, id, token string) (models.Side, error)
}

// PostgresRepository implements Repository for PostgreSQL.
type PostgresRepository struct {
	db *database.PostgresDB
}

// NewPostgresRepository creates a new PostgreSQL session repository.
func NewPostgresRepository(db *database.PostgresDB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	featuredJSON, err := json.Marshal(s.Featured)
	if err != nil {
		return fmt.Errorf("failed to marshal featured: %w", err)
	}

	query := `
		INSERT INTO draft_sessions (
			session_key, owner_user_id, mode, team1, team2, state, featured,
			is_complete, completed_at, last_activity_at, blue_token, red_token,
			cost_profile_id, cost_limit, penalty_per_point
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.DB.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Mode, s.Team1, s.Team2, stateJSON, featuredJSON,
		s.IsComplete, s.CompletedAt, s.LastActivityAt, s.BlueToken, s.RedToken,
		s.CostProfileID, s.CostLimit, s.PenaltyPerPoint,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanRow(row *sql.Row) (*models.Session, error) {
	var s models.Session
	var stateJSON, featuredJSON []byte

	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Mode, &s.Team1, &s.Team2, &stateJSON, &featuredJSON,
		&s.IsComplete, &s.CompletedAt, &s.LastActivityAt, &s.BlueToken, &s.RedToken,
		&s.CostProfileID, &s.CostLimit, &s.PenaltyPerPoint,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &s.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if len(featuredJSON) > 0 {
		if err := json.Unmarshal(featuredJSON, &s.Featured); err != nil {
			return nil, fmt.Errorf("failed to unmarshal featured: %w", err)
		}
	}
	return &s, nil
}

const sessionColumns = `session_key, owner_user_id, mode, team1, team2, state, featured,
		is_complete, completed_at, last_activity_at, blue_token, red_token,
		cost_profile_id, cost_limit, penalty_per_point`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM draft_sessions WHERE session_key = $1`
	row := r.db.DB.QueryRowContext(ctx, query, id)
	return r.scanRow(row)
}

func (r *PostgresRepository) GetOpenByOwner(ctx context.Context, ownerID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM draft_sessions
		WHERE owner_user_id = $1 AND is_complete = false
		ORDER BY last_activity_at DESC LIMIT 1`
	row := r.db.DB.QueryRowContext(ctx, query, ownerID)
	return r.scanRow(row)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	featuredJSON, err := json.Marshal(s.Featured)
	if err != nil {
		return fmt.Errorf("failed to marshal featured: %w", err)
	}

	query := `
		UPDATE draft_sessions
		SET state = $2, featured = $3, is_complete = $4, completed_at = $5,
		    last_activity_at = $6, cost_profile_id = $7, cost_limit = $8,
		    penalty_per_point = $9
		WHERE session_key = $1
	`
	result, err := r.db.DB.ExecContext(ctx, query,
		s.ID, stateJSON, featuredJSON, s.IsComplete, s.CompletedAt,
		s.LastActivityAt, s.CostProfileID, s.CostLimit, s.PenaltyPerPoint,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM draft_sessions WHERE session_key = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PostgresRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]*models.Session, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var s models.Session
		var stateJSON, featuredJSON []byte
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Mode, &s.Team1, &s.Team2, &stateJSON, &featuredJSON,
			&s.IsComplete, &s.CompletedAt, &s.LastActivityAt, &s.BlueToken, &s.RedToken,
			&s.CostProfileID, &s.CostLimit, &s.PenaltyPerPoint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &s.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		if len(featuredJSON) > 0 {
			_ = json.Unmarshal(featuredJSON, &s.Featured)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Recent lists sessions ordered by completed_at descending, for the public
// recent-completed-drafts listing.
func (r *PostgresRepository) Recent(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM draft_sessions
		WHERE is_complete = true
		ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
	return r.queryList(ctx, query, limit, offset)
}

// Live lists sessions active within windowMinutes of now, ordered by
// last_activity_at descending.
func (r *PostgresRepository) Live(ctx context.Context, windowMinutes, limit, offset int) ([]*models.Session, error) {
	cutoff := time.Now().Add(-time.Duration(windowMinutes) * time.Minute)
	query := `SELECT ` + sessionColumns + ` FROM draft_sessions
		WHERE is_complete = false AND last_activity_at >= $1
		ORDER BY last_activity_at DESC LIMIT $2 OFFSET $3`
	return r.queryList(ctx, query, cutoff, limit, offset)
}

// ResolveToken returns the side a player token authorizes. It returns
// ErrSessionNotFound if the session does not exist and ErrUnauthorized if the
// token matches neither side of the session.
func (r *PostgresRepository) ResolveToken(ctx context.Context, id, token string) (models.Side, error) {
	var blueToken, redToken string
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT blue_token, red_token FROM draft_sessions WHERE session_key = $1`, id,
	).Scan(&blueToken, &redToken)
	if err == sql.ErrNoRows {
		return models.SideNone, ErrSessionNotFound
	}
	if err != nil {
		return models.SideNone, fmt.Errorf("failed to resolve token: %w", err)
	}
	switch token {
	case blueToken:
		return models.SideBlue, nil
	case redToken:
		return models.SideRed, nil
	default:
		return models.SideNone, ErrUnauthorized
	}
}
