package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/draftarena/backend/internal/models"
)

const sessionCacheTTL = 24 * time.Hour

// Service orchestrates the draft session subsystem: repository persistence,
// a Redis read-through cache of the session row, the Reducer, and the Timer
// Engine. It holds no lock of its own — per-session serialization is the
// actor's job (see actor.go); Service methods assume they already run
// inside that serialization context.
type Service struct {
	repo   Repository
	redis  *redis.Client
	presets PresetRepository
}

// NewService creates a new session service.
func NewService(repo Repository, redisClient *redis.Client, presets PresetRepository) *Service {
	return &Service{repo: repo, redis: redisClient, presets: presets}
}

// CreateSession seeds a new session for its owner. If the owner already has
// an open session, that session's identifiers and tokens are returned
// instead of creating a new one.
func (s *Service) CreateSession(ctx context.Context, ownerID string, req *CreateSessionRequest) (*models.Session, error) {
	if existing, err := s.repo.GetOpenByOwner(ctx, ownerID); err == nil {
		return existing, nil
	} else if err != ErrSessionNotFound {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}

	if req.CostProfileID != nil {
		preset, err := s.presets.Get(ctx, *req.CostProfileID)
		if err != nil {
			return nil, ErrNotFound
		}
		if preset.OwnerID != ownerID {
			return nil, ErrUnauthorized
		}
	}

	costLimit := DefaultCostLimit(req.Mode)
	if req.CostLimit != nil {
		costLimit = *req.CostLimit
	}
	penalty := defaultPenaltyPerPoint
	if req.PenaltyPerPoint != nil {
		penalty = *req.PenaltyPerPoint
	}

	now := time.Now()
	doc := models.StateDocument{
		DraftSequence: req.DraftSequence,
		CurrentTurn:   0,
		Picks:         make([]models.Slot, len(req.DraftSequence)),
		TimerEnabled:  req.TimerEnabled,
	}
	if req.TimerEnabled {
		doc.ReserveSeconds = req.ReserveSeconds
		doc.ReserveLeft = models.SideTimes{B: req.ReserveSeconds, R: req.ReserveSeconds}
	}
	Burn(&doc, now) // materializes grace/timerUpdatedAt defaults

	sess := &models.Session{
		ID:              newSessionID(),
		OwnerID:         ownerID,
		Mode:            req.Mode,
		Team1:           req.Team1,
		Team2:           req.Team2,
		State:           doc,
		Featured:        req.Featured,
		LastActivityAt:  now,
		BlueToken:       newToken(),
		RedToken:        newToken(),
		CostProfileID:   req.CostProfileID,
		CostLimit:       costLimit,
		PenaltyPerPoint: penalty,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// GetSession loads a session, preferring the Redis cache, and burns it
// forward to now without persisting the burn (read-time views do not
// write back; only mutations persist).
func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.loadCached(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := sess.State
	Burn(&doc, time.Now())
	sess.State = doc
	return sess, nil
}

// ApplyAction loads the session, burns to now, runs the Reducer, persists
// the result, and refreshes the cache. The caller (the per-session actor)
// is responsible for broadcasting the update afterward.
func (s *Service) ApplyAction(ctx context.Context, id string, side models.Side, action Action) (*models.Session, *Rejection, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.IsComplete {
		return nil, reject(RejectDraftAlreadyComplete), nil
	}

	next, rej := Reduce(&sess.State, sess.Featured, side, action, time.Now())
	if rej != nil {
		return nil, rej, nil
	}

	sess.State = *next
	sess.LastActivityAt = time.Now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("failed to persist action: %w", err)
	}
	s.cache(ctx, sess)
	return sess, nil, nil
}

// OwnerUpdate applies a partial, owner-verbatim update. It never runs the
// Reducer and never burns the timer; it only re-seeds missing timer fields
// when state is replaced.
func (s *Service) OwnerUpdate(ctx context.Context, id, ownerID string, req *OwnerUpdateRequest) (*models.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	if sess.IsComplete {
		return nil, ErrSessionComplete
	}

	if req.State != nil {
		if !ValidateState(req.State) {
			return nil, ErrValidation
		}
		doc := *req.State
		initTimerDefaults(&doc, time.Now())
		sess.State = doc
	}
	if req.Featured != nil {
		sess.Featured = req.Featured
	}
	if req.CostProfileID != nil {
		if _, err := s.presets.Get(ctx, *req.CostProfileID); err != nil {
			return nil, ErrNotFound
		}
		sess.CostProfileID = req.CostProfileID
	}
	if req.CostLimit != nil {
		sess.CostLimit = *req.CostLimit
	}
	if req.PenaltyPerPoint != nil {
		sess.PenaltyPerPoint = *req.PenaltyPerPoint
	}
	if req.IsComplete != nil && *req.IsComplete && !sess.IsComplete {
		sess.IsComplete = true
		now := time.Now()
		sess.CompletedAt = &now
	}

	sess.LastActivityAt = time.Now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist owner update: %w", err)
	}
	s.cache(ctx, sess)
	return sess, nil
}

// Delete removes an unfinished session. Complete sessions are immutable.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.OwnerID != ownerID {
		return ErrUnauthorized
	}
	if sess.IsComplete {
		return ErrSessionComplete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.redis.Del(ctx, cacheKey(id)).Err()
	return nil
}

func (s *Service) Recent(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	return s.repo.Recent(ctx, limit, offset)
}

func (s *Service) Live(ctx context.Context, windowMinutes, limit, offset int) ([]*models.Session, error) {
	return s.repo.Live(ctx, windowMinutes, limit, offset)
}

func (s *Service) ResolveToken(ctx context.Context, id, token string) (models.Side, error) {
	return s.repo.ResolveToken(ctx, id, token)
}

func cacheKey(id string) string {
	return fmt.Sprintf("session:state:%s", id)
}

func (s *Service) cache(ctx context.Context, sess *models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, cacheKey(sess.ID), data, sessionCacheTTL).Err()
}

func (s *Service) loadCached(ctx context.Context, id string) (*models.Session, error) {
	if data, err := s.redis.Get(ctx, cacheKey(id)).Result(); err == nil {
		var sess models.Session
		if json.Unmarshal([]byte(data), &sess) == nil {
			return &sess, nil
		}
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, sess)
	return sess, nil
}

func newSessionID() string {
	return uuid.New().String()[:22]
}

func newToken() string {
	id := uuid.New().String()
	return (id + uuid.New().String())[:20]
}
