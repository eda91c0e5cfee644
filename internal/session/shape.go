package session

import "github.com/draftarena/backend/internal/models"

const defaultPenaltyPerPoint = 2500

// ShapedSession is the transport-facing view of a Session: identifiers
// renamed to the opaque camelCase wire keys, costLimit coerced to a number,
// penaltyPerPoint defaulted, and the joined cost profile (if any) embedded.
// Building one is idempotent: shaping an already-shaped session a second
// time produces the same payload.
type ShapedSession struct {
	ID              string                `json:"id"`
	OwnerID         string                `json:"ownerId"`
	Mode            string                `json:"mode"`
	Team1           string                `json:"team1"`
	Team2           string                `json:"team2"`
	State           models.StateDocument  `json:"state"`
	Featured        []models.FeaturedRule `json:"featured"`
	IsComplete      bool                  `json:"isComplete"`
	CompletedAt     *int64                `json:"completedAt"`
	LastActivityAt  int64                 `json:"lastActivityAt"`
	CostProfileID   *string               `json:"costProfileId"`
	CostLimit       float64               `json:"costLimit"`
	PenaltyPerPoint int                   `json:"penaltyPerPoint"`
	CostProfile     *models.CostPreset    `json:"costProfile,omitempty"`
}

// ShapeSession normalizes a session row for transport. preset may be nil;
// when present it is the row referenced by s.CostProfileID, embedded as
// costProfile.
func ShapeSession(s *models.Session, preset *models.CostPreset) ShapedSession {
	penalty := s.PenaltyPerPoint
	if penalty == 0 {
		penalty = defaultPenaltyPerPoint
	}

	var completedAt *int64
	if s.CompletedAt != nil {
		ms := s.CompletedAt.UnixMilli()
		completedAt = &ms
	}

	shaped := ShapedSession{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		Mode:            s.Mode,
		Team1:           s.Team1,
		Team2:           s.Team2,
		State:           normalizeSlots(s.State),
		Featured:        s.Featured,
		IsComplete:      s.IsComplete,
		CompletedAt:     completedAt,
		LastActivityAt:  s.LastActivityAt.UnixMilli(),
		CostProfileID:   s.CostProfileID,
		CostLimit:       s.CostLimit,
		PenaltyPerPoint: penalty,
	}
	if preset != nil {
		shaped.CostProfile = preset
	}
	return shaped
}

// normalizeSlots copies the Picks slice so the shaped view doesn't alias the
// session's own backing array; Slot's MarshalJSON handles populating both
// the legacy and modern field aliases at encode time.
func normalizeSlots(doc models.StateDocument) models.StateDocument {
	out := doc
	out.Picks = make([]models.Slot, len(doc.Picks))
	copy(out.Picks, doc.Picks)
	return out
}

// DefaultCostLimit returns the spec's default costLimit for a mode: 6 for
// the 2-ban/2v2 variants, 9 for the 3-ban/3v3 variants.
func DefaultCostLimit(mode string) float64 {
	switch mode {
	case "2ban", "2v2":
		return 6
	case "3ban", "3v3":
		return 9
	default:
		return 9
	}
}
