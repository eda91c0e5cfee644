package session

import (
	"github.com/draftarena/backend/internal/models"
)

// ActionRequest is the wire envelope for POST /sessions/:id/actions. Legacy
// aliases are accepted alongside the modern field/op names: setMindscape →
// setEidolon, setWengine → setAccessory, wengineId → accessoryId,
// phase → superimpose.
type ActionRequest struct {
	Op            string `json:"op" binding:"required"`
	PlayerToken   string `json:"pt" binding:"required"`
	Index         *int   `json:"index"`
	CharacterCode string `json:"characterCode"`
	Eidolon       *int   `json:"eidolon"`
	Superimpose   *int   `json:"superimpose"`
	AccessoryID   *string `json:"accessoryId"`
	LegacyAccessoryID *string `json:"wengineId"`
	LegacySuperimpose *int `json:"phase"`
	Locked        *bool  `json:"locked"`
}

var legacyOpAliases = map[string]Op{
	"pick":            OpPick,
	"ban":             OpBan,
	"setEidolon":      OpSetEidolon,
	"setMindscape":    OpSetEidolon,
	"setSuperimpose":  OpSetSuperimpose,
	"setAccessory":    OpSetAccessory,
	"setWengine":      OpSetAccessory,
	"setLock":         OpSetLock,
	"undoLast":        OpUndoLast,
}

// ToAction parses the wire envelope into the closed Action sum type the
// Reducer consumes, resolving every legacy alias before the Reducer ever
// sees the request.
func (r *ActionRequest) ToAction() (Action, bool) {
	op, ok := legacyOpAliases[r.Op]
	if !ok {
		return Action{}, false
	}

	accessoryID := r.AccessoryID
	if accessoryID == nil {
		accessoryID = r.LegacyAccessoryID
	}
	superimpose := r.Superimpose
	if superimpose == nil {
		superimpose = r.LegacySuperimpose
	}

	return Action{
		Op:            op,
		Index:         r.Index,
		CharacterCode: r.CharacterCode,
		Eidolon:       r.Eidolon,
		Superimpose:   superimpose,
		AccessoryID:   accessoryID,
		Locked:        r.Locked,
		UndoIndex:     r.Index,
	}, true
}

// CreateSessionRequest is the owner-authenticated request to seed a new
// draft session.
type CreateSessionRequest struct {
	Mode            string                `json:"mode" binding:"required,oneof=2v2 3v3 2ban 3ban 6ban"`
	Team1           string                `json:"team1" binding:"required"`
	Team2           string                `json:"team2" binding:"required"`
	DraftSequence   []string              `json:"draftSequence" binding:"required,min=1"`
	Featured        []models.FeaturedRule `json:"featured"`
	TimerEnabled    bool                  `json:"timerEnabled"`
	ReserveSeconds  float64               `json:"reserveSeconds"`
	CostProfileID   *string               `json:"costProfileId"`
	CostLimit       *float64              `json:"costLimit"`
	PenaltyPerPoint *int                  `json:"penaltyPerPoint"`
}

// OwnerUpdateRequest is a partial, owner-authenticated update to a session
// row. Owner updates bypass the Reducer and write state verbatim after
// shape validation; they never burn the timer or advance currentTurn.
type OwnerUpdateRequest struct {
	State           *models.StateDocument `json:"state"`
	IsComplete      *bool                 `json:"isComplete"`
	Featured        []models.FeaturedRule `json:"featured"`
	CostProfileID   *string               `json:"costProfileId"`
	CostLimit       *float64              `json:"costLimit"`
	PenaltyPerPoint *int                  `json:"penaltyPerPoint"`
}

// ValidateState checks the shape invariants an owner-supplied state document
// must satisfy before it is accepted verbatim: (I1) picks[i] non-empty iff
// i < currentTurn, and picks has the same length as draftSequence.
func ValidateState(doc *models.StateDocument) bool {
	if len(doc.Picks) != len(doc.DraftSequence) {
		return false
	}
	if doc.CurrentTurn < 0 || doc.CurrentTurn > len(doc.DraftSequence) {
		return false
	}
	for i, slot := range doc.Picks {
		if i < doc.CurrentTurn && slot.IsEmpty() {
			return false
		}
		if i >= doc.CurrentTurn && !slot.IsEmpty() {
			return false
		}
	}
	return true
}
