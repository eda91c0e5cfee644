package session

import (
	"time"

	"github.com/draftarena/backend/internal/models"
)

// RejectionCode is one member of the closed rejection taxonomy the Reducer
// can return. The taxonomy is closed; handlers pass the code string through
// to the client unchanged.
type RejectionCode string

const (
	RejectInvalidArgument       RejectionCode = "invalid-argument"
	RejectWrongTurn             RejectionCode = "wrong-turn"
	RejectWrongSide             RejectionCode = "wrong-side"
	RejectSideLocked            RejectionCode = "side-locked"
	RejectGloballyBanned        RejectionCode = "globally-banned"
	RejectGloballyPickLocked    RejectionCode = "globally-pick-locked"
	RejectAlreadyPickedThisSide RejectionCode = "already-picked-this-side"
	RejectNotABanSlot           RejectionCode = "not-a-ban-slot"
	RejectIsABanSlot            RejectionCode = "is-a-ban-slot"
	RejectEmptySlot             RejectionCode = "empty-slot"
	RejectNothingToUndo         RejectionCode = "nothing-to-undo"
	RejectDraftComplete         RejectionCode = "draft-complete"
	RejectDraftAlreadyComplete  RejectionCode = "draft-already-completed"
)

// Rejection is the Reducer's error return: a tagged, closed rejection, never
// a generic error. A nil Rejection means the action was accepted.
type Rejection struct {
	Code RejectionCode
}

func reject(code RejectionCode) *Rejection { return &Rejection{Code: code} }

// Op names the player action being applied.
type Op string

const (
	OpPick          Op = "pick"
	OpBan           Op = "ban"
	OpSetEidolon    Op = "setEidolon"
	OpSetSuperimpose Op = "setSuperimpose"
	OpSetAccessory  Op = "setAccessory"
	OpSetLock       Op = "setLock"
	OpUndoLast      Op = "undoLast"
)

// Action is the closed sum type an incoming action envelope is parsed into
// before it reaches the Reducer; the Reducer never branches on weak types.
type Action struct {
	Op            Op
	Index         *int
	CharacterCode string
	Eidolon       *int
	Superimpose   *int
	AccessoryID   *string
	Locked        *bool
	UndoIndex     *int
}

// sideOf returns the side a turn token belongs to. A token that does not
// start with 'B' or 'R' is sideless and rejects every side-dependent check.
func sideOf(tok string) models.Side {
	if len(tok) == 0 {
		return models.SideNone
	}
	switch tok[0] {
	case 'B':
		return models.SideBlue
	case 'R':
		return models.SideRed
	default:
		return models.SideNone
	}
}

func isBanToken(tok string) bool {
	return tok == "BB" || tok == "RR"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reduce applies a single action to doc and returns the next state, or a
// Rejection leaving doc untouched. now drives the timer burn that precedes
// every mutation; Reduce is deterministic given (doc, featured, side, op, now).
func Reduce(doc *models.StateDocument, featured []models.FeaturedRule, side models.Side, action Action, now time.Time) (*models.StateDocument, *Rejection) {
	next := cloneState(doc)
	if action.Op == OpUndoLast {
		burnForUndo(next, now)
	} else {
		Burn(next, now)
	}

	switch action.Op {
	case OpPick:
		return reducePick(next, featured, side, action)
	case OpBan:
		return reduceBan(next, featured, side, action)
	case OpSetEidolon:
		return reduceSetField(next, side, action, func(s *models.Slot) *Rejection {
			if action.Eidolon == nil {
				return reject(RejectInvalidArgument)
			}
			s.Eidolon = clamp(*action.Eidolon, 0, 6)
			return nil
		})
	case OpSetSuperimpose:
		return reduceSetField(next, side, action, func(s *models.Slot) *Rejection {
			if action.Superimpose == nil {
				return reject(RejectInvalidArgument)
			}
			s.Superimpose = clamp(*action.Superimpose, 1, 5)
			return nil
		})
	case OpSetAccessory:
		return reduceSetField(next, side, action, func(s *models.Slot) *Rejection {
			if action.AccessoryID == nil {
				return reject(RejectInvalidArgument)
			}
			if *action.AccessoryID != "" && ruleMatches(featured, models.FeaturedKindAccessory, *action.AccessoryID, models.RuleGlobalBan) {
				return reject(RejectGloballyBanned)
			}
			s.AccessoryID = *action.AccessoryID
			return nil
		})
	case OpSetLock:
		return reduceSetLock(next, side, action)
	case OpUndoLast:
		return reduceUndoLast(next, side, action)
	default:
		return nil, reject(RejectInvalidArgument)
	}
}

func cloneState(doc *models.StateDocument) *models.StateDocument {
	next := *doc
	next.Picks = append([]models.Slot(nil), doc.Picks...)
	next.DraftSequence = append([]string(nil), doc.DraftSequence...)
	return &next
}

func ruleMatches(featured []models.FeaturedRule, kind models.FeaturedRuleKind, key string, effect models.FeaturedRuleEffect) bool {
	for _, r := range featured {
		if r.Kind == kind && r.Key() == key && r.Rule == effect {
			return true
		}
	}
	return false
}

func hasPriorPick(doc *models.StateDocument, side models.Side, characterCode string) bool {
	for i, tok := range doc.DraftSequence {
		if i >= len(doc.Picks) {
			break
		}
		if isBanToken(tok) {
			continue
		}
		if sideOf(tok) != side {
			continue
		}
		if doc.Picks[i].CharacterCode == characterCode {
			return true
		}
	}
	return false
}

func reducePick(doc *models.StateDocument, featured []models.FeaturedRule, side models.Side, action Action) (*models.StateDocument, *Rejection) {
	if action.Index == nil || action.CharacterCode == "" {
		return nil, reject(RejectInvalidArgument)
	}
	if locked(doc, side) {
		return nil, reject(RejectSideLocked)
	}
	if *action.Index != doc.CurrentTurn {
		return nil, reject(RejectWrongTurn)
	}
	if doc.CurrentTurn >= len(doc.DraftSequence) {
		return nil, reject(RejectDraftComplete)
	}
	tok := doc.DraftSequence[doc.CurrentTurn]
	if isBanToken(tok) {
		return nil, reject(RejectIsABanSlot)
	}
	if sideOf(tok) != side {
		return nil, reject(RejectWrongSide)
	}
	if ruleMatches(featured, models.FeaturedKindCharacter, action.CharacterCode, models.RuleGlobalBan) {
		return nil, reject(RejectGloballyBanned)
	}
	if hasPriorPick(doc, side, action.CharacterCode) {
		return nil, reject(RejectAlreadyPickedThisSide)
	}

	doc.Picks[doc.CurrentTurn] = models.Slot{CharacterCode: action.CharacterCode, Eidolon: 0, Superimpose: 1}
	doc.CurrentTurn++
	resetGrace(doc)
	return doc, nil
}

func reduceBan(doc *models.StateDocument, featured []models.FeaturedRule, side models.Side, action Action) (*models.StateDocument, *Rejection) {
	if action.Index == nil || action.CharacterCode == "" {
		return nil, reject(RejectInvalidArgument)
	}
	if locked(doc, side) {
		return nil, reject(RejectSideLocked)
	}
	if *action.Index != doc.CurrentTurn {
		return nil, reject(RejectWrongTurn)
	}
	if doc.CurrentTurn >= len(doc.DraftSequence) {
		return nil, reject(RejectDraftComplete)
	}
	tok := doc.DraftSequence[doc.CurrentTurn]
	if !isBanToken(tok) {
		return nil, reject(RejectNotABanSlot)
	}
	if sideOf(tok) != side {
		return nil, reject(RejectWrongSide)
	}
	if ruleMatches(featured, models.FeaturedKindCharacter, action.CharacterCode, models.RuleGlobalPick) {
		return nil, reject(RejectGloballyPickLocked)
	}

	doc.Picks[doc.CurrentTurn] = models.Slot{CharacterCode: action.CharacterCode, Eidolon: 0, Superimpose: 1}
	doc.CurrentTurn++
	resetGrace(doc)
	return doc, nil
}

func reduceSetField(doc *models.StateDocument, side models.Side, action Action, apply func(*models.Slot) *Rejection) (*models.StateDocument, *Rejection) {
	if action.Index == nil {
		return nil, reject(RejectInvalidArgument)
	}
	if locked(doc, side) {
		return nil, reject(RejectSideLocked)
	}
	idx := *action.Index
	if idx < 0 || idx >= len(doc.Picks) {
		return nil, reject(RejectInvalidArgument)
	}
	if doc.Picks[idx].IsEmpty() {
		return nil, reject(RejectEmptySlot)
	}
	if idx >= len(doc.DraftSequence) || sideOf(doc.DraftSequence[idx]) != side {
		return nil, reject(RejectWrongSide)
	}
	if isBanToken(doc.DraftSequence[idx]) {
		return nil, reject(RejectIsABanSlot)
	}
	slot := doc.Picks[idx]
	if rej := apply(&slot); rej != nil {
		return nil, rej
	}
	doc.Picks[idx] = slot
	return doc, nil
}

func reduceSetLock(doc *models.StateDocument, side models.Side, action Action) (*models.StateDocument, *Rejection) {
	if action.Locked == nil || !*action.Locked {
		return nil, reject(RejectInvalidArgument)
	}
	if doc.CurrentTurn != len(doc.DraftSequence) {
		return nil, reject(RejectDraftComplete)
	}
	switch side {
	case models.SideBlue:
		doc.BlueLocked = true
	case models.SideRed:
		doc.RedLocked = true
	default:
		return nil, reject(RejectWrongSide)
	}
	return doc, nil
}

// burnForUndo charges elapsed time to the side about to have its pick
// reverted (doc.CurrentTurn-1), not the side whose turn it currently is:
// undoing is what consumed the time since that pick, not the next turn.
// GraceLeft is a single, turn-scoped field already reset for the turn in
// progress (the other side's), so it cannot be spent on the reverted
// side's behalf the way Burn's normal grace-then-reserve drain does; the
// full elapsed span is debited straight from that side's reserve instead.
func burnForUndo(doc *models.StateDocument, now time.Time) {
	initTimerDefaults(doc, now)
	if !doc.TimerEnabled {
		return
	}
	lastIdx := doc.CurrentTurn - 1
	if lastIdx < 0 {
		doc.TimerUpdatedAt = now.UnixMilli()
		return
	}

	nowMs := now.UnixMilli()
	dtMs := nowMs - doc.TimerUpdatedAt
	if dtMs < 0 {
		dtMs = 0
	}
	dt := float64(dtMs) / 1000.0

	side := sideOf(doc.DraftSequence[lastIdx])
	frozen := isFirstBanSlotForSide(lastIdx, doc.DraftSequence)
	if side != models.SideNone && !pausedFor(doc, side) && !frozen {
		reserve := reserveFor(doc, side) - dt
		if reserve < 0 {
			reserve = 0
		}
		setReserveFor(doc, side, reserve)
	}
	doc.TimerUpdatedAt = nowMs
}

func reduceUndoLast(doc *models.StateDocument, side models.Side, action Action) (*models.StateDocument, *Rejection) {
	if locked(doc, side) {
		return nil, reject(RejectSideLocked)
	}
	lastIdx := doc.CurrentTurn - 1
	if lastIdx < 0 {
		return nil, reject(RejectNothingToUndo)
	}
	if action.UndoIndex != nil && *action.UndoIndex != lastIdx {
		return nil, reject(RejectInvalidArgument)
	}
	if sideOf(doc.DraftSequence[lastIdx]) != side {
		return nil, reject(RejectWrongSide)
	}
	if doc.Picks[lastIdx].IsEmpty() {
		return nil, reject(RejectNothingToUndo)
	}

	doc.Picks[lastIdx] = models.Slot{}
	doc.CurrentTurn = lastIdx
	resetGrace(doc)
	return doc, nil
}

func locked(doc *models.StateDocument, side models.Side) bool {
	switch side {
	case models.SideBlue:
		return doc.BlueLocked
	case models.SideRed:
		return doc.RedLocked
	default:
		return false
	}
}

// resetGrace re-initializes the per-turn grace window. timerUpdatedAt is not
// touched here: Burn already stamped it to now for the turn just concluded.
func resetGrace(doc *models.StateDocument) {
	doc.GraceLeft = GraceSeconds
}
