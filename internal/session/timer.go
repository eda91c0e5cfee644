package session

import (
	"time"

	"github.com/draftarena/backend/internal/models"
)

// GraceSeconds is the per-turn free-time window preceding reserve
// consumption, reset on every turn change.
const GraceSeconds = 30.0

// Burn debits elapsed wall-clock time since the document's last checkpoint
// into the active side's grace window, then its reserve. Read-time views and
// every action except undoLast call it before doing anything else; undoLast
// debits through burnForUndo in reducer.go instead. Burn is a no-op on a
// document with TimerEnabled false other than materializing defaults.
func Burn(doc *models.StateDocument, now time.Time) {
	initTimerDefaults(doc, now)
	if !doc.TimerEnabled {
		return
	}

	nowMs := now.UnixMilli()
	if doc.CurrentTurn >= len(doc.DraftSequence) {
		doc.TimerUpdatedAt = nowMs
		return
	}

	tok := doc.DraftSequence[doc.CurrentTurn]
	side := sideOf(tok)
	frozen := isFirstBanSlotForSide(doc.CurrentTurn, doc.DraftSequence)

	dtMs := nowMs - doc.TimerUpdatedAt
	if dtMs < 0 {
		dtMs = 0
	}
	dt := float64(dtMs) / 1000.0

	if side == models.SideNone || pausedFor(doc, side) || frozen {
		doc.TimerUpdatedAt = nowMs
		return
	}

	if dt <= doc.GraceLeft {
		doc.GraceLeft -= dt
	} else {
		dt -= doc.GraceLeft
		doc.GraceLeft = 0
		reserve := reserveFor(doc, side) - dt
		if reserve < 0 {
			reserve = 0
		}
		setReserveFor(doc, side, reserve)
	}
	doc.TimerUpdatedAt = nowMs
}

// isFirstBanSlotForSide reports whether idx is the first occurrence of its
// own turn token among ban slots, which the rules freeze: no clock runs
// against it.
func isFirstBanSlotForSide(idx int, seq []string) bool {
	if idx < 0 || idx >= len(seq) {
		return false
	}
	tok := seq[idx]
	if !isBanToken(tok) {
		return false
	}
	for i := 0; i < idx; i++ {
		if seq[i] == tok {
			return false
		}
	}
	return true
}

func pausedFor(doc *models.StateDocument, side models.Side) bool {
	switch side {
	case models.SideBlue:
		return doc.Paused.B
	case models.SideRed:
		return doc.Paused.R
	default:
		return false
	}
}

func reserveFor(doc *models.StateDocument, side models.Side) float64 {
	switch side {
	case models.SideBlue:
		return doc.ReserveLeft.B
	case models.SideRed:
		return doc.ReserveLeft.R
	default:
		return 0
	}
}

func setReserveFor(doc *models.StateDocument, side models.Side, v float64) {
	switch side {
	case models.SideBlue:
		doc.ReserveLeft.B = v
	case models.SideRed:
		doc.ReserveLeft.R = v
	}
}

// initTimerDefaults materializes timer fields on a document that predates
// timer support (or had it disabled), so that every downstream reader can
// assume the fields are present.
func initTimerDefaults(doc *models.StateDocument, now time.Time) {
	if doc.TimerUpdatedAt != 0 {
		return
	}
	doc.GraceLeft = GraceSeconds
	doc.TimerUpdatedAt = now.UnixMilli()
}

// TimerSnapshot is the minimal timer payload broadcast to spectators on
// every hub tick.
type TimerSnapshot struct {
	TimerEnabled   bool      `json:"timerEnabled"`
	Paused         models.SidePause `json:"paused"`
	ReserveLeft    models.SideTimes `json:"reserveLeft"`
	GraceLeft      float64   `json:"graceLeft"`
	TimerUpdatedAt int64     `json:"timerUpdatedAt"`
	CurrentTurn    int       `json:"currentTurn"`
}

// Snapshot extracts the broadcast-facing timer view from a state document
// already burned forward to now.
func Snapshot(doc *models.StateDocument) TimerSnapshot {
	return TimerSnapshot{
		TimerEnabled:   doc.TimerEnabled,
		Paused:         doc.Paused,
		ReserveLeft:    doc.ReserveLeft,
		GraceLeft:      doc.GraceLeft,
		TimerUpdatedAt: doc.TimerUpdatedAt,
		CurrentTurn:    doc.CurrentTurn,
	}
}
