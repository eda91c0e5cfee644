package models

import (
	"encoding/json"
	"time"
)

// Side identifies one of the two competing sides in a draft session.
type Side string

const (
	SideBlue Side = "B"
	SideRed  Side = "R"
	SideNone Side = ""
)

// Session is the aggregate root for a live draft.
type Session struct {
	ID              string     `json:"id" db:"id"`
	OwnerID         string     `json:"ownerId" db:"owner_user_id"`
	Mode            string     `json:"mode" db:"mode"` // 2v2 | 3v3 | 2ban | 3ban | 6ban
	Team1           string     `json:"team1" db:"team1"`
	Team2           string     `json:"team2" db:"team2"`
	State           StateDocument `json:"state" db:"-"`
	Featured        []FeaturedRule `json:"featured" db:"-"`
	IsComplete      bool       `json:"isComplete" db:"is_complete"`
	CompletedAt     *time.Time `json:"completedAt" db:"completed_at"`
	LastActivityAt  time.Time  `json:"lastActivityAt" db:"last_activity_at"`
	BlueToken       string     `json:"blueToken,omitempty" db:"blue_token"`
	RedToken        string     `json:"redToken,omitempty" db:"red_token"`
	CostProfileID   *string    `json:"costProfileId" db:"cost_profile_id"`
	CostLimit       float64    `json:"costLimit" db:"cost_limit"`
	PenaltyPerPoint int        `json:"penaltyPerPoint" db:"penalty_per_point"`
}

// StateDocument is the structure the Reducer operates on. It is stored as a
// single JSON column; fields the Reducer does not know about (legacy aliases,
// display-only scores) round-trip untouched.
type StateDocument struct {
	DraftSequence []string `json:"draftSequence"`
	CurrentTurn   int      `json:"currentTurn"`
	Picks         []Slot   `json:"picks"`
	BlueScores    []float64 `json:"blueScores,omitempty"`
	RedScores     []float64 `json:"redScores,omitempty"`
	BlueLocked    bool     `json:"blueLocked,omitempty"`
	RedLocked     bool     `json:"redLocked,omitempty"`

	// Timer fields, present only when TimerEnabled. Zero-valued and
	// re-initialized by the timer engine when missing (legacy rows).
	TimerEnabled   bool      `json:"timerEnabled"`
	ReserveSeconds float64   `json:"reserveSeconds"`
	ReserveLeft    SideTimes `json:"reserveLeft"`
	GraceLeft      float64   `json:"graceLeft"`
	Paused         SidePause `json:"paused"`
	TimerUpdatedAt int64     `json:"timerUpdatedAt"` // unix millis
}

// SideTimes holds a per-side numeric value, used for reserve time remaining.
type SideTimes struct {
	B float64 `json:"B"`
	R float64 `json:"R"`
}

// SidePause holds a per-side pause flag.
type SidePause struct {
	B bool `json:"B"`
	R bool `json:"R"`
}

// Slot is the value written into picks[i]. For picks it carries the chosen
// character plus cosmetic/build fields; for bans the latter three are
// placeholders. JSON marshaling accepts and emits both the modern field
// names and the legacy aliases so that older clients keep working against
// the same row (spec'd row-shaping idempotence).
type Slot struct {
	CharacterCode string `json:"characterCode"`
	Eidolon       int    `json:"eidolon"`
	AccessoryID   string `json:"accessoryId,omitempty"`
	Superimpose   int    `json:"superimpose"`
}

// IsEmpty reports whether the slot has never been written.
func (s Slot) IsEmpty() bool {
	return s.CharacterCode == ""
}

type slotWire struct {
	CharacterCode string `json:"characterCode"`
	Eidolon       int    `json:"eidolon"`
	AccessoryID   string `json:"accessoryId,omitempty"`
	Superimpose   int    `json:"superimpose"`
	// Legacy aliases, read if the modern field is absent.
	LegacyAccessoryID string `json:"wengineId,omitempty"`
}

// MarshalJSON emits both the modern accessoryId key and the legacy wengineId
// alias so that a client still reading the old field name keeps working.
func (s Slot) MarshalJSON() ([]byte, error) {
	w := slotWire{
		CharacterCode:     s.CharacterCode,
		Eidolon:           s.Eidolon,
		AccessoryID:       s.AccessoryID,
		Superimpose:       s.Superimpose,
		LegacyAccessoryID: s.AccessoryID,
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts either the modern accessoryId field or the legacy
// wengineId alias, preferring the modern one when both are present.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var w slotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.CharacterCode = w.CharacterCode
	s.Eidolon = w.Eidolon
	s.Superimpose = w.Superimpose
	if w.AccessoryID != "" {
		s.AccessoryID = w.AccessoryID
	} else {
		s.AccessoryID = w.LegacyAccessoryID
	}
	return nil
}

// FeaturedRuleKind discriminates the FeaturedRule tagged union.
type FeaturedRuleKind string

const (
	FeaturedKindCharacter FeaturedRuleKind = "character"
	FeaturedKindAccessory FeaturedRuleKind = "accessory"
)

// FeaturedRuleEffect is the restriction or boost a FeaturedRule applies.
type FeaturedRuleEffect string

const (
	RuleNone       FeaturedRuleEffect = "none"
	RuleGlobalBan  FeaturedRuleEffect = "globalBan"
	RuleGlobalPick FeaturedRuleEffect = "globalPick"
)

// FeaturedRule is a server-validated override applied at action time.
// Character rules carry Code; accessory rules carry ID. Unknown rule values
// coerce to RuleNone and unknown fields are discarded at decode time; an
// accessory rule with RuleGlobalPick makes no sense (there's no "globally
// picked" accessory slot) and is coerced to RuleNone on decode too.
type FeaturedRule struct {
	Kind       FeaturedRuleKind   `json:"kind"`
	Code       string             `json:"code,omitempty"`
	ID         string             `json:"id,omitempty"`
	Rule       FeaturedRuleEffect `json:"rule"`
	CustomCost *int               `json:"customCost,omitempty"`
}

// Key returns the character code or accessory id this rule governs.
func (r FeaturedRule) Key() string {
	if r.Kind == FeaturedKindAccessory {
		return r.ID
	}
	return r.Code
}

// UnmarshalJSON coerces unrecognized Rule values to RuleNone, matching the
// "unknown rule values coerce to none" requirement, and coerces an
// accessory+globalPick combination to RuleNone since accessories have no
// pick-lock effect to apply.
func (r *FeaturedRule) UnmarshalJSON(data []byte) error {
	type wire FeaturedRule
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Rule {
	case RuleNone, RuleGlobalBan, RuleGlobalPick:
	default:
		w.Rule = RuleNone
	}
	if w.Kind == FeaturedKindAccessory && w.Rule == RuleGlobalPick {
		w.Rule = RuleNone
	}
	*r = FeaturedRule(w)
	return nil
}

// CostPreset is a per-owner named map from entity identifiers to cost
// vectors, joined at session-read time for display.
type CostPreset struct {
	ID            string             `json:"id" db:"id"`
	OwnerID       string             `json:"ownerId" db:"owner_user_id"`
	Name          string             `json:"name" db:"name"`
	CharCost      map[string][7]int  `json:"charCost" db:"-"`
	AccessoryCost map[string][5]int  `json:"accessoryCost" db:"-"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" db:"updated_at"`
}
