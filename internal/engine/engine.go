package engine

import "time"

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Roles lists both sides in resolution order.
var Roles = []Role{RoleHost, RoleGuest}

func (r Role) Valid() bool { return r == RoleHost || r == RoleGuest }

func (r Role) Opponent() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

type Winner string

const (
	WinnerHost  Winner = "host"
	WinnerGuest Winner = "guest"
	WinnerDraw  Winner = "draw"
)

type Reason string

const (
	ReasonBothChosen Reason = "both_chosen"
	ReasonTimeout    Reason = "timeout"
)

type Phase string

const (
	PhaseTurnInProgress Phase = "turn_in_progress"
	PhaseTurnResolved   Phase = "turn_resolved"
	PhaseRoundOver      Phase = "round_over"
	PhaseMatchOver      Phase = "match_over"
)

const (
	HPMax           = 30
	ManaMax         = 10
	ManaRegen       = 2
	MaxRounds       = 3
	WinsToTakeMatch = 2
	TurnDuration    = 15 * time.Second
)

// Sides holds one value per role.
type Sides[T any] struct {
	Host  T `json:"host"`
	Guest T `json:"guest"`
}

func (s Sides[T]) Get(r Role) T {
	if r == RoleGuest {
		return s.Guest
	}
	return s.Host
}

func (s *Sides[T]) Set(r Role, v T) {
	if r == RoleGuest {
		s.Guest = v
		return
	}
	s.Host = v
}

// Battle is the state of one match in progress. It is not safe for
// concurrent use; the owning room serializes every call.
type Battle struct {
	Phase      Phase            `json:"-"`
	Round      int              `json:"round"`
	MaxRounds  int              `json:"maxRounds"`
	HPMax      int              `json:"hpMax"`
	ManaMax    int              `json:"manaMax"`
	HP         Sides[int]       `json:"hp"`
	Mana       Sides[int]       `json:"mana"`
	Score      Sides[int]       `json:"score"`
	Actions    Sides[Ability]   `json:"-"` // pending choices never leave the room
	TurnNo     int              `json:"turnNo"`
	DeadlineTs int64            `json:"deadlineTs"` // unix millis, 0 until the first turn starts
	Used       Sides[[]Ability] `json:"used"`
}

type EventType string

const (
	EvtTurnStarted EventType = "turnStart"
	EvtTurnEnded   EventType = "turnEnd"
	EvtRoundOver   EventType = "roundOver"
	EvtBattleOver  EventType = "battleOver"
)

type Event interface{ Type() EventType }

type TurnStarted struct {
	Round      int   `json:"round"`
	MaxRounds  int   `json:"maxRounds"`
	TurnNo     int   `json:"turnNo"`
	DeadlineTs int64 `json:"deadlineTs"`
}

// TurnEnded reports one resolution. Damage is keyed by the side that dealt it.
type TurnEnded struct {
	Reason         Reason         `json:"reason"`
	Round          int            `json:"round"`
	TurnNo         int            `json:"turnNo"`
	RawActions     Sides[Ability] `json:"rawActions"`
	HonoredActions Sides[Ability] `json:"honoredActions"`
	Damage         Sides[int]     `json:"damage"`
	HP             Sides[int]     `json:"hp"`
	Mana           Sides[int]     `json:"mana"`
}

type RoundOver struct {
	Round  int        `json:"round"`
	Winner Winner     `json:"winner"`
	HP     Sides[int] `json:"hp"`
	Score  Sides[int] `json:"score"`
}

type BattleOver struct {
	MatchWinner Winner                 `json:"matchWinner"`
	Score       Sides[int]             `json:"score"`
	Used        Sides[map[Ability]int] `json:"used"`
}

func (TurnStarted) Type() EventType { return EvtTurnStarted }
func (TurnEnded) Type() EventType   { return EvtTurnEnded }
func (RoundOver) Type() EventType   { return EvtRoundOver }
func (BattleOver) Type() EventType  { return EvtBattleOver }

// StartTurn clears pending actions and opens the next turn. Arming the
// deadline is up to the caller.
func (b *Battle) StartTurn(now time.Time, d time.Duration) TurnStarted {
	b.Actions = Sides[Ability]{}
	b.TurnNo++
	b.DeadlineTs = now.Add(d).UnixMilli()
	b.Phase = PhaseTurnInProgress

	return TurnStarted{
		Round:      b.Round,
		MaxRounds:  b.MaxRounds,
		TurnNo:     b.TurnNo,
		DeadlineTs: b.DeadlineTs,
	}
}

// Submit records role's choice for the open turn. It reports false, and
// changes nothing, when the turn is closed, the ability is unknown or the
// side already chose.
func (b *Battle) Submit(role Role, a Ability) bool {
	if b.Phase != PhaseTurnInProgress || !role.Valid() || !a.Valid() {
		return false
	}
	if b.Actions.Get(role) != AbilityNone {
		return false
	}
	b.Actions.Set(role, a)
	return true
}

func (b *Battle) BothChosen() bool {
	return b.Actions.Host != AbilityNone && b.Actions.Guest != AbilityNone
}

func (b *Battle) Over() bool { return b.Phase == PhaseMatchOver }

// ResolveTurn closes the open turn and returns what happened, in order:
// TurnEnded, then RoundOver and BattleOver when they apply. Calling it on a
// turn that is already resolved returns nil.
func (b *Battle) ResolveTurn(reason Reason) []Event {
	if b.Phase != PhaseTurnInProgress {
		return nil
	}

	raw := b.Actions
	var honored Sides[Ability]
	for _, r := range Roles {
		a := raw.Get(r)
		if !canAfford(b, r, a) {
			continue
		}
		honored.Set(r, a)
		b.Mana.Set(r, b.Mana.Get(r)-a.Cost())
		b.Used.Set(r, append(b.Used.Get(r), a))
	}

	byHost, byGuest := Resolve(honored.Host, honored.Guest)
	b.HP.Guest = max(0, b.HP.Guest-byHost)
	b.HP.Host = max(0, b.HP.Host-byGuest)

	b.Mana.Host = min(b.ManaMax, b.Mana.Host+ManaRegen)
	b.Mana.Guest = min(b.ManaMax, b.Mana.Guest+ManaRegen)
	b.Phase = PhaseTurnResolved

	events := []Event{TurnEnded{
		Reason:         reason,
		Round:          b.Round,
		TurnNo:         b.TurnNo,
		RawActions:     raw,
		HonoredActions: honored,
		Damage:         Sides[int]{Host: byHost, Guest: byGuest},
		HP:             b.HP,
		Mana:           b.Mana,
	}}

	if b.HP.Host == 0 || b.HP.Guest == 0 {
		events = append(events, b.resolveRound()...)
	}
	return events
}

func (b *Battle) resolveRound() []Event {
	winner := WinnerDraw
	switch {
	case b.HP.Host == 0 && b.HP.Guest > 0:
		winner = WinnerGuest
	case b.HP.Guest == 0 && b.HP.Host > 0:
		winner = WinnerHost
	}
	switch winner {
	case WinnerHost:
		b.Score.Host++
	case WinnerGuest:
		b.Score.Guest++
	}
	b.Phase = PhaseRoundOver

	over := RoundOver{Round: b.Round, Winner: winner, HP: b.HP, Score: b.Score}

	// Early finish: a side took the match before the rounds ran out.
	if b.Score.Host >= WinsToTakeMatch || b.Score.Guest >= WinsToTakeMatch {
		matchWinner := WinnerGuest
		if b.Score.Host >= WinsToTakeMatch {
			matchWinner = WinnerHost
		}
		b.Phase = PhaseMatchOver
		return []Event{over, b.battleOver(matchWinner)}
	}

	if b.Round >= b.MaxRounds {
		matchWinner := WinnerDraw
		switch {
		case b.Score.Host > b.Score.Guest:
			matchWinner = WinnerHost
		case b.Score.Guest > b.Score.Host:
			matchWinner = WinnerGuest
		}
		b.Phase = PhaseMatchOver
		return []Event{over, b.battleOver(matchWinner)}
	}

	b.Round++
	b.HP = Sides[int]{Host: b.HPMax, Guest: b.HPMax}
	b.Mana = Sides[int]{Host: b.ManaMax, Guest: b.ManaMax}
	return []Event{over}
}

func (b *Battle) battleOver(w Winner) BattleOver {
	return BattleOver{
		MatchWinner: w,
		Score:       b.Score,
		Used: Sides[map[Ability]int]{
			Host:  CountUsed(b.Used.Host),
			Guest: CountUsed(b.Used.Guest),
		},
	}
}

func canAfford(b *Battle, r Role, a Ability) bool {
	return a.Valid() && a.Cost() <= b.Mana.Get(r)
}
