package engine

import "encoding/json"

type Ability string

const (
	AbilityNone   Ability = ""
	AbilityFire   Ability = "fire"
	AbilityIce    Ability = "ice"
	AbilityShield Ability = "shield"
)

var Abilities = []Ability{AbilityFire, AbilityIce, AbilityShield}

type abilityStats struct {
	Cost   int
	Damage int
}

var abilityTable = map[Ability]abilityStats{
	AbilityFire:   {Cost: 3, Damage: 7},
	AbilityIce:    {Cost: 5, Damage: 5},
	AbilityShield: {Cost: 2, Damage: 0},
}

// beats maps each ability to the one it nullifies.
var beats = map[Ability]Ability{
	AbilityFire:   AbilityIce,
	AbilityIce:    AbilityShield,
	AbilityShield: AbilityFire,
}

func (a Ability) Valid() bool {
	_, ok := abilityTable[a]
	return ok
}

func (a Ability) Cost() int   { return abilityTable[a].Cost }
func (a Ability) Damage() int { return abilityTable[a].Damage }

// MarshalJSON encodes AbilityNone as null.
func (a Ability) MarshalJSON() ([]byte, error) {
	if a == AbilityNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

// Beats reports whether a nullifies b's damage.
func Beats(a, b Ability) bool {
	return a.Valid() && beats[a] == b
}

// Resolve returns the damage dealt by each side for one exchange. An absent
// ability deals nothing and beats nothing; identical picks cancel out.
func Resolve(a, b Ability) (dealtByA, dealtByB int) {
	if a != AbilityNone && a == b {
		return 0, 0
	}
	dealtByA, dealtByB = a.Damage(), b.Damage()
	if Beats(a, b) {
		dealtByB = 0
	}
	if Beats(b, a) {
		dealtByA = 0
	}
	return dealtByA, dealtByB
}
