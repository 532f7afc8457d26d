package engine

import "slices"

func NewBattle() *Battle {
	return &Battle{
		Round:     1,
		MaxRounds: MaxRounds,
		HPMax:     HPMax,
		ManaMax:   ManaMax,
		HP:        Sides[int]{Host: HPMax, Guest: HPMax},
		Mana:      Sides[int]{Host: ManaMax, Guest: ManaMax},
		Used:      Sides[[]Ability]{Host: []Ability{}, Guest: []Ability{}},
	}
}

// Snapshot returns a copy that shares no slices with b.
func (b *Battle) Snapshot() Battle {
	s := *b
	s.Used = Sides[[]Ability]{Host: slices.Clone(b.Used.Host), Guest: slices.Clone(b.Used.Guest)}
	return s
}

// CountUsed tallies each ability type, zero-filled for unused ones.
func CountUsed(list []Ability) map[Ability]int {
	counts := make(map[Ability]int, len(Abilities))
	for _, a := range Abilities {
		counts[a] = 0
	}
	for _, a := range list {
		if a.Valid() {
			counts[a]++
		}
	}
	return counts
}
