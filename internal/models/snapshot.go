package models

import "sort"

// DaySnapshot maps each division to its standings ordered by team name
type DaySnapshot map[DivisionID][]TeamStanding

// Equal reports whether two snapshots hold the same records.
// Team ids are only compared where both sides know them.
func (s DaySnapshot) Equal(o DaySnapshot) bool {
	if s == nil || o == nil {
		return false
	}
	if len(s) != len(o) {
		return false
	}
	for id, standings := range s {
		other, ok := o[id]
		if !ok || len(standings) != len(other) {
			return false
		}
		for i := range standings {
			if !standings[i].Equal(other[i]) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy
func (s DaySnapshot) Clone() DaySnapshot {
	out := make(DaySnapshot, len(s))
	for id, standings := range s {
		out[id] = append([]TeamStanding(nil), standings...)
	}
	return out
}

// Zeroed returns the same layout with every record at 0-0.
// Team ids are kept; missing entries become known 0-0 records.
func (s DaySnapshot) Zeroed() DaySnapshot {
	out := make(DaySnapshot, len(s))
	for id, standings := range s {
		zeroed := make([]TeamStanding, len(standings))
		for i, st := range standings {
			zeroed[i] = TeamStanding{Team: st.Team}
		}
		out[id] = zeroed
	}
	return out
}

// IsZero reports whether no team has played a game
func (s DaySnapshot) IsZero() bool {
	return s.MaxGamesPlayed() == 0
}

// MaxGamesPlayed returns the highest games-played of any present team
func (s DaySnapshot) MaxGamesPlayed() int {
	most := 0
	for _, standings := range s {
		for _, st := range standings {
			if !st.Missing && st.GamesPlayed() > most {
				most = st.GamesPlayed()
			}
		}
	}
	return most
}

// GamesPlayedSpread returns the lowest and highest games-played over present teams
func (s DaySnapshot) GamesPlayedSpread() (lo, hi int, ok bool) {
	for _, id := range s.DivisionIDs() {
		for _, st := range s[id] {
			if st.Missing {
				continue
			}
			gp := st.GamesPlayed()
			if !ok {
				lo, hi, ok = gp, gp, true
				continue
			}
			if gp < lo {
				lo = gp
			}
			if gp > hi {
				hi = gp
			}
		}
	}
	return lo, hi, ok
}

// DivisionIDs returns the snapshot's division ids in ascending order
func (s DaySnapshot) DivisionIDs() []DivisionID {
	ids := make([]DivisionID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
