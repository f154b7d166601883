package models

import "fmt"

// DivisionID identifies a division (e.g. 201 = AL East). Stable within a season.
type DivisionID int

// TeamID identifies a franchise in the MLB Stats API
type TeamID int

// NullTeamID is a TeamID that may be unknown.
// Standings reloaded from a season document never carry ids.
type NullTeamID struct {
	TeamID TeamID
	Valid  bool
}

// KnownTeam returns a valid NullTeamID
func KnownTeam(id TeamID) NullTeamID {
	return NullTeamID{TeamID: id, Valid: true}
}

// Matches reports whether two ids may refer to the same team.
// An unknown id matches anything.
func (n NullTeamID) Matches(o NullTeamID) bool {
	if !n.Valid || !o.Valid {
		return true
	}
	return n.TeamID == o.TeamID
}

func (n NullTeamID) String() string {
	if !n.Valid {
		return "?"
	}
	return fmt.Sprintf("%d", n.TeamID)
}

// TeamStanding is one team's cumulative record on a given day
type TeamStanding struct {
	Team   NullTeamID
	Wins   int
	Losses int

	// Missing is set when the team was absent from the day's payload.
	// Wins and Losses carry no meaning until the reconciler fills it in.
	Missing bool
}

// NewStanding returns a standing for a known team
func NewStanding(id TeamID, wins, losses int) TeamStanding {
	return TeamStanding{Team: KnownTeam(id), Wins: wins, Losses: losses}
}

// MissingStanding returns the placeholder for a team absent from a payload
func MissingStanding() TeamStanding {
	return TeamStanding{Missing: true}
}

// GamesPlayed returns wins + losses
func (s TeamStanding) GamesPlayed() int {
	return s.Wins + s.Losses
}

// Equal compares records, ignoring team ids when either side is unknown
func (s TeamStanding) Equal(o TeamStanding) bool {
	if s.Missing || o.Missing {
		return s.Missing == o.Missing
	}
	if !s.Team.Matches(o.Team) {
		return false
	}
	return s.Wins == o.Wins && s.Losses == o.Losses
}

func (s TeamStanding) String() string {
	if s.Missing {
		return "missing"
	}
	return fmt.Sprintf("%d-%d", s.Wins, s.Losses)
}
