package models

// RawStandings is one date's provider payload keyed by division
type RawStandings map[DivisionID]RawDivision

// RawDivision is a division as reported by the provider
type RawDivision struct {
	Name  string
	Teams []RawTeam
}

// RawTeam is a single team record as reported by the provider
type RawTeam struct {
	TeamID TeamID
	Name   string
	Wins   int
	Losses int
}

// GamesPlayed returns wins + losses
func (t RawTeam) GamesPlayed() int {
	return t.Wins + t.Losses
}

// Empty reports whether the payload holds no divisions
func (r RawStandings) Empty() bool {
	return len(r) == 0
}

// MaxGamesPlayed returns the highest games-played of any team in the payload
func (r RawStandings) MaxGamesPlayed() int {
	most := 0
	for _, div := range r {
		for _, t := range div.Teams {
			if t.GamesPlayed() > most {
				most = t.GamesPlayed()
			}
		}
	}
	return most
}

// StandingsResponse is the MLB Stats API /standings payload
type StandingsResponse struct {
	Records []StandingsRecordInput `json:"records"`
}

// StandingsRecordInput is one division block of the /standings payload
type StandingsRecordInput struct {
	StandingsType string            `json:"standingsType"`
	League        IDNameInput       `json:"league"`
	Division      IDNameInput       `json:"division"`
	TeamRecords   []TeamRecordInput `json:"teamRecords"`
}

// TeamRecordInput is a team's line in a division block
type TeamRecordInput struct {
	Team         TeamInput `json:"team"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	DivisionRank string    `json:"divisionRank"`
	GamesBack    string    `json:"gamesBack"`
}

// TeamInput is the team object; Division is only present with hydrate=team(division)
type TeamInput struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Division *IDNameInput `json:"division,omitempty"`
}

// IDNameInput is the common {id, name} reference object
type IDNameInput struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// ToRawStandings converts the API payload to the provider-neutral shape.
// Division names come from the hydrated team division when the record lacks one.
func (r *StandingsResponse) ToRawStandings() RawStandings {
	out := make(RawStandings)
	for _, rec := range r.Records {
		if rec.StandingsType != "" && rec.StandingsType != "regularSeason" {
			continue
		}
		if len(rec.TeamRecords) == 0 {
			continue
		}
		id := DivisionID(rec.Division.ID)
		div := out[id]
		if div.Name == "" {
			div.Name = rec.Division.Name
		}
		seen := make(map[TeamID]struct{}, len(div.Teams))
		for _, t := range div.Teams {
			seen[t.TeamID] = struct{}{}
		}
		for _, tr := range rec.TeamRecords {
			if div.Name == "" && tr.Team.Division != nil {
				div.Name = tr.Team.Division.Name
			}
			teamID := TeamID(tr.Team.ID)
			if _, dup := seen[teamID]; dup {
				continue
			}
			seen[teamID] = struct{}{}
			div.Teams = append(div.Teams, RawTeam{
				TeamID: teamID,
				Name:   tr.Team.Name,
				Wins:   tr.Wins,
				Losses: tr.Losses,
			})
		}
		out[id] = div
	}
	return out
}
