package models

import (
	"fmt"
	"sort"
)

// DivisionInfo describes one division for a season
type DivisionInfo struct {
	DivisionID DivisionID
	Name       string
	TeamNames  []string // unique, sorted ascending
}

// NewDivisionInfo builds a DivisionInfo, de-duplicating and sorting team names
func NewDivisionInfo(id DivisionID, name string, teamNames []string) *DivisionInfo {
	seen := make(map[string]struct{}, len(teamNames))
	names := make([]string, 0, len(teamNames))
	for _, n := range teamNames {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	sort.Strings(names)
	return &DivisionInfo{DivisionID: id, Name: name, TeamNames: names}
}

// TeamCount returns the number of teams in the division
func (d *DivisionInfo) TeamCount() int {
	return len(d.TeamNames)
}

// TeamIndex returns the position of a team in the division ordering
func (d *DivisionInfo) TeamIndex(name string) (int, bool) {
	i := sort.SearchStrings(d.TeamNames, name)
	if i < len(d.TeamNames) && d.TeamNames[i] == name {
		return i, true
	}
	return 0, false
}

func (d *DivisionInfo) String() string {
	return fmt.Sprintf("%s (%d) with teams: %v", d.Name, d.DivisionID, d.TeamNames)
}

// Metadata holds the division/team layout of a season. Read-only once built.
type Metadata struct {
	Year      int
	Divisions map[DivisionID]*DivisionInfo
}

// NewMetadata returns empty metadata for a year
func NewMetadata(year int) *Metadata {
	return &Metadata{Year: year, Divisions: make(map[DivisionID]*DivisionInfo)}
}

// MetadataFromRaw derives the season layout from a single day's payload
func MetadataFromRaw(year int, raw RawStandings) (*Metadata, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("no divisions in standings payload for %d", year)
	}
	m := NewMetadata(year)
	for id, div := range raw {
		names := make([]string, 0, len(div.Teams))
		for _, t := range div.Teams {
			names = append(names, t.Name)
		}
		m.Divisions[id] = NewDivisionInfo(id, div.Name, names)
	}
	return m, nil
}

// Division returns the info for a division id
func (m *Metadata) Division(id DivisionID) (*DivisionInfo, bool) {
	d, ok := m.Divisions[id]
	return d, ok
}

// SortedDivisionIDs returns division ids in ascending order
func (m *Metadata) SortedDivisionIDs() []DivisionID {
	ids := make([]DivisionID, 0, len(m.Divisions))
	for id := range m.Divisions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TeamCount returns the number of teams across all divisions
func (m *Metadata) TeamCount() int {
	n := 0
	for _, d := range m.Divisions {
		n += d.TeamCount()
	}
	return n
}
