package season

import (
	"sort"

	"mlb_standings/ingestion/internal/models"
)

// Timeline is the day-indexed standings of one season
type Timeline struct {
	days map[models.Date]models.DaySnapshot
}

// NewTimeline returns an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{days: make(map[models.Date]models.DaySnapshot)}
}

// Get returns the snapshot stored for a day
func (t *Timeline) Get(day models.Date) (models.DaySnapshot, bool) {
	s, ok := t.days[day]
	return s, ok
}

// Has reports whether a day is stored
func (t *Timeline) Has(day models.Date) bool {
	_, ok := t.days[day]
	return ok
}

// Set stores the snapshot for a day, replacing any previous one
func (t *Timeline) Set(day models.Date, s models.DaySnapshot) {
	t.days[day] = s
}

// Delete removes a day
func (t *Timeline) Delete(day models.Date) {
	delete(t.days, day)
}

// Len returns the number of stored days
func (t *Timeline) Len() int {
	return len(t.days)
}

// Days returns the stored days in chronological order
func (t *Timeline) Days() []models.Date {
	days := make([]models.Date, 0, len(t.days))
	for d := range t.days {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// First returns the earliest stored day
func (t *Timeline) First() (models.Date, bool) {
	var first models.Date
	found := false
	for d := range t.days {
		if !found || d.Before(first) {
			first, found = d, true
		}
	}
	return first, found
}

// Last returns the latest stored day
func (t *Timeline) Last() (models.Date, bool) {
	var last models.Date
	found := false
	for d := range t.days {
		if !found || d.After(last) {
			last, found = d, true
		}
	}
	return last, found
}
