package season

import (
	"fmt"

	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// ToDocument renders the timeline as a season document.
// Days run contiguously from the first stored day; a gap repeats the
// previous day's records.
func ToDocument(meta *models.Metadata, tl *Timeline) (*models.SeasonDocument, error) {
	first, ok := tl.First()
	if !ok {
		return nil, fmt.Errorf("cannot render empty timeline for %d", meta.Year)
	}
	last, _ := tl.Last()

	doc := &models.SeasonDocument{
		Metadata:   make(map[string]models.DivisionDocument, len(meta.Divisions)),
		OpeningDay: first.Format(models.FileDateLayout),
		Standings:  make([]map[string][]*models.WinLoss, 0, first.DaysUntil(last)+1),
	}
	for id, div := range meta.Divisions {
		doc.Metadata[models.DocumentKey(id)] = models.DivisionDocument{
			Name:  div.Name,
			Teams: append([]string(nil), div.TeamNames...),
		}
	}

	var prev models.DaySnapshot
	for day := first; !day.After(last); day = day.Next() {
		snapshot, ok := tl.Get(day)
		if !ok {
			log.Warn().Str("date", day.String()).Msg("Gap in timeline, repeating previous day")
			snapshot = prev
		}
		doc.Standings = append(doc.Standings, encodeSnapshot(snapshot))
		prev = snapshot
	}
	return doc, nil
}

func encodeSnapshot(s models.DaySnapshot) map[string][]*models.WinLoss {
	out := make(map[string][]*models.WinLoss, len(s))
	for id, standings := range s {
		records := make([]*models.WinLoss, len(standings))
		for i, st := range standings {
			if st.Missing {
				continue
			}
			records[i] = &models.WinLoss{Wins: st.Wins, Losses: st.Losses}
		}
		out[models.DocumentKey(id)] = records
	}
	return out
}

// FromDocument rebuilds a timeline from a season document.
// Team ids are not persisted, so every reloaded standing has an unknown id.
func FromDocument(doc *models.SeasonDocument) (*Timeline, error) {
	opening, err := models.ParseDate(models.FileDateLayout, doc.OpeningDay)
	if err != nil {
		return nil, fmt.Errorf("invalid opening_day: %w", err)
	}

	tl := NewTimeline()
	for i, entry := range doc.Standings {
		snapshot := make(models.DaySnapshot, len(entry))
		for key, records := range entry {
			id, err := models.ParseDocumentKey(key)
			if err != nil {
				return nil, err
			}
			standings := make([]models.TeamStanding, len(records))
			for j, wl := range records {
				if wl == nil {
					standings[j] = models.MissingStanding()
					continue
				}
				standings[j] = models.TeamStanding{Wins: wl.Wins, Losses: wl.Losses}
			}
			snapshot[id] = standings
		}
		tl.Set(opening.AddDays(i), snapshot)
	}
	return tl, nil
}
