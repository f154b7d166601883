package season

import (
	"context"
	"fmt"

	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// StopReason says why a timeline walk ended
type StopReason string

const (
	StopReachedToday     StopReason = "reached_today"
	StopSeasonEnded      StopReason = "season_ended"
	StopSourceExhausted  StopReason = "source_exhausted"
	StopMaxDaysExhausted StopReason = "max_days"
)

// Extend walks forward from start, one day at a time, until it reaches today,
// the provider returns nothing, or the standings stop changing for the
// season-end window. Today is never stored since its games may be in progress.
func (s *Standings) Extend(ctx context.Context, start models.Date, force bool) (StopReason, error) {
	today := s.opts.today()
	window := make([]models.DaySnapshot, 0, s.opts.SeasonEndWindow)

	day := start
	for steps := 0; ; steps++ {
		if !day.Before(today) {
			return StopReachedToday, nil
		}
		if steps >= s.opts.MaxSeasonDays {
			log.Warn().
				Int("max_days", s.opts.MaxSeasonDays).
				Str("date", day.String()).
				Msg("Season walk bound reached")
			return StopMaxDaysExhausted, nil
		}

		if force || !s.timeline.Has(day) {
			raw, err := s.fetch(ctx, day, phaseTimeline)
			if err != nil {
				return "", fmt.Errorf("failed to fetch standings for %s: %w", day, err)
			}
			if raw.Empty() {
				log.Info().Str("date", day.String()).Msg("No standings returned, stopping")
				return StopSourceExhausted, nil
			}
			s.StoreDay(day, raw)
		}

		current, _ := s.timeline.Get(day)
		if len(window) == s.opts.SeasonEndWindow && allEqual(current, window) {
			removed := s.TrimFrozenTail(day)
			last, _ := s.timeline.Last()
			log.Info().
				Int("days_trimmed", removed).
				Str("last_day", last.String()).
				Msg("Season over")
			return StopSeasonEnded, nil
		}

		window = append(window, current)
		if len(window) > s.opts.SeasonEndWindow {
			window = window[1:]
		}
		day = day.Next()
	}
}

func allEqual(s models.DaySnapshot, window []models.DaySnapshot) bool {
	for _, w := range window {
		if !s.Equal(w) {
			return false
		}
	}
	return true
}

// TrimFrozenTail deletes trailing days that merely repeat the day before,
// walking back from last. It returns the number of days removed.
func (s *Standings) TrimFrozenTail(last models.Date) int {
	removed := 0
	for {
		cur, ok := s.timeline.Get(last)
		if !ok {
			return removed
		}
		prev, ok := s.timeline.Get(last.Prev())
		if !ok || !cur.Equal(prev) {
			return removed
		}
		s.timeline.Delete(last)
		removed++
		last = last.Prev()
	}
}
