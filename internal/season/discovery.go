package season

import (
	"context"
	"fmt"

	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// isBeforeSeason reports whether a payload predates the season: either the
// provider has nothing, or it is still serving last season's final records.
func (s *Standings) isBeforeSeason(raw models.RawStandings) bool {
	return raw.Empty() || raw.MaxGamesPlayed() > s.opts.StaleGamesThreshold
}

// DiscoverOpeningDay finds the first day with in-season standings.
// Days visited on the backward walk are stored as they are fetched; the
// forward walk stores only the day it lands on.
func (s *Standings) DiscoverOpeningDay(ctx context.Context) (models.Date, error) {
	guess := s.opts.openingDayGuess(s.Year())

	raw, err := s.fetch(ctx, guess, phaseDiscovery)
	if err != nil {
		return models.Date{}, fmt.Errorf("failed to fetch opening day guess %s: %w", guess, err)
	}

	if s.isBeforeSeason(raw) {
		log.Info().Str("guess", guess.String()).Msg("Guess precedes the season, searching forward")
		return s.searchForward(ctx, guess)
	}

	log.Info().Str("guess", guess.String()).Msg("Season already under way on guess, searching backward")
	return s.searchBackward(ctx, guess, raw)
}

func (s *Standings) searchBackward(ctx context.Context, day models.Date, raw models.RawStandings) (models.Date, error) {
	today := s.opts.today()

	for steps := 0; !s.isBeforeSeason(raw); steps++ {
		if steps >= s.opts.MaxDiscoverySteps {
			return models.Date{}, fmt.Errorf("%w: no pre-season day within %d days before %s",
				ErrDiscoveryExhausted, s.opts.MaxDiscoverySteps, day)
		}
		if day.Before(today) {
			s.StoreDay(day, raw)
		}

		day = day.Prev()
		var err error
		raw, err = s.fetch(ctx, day, phaseDiscovery)
		if err != nil {
			return models.Date{}, fmt.Errorf("failed to fetch %s during opening day search: %w", day, err)
		}
	}
	return day.Next(), nil
}

func (s *Standings) searchForward(ctx context.Context, day models.Date) (models.Date, error) {
	today := s.opts.today()

	for steps := 0; ; steps++ {
		if steps >= s.opts.MaxDiscoverySteps {
			return models.Date{}, fmt.Errorf("%w: no in-season day within %d days after %s",
				ErrDiscoveryExhausted, s.opts.MaxDiscoverySteps, day)
		}

		day = day.Next()
		if !day.Before(today) {
			return models.Date{}, fmt.Errorf("%w: no completed in-season day before %s", ErrSeasonNotStarted, today)
		}

		raw, err := s.fetch(ctx, day, phaseDiscovery)
		if err != nil {
			return models.Date{}, fmt.Errorf("failed to fetch %s during opening day search: %w", day, err)
		}
		if !s.isBeforeSeason(raw) {
			s.StoreDay(day, raw)
			return day, nil
		}
	}
}
