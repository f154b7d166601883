package season

import (
	"context"

	"mlb_standings/ingestion/internal/cache"
	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	phaseDiscovery = "discovery"
	phaseTimeline  = "timeline"
	phaseMetadata  = "metadata"
)

// Standings builds the standings timeline of one season
type Standings struct {
	metadata *models.Metadata
	timeline *Timeline
	fetcher  Fetcher
	opts     Options

	// quiet demotes per-day fetch logs to debug, used by incremental runs
	quiet bool
}

// New creates a Standings for a season with an empty timeline
func New(metadata *models.Metadata, fetcher Fetcher, opts Options) *Standings {
	return NewWithTimeline(metadata, NewTimeline(), fetcher, opts)
}

// NewWithTimeline creates a Standings resuming from an existing timeline
func NewWithTimeline(metadata *models.Metadata, tl *Timeline, fetcher Fetcher, opts Options) *Standings {
	return &Standings{
		metadata: metadata,
		timeline: tl,
		fetcher:  fetcher,
		opts:     opts,
	}
}

// Metadata returns the season layout
func (s *Standings) Metadata() *models.Metadata {
	return s.metadata
}

// Timeline returns the season timeline
func (s *Standings) Timeline() *Timeline {
	return s.timeline
}

// Year returns the season year
func (s *Standings) Year() int {
	return s.metadata.Year
}

func (s *Standings) fetch(ctx context.Context, day models.Date, phase string) (models.RawStandings, error) {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	evt := log.Info()
	if s.quiet {
		evt = log.Debug()
	}
	evt.Str("date", day.String()).Str("phase", phase).Msg("Getting standings")

	raw, err := s.fetcher.FetchStandings(ctx, day)
	if err != nil {
		return nil, err
	}
	metrics.RecordDayFetched(phase)
	return raw, nil
}

// StoreDay converts a provider payload into a snapshot and stores it for day.
// Teams are placed by their position in the division metadata. Teams absent
// from the payload are stored as missing; divisions or teams unknown to the
// metadata are skipped.
func (s *Standings) StoreDay(day models.Date, raw models.RawStandings) {
	snapshot := make(models.DaySnapshot, len(raw))

	for divID, div := range raw {
		info, ok := s.metadata.Division(divID)
		if !ok {
			log.Warn().
				Int("division_id", int(divID)).
				Str("division", div.Name).
				Str("date", day.String()).
				Msg("Division not in season metadata, skipping")
			continue
		}

		standings := make([]models.TeamStanding, info.TeamCount())
		filled := make([]bool, info.TeamCount())
		for _, team := range div.Teams {
			idx, ok := info.TeamIndex(team.Name)
			if !ok {
				log.Warn().
					Str("team", team.Name).
					Str("division", info.Name).
					Str("date", day.String()).
					Msg("Team not in division metadata, skipping")
				continue
			}
			if filled[idx] {
				log.Warn().
					Str("team", team.Name).
					Str("date", day.String()).
					Msg("Duplicate team in payload, keeping first")
				continue
			}
			standings[idx] = models.NewStanding(team.TeamID, team.Wins, team.Losses)
			filled[idx] = true
		}

		for i, ok := range filled {
			if !ok {
				log.Warn().
					Str("team", info.TeamNames[i]).
					Str("date", day.String()).
					Msg("Missing team")
				standings[i] = models.MissingStanding()
			}
		}
		snapshot[divID] = standings
	}

	s.timeline.Set(day, snapshot)
}

// AddAnchor stores a 0-0 copy of the opening day's layout on the day before it
func (s *Standings) AddAnchor(openingDay models.Date) {
	opening, ok := s.timeline.Get(openingDay)
	if !ok {
		log.Warn().Str("opening_day", openingDay.String()).Msg("No opening day data, anchor not added")
		return
	}
	s.timeline.Set(openingDay.Prev(), opening.Zeroed())
}

// backfillTeamIDs gives entries with an unknown team id the id held at the
// same position on the nearest later day. A team missing from the opening-day
// payload otherwise leaves an anonymous 0-0 record in the anchor.
func (s *Standings) backfillTeamIDs() int {
	days := s.timeline.Days()
	known := make(map[models.DivisionID][]models.NullTeamID)
	filled := 0
	for i := len(days) - 1; i >= 0; i-- {
		snapshot, _ := s.timeline.Get(days[i])
		for divID, standings := range snapshot {
			ids := known[divID]
			if len(ids) < len(standings) {
				ids = append(ids, make([]models.NullTeamID, len(standings)-len(ids))...)
				known[divID] = ids
			}
			for j := range standings {
				st := &standings[j]
				switch {
				case st.Missing:
				case st.Team.Valid:
					ids[j] = st.Team
				case ids[j].Valid:
					st.Team = ids[j]
					filled++
				}
			}
		}
	}
	return filled
}

// Populate fills the timeline up to yesterday or season end.
// An empty timeline is discovered from scratch; otherwise the walk resumes
// from the last stored day. force refetches days that are already stored,
// bypassing any fetch cache.
func (s *Standings) Populate(ctx context.Context, force bool) (StopReason, error) {
	if force {
		ctx = cache.WithRefresh(ctx)
	}
	last, ok := s.timeline.Last()
	if !ok {
		opening, err := s.DiscoverOpeningDay(ctx)
		if err != nil {
			// days stored on a failed search have no anchor to hang from
			s.timeline = NewTimeline()
			return "", err
		}
		log.Info().
			Int("year", s.Year()).
			Str("opening_day", opening.String()).
			Msg("Opening day found")

		s.AddAnchor(opening)
		stop, err := s.Extend(ctx, opening, force)
		if n := s.backfillTeamIDs(); n > 0 {
			log.Debug().Int("entries", n).Msg("Team ids carried back from later days")
		}
		return stop, err
	}
	return s.Extend(ctx, last, force)
}

// Validate runs the reconciler over the timeline
func (s *Standings) Validate(opts ValidateOptions) Result {
	r := NewReconciler(s.Year(), s.opts)
	return r.Validate(s.timeline, opts)
}
