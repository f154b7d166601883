package season

import (
	"context"
	"errors"
	"time"

	"mlb_standings/ingestion/internal/config"
	"mlb_standings/ingestion/internal/models"
)

var (
	// ErrDiscoveryExhausted is returned when the opening day search exceeds its step bound
	ErrDiscoveryExhausted = errors.New("opening day search exhausted")

	// ErrSeasonNotStarted is returned when the forward search reaches today without in-season data
	ErrSeasonNotStarted = errors.New("season has not started")
)

// Fetcher retrieves one day's standings from the provider
type Fetcher interface {
	FetchStandings(ctx context.Context, date models.Date) (models.RawStandings, error)
}

// Store persists season documents
type Store interface {
	Load(ctx context.Context, year int) (*models.SeasonDocument, error)
	Save(ctx context.Context, year int, doc *models.SeasonDocument) error
}

// Options tunes the season heuristics
type Options struct {
	StaleGamesThreshold int           // games played above which pre-season data is stale
	SeasonEndWindow     int           // identical trailing days that signal season end
	MaxDiscoverySteps   int           // opening day walk bound
	MaxSeasonDays       int           // timeline walk bound
	MaxDailyGames       int           // largest plausible games-played increase per day
	SeasonEndSpread     int           // allowed games-played spread on the last day of a past season
	FetchTimeout        time.Duration // per-fetch deadline, 0 disables
	OpeningDayGuess     models.Date   // overrides the built-in guess for its year

	Now func() time.Time
}

// DefaultOptions returns the tuned defaults for MLB
func DefaultOptions() Options {
	return Options{
		StaleGamesThreshold: 140,
		SeasonEndWindow:     10,
		MaxDiscoverySteps:   60,
		MaxSeasonDays:       250,
		MaxDailyGames:       2,
		SeasonEndSpread:     2,
		FetchTimeout:        30 * time.Second,
		Now:                 time.Now,
	}
}

// OptionsFromConfig builds Options from the service configuration
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.StaleGamesThreshold = cfg.StaleGamesThreshold
	opts.SeasonEndWindow = cfg.SeasonEndWindow
	opts.MaxDiscoverySteps = cfg.MaxDiscoverySteps
	opts.MaxSeasonDays = cfg.MaxSeasonDays
	opts.FetchTimeout = cfg.FetchTimeout
	if cfg.OpeningDayGuess != "" {
		if d, err := models.ParseDate(models.DateLayout, cfg.OpeningDayGuess); err == nil {
			opts.OpeningDayGuess = d
		}
	}
	return opts
}

func (o Options) today() models.Date {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return models.DateOf(now())
}

// openingDayGuess applies a configured override when it is for this year
func (o Options) openingDayGuess(year int) models.Date {
	if !o.OpeningDayGuess.IsZero() && o.OpeningDayGuess.Year == year {
		return o.OpeningDayGuess
	}
	return OpeningDayGuess(year)
}

// OpeningDayGuess returns the built-in opening day guess for a year
func OpeningDayGuess(year int) models.Date {
	if year == 2020 {
		return models.NewDate(year, time.July, 20)
	}
	return models.NewDate(year, time.April, 1)
}

// MetadataDate returns the day used to read a season's division layout:
// August 1, or yesterday when that is still in the future.
func MetadataDate(year int, today models.Date) models.Date {
	d := models.NewDate(year, time.August, 1)
	if !d.Before(today) {
		return today.Prev()
	}
	return d
}
