package season

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/models"
	"mlb_standings/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// RunOptions selects what a run does
type RunOptions struct {
	Year int
	// Update resumes from the stored document instead of rebuilding
	Update bool
	// Refresh refetches days already held in the timeline
	Refresh bool
}

// RunReport summarizes a run
type RunReport struct {
	Year       int
	Update     bool
	Mode       string
	OpeningDay models.Date
	LastDay    models.Date
	Days       int
	Stop       StopReason
	Validation Result
	Saved      bool
}

// Runner drives one season through load, populate, validate and save
type Runner struct {
	fetcher Fetcher
	store   Store
	opts    Options
}

// NewRunner creates a Runner
func NewRunner(fetcher Fetcher, store Store, opts Options) *Runner {
	return &Runner{fetcher: fetcher, store: store, opts: opts}
}

// Today returns the runner's notion of the current day
func (r *Runner) Today() models.Date {
	return r.opts.today()
}

// LoadMetadata fetches the division layout of a season
func (r *Runner) LoadMetadata(ctx context.Context, year int) (*models.Metadata, error) {
	day := MetadataDate(year, r.opts.today())

	s := New(models.NewMetadata(year), r.fetcher, r.opts)
	raw, err := s.fetch(ctx, day, phaseMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %d: %w", year, err)
	}

	meta, err := models.MetadataFromRaw(year, raw)
	if err != nil {
		return nil, err
	}

	for _, id := range meta.SortedDivisionIDs() {
		div := meta.Divisions[id]
		log.Debug().
			Int("division_id", int(id)).
			Str("division", div.Name).
			Strs("teams", div.TeamNames).
			Msg("Division")
	}
	log.Info().
		Int("year", year).
		Int("divisions", len(meta.Divisions)).
		Int("teams", meta.TeamCount()).
		Msg("Season metadata loaded")
	return meta, nil
}

// resume rebuilds a Standings from the stored document, or returns nil when
// there is nothing usable to resume from
func (r *Runner) resume(ctx context.Context, year int) *Standings {
	doc, err := r.store.Load(ctx, year)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info().Int("year", year).Msg("No stored season, running full build")
		} else {
			log.Warn().Err(err).Int("year", year).Msg("Stored season unusable, running full build")
		}
		return nil
	}

	meta, err := doc.MetadataFromDocument(year)
	if err != nil {
		log.Warn().Err(err).Int("year", year).Msg("Stored metadata unusable, running full build")
		return nil
	}
	tl, err := FromDocument(doc)
	if err != nil || tl.Len() == 0 {
		log.Warn().Err(err).Int("year", year).Msg("Stored standings unusable, running full build")
		return nil
	}

	s := NewWithTimeline(meta, tl, r.fetcher, r.opts)
	s.quiet = true
	return s
}

// Run builds or extends a season timeline and persists it.
// The document is written even when validation fails; a fetch error part way
// through still persists what was gathered before returning the error.
func (r *Runner) Run(ctx context.Context, ro RunOptions) (*RunReport, error) {
	start := time.Now()

	var (
		s     *Standings
		since models.Date
	)
	if ro.Update {
		s = r.resume(ctx, ro.Year)
	}
	if s == nil {
		ro.Update = false
		meta, err := r.LoadMetadata(ctx, ro.Year)
		if err != nil {
			metrics.RecordRun(runMode(false), "error", time.Since(start).Seconds())
			return nil, err
		}
		s = New(meta, r.fetcher, r.opts)
	} else {
		since, _ = s.timeline.Last()
		log.Info().
			Int("year", ro.Year).
			Str("last_day", since.String()).
			Msg("Resuming from stored season")
	}

	mode := runMode(ro.Update)
	report := &RunReport{Year: ro.Year, Update: ro.Update, Mode: mode}

	stop, popErr := s.Populate(ctx, ro.Refresh)
	report.Stop = stop
	if popErr != nil {
		if s.timeline.Len() == 0 {
			metrics.RecordRun(mode, "error", time.Since(start).Seconds())
			return nil, popErr
		}
		log.Error().Err(popErr).Msg("Timeline incomplete, persisting what was gathered")
	}

	report.Validation = s.Validate(ValidateOptions{Update: ro.Update, Since: since})
	logValidation(report.Validation)

	if err := r.save(ctx, s, report); err != nil {
		metrics.RecordRun(mode, "error", time.Since(start).Seconds())
		return report, err
	}

	status := "success"
	switch {
	case popErr != nil:
		status = "error"
	case !report.Validation.OK:
		status = "invalid"
	}
	metrics.RecordRun(mode, status, time.Since(start).Seconds())

	log.Info().
		Int("year", report.Year).
		Str("mode", mode).
		Str("opening_day", report.OpeningDay.String()).
		Str("last_day", report.LastDay.String()).
		Int("days", report.Days).
		Str("stop", string(report.Stop)).
		Bool("valid", report.Validation.OK).
		Int("repairs", report.Validation.RepairCount()).
		Dur("duration", time.Since(start)).
		Msg("Run complete")

	return report, popErr
}

// runMode labels a run for logs and metrics by what it actually did
func runMode(update bool) string {
	if update {
		return "update"
	}
	return "full"
}

// Validate reloads a stored season, checks it and optionally writes back
// the repaired timeline
func (r *Runner) Validate(ctx context.Context, year int, write bool) (*RunReport, error) {
	doc, err := r.store.Load(ctx, year)
	if err != nil {
		return nil, err
	}
	meta, err := doc.MetadataFromDocument(year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformed, err)
	}
	tl, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformed, err)
	}

	s := NewWithTimeline(meta, tl, r.fetcher, r.opts)
	report := &RunReport{Year: year, Update: true}
	report.Validation = s.Validate(ValidateOptions{Update: true})
	logValidation(report.Validation)

	if !write {
		r.describe(s, report)
		return report, nil
	}
	if err := r.save(ctx, s, report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) save(ctx context.Context, s *Standings, report *RunReport) error {
	r.describe(s, report)

	doc, err := ToDocument(s.metadata, s.timeline)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, s.Year(), doc); err != nil {
		metrics.RecordError("store", "save")
		return fmt.Errorf("failed to save season %d: %w", s.Year(), err)
	}
	report.Saved = true
	return nil
}

func (r *Runner) describe(s *Standings, report *RunReport) {
	report.OpeningDay, _ = s.timeline.First()
	report.LastDay, _ = s.timeline.Last()
	report.Days = s.timeline.Len()
	metrics.RecordTimelineDays(strconv.Itoa(s.Year()), report.Days)
}

func logValidation(res Result) {
	if res.OK {
		evt := log.Info().Int("repairs", res.RepairCount()).Bool("retried", res.Retried)
		for _, kind := range sortedRepairKinds(res.Repairs) {
			evt = evt.Int(kind, res.Repairs[kind])
		}
		evt.Msg("Validation passed")
		return
	}
	log.Error().
		Str("failure", res.Failure).
		Str("detail", res.Detail).
		Msg("FAILED to validate data")
}
