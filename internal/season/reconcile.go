package season

import (
	"fmt"
	"sort"

	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Repair kinds
const (
	RepairDivisionCopied  = "division_copied"
	RepairDivisionPadded  = "division_padded"
	RepairTeamFilled      = "team_filled"
	RepairWinsCorrected   = "wins_corrected"
	RepairLossesCorrected = "losses_corrected"
	RepairAnchorShifted   = "anchor_shifted"
	RepairJumpAccepted    = "jump_accepted"
)

// Failure kinds
const (
	FailureEmptyTimeline   = "empty_timeline"
	FailureFirstDayPlayed  = "first_day_not_zero"
	FailureDivisionGrew    = "division_size_grew"
	FailureTeamMismatch    = "team_id_mismatch"
	FailureGamesJump       = "games_played_jump"
	FailureWinsDropped     = "wins_dropped"
	FailureLossesDropped   = "losses_dropped"
	FailureSeasonEndSpread = "season_end_spread"
)

// ValidateOptions controls a validation pass
type ValidateOptions struct {
	// Update tolerates unknown team ids from a reloaded document
	Update bool
	// Since skips day-pair checks up to and including this day; zero checks all
	Since models.Date
}

// Result is the outcome of a validation
type Result struct {
	OK      bool
	Failure string
	Detail  string
	Repairs map[string]int
	Retried bool
}

// RepairCount returns the total number of repairs applied
func (r Result) RepairCount() int {
	n := 0
	for _, c := range r.Repairs {
		n += c
	}
	return n
}

func (r *Result) repair(kind string) {
	r.Repairs[kind]++
	metrics.RecordRepair(kind)
}

func (r *Result) fail(kind, format string, args ...interface{}) bool {
	r.Failure = kind
	r.Detail = fmt.Sprintf(format, args...)
	log.Error().Str("failure", kind).Msg(r.Detail)
	return false
}

// Reconciler checks a timeline for consistency and repairs what it can
type Reconciler struct {
	year            int
	currentYear     int
	maxDailyGames   int
	seasonEndSpread int
}

// NewReconciler creates a Reconciler for a season
func NewReconciler(year int, opts Options) *Reconciler {
	return &Reconciler{
		year:            year,
		currentYear:     opts.today().Year,
		maxDailyGames:   opts.MaxDailyGames,
		seasonEndSpread: opts.SeasonEndSpread,
	}
}

// Validate walks consecutive day pairs, repairing gaps and off-by-one
// corrections in place. A jump off the synthetic anchor shifts the anchor
// forward and restarts the pass once.
func (r *Reconciler) Validate(tl *Timeline, opts ValidateOptions) Result {
	res := Result{Repairs: make(map[string]int)}

	anchorShifted := false
	for {
		ok, retry := r.pass(tl, opts, anchorShifted, &res)
		if retry {
			anchorShifted = true
			res.Retried = true
			log.Info().Msg("Anchor moved forward, revalidating")
			continue
		}
		res.OK = ok
		metrics.RecordValidation(ok)
		return res
	}
}

func (r *Reconciler) pass(tl *Timeline, opts ValidateOptions, anchorShifted bool, res *Result) (ok, retry bool) {
	days := tl.Days()
	if len(days) == 0 {
		return res.fail(FailureEmptyTimeline, "no days to validate"), false
	}

	first := days[0]
	yesterday, _ := tl.Get(first)
	for _, divID := range yesterday.DivisionIDs() {
		for _, st := range yesterday[divID] {
			if !st.Missing && st.GamesPlayed() > 0 {
				return res.fail(FailureFirstDayPlayed, "games played on first day %s: %s", first, st), false
			}
		}
	}

	prevDay := first
	for _, day := range days[1:] {
		today, _ := tl.Get(day)
		if !opts.Since.IsZero() && !day.After(opts.Since) {
			yesterday, prevDay = today, day
			continue
		}

		for _, divID := range yesterday.DivisionIDs() {
			if _, ok := today[divID]; !ok {
				log.Warn().
					Int("division_id", int(divID)).
					Str("date", day.String()).
					Msg("Missing division, copying from previous day")
				today[divID] = append([]models.TeamStanding(nil), yesterday[divID]...)
				res.repair(RepairDivisionCopied)
			}
		}

		for _, divID := range today.DivisionIDs() {
			prior, ok := yesterday[divID]
			if !ok {
				log.Warn().
					Int("division_id", int(divID)).
					Str("date", day.String()).
					Msg("Division absent on previous day, not checked")
				continue
			}

			current := today[divID]
			if len(current) != len(prior) {
				if len(current) > len(prior) {
					return res.fail(FailureDivisionGrew, "division %d has %d teams on %s, %d the day before",
						divID, len(current), day, len(prior)), false
				}
				log.Warn().
					Int("division_id", int(divID)).
					Str("date", day.String()).
					Msg("Too few teams, padding from previous day")
				current = append(current, prior[len(current):]...)
				today[divID] = current
				res.repair(RepairDivisionPadded)
			}

			for i := range current {
				t, y := &current[i], &prior[i]
				if t.Missing {
					*t = *y
					if !y.Missing {
						res.repair(RepairTeamFilled)
					}
				}
				if t.Missing || y.Missing {
					continue
				}

				if t.Team != y.Team && !(opts.Update && (!t.Team.Valid || !y.Team.Valid)) {
					return res.fail(FailureTeamMismatch, "team id mismatch in division %d on %s: %s vs %s",
						divID, day, t.Team, y.Team), false
				}

				if jump := t.GamesPlayed() - y.GamesPlayed(); jump > r.maxDailyGames {
					log.Warn().
						Str("date", day.String()).
						Int("jump", jump).
						Str("today", t.String()).
						Str("yesterday", y.String()).
						Msg("Games played jumped")

					switch {
					case y.GamesPlayed() != 0:
						return res.fail(FailureGamesJump, "games played jumped by %d on %s: %s to %s",
							jump, day, y, t), false
					case prevDay == first && !anchorShifted:
						tl.Set(day, yesterday.Clone())
						tl.Delete(prevDay)
						res.repair(RepairAnchorShifted)
						return false, true
					default:
						log.Warn().Str("date", day.String()).Msg("Accepting jump off a 0-0 record")
						res.repair(RepairJumpAccepted)
					}
				}

				if t.Wins < y.Wins {
					if y.Wins-t.Wins > 1 {
						return res.fail(FailureWinsDropped, "wins dropped on %s: %s to %s", day, y, t), false
					}
					log.Warn().Str("date", day.String()).Msg("Wins dropped by one, correcting previous day")
					y.Wins = t.Wins
					res.repair(RepairWinsCorrected)
				}
				if t.Losses < y.Losses {
					if y.Losses-t.Losses > 1 {
						return res.fail(FailureLossesDropped, "losses dropped on %s: %s to %s", day, y, t), false
					}
					log.Warn().Str("date", day.String()).Msg("Losses dropped by one, correcting previous day")
					y.Losses = t.Losses
					res.repair(RepairLossesCorrected)
				}
			}
		}

		yesterday, prevDay = today, day
	}

	if r.year != r.currentYear {
		if lo, hi, ok := yesterday.GamesPlayedSpread(); ok && hi-lo > r.seasonEndSpread {
			return res.fail(FailureSeasonEndSpread, "games played on final day %s range from %d to %d",
				prevDay, lo, hi), false
		}
	}
	return true, false
}

// sortedRepairKinds returns repair kinds in a stable order for reporting
func sortedRepairKinds(repairs map[string]int) []string {
	kinds := make([]string, 0, len(repairs))
	for k := range repairs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
