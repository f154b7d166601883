package season

import (
	"context"
	"testing"
	"time"

	"mlb_standings/ingestion/internal/cache"
	"mlb_standings/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpeningDayGuess(t *testing.T) {
	assert.Equal(t, models.NewDate(2021, time.April, 1), OpeningDayGuess(2021))
	assert.Equal(t, models.NewDate(2020, time.July, 20), OpeningDayGuess(2020))

	opts := DefaultOptions()
	opts.OpeningDayGuess = models.NewDate(2021, time.March, 25)
	assert.Equal(t, models.NewDate(2021, time.March, 25), opts.openingDayGuess(2021))
	assert.Equal(t, models.NewDate(2022, time.April, 1), opts.openingDayGuess(2022), "override only applies to its own year")
}

func TestMetadataDate(t *testing.T) {
	assert.Equal(t, d(time.August, 1), MetadataDate(testYear, models.NewDate(2022, time.January, 5)))
	assert.Equal(t, d(time.June, 9), MetadataDate(testYear, d(time.June, 10)))
	assert.Equal(t, d(time.July, 31), MetadataDate(testYear, d(time.August, 1)))
}

func TestDiscoverOpeningDay_SearchesBackward(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.March, 28), d(time.September, 30), d(time.October, 20))

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	opening, err := s.DiscoverOpeningDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, d(time.March, 28), opening)
	for day := d(time.March, 28); !day.After(d(time.April, 1)); day = day.Next() {
		assert.True(t, s.Timeline().Has(day), "in-season day %s visited on the way back is stored", day)
	}
	assert.False(t, s.Timeline().Has(d(time.March, 27)))
	assert.True(t, f.fetched(d(time.March, 27)))
	assert.False(t, f.fetched(d(time.March, 26)))
}

func TestDiscoverOpeningDay_SearchesForward(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 6), d(time.September, 30), d(time.October, 20))

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	opening, err := s.DiscoverOpeningDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, d(time.April, 6), opening)
	assert.Equal(t, 1, s.Timeline().Len(), "only the landing day is stored going forward")
	assert.True(t, s.Timeline().Has(d(time.April, 6)))
}

func TestDiscoverOpeningDay_ForwardOverEmptyPayloads(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 6), d(time.September, 30), d(time.October, 20))
	for day := d(time.March, 20); day.Before(d(time.April, 6)); day = day.Next() {
		delete(f.days, day)
	}

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	opening, err := s.DiscoverOpeningDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d(time.April, 6), opening)
}

func TestDiscoverOpeningDay_StaleDataIsPreSeason(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 6), d(time.September, 30), d(time.October, 20))

	opts := testOptions(models.NewDate(2022, time.January, 1))
	s := New(testMetadata(), f, opts)
	assert.True(t, s.isBeforeSeason(lastSeason()), "162 games played exceeds the stale threshold")
	assert.True(t, s.isBeforeSeason(models.RawStandings{}))
	assert.False(t, s.isBeforeSeason(gameDay(140)))
	assert.True(t, s.isBeforeSeason(gameDay(141)))
}

func TestDiscoverOpeningDay_Exhausted(t *testing.T) {
	f := newFakeFetcher()
	for day := d(time.January, 1); day.Before(d(time.December, 31)); day = day.Next() {
		f.days[day] = lastSeason()
	}

	opts := testOptions(models.NewDate(2022, time.January, 1))
	opts.MaxDiscoverySteps = 5
	s := New(testMetadata(), f, opts)

	_, err := s.DiscoverOpeningDay(context.Background())
	assert.ErrorIs(t, err, ErrDiscoveryExhausted)
	assert.Len(t, f.calls, 6, "guess plus five steps")
}

func TestDiscoverOpeningDay_BackwardExhausted(t *testing.T) {
	f := newFakeFetcher()
	for day := d(time.January, 1); day.Before(d(time.December, 31)); day = day.Next() {
		f.days[day] = gameDay(10)
	}

	opts := testOptions(models.NewDate(2022, time.January, 1))
	opts.MaxDiscoverySteps = 3
	s := New(testMetadata(), f, opts)

	_, err := s.DiscoverOpeningDay(context.Background())
	assert.ErrorIs(t, err, ErrDiscoveryExhausted)
}

func TestDiscoverOpeningDay_SeasonNotStarted(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 6), d(time.September, 30), d(time.October, 20))

	s := New(testMetadata(), f, testOptions(d(time.April, 4)))
	_, err := s.DiscoverOpeningDay(context.Background())
	assert.ErrorIs(t, err, ErrSeasonNotStarted)
	assert.False(t, f.fetched(d(time.April, 4)), "today is never fetched")
}

func TestDiscoverOpeningDay_FetchError(t *testing.T) {
	f := newFakeFetcher()
	f.errs[d(time.April, 1)] = errProvider

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	_, err := s.DiscoverOpeningDay(context.Background())
	assert.ErrorIs(t, err, errProvider)
}

func TestPopulate_DetectsSeasonEndAndTrims(t *testing.T) {
	opening := d(time.April, 1)
	lastGame := opening.AddDays(180)
	f := newFakeFetcher()
	f.season(opening, lastGame, lastGame.AddDays(40))

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	stop, err := s.Populate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StopSeasonEnded, stop)

	first, _ := s.Timeline().First()
	last, _ := s.Timeline().Last()
	assert.Equal(t, opening.Prev(), first, "anchor precedes opening day")
	assert.Equal(t, lastGame, last, "frozen copies trimmed back to the final game day")
	assert.Equal(t, 182, s.Timeline().Len())

	anchor, _ := s.Timeline().Get(first)
	assert.True(t, anchor.IsZero())
	assert.Len(t, anchor[201], 2)

	assert.True(t, f.fetched(lastGame.AddDays(10)))
	assert.False(t, f.fetched(lastGame.AddDays(11)), "walk stops once the window is frozen")
}

func TestPopulate_StopsOnEmptyPayload(t *testing.T) {
	opening := d(time.April, 1)
	f := newFakeFetcher()
	f.season(opening, d(time.May, 15), d(time.May, 15))

	s := New(testMetadata(), f, testOptions(models.NewDate(2022, time.January, 1)))
	stop, err := s.Populate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StopSourceExhausted, stop)

	last, _ := s.Timeline().Last()
	assert.Equal(t, d(time.May, 15), last)
}

func TestPopulate_StopsBeforeToday(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 1), d(time.September, 30), d(time.October, 20))

	today := d(time.May, 10)
	s := New(testMetadata(), f, testOptions(today))
	stop, err := s.Populate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StopReachedToday, stop)

	last, _ := s.Timeline().Last()
	assert.Equal(t, today.Prev(), last)
	assert.False(t, s.Timeline().Has(today))
	assert.False(t, f.fetched(today), "in-progress day is never fetched")
}

func TestPopulate_MaxSeasonDays(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 1), d(time.September, 30), d(time.October, 20))

	opts := testOptions(models.NewDate(2022, time.January, 1))
	opts.MaxSeasonDays = 20
	s := New(testMetadata(), f, opts)
	stop, err := s.Populate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StopMaxDaysExhausted, stop)

	last, _ := s.Timeline().Last()
	assert.Equal(t, d(time.April, 20), last)
}

func TestPopulate_DiscoveryFailureLeavesTimelineEmpty(t *testing.T) {
	f := newFakeFetcher()
	for day := d(time.January, 1); day.Before(d(time.December, 31)); day = day.Next() {
		f.days[day] = gameDay(10)
	}

	opts := testOptions(models.NewDate(2022, time.January, 1))
	opts.MaxDiscoverySteps = 3
	s := New(testMetadata(), f, opts)

	_, err := s.Populate(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, 0, s.Timeline().Len())
}

func TestPopulate_ResumesFromLastDay(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 1), d(time.September, 30), d(time.October, 20))

	s := New(testMetadata(), f, testOptions(d(time.May, 1)))
	_, err := s.Populate(context.Background(), false)
	require.NoError(t, err)

	f.reset()
	s.opts = testOptions(d(time.May, 10))
	_, err = s.Populate(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, f.fetched(d(time.April, 30)), "stored last day is not refetched")
	assert.Equal(t, d(time.May, 1), f.calls[0])
	last, _ := s.Timeline().Last()
	assert.Equal(t, d(time.May, 9), last)
}

func TestPopulate_ForceRefetches(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 1), d(time.September, 30), d(time.October, 20))

	s := New(testMetadata(), f, testOptions(d(time.May, 1)))
	_, err := s.Populate(context.Background(), false)
	require.NoError(t, err)

	f.reset()
	f.days[d(time.April, 30)] = gameDay(31)
	_, err = s.Populate(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []models.Date{d(time.April, 30)}, f.calls)
	day, _ := s.Timeline().Get(d(time.April, 30))
	assert.Equal(t, 31, day.MaxGamesPlayed())
}

type mapCache map[string][]byte

func (m mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m[key] = value
	return nil
}

func TestPopulate_ForceBypassesFetchCache(t *testing.T) {
	f := newFakeFetcher()
	f.season(d(time.April, 1), d(time.September, 30), d(time.October, 20))
	cached := cache.NewCachedFetcher(f, mapCache{}, time.Hour, "103,104")

	s := New(testMetadata(), cached, testOptions(d(time.May, 1)))
	_, err := s.Populate(context.Background(), false)
	require.NoError(t, err)

	f.days[d(time.April, 30)] = gameDay(31)
	_, err = s.Populate(context.Background(), false)
	require.NoError(t, err)
	day, _ := s.Timeline().Get(d(time.April, 30))
	assert.Equal(t, 30, day.MaxGamesPlayed(), "stored day kept without force")

	_, err = s.Populate(context.Background(), true)
	require.NoError(t, err)
	day, _ = s.Timeline().Get(d(time.April, 30))
	assert.Equal(t, 31, day.MaxGamesPlayed(), "forced refetch reaches the provider")
}

func TestPopulate_TeamMissingOnOpeningDay(t *testing.T) {
	opening := d(time.April, 1)
	f := newFakeFetcher()
	f.season(opening, d(time.September, 30), d(time.October, 20))
	al := f.days[opening][201]
	al.Teams = al.Teams[:1]
	f.days[opening][201] = al

	s := New(testMetadata(), f, testOptions(d(time.May, 1)))
	_, err := s.Populate(context.Background(), false)
	require.NoError(t, err)

	anchor, _ := s.Timeline().Get(opening.Prev())
	assert.Equal(t, models.KnownTeam(147), anchor[201][1].Team, "anchor takes the id from a later day")
	assert.True(t, anchor.IsZero())

	res := s.Validate(ValidateOptions{})
	require.True(t, res.OK, res.Detail)
	assert.Equal(t, 1, res.Repairs[RepairTeamFilled])

	filled, _ := s.Timeline().Get(opening)
	assert.Equal(t, models.NewStanding(147, 0, 0), filled[201][1])
}

func TestTrimFrozenTail_Idempotent(t *testing.T) {
	s := New(testMetadata(), newFakeFetcher(), DefaultOptions())
	tl := s.Timeline()
	tl.Set(d(time.October, 1), snap([2]int{1, 0}, [2]int{0, 1}, [2]int{1, 0}, [2]int{0, 1}))
	for day := d(time.October, 2); !day.After(d(time.October, 6)); day = day.Next() {
		tl.Set(day, snap([2]int{2, 0}, [2]int{0, 2}, [2]int{1, 1}, [2]int{1, 1}))
	}

	assert.Equal(t, 4, s.TrimFrozenTail(d(time.October, 6)))
	last, _ := tl.Last()
	assert.Equal(t, d(time.October, 2), last)

	assert.Equal(t, 0, s.TrimFrozenTail(last))
	assert.Equal(t, 2, tl.Len())
}

func TestStoreDay_PlacesTeamsByMetadata(t *testing.T) {
	s := New(testMetadata(), newFakeFetcher(), DefaultOptions())

	payload := raw([2]int{3, 1}, [2]int{2, 2}, [2]int{1, 3}, [2]int{0, 4})
	// reverse order inside AL East, payload order must not matter
	al := payload[201]
	al.Teams[0], al.Teams[1] = al.Teams[1], al.Teams[0]
	payload[201] = al

	day := d(time.May, 1)
	s.StoreDay(day, payload)

	got, ok := s.Timeline().Get(day)
	require.True(t, ok)
	assert.True(t, got.Equal(snap([2]int{3, 1}, [2]int{2, 2}, [2]int{1, 3}, [2]int{0, 4})))
	assert.Equal(t, models.KnownTeam(111), got[201][0].Team)
}

func TestStoreDay_MissingAndUnknown(t *testing.T) {
	s := New(testMetadata(), newFakeFetcher(), DefaultOptions())

	payload := raw([2]int{3, 1}, [2]int{2, 2}, [2]int{1, 3}, [2]int{0, 4})
	nl := payload[204]
	nl.Teams = []models.RawTeam{nl.Teams[0], {TeamID: 999, Name: "Montreal Expos", Wins: 9, Losses: 9}}
	payload[204] = nl
	payload[299] = models.RawDivision{Name: "Unknown", Teams: []models.RawTeam{{TeamID: 1, Name: "X"}}}

	day := d(time.May, 1)
	s.StoreDay(day, payload)

	got, _ := s.Timeline().Get(day)
	assert.NotContains(t, got, models.DivisionID(299))
	require.Len(t, got[204], 2)
	assert.False(t, got[204][0].Missing)
	assert.True(t, got[204][1].Missing, "Phillies absent from payload")
}
