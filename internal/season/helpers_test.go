package season

import (
	"context"
	"errors"
	"sync"
	"time"

	"mlb_standings/ingestion/internal/models"
	"mlb_standings/ingestion/internal/repository"
)

type testTeam struct {
	div     models.DivisionID
	divName string
	id      models.TeamID
	name    string
}

// Order matches metadata order: divisions ascending, team names sorted
var testTeams = []testTeam{
	{201, "American League East", 111, "Boston Red Sox"},
	{201, "American League East", 147, "New York Yankees"},
	{204, "National League East", 121, "New York Mets"},
	{204, "National League East", 143, "Philadelphia Phillies"},
}

const testYear = 2021

func testMetadata() *models.Metadata {
	m, err := models.MetadataFromRaw(testYear, raw([2]int{}, [2]int{}, [2]int{}, [2]int{}))
	if err != nil {
		panic(err)
	}
	return m
}

// raw builds a provider payload with records in testTeams order
func raw(records ...[2]int) models.RawStandings {
	out := make(models.RawStandings)
	for i, rec := range records {
		tt := testTeams[i]
		div := out[tt.div]
		div.Name = tt.divName
		div.Teams = append(div.Teams, models.RawTeam{TeamID: tt.id, Name: tt.name, Wins: rec[0], Losses: rec[1]})
		out[tt.div] = div
	}
	return out
}

// snap builds a snapshot with known ids in testTeams order
func snap(records ...[2]int) models.DaySnapshot {
	out := make(models.DaySnapshot)
	for i, rec := range records {
		tt := testTeams[i]
		out[tt.div] = append(out[tt.div], models.NewStanding(tt.id, rec[0], rec[1]))
	}
	return out
}

// gameDay returns the records after k games, everyone having played each day
func gameDay(k int) models.RawStandings {
	return raw([2]int{k, 0}, [2]int{0, k}, [2]int{k - k/2, k / 2}, [2]int{k / 2, k - k/2})
}

// lastSeason is the stale final table served before opening day
func lastSeason() models.RawStandings {
	return raw([2]int{92, 70}, [2]int{92, 70}, [2]int{77, 85}, [2]int{82, 80})
}

type fakeFetcher struct {
	mu    sync.Mutex
	days  map[models.Date]models.RawStandings
	errs  map[models.Date]error
	calls []models.Date
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		days: make(map[models.Date]models.RawStandings),
		errs: make(map[models.Date]error),
	}
}

func (f *fakeFetcher) FetchStandings(ctx context.Context, date models.Date) (models.RawStandings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	if err := f.errs[date]; err != nil {
		return nil, err
	}
	return f.days[date], nil
}

func (f *fakeFetcher) fetched(d models.Date) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == d {
			return true
		}
	}
	return false
}

func (f *fakeFetcher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// season fills the fetcher with a season: stale data for the two weeks before
// opening, one game per day through lastGame, then the final table frozen
// through frozenUntil. Nothing after that.
func (f *fakeFetcher) season(opening, lastGame, frozenUntil models.Date) {
	for d := opening.AddDays(-14); d.Before(opening); d = d.Next() {
		f.days[d] = lastSeason()
	}
	k := 1
	for d := opening; !d.After(lastGame); d = d.Next() {
		f.days[d] = gameDay(k)
		k++
	}
	for d := lastGame.Next(); !d.After(frozenUntil); d = d.Next() {
		f.days[d] = gameDay(k - 1)
	}
	// metadata day
	if _, ok := f.days[models.NewDate(opening.Year, time.August, 1)]; !ok {
		f.days[models.NewDate(opening.Year, time.August, 1)] = gameDay(100)
	}
}

type memStore struct {
	docs    map[int]*models.SeasonDocument
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[int]*models.SeasonDocument)}
}

func (m *memStore) Load(ctx context.Context, year int) (*models.SeasonDocument, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	doc, ok := m.docs[year]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (m *memStore) Save(ctx context.Context, year int, doc *models.SeasonDocument) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[year] = doc
	m.saves++
	return nil
}

var errProvider = errors.New("provider unavailable")

func testOptions(now models.Date) Options {
	opts := DefaultOptions()
	opts.FetchTimeout = 0
	opts.Now = func() time.Time { return now.Time().Add(12 * time.Hour) }
	return opts
}

func d(month time.Month, day int) models.Date {
	return models.NewDate(testYear, month, day)
}
