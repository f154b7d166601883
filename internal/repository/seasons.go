package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mlb_standings/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SeasonRepository handles season document database operations.
// It satisfies Store.
type SeasonRepository struct {
	db *Database
}

// Load returns the stored document for a season
func (r *SeasonRepository) Load(ctx context.Context, year int) (*models.SeasonDocument, error) {
	query := `SELECT document FROM season_documents WHERE year = $1`

	var data []byte
	err := r.db.Pool.QueryRow(ctx, query, year).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: season %d", ErrNotFound, year)
		}
		return nil, fmt.Errorf("failed to load season %d: %w", year, err)
	}

	doc, err := models.DecodeSeasonDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: season %d: %v", ErrMalformed, year, err)
	}
	return doc, nil
}

// Save upserts the season document and replaces its flattened daily rows
// in a single transaction
func (r *SeasonRepository) Save(ctx context.Context, year int, doc *models.SeasonDocument) error {
	opening, err := models.ParseDate(models.FileDateLayout, doc.OpeningDay)
	if err != nil {
		return fmt.Errorf("invalid opening_day for season %d: %w", year, err)
	}
	last := opening
	if n := len(doc.Standings); n > 0 {
		last = opening.AddDays(n - 1)
	}

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode season %d: %w", year, err)
	}

	rows, err := dailyRows(year, opening, doc)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO season_documents (year, opening_day, last_day, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (year) DO UPDATE SET
			opening_day = EXCLUDED.opening_day,
			last_day = EXCLUDED.last_day,
			document = EXCLUDED.document,
			updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsert, year, opening.Time(), last.Time(), data); err != nil {
		return fmt.Errorf("failed to upsert season %d: %w", year, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM daily_standings WHERE year = $1`, year); err != nil {
		return fmt.Errorf("failed to clear daily standings for %d: %w", year, err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"daily_standings"},
		[]string{"year", "day", "division_id", "position", "team_name", "wins", "losses"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy daily standings for %d: %w", year, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit season %d: %w", year, err)
	}

	log.Info().
		Int("year", year).
		Int("days", len(doc.Standings)).
		Int64("rows", copied).
		Msg("Season saved to database")
	return nil
}

// dailyRows flattens a document into daily_standings rows
func dailyRows(year int, opening models.Date, doc *models.SeasonDocument) ([][]interface{}, error) {
	keys := make([]string, 0, len(doc.Metadata))
	for key := range doc.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var rows [][]interface{}
	for i, entry := range doc.Standings {
		day := opening.AddDays(i).Time()
		for _, key := range keys {
			records, ok := entry[key]
			if !ok {
				continue
			}
			divID, err := models.ParseDocumentKey(key)
			if err != nil {
				return nil, err
			}
			teams := doc.Metadata[key].Teams
			for pos, wl := range records {
				if pos >= len(teams) {
					return nil, fmt.Errorf("division %s has more records than teams on day %d", key, i)
				}
				var wins, losses interface{}
				if wl != nil {
					wins, losses = wl.Wins, wl.Losses
				}
				rows = append(rows, []interface{}{year, day, int(divID), pos, teams[pos], wins, losses})
			}
		}
	}
	return rows, nil
}
