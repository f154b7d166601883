package repository

import (
	"context"
	"errors"

	"mlb_standings/ingestion/internal/models"
)

var (
	// ErrNotFound is returned when no document exists for a season
	ErrNotFound = errors.New("season document not found")

	// ErrMalformed is returned when a stored document cannot be decoded
	ErrMalformed = errors.New("season document malformed")
)

// Store persists one season document per year
type Store interface {
	Load(ctx context.Context, year int) (*models.SeasonDocument, error)
	Save(ctx context.Context, year int, doc *models.SeasonDocument) error
}
