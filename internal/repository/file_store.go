package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// FileStore keeps season documents as {dir}/{year}.json
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

// Path returns the document path for a season
func (s *FileStore) Path(year int) string {
	return filepath.Join(s.dir, strconv.Itoa(year)+".json")
}

// Load reads and decodes a season document
func (s *FileStore) Load(ctx context.Context, year int) (*models.SeasonDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(year)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := models.DecodeSeasonDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	log.Debug().
		Str("path", path).
		Int("days", len(doc.Standings)).
		Msg("Season document loaded")
	return doc, nil
}

// Save writes a season document through a temp file and rename.
// The write is skipped when the file already holds the same bytes.
func (s *FileStore) Save(ctx context.Context, year int, doc *models.SeasonDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode season %d: %w", year, err)
	}

	target := s.Path(year)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		log.Debug().Str("path", target).Msg("Season document unchanged")
		return nil
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		return err
	}

	log.Info().
		Str("path", target).
		Int("days", len(doc.Standings)).
		Msg("Season document written")
	return nil
}
