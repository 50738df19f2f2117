// Package store persists ranking results as JSON documents with run
// metadata, and loads them back with strict validation so stale or truncated
// files fail loudly instead of feeding garbage to the UI layer.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xhhuango/json"

	"github.com/delatour/stratgen/models"
)

var (
	ErrNoResults  = errors.New("store: document has no results")
	ErrBadVersion = errors.New("store: unsupported document version")
)

const documentVersion = 1

// Metadata describes the run that produced a document.
type Metadata struct {
	Version    int               `json:"version"`
	SavedAt    time.Time         `json:"saved_at"`
	Underlying string            `json:"underlying"`
	Params     map[string]string `json:"params,omitempty"`
}

// Document is one persisted ranking run.
type Document struct {
	Metadata Metadata                   `json:"metadata"`
	Results  []*models.StrategyRecord   `json:"results"`
	Multi    *models.MultiRankingResult `json:"multi,omitempty"`
}

// Save writes a ranking document atomically: marshal to a sibling temp file,
// then rename over the target.
func Save(path string, doc *Document) error {
	if len(doc.Results) == 0 && doc.Multi == nil {
		return ErrNoResults
	}
	doc.Metadata.Version = documentVersion
	if doc.Metadata.SavedAt.IsZero() {
		doc.Metadata.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}

	log.Info().Str("path", path).Int("results", len(doc.Results)).Msg("results saved")
	return nil
}

// Load reads a document back and validates it.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	if doc.Metadata.Version != documentVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, doc.Metadata.Version)
	}
	if len(doc.Results) == 0 && doc.Multi == nil {
		return nil, ErrNoResults
	}
	for i, r := range doc.Results {
		if err := validateRecord(r); err != nil {
			return nil, fmt.Errorf("store: result %d: %w", i, err)
		}
	}
	return &doc, nil
}

func validateRecord(r *models.StrategyRecord) error {
	if r == nil {
		return errors.New("nil record")
	}
	if r.Name == "" {
		return errors.New("missing strategy name")
	}
	if len(r.Legs) == 0 {
		return errors.New("record has no legs")
	}
	for j, sl := range r.Legs {
		if sl.Leg == nil {
			return fmt.Errorf("leg %d is nil", j)
		}
		if sl.Sign != models.Long && sl.Sign != models.Short {
			return fmt.Errorf("leg %d has sign %d", j, sl.Sign)
		}
	}
	return nil
}
