// Package store persists the routine settings on local disk.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/daypilot/pkg/routine"
)

// RoutineKey is the well-known key the routine settings blob lives under.
const RoutineKey = "routine-settings"

// Config supplies the directory persistence writes into.
type Config interface {
	BasePath() string
}

// Persistence defines the persistence contract for routine settings.
type Persistence interface {
	LoadRoutine() (routine.Settings, error)
	SaveRoutine(s routine.Settings) error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		return nil, errors.New("store: config required")
	}
	basePath := cfg.BasePath()
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("store: base path required")
	}
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      64 * 1024,
	}), basePath: basePath}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
}

// LoadRoutine returns the stored settings, or the defaults when nothing has
// been saved yet. Fields missing from the blob are filled from the defaults.
func (p *persistence) LoadRoutine() (routine.Settings, error) {
	// Read direct so a write made by another session is not masked by the
	// cache.
	rc, err := p.d.ReadStream(RoutineKey, true)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return routine.Default(), nil
		}
		return routine.Default(), fmt.Errorf("store: read %s: %w", RoutineKey, err)
	}
	defer rc.Close()
	val, err := io.ReadAll(rc)
	if err != nil {
		return routine.Default(), fmt.Errorf("store: read %s: %w", RoutineKey, err)
	}
	var s routine.Settings
	if err := json.Unmarshal(val, &s); err != nil {
		return routine.Default(), fmt.Errorf("store: decode %s: %w", RoutineKey, err)
	}
	return s.Merge(), nil
}

// SaveRoutine overwrites the stored settings. Concurrent writers race and
// the last write wins.
func (p *persistence) SaveRoutine(s routine.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", RoutineKey, err)
	}
	if err := p.d.Write(RoutineKey, val); err != nil {
		return fmt.Errorf("store: write %s: %w", RoutineKey, err)
	}
	return nil
}

// keys live flat under the base path, one file per key.
func keyToPathTransform(s string) *diskv.PathKey {
	return &diskv.PathKey{FileName: s}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}
