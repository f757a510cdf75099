package store

import (
	"os"
	"path/filepath"
	"testing"

	"tableflip.dev/daypilot/pkg/routine"
)

func TestLoadRoutineDefaultsWhenMissing(t *testing.T) {
	p, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}
	got, err := p.LoadRoutine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != routine.Default() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveRoutineRoundTrip(t *testing.T) {
	base := t.TempDir()
	p, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}
	s := routine.Default()
	s.WakeTime = "05:45"
	s.FocusBlockMinutes = 50
	if err := p.SaveRoutine(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, RoutineKey)); err != nil {
		t.Fatalf("expected blob on disk: %v", err)
	}

	// a second handle sees the write, as another session would
	other, _ := Load(testConfig{path: base})
	got, err := other.LoadRoutine()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != s {
		t.Fatalf("expected %+v, got %+v", s, got)
	}
}

func TestSaveRoutineRejectsInvalid(t *testing.T) {
	p, _ := Load(testConfig{path: t.TempDir()})
	s := routine.Default()
	s.WorkEnd = "08:00"
	if err := p.SaveRoutine(s); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRoutineCorruptBlob(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, RoutineKey), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, _ := Load(testConfig{path: base})
	got, err := p.LoadRoutine()
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if got != routine.Default() {
		t.Fatalf("expected defaults alongside error")
	}
}

func TestLoadRequiresPath(t *testing.T) {
	if _, err := Load(testConfig{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
