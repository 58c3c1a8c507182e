package store

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
)

// testBundle trains a tiny bundle; created orders bundles by time
func testBundle(t *testing.T, id string, created time.Time) *model.Bundle {
	t.Helper()

	r := rand.New(rand.NewPCG(1, 2))
	examples := make([]model.Example, 60)
	raw := make([]features.Vector, len(examples))
	for i := range examples {
		for j := range raw[i] {
			raw[i][j] = r.NormFloat64()
		}
		label := 0
		if raw[i][4] > 0 {
			label = 1
		}
		examples[i] = model.Example{Features: raw[i], Label: label}
	}

	s, err := model.FitScaler(features.Names(), raw)
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}
	params := model.DefaultForestParams()
	params.Trees = 5
	f, err := model.TrainForest(examples, params)
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	return &model.Bundle{ID: id, CreatedAt: created, Scaler: s, Forest: f, Metrics: model.Metrics{Source: "test"}}
}

func openBackends(t *testing.T, keep int) map[string]Store {
	t.Helper()
	out := map[string]Store{}
	for _, backend := range []string{BackendFile, BackendSQLite} {
		s, err := Open(Options{Backend: backend, Dir: t.TempDir(), Keep: keep}, zerolog.Nop())
		if err != nil {
			t.Fatalf("Open(%s): %v", backend, err)
		}
		t.Cleanup(func() { s.Close() })
		out[backend] = s
	}
	return out
}

func TestLoadEmpty(t *testing.T) {
	for name, s := range openBackends(t, 3) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(context.Background()); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load on empty store: %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSaveLoadLatest(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for name, s := range openBackends(t, 3) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"first", "second"} {
				if err := s.Save(ctx, testBundle(t, id, base.Add(time.Duration(i)*time.Minute))); err != nil {
					t.Fatalf("Save %s: %v", id, err)
				}
			}

			b, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if b.ID != "second" {
				t.Errorf("loaded bundle %q, want second", b.ID)
			}
			if err := b.Validate(); err != nil {
				t.Errorf("loaded bundle invalid: %v", err)
			}
		})
	}
}

func TestSaveRejectsIncompleteBundle(t *testing.T) {
	for name, s := range openBackends(t, 3) {
		t.Run(name, func(t *testing.T) {
			b := testBundle(t, "half", time.Now())
			b.Forest = nil
			if err := s.Save(context.Background(), b); !errors.Is(err, model.ErrUntrained) {
				t.Errorf("Save half bundle: %v, want ErrUntrained", err)
			}
		})
	}
}

func TestFileStorePartialPairIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Save(ctx, testBundle(t, "only", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pointer, err := os.ReadFile(filepath.Join(dir, currentFile))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	name := string(pointer[:len(pointer)-1])
	if err := os.Remove(filepath.Join(dir, bundlesDir, name, classifierFile)); err != nil {
		t.Fatalf("remove classifier: %v", err)
	}

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load with missing classifier: %v, want ErrNotFound", err)
	}
}

func TestFileStoreMixedPairIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir, 5, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	a := testBundle(t, "a", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := testBundle(t, "b", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, bundlesDir))
	if err != nil || len(entries) != 2 {
		t.Fatalf("bundle dirs = %d (%v), want 2", len(entries), err)
	}
	// entries are name ordered: a then b. Put a's scaler under b.
	scalerA, err := os.ReadFile(filepath.Join(dir, bundlesDir, entries[0].Name(), scalerFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, bundlesDir, entries[1].Name(), scalerFile), scalerA, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load with mixed pair: %v, want ErrNotFound", err)
	}
}

func TestFileStorePrunes(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if err := s.Save(context.Background(), testBundle(t, string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, bundlesDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("retained %d bundles, want 2", len(entries))
	}
	b, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.ID != "d" {
		t.Errorf("current bundle %q, want d", b.ID)
	}
}

func TestSQLiteStorePrunes(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "models.db"), 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := s.Save(ctx, testBundle(t, string(rune('a'+i)), time.Now())); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	n, err := s.count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("retained %d bundles, want 2", n)
	}
	b, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.ID != "d" {
		t.Errorf("current bundle %q, want d", b.ID)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "redis", Dir: t.TempDir()}, zerolog.Nop()); err == nil {
		t.Error("Open accepted unknown backend")
	}
}
