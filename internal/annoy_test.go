package internal

import (
	"context"
	"testing"
)

func TestAnnoyIndexSearch(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()

	vectors := map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
		"c": {0.9, 0.1, 0, 0},
	}
	for id, vec := range vectors {
		if err := idx.Add(ctx, id, Embedding{Vector: vec}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if err := idx.Build(ctx, 4); err != nil {
		t.Fatalf("build: %v", err)
	}

	results, err := idx.Search(ctx, Embedding{Vector: []float32{1, 0, 0, 0}}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("nearest = %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not ascending: %v", results)
		}
	}
}

func TestAnnoyIndexSearchUnbuilt(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()

	if err := idx.Add(ctx, "a", Embedding{Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := idx.Search(ctx, Embedding{Vector: []float32{1, 0, 0, 0}}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results before build, got %v", results)
	}
}

func TestAnnoyIndexDimensionMismatch(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	if err := idx.Add(context.Background(), "a", Embedding{Vector: []float32{1, 0}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestAnnoyIndexAddAfterSave(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()

	if err := idx.Add(ctx, "a", Embedding{Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := idx.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := idx.Add(ctx, "b", Embedding{Vector: []float32{0, 1, 0, 0}}); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	results, err := idx.Search(ctx, Embedding{Vector: []float32{0, 1, 0, 0}}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 || results[0].ID != "b" {
		t.Errorf("results = %v", results)
	}
}

func TestAnnoyIndexReset(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()

	if err := idx.Add(ctx, "a", Embedding{Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := idx.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if idx.Len() != 0 || idx.Contains(ctx, "a") {
		t.Errorf("reset left %d vectors", idx.Len())
	}

	results, err := idx.Search(ctx, Embedding{Vector: []float32{1, 0, 0, 0}}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results after reset, got %v", results)
	}
}

func TestAnnoyIndexSaveLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	if err := idx.Add(ctx, "a", Embedding{Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := idx.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if reloaded.Len() != 1 || !reloaded.Contains(ctx, "a") {
		t.Errorf("mapping not restored: len=%d", reloaded.Len())
	}

	results, err := reloaded.Search(ctx, Embedding{Vector: []float32{1, 0, 0, 0}}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Errorf("results = %v", results)
	}
}
