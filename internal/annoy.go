package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	VectorsFilename = "vectors.json"

	// DefaultNumTrees is the tree count used when rebuilding a partition
	// index after ingestion.
	DefaultNumTrees = 10
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex is an angular-distance Annoy index over one section partition;
// partitions never share an index. goannoy indexes are append-only and
// frozen once built, so the source vectors are kept here keyed by question
// id and every build constructs a fresh index from them. Re-adding an id
// replaces its vector and the next build picks up the change, which is what
// makes upsert-on-re-ingest work. Persistence is a JSON sidecar of the raw
// vectors; Load restores it and rebuilds in memory.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	order     []string
	dimension int
	vectors   map[string][]float32
	basePath  string
	built     bool
	dirty     bool
}

type vectorSidecar struct {
	Dimension int                  `json:"dimension"`
	Vectors   map[string][]float32 `json:"vectors"`
}

func NewAnnoyIndex(basePath string, dimension int) (*AnnoyIndex, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	return &AnnoyIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
		basePath:  basePath,
	}, nil
}

func (a *AnnoyIndex) Add(ctx context.Context, id string, emb Embedding) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(emb.Vector) != a.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", a.dimension, len(emb.Vector))
	}

	vec := make([]float32, len(emb.Vector))
	copy(vec, emb.Vector)
	a.vectors[id] = vec
	a.dirty = true
	a.built = false

	return nil
}

func (a *AnnoyIndex) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.vectors[id]; !exists {
		return nil
	}

	delete(a.vectors, id)
	a.dirty = true
	a.built = false

	return nil
}

func (a *AnnoyIndex) Search(ctx context.Context, query Embedding, k int) ([]SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(query.Vector) != a.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", a.dimension, len(query.Vector))
	}

	if k > len(a.order) {
		k = len(a.order)
	}
	if k <= 0 || !a.built || a.idx == nil {
		return nil, nil
	}

	searchCtx := a.idx.CreateContext()
	slots, distances := a.idx.GetNnsByVector(query.Vector, k, -1, searchCtx)

	// goannoy returns neighbors ordered by ascending distance; the raw
	// distances are passed through untouched.
	results := make([]SearchResult, 0, len(slots))
	for i, slot := range slots {
		if int(slot) >= len(a.order) {
			continue
		}

		var dist float32
		if i < len(distances) {
			dist = distances[i]
		}

		results = append(results, SearchResult{
			ID:       a.order[slot],
			Distance: dist,
		})
	}

	return results, nil
}

// Build constructs a fresh index from the current vectors. Item slots are
// assigned densely in sorted-id order so removals leave no gaps.
func (a *AnnoyIndex) Build(ctx context.Context, numTrees int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.rebuild(numTrees)
}

func (a *AnnoyIndex) rebuild(numTrees int) error {
	if numTrees <= 0 {
		numTrees = DefaultNumTrees
	}

	if a.idx != nil {
		if err := a.idx.Close(); err != nil {
			return fmt.Errorf("close stale index: %w", err)
		}
		a.idx = nil
	}

	a.order = nil
	a.built = false

	if len(a.vectors) == 0 {
		return nil
	}

	order := make([]string, 0, len(a.vectors))
	for id := range a.vectors {
		order = append(order, id)
	}
	sort.Strings(order)

	idx := builder.Index[float32, uint32]().
		AngularDistance(a.dimension).
		UseMultiWorkerPolicy().
		Build()

	for slot, id := range order {
		idx.AddItem(uint32(slot), a.vectors[id])
	}
	idx.Build(numTrees, -1)

	a.idx = idx
	a.order = order
	a.built = true

	return nil
}

// Reset drops every vector; the next build starts from an empty set.
func (a *AnnoyIndex) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.vectors = make(map[string][]float32)
	a.dirty = true

	return a.rebuild(DefaultNumTrees)
}

func (a *AnnoyIndex) Save(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sidecar := vectorSidecar{
		Dimension: a.dimension,
		Vectors:   a.vectors,
	}

	data, err := json.Marshal(sidecar)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}

	sidecarPath := filepath.Join(a.basePath, VectorsFilename)
	if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	a.dirty = false
	return nil
}

func (a *AnnoyIndex) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sidecarPath := filepath.Join(a.basePath, VectorsFilename)
	data, err := os.ReadFile(sidecarPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read vectors: %w", err)
	}

	var sidecar vectorSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return fmt.Errorf("unmarshal vectors: %w", err)
	}
	if sidecar.Dimension != a.dimension {
		return fmt.Errorf("dimension mismatch: index has %d, expected %d", sidecar.Dimension, a.dimension)
	}

	a.vectors = sidecar.Vectors
	if a.vectors == nil {
		a.vectors = make(map[string][]float32)
	}

	if err := a.rebuild(DefaultNumTrees); err != nil {
		return err
	}

	a.dirty = false
	return nil
}

func (a *AnnoyIndex) Contains(ctx context.Context, id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.vectors[id]
	return exists
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.vectors)
}
