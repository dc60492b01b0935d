package vecstore

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW tuning defaults.
const (
	graphM        = 16
	graphEfSearch = 20
	graphMl       = 0.25
)

// vectorGraph wraps a coder/hnsw graph with string chunk ids. Vectors are
// normalized on insert for cosine distance. Removal is lazy: the mapping
// entry is dropped and the graph node orphaned, because coder/hnsw breaks
// when the last node is deleted. Orphaned nodes never surface because
// lookups go through the mapping.
type vectorGraph struct {
	mu    sync.Mutex
	graph *hnsw.Graph[uint64]
	dims  int

	idToKey map[string]uint64
	keyToID map[uint64]string
	nextKey uint64
}

// graphState is the gob-persisted id mapping.
type graphState struct {
	IDToKey    map[string]uint64
	NextKey    uint64
	Dimensions int
}

func newVectorGraph(dims int) *vectorGraph {
	return &vectorGraph{
		graph:   newHNSWGraph(),
		dims:    dims,
		idToKey: make(map[string]uint64),
		keyToID: make(map[uint64]string),
	}
}

func newHNSWGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = graphM
	g.EfSearch = graphEfSearch
	g.Ml = graphMl
	return g
}

// upsert inserts vectors keyed by chunk id, replacing existing ids.
func (g *vectorGraph) upsert(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, v := range vectors {
		if len(v) != g.dims {
			return ErrDimensionMismatch{Expected: g.dims, Got: len(v)}
		}
	}

	for i, id := range ids {
		if oldKey, ok := g.idToKey[id]; ok {
			delete(g.keyToID, oldKey)
			delete(g.idToKey, id)
		}

		key := g.nextKey
		g.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		g.graph.Add(hnsw.MakeNode(key, vec))
		g.idToKey[id] = key
		g.keyToID[key] = id
	}

	return nil
}

// remove drops ids from the mapping, orphaning their graph nodes.
func (g *vectorGraph) remove(ids []string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if key, ok := g.idToKey[id]; ok {
			delete(g.keyToID, key)
			delete(g.idToKey, id)
			removed++
		}
	}
	return removed
}

func (g *vectorGraph) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.idToKey)
}

func (g *vectorGraph) orphans() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph.Len() - len(g.idToKey)
}

// save persists the graph and id mapping with temp-file-then-rename.
func (g *vectorGraph) save(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	if err := g.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close graph file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename graph file: %w", err)
	}

	return g.saveState(path + ".state")
}

func (g *vectorGraph) saveState(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	state := graphState{IDToKey: g.idToKey, NextKey: g.nextKey, Dimensions: g.dims}
	if err := gob.NewEncoder(file).Encode(state); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode graph state: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close state file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// load restores a saved graph. A missing file leaves the graph empty.
func (g *vectorGraph) load(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	statePath := path + ".state"
	stateFile, err := os.Open(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open graph state: %w", err)
	}
	defer func() { _ = stateFile.Close() }()

	var state graphState
	if err := gob.NewDecoder(stateFile).Decode(&state); err != nil {
		return fmt.Errorf("decode graph state: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open graph file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// coder/hnsw Import requires an io.ByteReader.
	if err := g.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	g.idToKey = state.IDToKey
	g.nextKey = state.NextKey
	g.dims = state.Dimensions
	g.keyToID = make(map[uint64]string, len(state.IDToKey))
	for id, key := range state.IDToKey {
		g.keyToID[key] = id
	}

	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
