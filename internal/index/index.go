// Package index implements the in-memory article vector index.
//
// Search is an exact brute-force cosine scan. At news-corpus scale
// (thousands of articles) this is both fast enough and free of the
// approximation error an ANN structure would introduce.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/newslens-cloud/newslens/internal/domain"
)

// Index stores article vectors and serves top-K cosine similarity queries.
//
// A single RWMutex guards all state: Upsert batches become visible
// atomically, while searches share the read lock and run concurrently.
// Vector dimension is fixed by the first stored article.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []domain.Article // insertion order, ties resolve to the earlier entry
	byID    map[int]int      // id -> position in entries
	nextID  int
}

// New creates an empty index.
func New() *Index {
	return &Index{byID: make(map[int]int), nextID: 1}
}

// Upsert stores a batch of articles as one atomic unit.
//
// Articles with ID 0 are assigned the next sequential id. A duplicate id
// overwrites the stored article in place, keeping its insertion rank, so
// Count stays meaningful across repeated ingestion of the same feed.
// The whole batch is rejected on a dimension mismatch; no partial state
// is ever observable.
func (x *Index) Upsert(articles []domain.Article) ([]domain.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	if dim == 0 {
		dim = len(articles[0].Vector)
	}
	for i := range articles {
		if len(articles[i].Vector) != dim || dim == 0 {
			return nil, fmt.Errorf("article %d: got %d dimensions, index has %d: %w",
				i, len(articles[i].Vector), dim, domain.ErrVectorDimMismatch)
		}
	}
	x.dim = dim

	stored := make([]domain.Article, len(articles))
	for i, a := range articles {
		if a.ID == 0 {
			a.ID = x.nextID
		}
		if a.ID >= x.nextID {
			x.nextID = a.ID + 1
		}

		if pos, ok := x.byID[a.ID]; ok {
			x.entries[pos] = a
		} else {
			x.byID[a.ID] = len(x.entries)
			x.entries = append(x.entries, a)
		}
		stored[i] = a
	}

	return stored, nil
}

// Count returns the number of stored articles.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimensions returns the vector dimension, or 0 for an empty index.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// Search returns the top-k stored articles by cosine similarity to query,
// ordered by descending score. Ties keep insertion order, which makes
// repeated identical queries deterministic. k is clamped to Count.
// Scores are raw similarities; display rounding is the caller's concern.
func (x *Index) Search(query []float32, k int) ([]domain.Recommendation, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), x.dim, domain.ErrVectorDimMismatch)
	}

	hits := make([]domain.Recommendation, len(x.entries))
	for i, e := range x.entries {
		hits[i] = domain.Recommendation{
			Title:  e.Title,
			URL:    e.URL,
			Source: e.Source,
			Score:  cosine(query, e.Vector),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// All returns a snapshot of every stored article in insertion order.
// Vectors are shared, not copied; stored vectors are never mutated.
func (x *Index) All() []domain.Article {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]domain.Article, len(x.entries))
	copy(out, x.entries)
	return out
}

// cosine computes dot(a,b)/(|a||b|) in float64. A zero vector on either
// side scores 0 instead of dividing by zero.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
