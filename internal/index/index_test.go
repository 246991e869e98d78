package index

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/newslens-cloud/newslens/internal/domain"
)

func art(title string, vec ...float32) domain.Article {
	return domain.Article{Title: title, Source: "test", Vector: vec}
}

func TestUpsert_AssignsSequentialIDs(t *testing.T) {
	idx := New()

	stored, err := idx.Upsert([]domain.Article{art("a", 1, 0), art("b", 0, 1)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if stored[0].ID != 1 || stored[1].ID != 2 {
		t.Errorf("expected ids 1,2, got %d,%d", stored[0].ID, stored[1].ID)
	}

	stored, err = idx.Upsert([]domain.Article{art("c", 1, 1)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if stored[0].ID != 3 {
		t.Errorf("expected id 3, got %d", stored[0].ID)
	}
	if idx.Count() != 3 {
		t.Errorf("expected count 3, got %d", idx.Count())
	}
}

func TestUpsert_DuplicateIDOverwrites(t *testing.T) {
	idx := New()

	if _, err := idx.Upsert([]domain.Article{art("a", 1, 0), art("b", 0, 1)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	replacement := art("a2", 1, 0)
	replacement.ID = 1
	if _, err := idx.Upsert([]domain.Article{replacement}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if idx.Count() != 2 {
		t.Errorf("overwrite must not grow the index: count=%d", idx.Count())
	}
	all := idx.All()
	if all[0].Title != "a2" {
		t.Errorf("expected overwritten entry to keep its rank, got %q first", all[0].Title)
	}
}

func TestUpsert_DimensionMismatchRejectsWholeBatch(t *testing.T) {
	idx := New()
	if _, err := idx.Upsert([]domain.Article{art("a", 1, 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, err := idx.Upsert([]domain.Article{art("b", 0, 1), art("c", 1, 2, 3)})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("failed batch must not be partially applied: count=%d", idx.Count())
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := New()
	hits, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearch_RanksByCosine(t *testing.T) {
	idx := New()
	_, err := idx.Upsert([]domain.Article{
		art("east", 1, 0),
		art("north", 0, 1),
		art("northeast", 1, 1),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Title != "east" || hits[1].Title != "northeast" || hits[2].Title != "north" {
		t.Errorf("unexpected order: %q %q %q", hits[0].Title, hits[1].Title, hits[2].Title)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Errorf("exact match should score 1.0, got %f", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %f > %f", i, hits[i].Score, hits[i-1].Score)
		}
	}
}

func TestSearch_TieBreakKeepsInsertionOrder(t *testing.T) {
	idx := New()
	// Same vector twice: identical scores, earlier insert must win.
	_, err := idx.Upsert([]domain.Article{
		art("first", 3, 4),
		art("second", 3, 4),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	for i := 0; i < 10; i++ {
		hits, err := idx.Search([]float32{3, 4}, 2)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if hits[0].Title != "first" || hits[1].Title != "second" {
			t.Fatalf("tie-break violated: %q before %q", hits[0].Title, hits[1].Title)
		}
	}
}

func TestSearch_ClampsK(t *testing.T) {
	idx := New()
	if _, err := idx.Upsert([]domain.Article{art("a", 1, 0), art("b", 0, 1)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected k clamped to 2, got %d hits", len(hits))
	}
}

func TestSearch_ZeroVectorScoresZero(t *testing.T) {
	idx := New()
	if _, err := idx.Upsert([]domain.Article{art("zero", 0, 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Score != 0 {
		t.Errorf("zero vector must score 0, got %f", hits[0].Score)
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	idx := New()
	if _, err := idx.Upsert([]domain.Article{art("a", 1, 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, err := idx.Search([]float32{1, 0, 0}, 1)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_NeverReturnsVectors(t *testing.T) {
	idx := New()
	if _, err := idx.Upsert([]domain.Article{art("a", 1, 0)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Recommendation carries no vector field; this guards the contract at
	// the metadata level instead.
	hits, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Title != "a" || hits[0].Source != "test" {
		t.Errorf("metadata not carried through: %+v", hits[0])
	}
}

func TestConcurrentUpsertAndSearch(t *testing.T) {
	idx := New()
	const batch = 50

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			arts := make([]domain.Article, batch)
			for j := range arts {
				arts[j] = art("bulk", 1, float32(j))
			}
			if _, err := idx.Upsert(arts); err != nil {
				t.Errorf("Upsert: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hits, err := idx.Search([]float32{1, 1}, batch)
			if err != nil {
				t.Errorf("Search: %v", err)
				return
			}
			// A search must see whole batches only.
			if idx.Count()%batch != 0 && len(hits) > 0 {
				// Count is sampled after Search; only batch multiples are ever stored.
				t.Errorf("observed partial batch: count=%d", idx.Count())
				return
			}
		}
	}()

	wg.Wait()

	if idx.Count() != 20*batch {
		t.Errorf("expected %d articles, got %d", 20*batch, idx.Count())
	}
}
