package recommend

import (
	"context"

	"github.com/newslens-cloud/newslens/internal/domain"
)

// Index is the vector index consumed by the service. Implementations must
// apply Upsert batches atomically with respect to Search.
type Index interface {
	Upsert(articles []domain.Article) ([]domain.Article, error)
	Search(query []float32, k int) ([]domain.Recommendation, error)
	Count() int
}

// ArticleStore persists stored articles for restart recovery. Optional.
type ArticleStore interface {
	Save(ctx context.Context, arts []domain.Article) error
}
