// Package recommend orchestrates article ingestion and similarity queries:
// derive embedding text, batch-embed, store, and rank.
package recommend

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/newslens-cloud/newslens/internal/domain"
	"github.com/newslens-cloud/newslens/internal/metrics"
)

// DefaultTopK is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultTopK = 5

// Service handles ingestion and recommendation queries.
type Service struct {
	idx      Index
	docs     domain.BatchEmbedder
	query    domain.Embedder
	store    ArticleStore
	logger   *zap.Logger
	maxTopK  int
	defaultK int
}

// New creates a recommendation service. Documents and queries may use
// differently decorated embedders, as long as both wrap the same model.
func New(idx Index, docs domain.BatchEmbedder, query domain.Embedder, logger *zap.Logger) *Service {
	return &Service{
		idx:      idx,
		docs:     docs,
		query:    query,
		logger:   logger,
		maxTopK:  100,
		defaultK: DefaultTopK,
	}
}

// WithStore attaches best-effort article persistence.
func (s *Service) WithStore(store ArticleStore) *Service {
	s.store = store
	return s
}

// WithTopKLimits configures the default and maximum top_k.
func (s *Service) WithTopKLimits(defaultK, maxK int) *Service {
	if defaultK > 0 {
		s.defaultK = defaultK
	}
	if maxK > 0 {
		s.maxTopK = maxK
	}
	return s
}

// DefaultTopK returns the configured default result count.
func (s *Service) DefaultTopK() int { return s.defaultK }

// Count returns the number of stored articles.
func (s *Service) Count() int { return s.idx.Count() }

// Ingest embeds and stores a batch of raw articles. Records whose derived
// text is empty are skipped silently; they are not errors and are not
// counted. All surviving texts go to the embedder in one batch call, and
// the resulting articles become visible to queries atomically. Returns the
// number of articles stored.
//
// On embedder failure the index is left untouched.
func (s *Service) Ingest(ctx context.Context, records []domain.RawArticle) (int, error) {
	survivors := make([]domain.Article, 0, len(records))
	texts := make([]string, 0, len(records))

	for _, rec := range records {
		if rec.Text() == "" {
			continue
		}
		survivors = append(survivors, domain.NewArticle(rec))
		texts = append(texts, rec.Text())
	}

	// Nothing worth embedding: succeed without touching the provider.
	if len(survivors) == 0 {
		return 0, nil
	}

	result, err := s.docs.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed articles: %w", err)
	}
	if len(result.Embeddings) != len(survivors) {
		return 0, fmt.Errorf("got %d embeddings for %d articles: %w",
			len(result.Embeddings), len(survivors), domain.ErrEmbeddingProviderError)
	}

	for i := range survivors {
		survivors[i].Vector = result.Embeddings[i]
	}

	stored, err := s.idx.Upsert(survivors)
	if err != nil {
		return 0, fmt.Errorf("store articles: %w", err)
	}

	metrics.IndexArticles.Set(float64(s.idx.Count()))

	s.logger.Info("Articles ingested",
		zap.Int("received", len(records)),
		zap.Int("stored", len(stored)),
		zap.Int("skipped", len(records)-len(stored)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	// Persistence is best-effort: the in-memory index already holds the
	// batch, so a failed write only costs restart recovery.
	if s.store != nil {
		if err := s.store.Save(ctx, stored); err != nil {
			s.logger.Warn("Failed to persist articles", zap.Error(err))
		}
	}

	return len(stored), nil
}

// Recommend returns the topK stored articles most similar to queryText,
// ordered by descending cosine similarity. Scores are rounded to 3 decimal
// places. An empty index yields an empty result without an embedder call.
// topK above the configured maximum is clamped; non-positive topK is an
// ErrInvalidTopK.
func (s *Service) Recommend(ctx context.Context, queryText string, topK int) ([]domain.Recommendation, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("got %d: %w", topK, domain.ErrInvalidTopK)
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	if s.idx.Count() == 0 {
		return []domain.Recommendation{}, nil
	}

	result, err := s.query.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.idx.Search(result.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	for i := range hits {
		hits[i].Score = roundScore(hits[i].Score)
	}
	return hits, nil
}

// roundScore truncates similarity to the 3-decimal display contract.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
