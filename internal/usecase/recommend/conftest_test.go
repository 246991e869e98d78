package recommend

import (
	"context"
	"errors"

	"github.com/newslens-cloud/newslens/internal/domain"
)

var errProviderDown = errors.New("provider down")

// mockEmbedder returns preset vectors keyed by text and counts calls.
type mockEmbedder struct {
	vectors    map[string][]float32
	embedCalls int
	batchCalls int
	fail       bool
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	if m.fail {
		return domain.EmbeddingResult{}, errProviderDown
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text], TotalTokens: 1}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.fail {
		return domain.BatchEmbeddingResult{}, errProviderDown
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

// mockStore records Save batches and can simulate failures.
type mockStore struct {
	saved [][]domain.Article
	fail  bool
}

func (m *mockStore) Save(_ context.Context, arts []domain.Article) error {
	if m.fail {
		return errors.New("store unavailable")
	}
	m.saved = append(m.saved, arts)
	return nil
}
