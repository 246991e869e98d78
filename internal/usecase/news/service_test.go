package news

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/newslens-cloud/newslens/internal/domain"
)

type mockProvider struct {
	gotQuery    string
	gotPageSize int
	articles    []domain.RawArticle
	err         error
}

func (m *mockProvider) Search(_ context.Context, query string, pageSize int) ([]domain.RawArticle, error) {
	m.gotQuery = query
	m.gotPageSize = pageSize
	return m.articles, m.err
}

func TestFetchPassesThrough(t *testing.T) {
	provider := &mockProvider{articles: []domain.RawArticle{{Title: "hello"}}}
	svc := New(provider, zap.NewNop(), "technology", 20)

	got, err := svc.Fetch(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "hello" {
		t.Errorf("Fetch() = %v, want one article", got)
	}
	if provider.gotQuery != "golang" || provider.gotPageSize != 5 {
		t.Errorf("provider called with (%q, %d), want (golang, 5)", provider.gotQuery, provider.gotPageSize)
	}
}

func TestFetchAppliesDefaults(t *testing.T) {
	provider := &mockProvider{}
	svc := New(provider, zap.NewNop(), "science", 15)

	if _, err := svc.Fetch(context.Background(), "", 0); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if provider.gotQuery != "science" || provider.gotPageSize != 15 {
		t.Errorf("provider called with (%q, %d), want (science, 15)", provider.gotQuery, provider.gotPageSize)
	}
}

func TestFetchProviderError(t *testing.T) {
	wantErr := errors.New("upstream down")
	svc := New(&mockProvider{err: wantErr}, zap.NewNop(), "", 0)

	if _, err := svc.Fetch(context.Background(), "q", 1); !errors.Is(err, wantErr) {
		t.Errorf("Fetch() error = %v, want %v", err, wantErr)
	}
}
