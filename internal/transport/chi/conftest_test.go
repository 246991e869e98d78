package chi

import (
	"context"

	"github.com/newslens-cloud/newslens/internal/domain"
	healthuc "github.com/newslens-cloud/newslens/internal/usecase/health"
)

type mockRecommender struct {
	gotRecords []domain.RawArticle
	gotQuery   string
	gotTopK    int
	stored     int
	count      int
	recs       []domain.Recommendation
	ingestErr  error
	recErr     error
}

func (m *mockRecommender) Ingest(_ context.Context, records []domain.RawArticle) (int, error) {
	m.gotRecords = records
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	return m.stored, nil
}

func (m *mockRecommender) Recommend(_ context.Context, query string, topK int) ([]domain.Recommendation, error) {
	m.gotQuery = query
	m.gotTopK = topK
	if m.recErr != nil {
		return nil, m.recErr
	}
	return m.recs, nil
}

func (m *mockRecommender) Count() int { return m.count }

func (m *mockRecommender) DefaultTopK() int { return 5 }

type mockNews struct {
	gotQuery    string
	gotPageSize int
	articles    []domain.RawArticle
	err         error
}

func (m *mockNews) Fetch(_ context.Context, query string, pageSize int) ([]domain.RawArticle, error) {
	m.gotQuery = query
	m.gotPageSize = pageSize
	return m.articles, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }
