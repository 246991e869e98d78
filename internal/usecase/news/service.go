// Package news fetches current headlines from an external news provider
// and applies the service's topic and page-size defaults.
package news

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newslens-cloud/newslens/internal/domain"
)

// Provider fetches articles matching a query, newest first.
type Provider interface {
	Search(ctx context.Context, query string, pageSize int) ([]domain.RawArticle, error)
}

// Service wraps a news provider with request defaults.
type Service struct {
	provider        Provider
	logger          *zap.Logger
	defaultTopic    string
	defaultPageSize int
}

func New(provider Provider, logger *zap.Logger, defaultTopic string, defaultPageSize int) *Service {
	if defaultTopic == "" {
		defaultTopic = "technology"
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &Service{
		provider:        provider,
		logger:          logger,
		defaultTopic:    defaultTopic,
		defaultPageSize: defaultPageSize,
	}
}

// Fetch returns recent articles for the query. Empty query falls back to
// the default topic, non-positive pageSize to the default page size.
func (s *Service) Fetch(ctx context.Context, query string, pageSize int) ([]domain.RawArticle, error) {
	if query == "" {
		query = s.defaultTopic
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}

	articles, err := s.provider.Search(ctx, query, pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}

	s.logger.Debug("Fetched news",
		zap.String("query", query),
		zap.Int("count", len(articles)),
	)
	return articles, nil
}
