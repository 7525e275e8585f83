// Package news exposes the news feed.
package news

import (
	"context"
	"log/slog"

	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/resource"
)

// Service exposes news browsing to the UI layer.
type Service struct {
	cache  *resource.Client[domain.NewsItem]
	logger *slog.Logger
}

// NewService creates a new news service.
func NewService(cache *resource.Client[domain.NewsItem], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context, page, pageSize int, forceRefresh bool) ([]domain.NewsItem, error) {
	return s.cache.GetPage(ctx, page, pageSize, forceRefresh)
}

func (s *Service) Get(ctx context.Context, id string, forceRefresh bool) (domain.NewsItem, error) {
	return s.cache.GetByID(ctx, id, forceRefresh)
}

func (s *Service) Like(ctx context.Context, id string) (domain.NewsItem, error) {
	return s.cache.Mutate(ctx, id, resource.MutationLike)
}

func (s *Service) Unlike(ctx context.Context, id string) (domain.NewsItem, error) {
	return s.cache.Mutate(ctx, id, resource.MutationUnlike)
}

func (s *Service) Preload(ctx context.Context, ids []string) {
	s.cache.Preload(ctx, ids)
}

func (s *Service) ClearCache() {
	s.cache.ClearCache()
}

func (s *Service) Stats() resource.Stats {
	return s.cache.Stats()
}

func (s *Service) Close() error {
	return s.cache.Close()
}
