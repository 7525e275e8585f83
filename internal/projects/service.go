// Package projects exposes orientation projects and their episode series.
package projects

import (
	"context"
	"log/slog"
	"sync"

	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/resource"
)

// episodeScopePrefix namespaces every per-project episode cache in the
// blob store, so persisted episode state can be cleared by prefix even
// for projects this session never opened.
const episodeScopePrefix = "episodes:"

// EpisodeSource builds a per-project episode fetcher. Each project's
// episodes form their own cache scope.
type EpisodeSource interface {
	EpisodeFetcher(projectID string) resource.Fetcher[domain.Episode]
}

// Service exposes project browsing to the UI layer.
type Service struct {
	cache  *resource.Client[domain.Project]
	source EpisodeSource
	blobs  domain.BlobStore
	logger *slog.Logger
	opts   []resource.Option

	mu       sync.Mutex
	episodes map[string]*resource.Client[domain.Episode]
}

// NewService creates a new project service. opts are applied to every
// lazily created episode cache as well.
func NewService(cache *resource.Client[domain.Project], source EpisodeSource, blobs domain.BlobStore, logger *slog.Logger, opts ...resource.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:    cache,
		source:   source,
		blobs:    blobs,
		logger:   logger,
		opts:     opts,
		episodes: make(map[string]*resource.Client[domain.Episode]),
	}
}

func (s *Service) List(ctx context.Context, page, pageSize int, forceRefresh bool) ([]domain.Project, error) {
	return s.cache.GetPage(ctx, page, pageSize, forceRefresh)
}

func (s *Service) Get(ctx context.Context, id string, forceRefresh bool) (domain.Project, error) {
	return s.cache.GetByID(ctx, id, forceRefresh)
}

// Favorite marks a project as a favorite (server-side "like").
func (s *Service) Favorite(ctx context.Context, id string) (domain.Project, error) {
	return s.cache.Mutate(ctx, id, resource.MutationLike)
}

func (s *Service) Unfavorite(ctx context.Context, id string) (domain.Project, error) {
	return s.cache.Mutate(ctx, id, resource.MutationUnlike)
}

// Episodes lists one page of a project's episode series.
func (s *Service) Episodes(ctx context.Context, projectID string, page, pageSize int, forceRefresh bool) ([]domain.Episode, error) {
	return s.episodeCache(projectID).GetPage(ctx, page, pageSize, forceRefresh)
}

// Episode fetches a single episode of a project.
func (s *Service) Episode(ctx context.Context, projectID, id string, forceRefresh bool) (domain.Episode, error) {
	return s.episodeCache(projectID).GetByID(ctx, id, forceRefresh)
}

// LikeEpisode marks one of a project's episodes as liked.
func (s *Service) LikeEpisode(ctx context.Context, projectID, id string) (domain.Episode, error) {
	return s.episodeCache(projectID).Mutate(ctx, id, resource.MutationLike)
}

func (s *Service) UnlikeEpisode(ctx context.Context, projectID, id string) (domain.Episode, error) {
	return s.episodeCache(projectID).Mutate(ctx, id, resource.MutationUnlike)
}

func (s *Service) Preload(ctx context.Context, ids []string) {
	s.cache.Preload(ctx, ids)
}

// ClearCache drops projects and all episode state, memory and persisted.
// Episode scopes from earlier sessions have no live client, so their
// persisted keys are removed by prefix.
func (s *Service) ClearCache() {
	s.cache.ClearCache()
	s.mu.Lock()
	for _, ec := range s.episodes {
		ec.ClearCache()
	}
	s.mu.Unlock()
	s.blobs.RemovePrefix(episodeScopePrefix)
}

// Stats aggregates the project cache with every episode cache opened this
// session.
func (s *Service) Stats() resource.Stats {
	st := s.cache.Stats()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ec := range s.episodes {
		es := ec.Stats()
		st.Items += es.Items
		st.Pages += es.Pages
		st.Liked += es.Liked
	}
	return st
}

func (s *Service) Close() error {
	err := s.cache.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ec := range s.episodes {
		if cerr := ec.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Service) episodeCache(projectID string) *resource.Client[domain.Episode] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ec, ok := s.episodes[projectID]; ok {
		return ec
	}
	ec := resource.New(episodeScopePrefix+projectID, s.source.EpisodeFetcher(projectID), s.blobs, s.logger, s.opts...)
	s.episodes[projectID] = ec
	return ec
}
