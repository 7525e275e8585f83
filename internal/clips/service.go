// Package clips is the facade screens use for the reel feed. All caching
// behavior lives in internal/resource; this layer only adds upload.
package clips

import (
	"context"
	"io"
	"log/slog"

	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/resource"
)

// Uploader sends a new clip to the server.
type Uploader interface {
	UploadClip(ctx context.Context, fields domain.CreateClipFields, file io.Reader, fileSize int64, progress chan<- domain.UploadProgress) (domain.Clip, error)
}

// Service exposes the clip operations to the UI layer.
type Service struct {
	cache    *resource.Client[domain.Clip]
	uploader Uploader
	logger   *slog.Logger
}

// NewService creates a new clip service.
func NewService(cache *resource.Client[domain.Clip], uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: cache, uploader: uploader, logger: logger}
}

func (s *Service) List(ctx context.Context, page, pageSize int, forceRefresh bool) ([]domain.Clip, error) {
	return s.cache.GetPage(ctx, page, pageSize, forceRefresh)
}

func (s *Service) Get(ctx context.Context, id string, forceRefresh bool) (domain.Clip, error) {
	return s.cache.GetByID(ctx, id, forceRefresh)
}

func (s *Service) Like(ctx context.Context, id string) (domain.Clip, error) {
	return s.cache.Mutate(ctx, id, resource.MutationLike)
}

func (s *Service) Unlike(ctx context.Context, id string) (domain.Clip, error) {
	return s.cache.Mutate(ctx, id, resource.MutationUnlike)
}

// Create uploads a new clip. On success the created clip is cached and
// every retained page is marked stale, since a new clip changes list
// membership. Existing item entries stay cached.
func (s *Service) Create(ctx context.Context, fields domain.CreateClipFields, file io.Reader, fileSize int64, progress chan<- domain.UploadProgress) (domain.Clip, error) {
	clip, err := s.uploader.UploadClip(ctx, fields, file, fileSize, progress)
	if err != nil {
		return domain.Clip{}, err
	}
	s.cache.AddNew(clip)
	s.logger.Info("clip created", "id", clip.ID, "title", clip.Title)
	return clip, nil
}

// Preload warms the cache before a known navigation, ignoring failures.
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
