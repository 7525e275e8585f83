package resource_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/log"
	"github.com/casaview/casa/internal/resource"
	"github.com/casaview/casa/internal/store"
)

// fakeFetcher is an in-memory gateway for clips with switchable failures.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int][]domain.Clip
	byID  map[string]domain.Clip

	pageCalls int32
	itemCalls int32
	mutCalls  int32

	offline       bool // every call fails with a network error
	failMutations bool
	mutGate       chan struct{}  // if set, SendMutation blocks until closed
	mutDelays     chan time.Duration // optional per-call latency
}

func newFakeFetcher(pages ...[]domain.Clip) *fakeFetcher {
	f := &fakeFetcher{
		pages: make(map[int][]domain.Clip),
		byID:  make(map[string]domain.Clip),
	}
	for i, p := range pages {
		f.pages[i+1] = p
		for _, c := range p {
			f.byID[c.ID] = c
		}
	}
	return f
}

func (f *fakeFetcher) setOffline(v bool) {
	f.mu.Lock()
	f.offline = v
	f.mu.Unlock()
}

func (f *fakeFetcher) netErr() error {
	return &domain.TransportError{Kind: domain.TransportNetwork, Err: errors.New("connection refused")}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Clip, error) {
	atomic.AddInt32(&f.pageCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return nil, f.netErr()
	}
	recs, ok := f.pages[page]
	if !ok {
		return nil, nil
	}
	if len(recs) > pageSize {
		recs = recs[:pageSize]
	}
	out := make([]domain.Clip, len(recs))
	copy(out, recs)
	return out, nil
}

func (f *fakeFetcher) FetchByID(ctx context.Context, id string) (domain.Clip, error) {
	atomic.AddInt32(&f.itemCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return domain.Clip{}, f.netErr()
	}
	c, ok := f.byID[id]
	if !ok {
		return domain.Clip{}, &domain.TransportError{Kind: domain.TransportNotFound, Status: 404, Err: errors.New("no such clip")}
	}
	return c, nil
}

func (f *fakeFetcher) SendMutation(ctx context.Context, id string, kind resource.MutationKind) error {
	atomic.AddInt32(&f.mutCalls, 1)
	f.mu.Lock()
	gate := f.mutGate
	delays := f.mutDelays
	offline := f.offline
	fail := f.failMutations
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delays != nil {
		select {
		case d := <-delays:
			time.Sleep(d)
		default:
		}
	}
	if offline || fail {
		return f.netErr()
	}
	return nil
}

func clip(id string, likes int) domain.Clip {
	return domain.Clip{ID: id, Title: "clip " + id, LikeCount: likes}
}

func newTestClient(t *testing.T, f *fakeFetcher, opts ...resource.Option) *resource.Client[domain.Clip] {
	t.Helper()
	blobs, err := store.New("", "")
	require.NoError(t, err)
	c := resource.New("clips", f, blobs, log.Null(), opts...)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetPage_CacheHitSkipsGateway(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0), clip("b", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	first, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt32(&f.pageCalls))
}

func TestGetPage_ExpiryTriggersRefetch(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	c := newTestClient(t, f, resource.WithExpiryWindow(30*time.Millisecond))
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&f.pageCalls))
}

func TestMutate_OptimisticStateVisibleBeforeSettle(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 5)})
	f.mutGate = make(chan struct{})
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Mutate(ctx, "a", resource.MutationLike)
		done <- err
	}()

	// The optimistic value must be readable while the server call is in flight
	require.Eventually(t, func() bool {
		got, err := c.GetByID(ctx, "a", false)
		return err == nil && got.IsLiked && got.LikeCount == 6
	}, time.Second, 5*time.Millisecond)

	close(f.mutGate)
	require.NoError(t, <-done)

	// The read never needed the gateway
	require.EqualValues(t, 0, atomic.LoadInt32(&f.itemCalls))
}

func TestMutate_RollbackOnFailure(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 5)})
	f.failMutations = true
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	_, err = c.Mutate(ctx, "a", resource.MutationLike)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrServerOffline)

	got, err := c.GetByID(ctx, "a", false)
	require.NoError(t, err)
	require.False(t, got.IsLiked)
	require.Equal(t, 5, got.LikeCount)
	require.Equal(t, 0, c.Stats().Liked)
}

func TestMutate_UnlikeNeverGoesNegative(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	got, err := c.Mutate(ctx, "a", resource.MutationUnlike)
	require.NoError(t, err)
	require.Equal(t, 0, got.LikeCount)
	require.False(t, got.IsLiked)
}

func TestMutate_UnknownIDSynthesizesPlaceholder(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)

	got, err := c.Mutate(context.Background(), "ghost", resource.MutationLike)
	require.NoError(t, err)
	require.Equal(t, "ghost", got.ID)
	require.True(t, got.IsLiked)
	require.Equal(t, 1, got.LikeCount)
}

func TestGetPage_FallbackToStalePage(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0), clip("b", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	cached, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	f.setOffline(true)

	got, err := c.GetPage(ctx, 1, 20, true)
	require.NoError(t, err)
	require.Equal(t, cached, got)
}

func TestGetPage_FallbackSliceAcrossPages(t *testing.T) {
	f := newFakeFetcher(
		[]domain.Clip{clip("a", 0), clip("b", 0)},
		[]domain.Clip{clip("c", 0), clip("d", 0)},
	)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 2, false)
	require.NoError(t, err)
	_, err = c.GetPage(ctx, 2, 2, false)
	require.NoError(t, err)

	f.setOffline(true)

	// Page 1 at a size never fetched: served by slicing cached items
	got, err := c.GetPage(ctx, 1, 3, true)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
	require.Equal(t, "c", got[2].ID)
}

func TestGetPage_FallbackToOfflineSnapshot(t *testing.T) {
	blobs, err := store.New(t.TempDir(), "https://api.example.com")
	require.NoError(t, err)
	defer blobs.Close()

	f := newFakeFetcher([]domain.Clip{clip("a", 3), clip("b", 1)})
	c1 := resource.New("clips", f, blobs, log.Null())
	_, err = c1.GetPage(context.Background(), 1, 20, false)
	require.NoError(t, err)
	require.NoError(t, c1.Close()) // Drains the snapshot write

	// Fresh client, empty memory, dead gateway: snapshot tier serves
	f.setOffline(true)
	c2 := resource.New("clips", f, blobs, log.Null())
	defer c2.Close()

	got, err := c2.GetPage(context.Background(), 1, 20, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, 3, got[0].LikeCount)
}

func TestGetPage_CacheExhausted(t *testing.T) {
	f := newFakeFetcher()
	f.setOffline(true)
	c := newTestClient(t, f)

	_, err := c.GetPage(context.Background(), 1, 20, false)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrCacheExhausted)
	require.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestGetByID_NotFoundSurfaces(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)

	_, err := c.GetByID(context.Background(), "missing", false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByID_ServesStaleOnFailure(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 2)})
	c := newTestClient(t, f, resource.WithExpiryWindow(20*time.Millisecond))
	ctx := context.Background()

	_, err := c.GetByID(ctx, "a", false)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	f.setOffline(true)

	got, err := c.GetByID(ctx, "a", false)
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}

func TestMutate_ConcurrentLikesAreSerialized(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	f.mutDelays = make(chan time.Duration, 2)
	f.mutDelays <- 30 * time.Millisecond
	f.mutDelays <- 1 * time.Millisecond
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Mutate(ctx, "a", resource.MutationLike)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := c.GetByID(ctx, "a", false)
	require.NoError(t, err)
	require.Equal(t, 2, got.LikeCount)
	require.True(t, got.IsLiked)
}

func TestLikedStateSurvivesRestart(t *testing.T) {
	blobs, err := store.New(t.TempDir(), "https://api.example.com")
	require.NoError(t, err)
	defer blobs.Close()

	f := newFakeFetcher([]domain.Clip{clip("a", 4)})
	c1 := resource.New("clips", f, blobs, log.Null())
	_, err = c1.Mutate(context.Background(), "a", resource.MutationLike)
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	// New client: the server still reports the clip unliked, but the
	// durable local intent is merged back on fetch
	c2 := resource.New("clips", f, blobs, log.Null())
	defer c2.Close()

	got, err := c2.GetByID(context.Background(), "a", false)
	require.NoError(t, err)
	require.True(t, got.IsLiked)
	require.Equal(t, 5, got.LikeCount)
}

func TestLocalMutationMode(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	f.failMutations = true // would fail if the gateway were consulted
	c := newTestClient(t, f, resource.WithLocalMutations())
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	got, err := c.Mutate(ctx, "a", resource.MutationLike)
	require.NoError(t, err)
	require.True(t, got.IsLiked)
	require.EqualValues(t, 0, atomic.LoadInt32(&f.mutCalls))
}

func TestClearCache(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	_, err = c.Mutate(ctx, "a", resource.MutationLike)
	require.NoError(t, err)

	c.ClearCache()
	c.ClearCache() // Idempotent

	s := c.Stats()
	require.Zero(t, s.Items)
	require.Zero(t, s.Pages)
	require.Zero(t, s.Liked)
}

func TestStats(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0), clip("b", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	_, err = c.Mutate(ctx, "a", resource.MutationLike)
	require.NoError(t, err)

	s := c.Stats()
	require.Equal(t, 2, s.Items)
	require.Equal(t, 1, s.Pages)
	require.Equal(t, 1, s.Liked)
}

func TestItemCapacityEvictsLRU(t *testing.T) {
	f := newFakeFetcher()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("c%d", i)
		f.byID[id] = clip(id, 0)
	}
	c := newTestClient(t, f, resource.WithItemCapacity(2))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetByID(ctx, fmt.Sprintf("c%d", i), false)
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Stats().Items)
}

func TestPreloadWarmsCache(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0), clip("b", 0), clip("c", 0)})
	c := newTestClient(t, f)

	c.Preload(context.Background(), []string{"a", "b", "c", "nope"})
	require.Equal(t, 3, c.Stats().Items)
}

func TestAddNewInvalidatesPages(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)

	c.AddNew(clip("new", 0))

	_, err = c.GetPage(ctx, 1, 20, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&f.pageCalls))
	require.Equal(t, 2, c.Stats().Items) // "new" stayed cached
}

// The full scenario from the product brief: browse, like, read back from
// cache, then go offline and keep browsing stale data with the like merged.
func TestEndToEndOfflineScenario(t *testing.T) {
	f := newFakeFetcher([]domain.Clip{clip("a", 0), clip("b", 0)})
	c := newTestClient(t, f)
	ctx := context.Background()

	page, err := c.GetPage(ctx, 1, 2, false)
	require.NoError(t, err)
	require.Equal(t, "a", page[0].ID)
	require.Equal(t, "b", page[1].ID)

	_, err = c.Mutate(ctx, "a", resource.MutationLike)
	require.NoError(t, err)

	got, err := c.GetByID(ctx, "a", false)
	require.NoError(t, err)
	require.True(t, got.IsLiked)
	require.Equal(t, 1, got.LikeCount)
	require.EqualValues(t, 0, atomic.LoadInt32(&f.itemCalls))

	f.setOffline(true)

	page, err = c.GetPage(ctx, 1, 2, true)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "a", page[0].ID)
	require.Equal(t, "b", page[1].ID)
	require.Equal(t, 1, page[0].LikeCount)
	require.True(t, page[0].IsLiked)
}
