// Package resource implements the paginated cached resource client: an
// in-memory item/page cache with time-based expiry in front of a remote
// fetcher, durable liked-state, optimistic like/unlike with rollback, and
// a deterministic fallback chain when the server is unreachable.
package resource

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/casaview/casa/internal/domain"
)

const preloadConcurrency = 4

// MutationKind identifies a like-state transition.
type MutationKind int

const (
	MutationLike MutationKind = iota
	MutationUnlike
)

func (k MutationKind) String() string {
	if k == MutationUnlike {
		return "unlike"
	}
	return "like"
}

// Record is the contract cached records must satisfy. Records are value
// types; With* methods return modified copies so a reader never observes
// a half-applied update.
type Record[T any] interface {
	RecordID() string
	WithRecordID(id string) T
	LikeState() (liked bool, count int)
	WithLikeState(liked bool, count int) T
}

// Fetcher is the remote gateway consumed by a Client. Implementations
// translate transport failures into domain.TransportError.
type Fetcher[T Record[T]] interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]T, error)
	FetchByID(ctx context.Context, id string) (T, error)
	SendMutation(ctx context.Context, id string, kind MutationKind) error
}

// Stats reports cache occupancy. Read-only, no side effects.
type Stats struct {
	Items int // Records held in the item cache
	Pages int // Retained page entries
	Liked int // Durable liked-state entries
}

type entry[T any] struct {
	record   T
	cachedAt time.Time
	elem     *list.Element
}

type pageKey struct {
	page     int
	pageSize int
}

type pageEntry struct {
	ids      []string
	cachedAt time.Time
}

// Client caches one resource scope (e.g. clips, news, one project's
// episodes). A single mutex guards all three cache layers; no call
// suspends while holding it, so the cache-hit path is synchronous.
type Client[T Record[T]] struct {
	scope   string
	fetcher Fetcher[T]
	blobs   domain.BlobStore
	logger  *slog.Logger
	opts    options

	mu        sync.Mutex
	items     map[string]*entry[T]
	lru       *list.List // Front = most recently used; values are record ids
	pages     map[pageKey]*pageEntry
	pageOrder []pageKey
	likes     map[string]bool // id -> user intent; presence means explicit

	group   singleflight.Group
	idLocks keyedMutex

	persistCh chan func()
	persistWG sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a client for one resource scope. Liked state is restored
// from the blob store immediately; an ordered single-writer goroutine
// handles all persistence so snapshots are never interleaved.
func New[T Record[T]](scope string, fetcher Fetcher[T], blobs domain.BlobStore, logger *slog.Logger, opts ...Option) *Client[T] {
	if logger == nil {
		logger = slog.Default()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client[T]{
		scope:     scope,
		fetcher:   fetcher,
		blobs:     blobs,
		logger:    logger,
		opts:      o,
		items:     make(map[string]*entry[T]),
		lru:       list.New(),
		pages:     make(map[pageKey]*pageEntry),
		likes:     make(map[string]bool),
		persistCh: make(chan func(), 256),
		done:      make(chan struct{}),
	}

	if raw, ok := blobs.Get(c.likesKey()); ok {
		if err := json.Unmarshal([]byte(raw), &c.likes); err != nil {
			logger.Warn("failed to decode liked state, starting clean", "scope", scope, "error", err)
			c.likes = make(map[string]bool)
		}
	}

	c.persistWG.Add(1)
	go c.persistLoop()
	return c
}

// Close stops the persistence writer after draining queued work.
func (c *Client[T]) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.persistWG.Wait()
	})
	return nil
}

func (c *Client[T]) likesKey() string    { return c.scope + ":likes" }
func (c *Client[T]) snapshotKey() string { return c.scope + ":snapshot" }

// GetPage returns one listing window. A valid page entry is served
// straight from memory; otherwise the gateway is consulted (deduplicated
// across concurrent callers) and on failure the fallback chain runs:
// stale same-key page, best-effort slice of everything cached, persisted
// offline snapshot, then ErrCacheExhausted.
func (c *Client[T]) GetPage(ctx context.Context, page, pageSize int, forceRefresh bool) ([]T, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("invalid page request: page=%d pageSize=%d", page, pageSize)
	}
	key := pageKey{page: page, pageSize: pageSize}

	if !forceRefresh {
		if recs, ok := c.cachedPage(key, false); ok {
			c.logger.Debug("page cache hit", "scope", c.scope, "page", page, "pageSize", pageSize)
			return recs, nil
		}
	}

	v, err, _ := c.group.Do(fmt.Sprintf("page:%d:%d", page, pageSize), func() (interface{}, error) {
		recs, err := c.fetcher.FetchPage(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		return c.storePage(key, recs), nil
	})
	if err == nil {
		return v.([]T), nil
	}

	c.logger.Warn("page fetch failed, walking fallback chain", "scope", c.scope, "page", page, "error", err)

	if recs, ok := c.cachedPage(key, true); ok {
		return recs, nil
	}
	if recs, ok := c.sliceCached(page, pageSize); ok {
		return recs, nil
	}
	if recs, ok := c.sliceSnapshot(page, pageSize); ok {
		return recs, nil
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrCacheExhausted, err)
}

// GetByID returns a single record, from cache when fresh. On a failed
// fetch any cached copy is served regardless of staleness; NotFound with
// nothing cached surfaces immediately.
func (c *Client[T]) GetByID(ctx context.Context, id string, forceRefresh bool) (T, error) {
	var zero T

	if !forceRefresh {
		if rec, ok := c.cachedItem(id, false); ok {
			return rec, nil
		}
	}

	v, err, _ := c.group.Do("item:"+id, func() (interface{}, error) {
		rec, err := c.fetcher.FetchByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		merged := c.mergeLikedLocked(rec)
		c.upsertLocked(merged, time.Now())
		c.mu.Unlock()
		return merged, nil
	})
	if err == nil {
		return v.(T), nil
	}

	if rec, ok := c.cachedItem(id, true); ok {
		c.logger.Warn("item fetch failed, serving stale copy", "scope", c.scope, "id", id, "error", err)
		return rec, nil
	}
	return zero, err
}

// Mutate applies a like/unlike optimistically, persists the intent, then
// confirms with the gateway, rolling back exactly on failure. Calls for
// the same id are serialized; the optimistic state is visible to readers
// the moment this call takes effect. Once applied, the server call runs
// to completion even if the caller's context is cancelled.
func (c *Client[T]) Mutate(ctx context.Context, id string, kind MutationKind) (T, error) {
	var zero T

	unlock := c.idLocks.lock(id)
	defer unlock()

	c.mu.Lock()
	prev, hadItem := c.items[id]
	var prevRecord T
	var prevCachedAt time.Time
	base := zero.WithRecordID(id)
	if hadItem {
		prevRecord = prev.record
		prevCachedAt = prev.cachedAt
		base = prev.record
	}
	prevIntent, hadIntent := c.likes[id]

	_, count := base.LikeState()
	var next T
	switch kind {
	case MutationLike:
		next = base.WithLikeState(true, count+1)
	case MutationUnlike:
		next = base.WithLikeState(false, maxInt(count-1, 0))
	default:
		c.mu.Unlock()
		return zero, fmt.Errorf("unknown mutation kind: %d", kind)
	}

	if hadItem {
		// Optimistic state does not refresh payload freshness
		prev.record = next
		c.lru.MoveToFront(prev.elem)
	} else {
		// Placeholder for a record we have never fetched; zero cachedAt
		// keeps it permanently stale so the next GetByID refetches
		c.upsertLocked(next, time.Time{})
	}
	c.likes[id] = kind == MutationLike
	likesCopy := c.copyLikesLocked()
	c.mu.Unlock()

	c.enqueuePersist(func() { c.saveLikes(likesCopy) })

	if c.opts.localMutations {
		return next, nil
	}

	if err := c.fetcher.SendMutation(context.WithoutCancel(ctx), id, kind); err != nil {
		c.mu.Lock()
		if e, ok := c.items[id]; ok {
			if hadItem {
				e.record = prevRecord
				e.cachedAt = prevCachedAt
			} else {
				c.removeItemLocked(id)
			}
		}
		if hadIntent {
			c.likes[id] = prevIntent
		} else {
			delete(c.likes, id)
		}
		rolledBack := c.copyLikesLocked()
		c.mu.Unlock()

		c.enqueuePersist(func() { c.saveLikes(rolledBack) })
		c.logger.Warn("mutation failed, rolled back", "scope", c.scope, "id", id, "kind", kind.String(), "error", err)
		return zero, err
	}

	return next, nil
}

// AddNew inserts a freshly created record and marks every retained page
// stale: creation changes list membership, which the page cache cannot
// reconcile incrementally. Existing item entries are untouched.
func (c *Client[T]) AddNew(rec T) {
	c.mu.Lock()
	c.upsertLocked(c.mergeLikedLocked(rec), time.Now())
	for _, pe := range c.pages {
		pe.cachedAt = time.Time{}
	}
	c.mu.Unlock()
}

// Invalidate marks every retained page entry stale without evicting items.
func (c *Client[T]) Invalidate() {
	c.mu.Lock()
	for _, pe := range c.pages {
		pe.cachedAt = time.Time{}
	}
	c.mu.Unlock()
}

// Preload warms the item cache with a best-effort fetch per id; failures
// are logged and ignored.
func (c *Client[T]) Preload(ctx context.Context, ids []string) {
	g := new(errgroup.Group)
	g.SetLimit(preloadConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := c.GetByID(ctx, id, false); err != nil {
				c.logger.Debug("preload skipped id", "scope", c.scope, "id", id, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

// ClearCache drops all three layers, memory and persisted. Idempotent.
func (c *Client[T]) ClearCache() {
	c.mu.Lock()
	c.items = make(map[string]*entry[T])
	c.lru.Init()
	c.pages = make(map[pageKey]*pageEntry)
	c.pageOrder = nil
	c.likes = make(map[string]bool)
	c.mu.Unlock()

	// Queued behind pending saves so a stale snapshot cannot resurface
	c.enqueuePersist(func() {
		c.blobs.Remove(c.likesKey())
		c.blobs.Remove(c.snapshotKey())
	})
	c.logger.Info("cache cleared", "scope", c.scope)
}

// Stats returns current cache occupancy.
func (c *Client[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Items: len(c.items),
		Pages: len(c.pages),
		Liked: len(c.likes),
	}
}

// === internals ===

func (c *Client[T]) cachedPage(key pageKey, allowStale bool) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pe, ok := c.pages[key]
	if !ok {
		return nil, false
	}
	if !allowStale && time.Since(pe.cachedAt) >= c.opts.expiry {
		return nil, false
	}

	recs := make([]T, 0, len(pe.ids))
	for _, id := range pe.ids {
		e, ok := c.items[id]
		if !ok {
			// A member was evicted; the page can no longer be served whole
			return nil, false
		}
		c.lru.MoveToFront(e.elem)
		recs = append(recs, c.mergeLikedLocked(e.record))
	}
	return recs, true
}

func (c *Client[T]) cachedItem(id string, allowStale bool) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	if !ok {
		return zero, false
	}
	if !allowStale && time.Since(e.cachedAt) >= c.opts.expiry {
		return zero, false
	}
	c.lru.MoveToFront(e.elem)
	return c.mergeLikedLocked(e.record), true
}

// storePage upserts a fetched page atomically: every record of the page
// lands in the item cache under the same lock acquisition, so a reader
// never sees a page mixing two fetch epochs.
func (c *Client[T]) storePage(key pageKey, recs []T) []T {
	now := time.Now()

	c.mu.Lock()
	merged := make([]T, len(recs))
	ids := make([]string, len(recs))
	for i, rec := range recs {
		m := c.mergeLikedLocked(rec)
		c.upsertLocked(m, now)
		merged[i] = m
		ids[i] = m.RecordID()
	}
	if _, ok := c.pages[key]; !ok {
		c.pageOrder = append(c.pageOrder, key)
		for len(c.pageOrder) > c.opts.pageCap {
			oldest := c.pageOrder[0]
			c.pageOrder = c.pageOrder[1:]
			delete(c.pages, oldest)
		}
	}
	c.pages[key] = &pageEntry{ids: ids, cachedAt: now}
	snapshot := c.orderedRecordsLocked()
	c.mu.Unlock()

	c.enqueuePersist(func() { c.saveSnapshot(snapshot) })
	return merged
}

// mergeLikedLocked reconciles a record with the durable local intent:
// server truth wins for the payload, user intent wins for like state
// until the server agrees.
func (c *Client[T]) mergeLikedLocked(rec T) T {
	intent, ok := c.likes[rec.RecordID()]
	if !ok {
		return rec
	}
	liked, count := rec.LikeState()
	if intent && !liked {
		return rec.WithLikeState(true, count+1)
	}
	if !intent && liked {
		return rec.WithLikeState(false, maxInt(count-1, 0))
	}
	return rec
}

func (c *Client[T]) upsertLocked(rec T, at time.Time) {
	id := rec.RecordID()
	if e, ok := c.items[id]; ok {
		e.record = rec
		e.cachedAt = at
		c.lru.MoveToFront(e.elem)
		return
	}
	e := &entry[T]{record: rec, cachedAt: at}
	e.elem = c.lru.PushFront(id)
	c.items[id] = e

	for len(c.items) > c.opts.itemCap {
		back := c.lru.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(string)
		c.lru.Remove(back)
		delete(c.items, evicted)
	}
}

func (c *Client[T]) removeItemLocked(id string) {
	if e, ok := c.items[id]; ok {
		c.lru.Remove(e.elem)
		delete(c.items, id)
	}
}

func (c *Client[T]) copyLikesLocked() map[string]bool {
	out := make(map[string]bool, len(c.likes))
	for k, v := range c.likes {
		out[k] = v
	}
	return out
}

// orderedRecordsLocked flattens everything cached for the scope into one
// deterministic sequence: page members in page order first, then any
// remaining items sorted by id.
func (c *Client[T]) orderedRecordsLocked() []T {
	keys := make([]pageKey, 0, len(c.pages))
	for k := range c.pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pageSize != keys[j].pageSize {
			return keys[i].pageSize < keys[j].pageSize
		}
		return keys[i].page < keys[j].page
	})

	seen := make(map[string]bool, len(c.items))
	out := make([]T, 0, len(c.items))
	for _, k := range keys {
		for _, id := range c.pages[k].ids {
			if seen[id] {
				continue
			}
			if e, ok := c.items[id]; ok {
				out = append(out, e.record)
				seen[id] = true
			}
		}
	}

	rest := make([]string, 0, len(c.items))
	for id := range c.items {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		out = append(out, c.items[id].record)
	}
	return out
}

func (c *Client[T]) sliceCached(page, pageSize int) ([]T, bool) {
	c.mu.Lock()
	all := c.orderedRecordsLocked()
	for i, rec := range all {
		all[i] = c.mergeLikedLocked(rec)
	}
	c.mu.Unlock()
	return slicePage(all, page, pageSize)
}

func (c *Client[T]) sliceSnapshot(page, pageSize int) ([]T, bool) {
	raw, ok := c.blobs.Get(c.snapshotKey())
	if !ok {
		return nil, false
	}
	var recs []T
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		c.logger.Warn("corrupt offline snapshot, ignoring", "scope", c.scope, "error", err)
		return nil, false
	}

	c.mu.Lock()
	for i, rec := range recs {
		recs[i] = c.mergeLikedLocked(rec)
	}
	c.mu.Unlock()

	return slicePage(recs, page, pageSize)
}

func slicePage[T any](all []T, page, pageSize int) ([]T, bool) {
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, false
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], true
}

// === persistence writer ===

func (c *Client[T]) persistLoop() {
	defer c.persistWG.Done()
	for {
		select {
		case job := <-c.persistCh:
			job()
		case <-c.done:
			for {
				select {
				case job := <-c.persistCh:
					job()
				default:
					return
				}
			}
		}
	}
}

// enqueuePersist hands a persistence job to the single writer, keeping
// write order identical to mutation order. After Close the job runs
// inline instead of being dropped.
func (c *Client[T]) enqueuePersist(job func()) {
	select {
	case <-c.done:
		job()
		return
	default:
	}
	select {
	case c.persistCh <- job:
	case <-c.done:
		job()
	}
}

func (c *Client[T]) saveLikes(likes map[string]bool) {
	data, err := json.Marshal(likes)
	if err != nil {
		c.logger.Error("failed to encode liked state", "scope", c.scope, "error", err)
		return
	}
	if err := c.blobs.Set(c.likesKey(), string(data)); err != nil {
		c.logger.Warn("failed to persist liked state", "scope", c.scope, "error", err)
	}
}

func (c *Client[T]) saveSnapshot(recs []T) {
	data, err := json.Marshal(recs)
	if err != nil {
		c.logger.Error("failed to encode offline snapshot", "scope", c.scope, "error", err)
		return
	}
	if err := c.blobs.Set(c.snapshotKey(), string(data)); err != nil {
		c.logger.Warn("failed to persist offline snapshot", "scope", c.scope, "error", err)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
