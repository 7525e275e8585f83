// Package search provides local fuzzy search over cached content titles.
// It never touches the network; it only sees what the resource caches
// already hold.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"
)

// Kind labels what an indexed title refers to.
type Kind string

const (
	KindClip    Kind = "clip"
	KindProject Kind = "project"
	KindEpisode Kind = "episode"
	KindNews    Kind = "news"
)

// Item is one searchable entry.
type Item struct {
	ID    string
	Title string
	Kind  Kind
}

// Result is a match with metadata for highlighting.
type Result struct {
	Item
	MatchedIndexes []int
	Score          int // Higher is better
}

// index implements sahilm/fuzzy.Source for zero-allocation matching
type index struct {
	items       []Item
	lowerTitles []string
}

func (idx *index) String(i int) string { return idx.lowerTitles[i] }
func (idx *index) Len() int            { return len(idx.items) }

// Service holds the local title index.
type Service struct {
	logger *slog.Logger

	mu      sync.RWMutex
	idx     *index
	indexed map[string]bool // id -> present, to avoid duplicates
}

// NewService creates a new search service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:  logger,
		idx:     &index{},
		indexed: make(map[string]bool),
	}
}

// Index adds items to the search index, skipping ids already present.
func (s *Service) Index(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, it := range items {
		if it.ID == "" || s.indexed[it.ID] {
			continue
		}
		s.idx.items = append(s.idx.items, it)
		s.idx.lowerTitles = append(s.idx.lowerTitles, strings.ToLower(it.Title))
		s.indexed[it.ID] = true
		added++
	}
	if added > 0 {
		s.logger.Debug("indexed items", "added", added, "total", len(s.idx.items))
	}
}

// Query returns matches ranked best-first. Character-level fuzzy matches
// win; a normalized substring pass catches what the strict matcher misses.
func (s *Service) Query(query string) []Result {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := sahilm.FindFrom(query, s.idx)
	results := make([]Result, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		it := s.idx.items[m.Index]
		results = append(results, Result{
			Item:           it,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
		seen[it.ID] = true
	}

	// Looser pass for accented/substring matches the strict matcher misses
	for i, title := range s.idx.lowerTitles {
		it := s.idx.items[i]
		if seen[it.ID] {
			continue
		}
		if rank := fuzzy.RankMatchNormalizedFold(query, title); rank >= 0 {
			results = append(results, Result{Item: it, Score: -rank})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
