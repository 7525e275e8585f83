package search

import (
	"testing"

	"github.com/casaview/casa/internal/log"
)

func testService() *Service {
	s := NewService(log.Null())
	s.Index([]Item{
		{ID: "c1", Title: "Rooftop Garden Tour", Kind: KindClip},
		{ID: "c2", Title: "Underground Parking", Kind: KindClip},
		{ID: "p1", Title: "Riverside Heights", Kind: KindProject},
		{ID: "n1", Title: "Riverside Heights opens sales office", Kind: KindNews},
	})
	return s
}

func TestQueryRanksBestFirst(t *testing.T) {
	s := testService()

	results := s.Query("riverside")
	if len(results) < 2 {
		t.Fatalf("got %d results; want at least 2", len(results))
	}
	for _, r := range results {
		if r.ID == "c2" {
			t.Error("'Underground Parking' should not match 'riverside'")
		}
	}
}

func TestQueryPartialTokens(t *testing.T) {
	s := testService()

	results := s.Query("roofgar")
	if len(results) == 0 {
		t.Fatal("fuzzy query matched nothing")
	}
	if results[0].ID != "c1" {
		t.Errorf("top result = %s; want c1", results[0].ID)
	}
}

func TestQueryEmpty(t *testing.T) {
	s := testService()
	if got := s.Query("  "); got != nil {
		t.Errorf("blank query = %v; want nil", got)
	}
}

func TestIndexSkipsDuplicates(t *testing.T) {
	s := testService()
	s.Index([]Item{{ID: "c1", Title: "Rooftop Garden Tour", Kind: KindClip}})

	results := s.Query("rooftop")
	count := 0
	for _, r := range results {
		if r.ID == "c1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("c1 appears %d times; want 1", count)
	}
}
