package planner

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hznxin/tripmind/core"
)

// StaticPOIStore is an in-memory core.POIStore. POIs are held per city,
// sorted by id at insertion so ListInCity iterates in a stable order
// across calls.
type StaticPOIStore struct {
	mu     sync.RWMutex
	byCity map[string][]core.POI
}

// NewStaticPOIStore creates an empty store.
func NewStaticPOIStore() *StaticPOIStore {
	return &StaticPOIStore{byCity: make(map[string][]core.POI)}
}

// Add inserts POIs, keeping each city's slice sorted by POI id.
func (s *StaticPOIStore) Add(pois ...core.POI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, poi := range pois {
		city := strings.ToLower(poi.City)
		s.byCity[city] = append(s.byCity[city], poi)
	}
	for city := range s.byCity {
		sort.Slice(s.byCity[city], func(i, j int) bool {
			return s.byCity[city][i].ID < s.byCity[city][j].ID
		})
	}
}

// ListInCity returns a copy of the city's POIs in id order.
func (s *StaticPOIStore) ListInCity(ctx context.Context, city string) ([]core.POI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pois := s.byCity[strings.ToLower(city)]
	out := make([]core.POI, len(pois))
	copy(out, pois)
	return out, nil
}
