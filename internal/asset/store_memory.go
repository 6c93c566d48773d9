package asset

import (
	"context"
	"sort"
	"sync"

	"fleetworks/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[domain.AssetID]Asset
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assets: make(map[domain.AssetID]Asset)}
}

func (s *InMemoryStore) Save(_ context.Context, a *Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = *a
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AssetID) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *InMemoryStore) FindByRegistration(_ context.Context, vrm domain.VRM) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assets {
		if a.Registration == vrm {
			copied := a
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Asset, 0, len(s.assets))
	for _, a := range s.assets {
		copied := a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	return out, nil
}
