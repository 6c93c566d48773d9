package category

import (
	"context"
	"sort"
	"sync"

	"fleetworks/pkg/domain"
)

// InMemoryStore backs unit tests and local development.
type InMemoryStore struct {
	mu         sync.RWMutex
	categories map[domain.CategoryID]Category
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{categories: make(map[domain.CategoryID]Category)}
}

func (s *InMemoryStore) Save(_ context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = *c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CategoryID) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) ListActive(_ context.Context, class AssetClass) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Category
	for _, c := range s.categories {
		if !c.Active {
			continue
		}
		if class != "" && !c.AppliesToClass(class) {
			continue
		}
		copied := c
		out = append(out, &copied)
	}
	sortByName(out)
	return out, nil
}

func (s *InMemoryStore) FindBySource(_ context.Context, source ExternalSource) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Category
	for _, c := range s.categories {
		if c.Active && c.Source == source {
			copied := c
			out = append(out, &copied)
		}
	}
	sortByName(out)
	return out, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, id domain.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return ErrNotFound
	}
	c.Active = false
	s.categories[id] = c
	return nil
}

// sortByName keeps listings deterministic; map iteration order is not.
func sortByName(cs []*Category) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
