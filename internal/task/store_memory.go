package task

import (
	"context"
	"sync"

	"fleetworks/pkg/domain"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[domain.TaskID]Task
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[domain.TaskID]Task)}
}

func (s *InMemoryStore) Save(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = *t
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.TaskID) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}
