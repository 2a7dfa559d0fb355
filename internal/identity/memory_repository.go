package identity

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]Actor
	byName map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Actor), byName: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, actor Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[actor.Name]; exists {
		return errors.New("actor name taken")
	}
	r.byID[actor.ID] = actor
	r.byName[actor.Name] = actor.ID
	return nil
}

func (r *memoryRepository) FindByName(_ context.Context, name string) (Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return Actor{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.byID[id]
	if !ok {
		return Actor{}, ErrNotFound
	}
	return actor, nil
}

func (r *memoryRepository) Exists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok, nil
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	actor.TokenVersion = version
	r.byID[id] = actor
	return nil
}
