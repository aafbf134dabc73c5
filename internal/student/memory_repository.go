package student

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	configs map[string]Config
}

// NewMemoryRepository builds an in-memory student config store for dev
// mode and testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{configs: make(map[string]Config)}
}

func (r *memoryRepository) Get(_ context.Context, phoneNumberID string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[phoneNumberID]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

func (r *memoryRepository) Create(_ context.Context, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.PhoneNumberID]; exists {
		return ErrAlreadyExists
	}
	r.configs[cfg.PhoneNumberID] = cfg
	return nil
}

func (r *memoryRepository) Put(_ context.Context, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.PhoneNumberID] = cfg
	return nil
}
