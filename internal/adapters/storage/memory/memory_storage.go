// Package memory disponibiliza o storage em memória do rate limiter.
//
// As entradas vivem enquanto o processo viver e nunca são removidas; reiniciar
// o processo zera todas as janelas.
package memory

import (
	"context"
	"sync"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

type Storage struct {
	mu      sync.Mutex
	entries map[string]domain.RateLimitEntry
}

var _ ports.RateLimitStore = (*Storage)(nil)

func New() *Storage {
	return &Storage{entries: make(map[string]domain.RateLimitEntry)}
}

func (s *Storage) Get(_ context.Context, identity string) (domain.RateLimitEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[identity]
	return entry, ok, nil
}

func (s *Storage) Set(_ context.Context, entry domain.RateLimitEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Identity] = entry
	return nil
}

func (s *Storage) Update(ctx context.Context, identity string, fn ports.UpdateFunc) (domain.RateLimitEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.RateLimitEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[identity]
	next := fn(current, ok)
	next.Identity = identity
	s.entries[identity] = next
	return next, nil
}

// Len devolve a quantidade de identidades conhecidas.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
