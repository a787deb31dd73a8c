package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// RateLimiterConfig agrega a regra de janela fixa e o relógio usado pelo serviço.
type RateLimiterConfig struct {
	Rule domain.RateLimitRule
	Now  func() time.Time
}

// RateLimiterService implementa a janela fixa com reset preguiçoso por identidade.
type RateLimiterService struct {
	storage ports.RateLimitStore
	config  RateLimiterConfig
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(storage ports.RateLimitStore, cfg RateLimiterConfig) (*RateLimiterService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Rule.Requests <= 0 || cfg.Rule.Window <= 0 {
		return nil, fmt.Errorf("rate limit rule must have positive values")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RateLimiterService{storage: storage, config: cfg}, nil
}

// Allow avalia se a requisição da identidade pode prosseguir dentro da janela atual.
func (s *RateLimiterService) Allow(ctx context.Context, identity string) (domain.Decision, error) {
	identity = normalizeIdentity(identity)
	rule := s.config.Rule
	now := s.config.Now()

	var decision domain.Decision
	_, err := s.storage.Update(ctx, identity, func(entry domain.RateLimitEntry, found bool) domain.RateLimitEntry {
		if !found {
			entry = domain.RateLimitEntry{Identity: identity, WindowResetAt: now.Add(rule.Window)}
		}
		// The window boundary is only noticed on the identity's next request.
		if now.After(entry.WindowResetAt) {
			entry.Count = 0
			entry.WindowResetAt = now.Add(rule.Window)
		}

		decision = domain.Decision{
			Identity: identity,
			Limit:    rule.Requests,
			ResetAt:  entry.WindowResetAt,
		}
		if entry.Count >= rule.Requests {
			decision.Allowed = false
			decision.RetryAfter = retryAfter(entry.WindowResetAt.Sub(now))
			return entry
		}

		entry.Count++
		decision.Allowed = true
		decision.Remaining = rule.Requests - entry.Count
		return entry
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("rate limit store: %w", err)
	}

	if !decision.Allowed {
		return decision, domain.ErrRateLimited
	}
	return decision, nil
}

// retryAfter arredonda para cima em minutos inteiros.
func retryAfter(left time.Duration) time.Duration {
	if left <= 0 {
		return 0
	}
	minutes := (left + time.Minute - 1) / time.Minute
	return minutes * time.Minute
}

func normalizeIdentity(identity string) string {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return domain.UnknownIdentity
	}
	return identity
}
