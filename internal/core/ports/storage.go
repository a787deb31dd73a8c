// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

// UpdateFunc recebe a entrada atual (found=false quando ainda não existe) e devolve a nova.
type UpdateFunc func(entry domain.RateLimitEntry, found bool) domain.RateLimitEntry

// RateLimitStore guarda uma RateLimitEntry por identidade.
type RateLimitStore interface {
	Get(ctx context.Context, identity string) (domain.RateLimitEntry, bool, error)
	Set(ctx context.Context, entry domain.RateLimitEntry) error
	// Update executa leitura, fn e escrita como um único passo atômico por identidade.
	Update(ctx context.Context, identity string, fn UpdateFunc) (domain.RateLimitEntry, error)
}
