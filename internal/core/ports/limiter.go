// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

type RateLimiter interface {
	Allow(ctx context.Context, identity string) (domain.Decision, error)
}

type ReportBuilder interface {
	Build(ctx context.Context, req domain.ReportRequest) (domain.ReportDocument, error)
}
