package ports

import (
	"context"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

type UsageSink interface {
	Record(ctx context.Context, event domain.UsageEvent) error
}

type UsageTracker interface {
	Track(event domain.UsageEvent) bool
}
