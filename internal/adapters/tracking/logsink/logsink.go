// Package logsink grava eventos de uso como linhas de log estruturado.
package logsink

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

type Sink struct {
	log *zap.Logger
}

var _ ports.UsageSink = (*Sink)(nil)

func New(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log.Named("usage")}
}

func (s *Sink) Record(_ context.Context, event domain.UsageEvent) error {
	s.log.Info("usage event",
		zap.String("event_id", event.ID),
		zap.String("action", event.Action),
		zap.String("domain", event.Domain),
		zap.String("tier", string(event.Tier)),
		zap.String("identity", event.Identity),
		zap.String("user_agent", event.UserAgent),
		zap.String("referrer", event.Referrer),
		zap.String("occurred_at", event.OccurredAt.UTC().Format(time.RFC3339)),
	)
	return nil
}
