package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// UsageTrackerConfig controla o buffer e o tempo máximo de cada sink.
type UsageTrackerConfig struct {
	BufferSize  int
	SinkTimeout time.Duration
	Now         func() time.Time
}

// UsageTracker desacopla o registro de uso do ciclo de requisição: Track só
// enfileira, e um worker entrega aos sinks. Falhas nunca chegam ao chamador.
type UsageTracker struct {
	sinks   []ports.UsageSink
	config  UsageTrackerConfig
	metrics ports.Metrics
	log     *zap.Logger

	events chan domain.UsageEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ ports.UsageTracker = (*UsageTracker)(nil)

func NewUsageTracker(cfg UsageTrackerConfig, metrics ports.Metrics, log *zap.Logger, sinks ...ports.UsageSink) *UsageTracker {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	t := &UsageTracker{
		sinks:   sinks,
		config:  cfg,
		metrics: metrics,
		log:     log,
		events:  make(chan domain.UsageEvent, cfg.BufferSize),
		done:    make(chan struct{}),
	}
	go t.loop()
	return t
}

// Track enfileira o evento sem bloquear; devolve false quando o evento foi descartado.
func (t *UsageTracker) Track(event domain.UsageEvent) bool {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = t.config.Now().UTC()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.metrics.IncUsageDropped()
		return false
	}

	select {
	case t.events <- event:
		return true
	default:
		t.metrics.IncUsageDropped()
		t.log.Warn("usage event dropped, buffer full",
			zap.String("action", event.Action),
			zap.String("domain", event.Domain),
		)
		return false
	}
}

func (t *UsageTracker) loop() {
	defer close(t.done)
	for event := range t.events {
		t.deliver(event)
	}
}

func (t *UsageTracker) deliver(event domain.UsageEvent) {
	for _, sink := range t.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), t.config.SinkTimeout)
		err := t.safeRecord(ctx, sink, event)
		cancel()
		if err != nil {
			t.log.Warn("usage sink failed",
				zap.String("event_id", event.ID),
				zap.Error(domain.WrapError(domain.KindTrackingFailure, "usage tracker", err)),
			)
		}
	}
}

func (t *UsageTracker) safeRecord(ctx context.Context, sink ports.UsageSink, event domain.UsageEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewError(domain.KindTrackingFailure, "usage sink", "sink panicked")
		}
	}()
	return sink.Record(ctx, event)
}

// Close para de aceitar eventos e espera o worker esvaziar a fila ou o ctx expirar.
func (t *UsageTracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
