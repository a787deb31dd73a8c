package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.UsageEvent
	err    error
	block  chan struct{}
	panics bool
}

func (s *recordingSink) Record(ctx context.Context, event domain.UsageEvent) error {
	if s.block != nil {
		<-s.block
	}
	if s.panics {
		panic("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) recorded() []domain.UsageEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UsageEvent(nil), s.events...)
}

type countingMetrics struct {
	ports.NopMetrics
	dropped atomic.Int32
}

func (m *countingMetrics) IncUsageDropped() { m.dropped.Add(1) }

func closeTracker(t *testing.T, tracker *UsageTracker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tracker.Close(ctx))
}

func TestUsageTracker_DeliversToEverySink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewUsageTracker(UsageTrackerConfig{Now: func() time.Time { return now }}, nil, nil, first, second)

	ok := tracker.Track(domain.UsageEvent{Action: domain.ActionReportGenerated, Domain: "example.com", Tier: domain.TierQuick})
	require.True(t, ok)
	closeTracker(t, tracker)

	for _, sink := range []*recordingSink{first, second} {
		events := sink.recorded()
		require.Len(t, events, 1)
		assert.Equal(t, "example.com", events[0].Domain)
		assert.NotEmpty(t, events[0].ID)
		assert.Equal(t, now, events[0].OccurredAt)
	}
}

func TestUsageTracker_SinkFailuresAreSwallowed(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	panicking := &recordingSink{panics: true}
	healthy := &recordingSink{}
	tracker := NewUsageTracker(UsageTrackerConfig{}, nil, nil, failing, panicking, healthy)

	assert.True(t, tracker.Track(domain.UsageEvent{Action: domain.ActionReportGenerated, Domain: "a.com"}))
	assert.True(t, tracker.Track(domain.UsageEvent{Action: domain.ActionReportGenerated, Domain: "b.com"}))
	closeTracker(t, tracker)

	assert.Len(t, healthy.recorded(), 2)
	assert.Len(t, failing.recorded(), 2)
}

func TestUsageTracker_DropsWhenBufferIsFull(t *testing.T) {
	block := make(chan struct{})
	sink := &recordingSink{block: block}
	metrics := &countingMetrics{}
	tracker := NewUsageTracker(UsageTrackerConfig{BufferSize: 1}, metrics, nil, sink)

	// The worker takes the first event and blocks in the sink; the second fills the buffer.
	require.True(t, tracker.Track(domain.UsageEvent{Domain: "1.com"}))
	require.Eventually(t, func() bool {
		return tracker.Track(domain.UsageEvent{Domain: "2.com"})
	}, time.Second, time.Millisecond)

	assert.False(t, tracker.Track(domain.UsageEvent{Domain: "3.com"}))
	assert.GreaterOrEqual(t, metrics.dropped.Load(), int32(1))

	close(block)
	closeTracker(t, tracker)
	assert.GreaterOrEqual(t, len(sink.recorded()), 2)
}

func TestUsageTracker_TrackAfterCloseIsDropped(t *testing.T) {
	metrics := &countingMetrics{}
	tracker := NewUsageTracker(UsageTrackerConfig{}, metrics, nil, &recordingSink{})
	closeTracker(t, tracker)
	closeTracker(t, tracker)

	assert.False(t, tracker.Track(domain.UsageEvent{Domain: "late.com"}))
	assert.Equal(t, int32(1), metrics.dropped.Load())
}

func TestUsageTracker_CloseHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	tracker := NewUsageTracker(UsageTrackerConfig{}, nil, nil, &recordingSink{block: block})
	require.True(t, tracker.Track(domain.UsageEvent{Domain: "slow.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tracker.Close(ctx), context.DeadlineExceeded)
}
