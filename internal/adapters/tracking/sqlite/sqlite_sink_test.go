package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_RecordAndCount(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []domain.UsageEvent{
		{ID: "1", Action: domain.ActionReportGenerated, Domain: "a.com", Tier: domain.TierQuick, OccurredAt: base},
		{ID: "2", Action: domain.ActionReportGenerated, Domain: "b.com", Tier: domain.TierDetailed, OccurredAt: base.Add(time.Minute)},
		{ID: "3", Action: domain.ActionReportGenerated, Domain: "b.com", Tier: domain.TierStandard, OccurredAt: base.Add(2 * time.Minute)},
		{ID: "4", Action: "form_opened", Domain: "a.com", OccurredAt: base},
	}
	for _, e := range events {
		require.NoError(t, s.Record(ctx, e))
	}

	counts, err := s.CountByDomain(ctx, domain.ActionReportGenerated)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "b.com", counts[0].Domain)
	assert.Equal(t, 2, counts[0].Count)
	assert.True(t, base.Add(2*time.Minute).Equal(counts[0].LastAt), counts[0].LastAt)
	assert.Equal(t, "a.com", counts[1].Domain)
	assert.Equal(t, 1, counts[1].Count)
}

func TestStorage_DuplicateIDIsIgnored(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	event := domain.UsageEvent{ID: "dup", Action: domain.ActionReportGenerated, Domain: "a.com", OccurredAt: time.Now()}

	require.NoError(t, s.Record(ctx, event))
	require.NoError(t, s.Record(ctx, event))

	counts, err := s.CountByDomain(ctx, domain.ActionReportGenerated)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Count)
}

func TestStorage_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	s, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), domain.UsageEvent{ID: "1", Action: "x", Domain: "a.com", OccurredAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = NewStorage(path)
	require.NoError(t, err)
	defer s.Close()
	counts, err := s.CountByDomain(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, counts, 1)
}

func TestStorage_RecordHonorsCancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Record(ctx, domain.UsageEvent{ID: "1", Action: "x", Domain: "a.com", OccurredAt: time.Now()})
	assert.Error(t, err)
}
