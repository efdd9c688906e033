package traffic

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
)

func TestSyntheticSource_StaysWithinJitterBands(t *testing.T) {
	mock := clock.NewMock()
	src := NewSyntheticSource(rand.New(rand.NewSource(7)), mock)
	base := Baseline{PoolID: "cdn", NodeID: "cdn-1", ResponseTimeMs: 45, ActiveConnections: 300}

	for i := 0; i < 1000; i++ {
		s, ok := src.Sample(context.Background(), base)
		require.True(t, ok)
		assert.Equal(t, "cdn-1", s.NodeID)
		assert.Equal(t, mock.Now(), s.Timestamp)
		assert.GreaterOrEqual(t, s.Requests, 0)
		assert.Less(t, s.Requests, 1000)
		assert.InDelta(t, 45, s.ResponseTimeMs, 5)
		assert.GreaterOrEqual(t, s.ErrorRatePct, 0.0)
		assert.Less(t, s.ErrorRatePct, 5.0)
		assert.InDelta(t, 300, s.ActiveConnections, 10)
	}
}

func TestSyntheticSource_Deterministic(t *testing.T) {
	mock := clock.NewMock()
	a := NewSyntheticSource(rand.New(rand.NewSource(42)), mock)
	b := NewSyntheticSource(rand.New(rand.NewSource(42)), mock)
	base := Baseline{NodeID: "n", ResponseTimeMs: 10, ActiveConnections: 5}

	for i := 0; i < 20; i++ {
		sa, _ := a.Sample(context.Background(), base)
		sb, _ := b.Sample(context.Background(), base)
		assert.Equal(t, sa, sb)
	}
}

func TestSyntheticSource_NeverNegativeConnections(t *testing.T) {
	src := NewSyntheticSource(rand.New(rand.NewSource(1)), clock.NewMock())
	for i := 0; i < 200; i++ {
		s, _ := src.Sample(context.Background(), Baseline{NodeID: "n"})
		assert.GreaterOrEqual(t, s.ActiveConnections, 0)
		assert.GreaterOrEqual(t, s.ResponseTimeMs, 0.0)
	}
}

func TestReportedSource_ConsumesLatestReport(t *testing.T) {
	mock := clock.NewMock()
	src := NewReportedSource(mock)
	base := Baseline{PoolID: "db", NodeID: "replica-1"}

	_, ok := src.Sample(context.Background(), base)
	assert.False(t, ok, "nothing reported yet")

	require.NoError(t, src.Report("db", "replica-1", Sample{ResponseTimeMs: 10}))
	require.NoError(t, src.Report("db", "replica-1", Sample{ResponseTimeMs: 20}))

	s, ok := src.Sample(context.Background(), base)
	require.True(t, ok)
	assert.Equal(t, 20.0, s.ResponseTimeMs)
	assert.Equal(t, "replica-1", s.NodeID)
	assert.Equal(t, mock.Now(), s.Timestamp)

	_, ok = src.Sample(context.Background(), base)
	assert.False(t, ok, "report is consumed once")
}

func TestReportedSource_RejectsInvalidSample(t *testing.T) {
	src := NewReportedSource(nil)
	err := src.Report("db", "n", Sample{ErrorRatePct: 150})
	assert.True(t, errors.Is(err, apperr.ErrInvalidSpec))
}
