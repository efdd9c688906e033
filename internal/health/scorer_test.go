package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
)

func samplesWithErrorRate(rates ...float64) []traffic.Sample {
	out := make([]traffic.Sample, 0, len(rates))
	for _, r := range rates {
		out = append(out, traffic.Sample{ErrorRatePct: r})
	}
	return out
}

func TestScore_HealthyNodeIsPerfect(t *testing.T) {
	n := pool.Node{ResponseTimeMs: 45, CurrentConnections: 10, MaxConnections: 100}
	assert.Equal(t, 100, Score(n, samplesWithErrorRate(0.5, 0.2)))
}

func TestScore_PenaltiesAreExclusiveBands(t *testing.T) {
	cases := []struct {
		name     string
		rt       float64
		conns    int
		rates    []float64
		expected int
	}{
		{"slow only", 1001, 0, nil, 60},
		{"medium latency", 501, 0, nil, 75},
		{"mild latency", 201, 0, nil, 90},
		{"latency at boundary", 200, 0, nil, 100},
		{"capacity above 0.9", 0, 91, nil, 70},
		{"capacity above 0.8", 0, 81, nil, 80},
		{"capacity above 0.7", 0, 71, nil, 90},
		{"capacity at 0.7", 0, 70, nil, 100},
		{"errors above 5", 0, 0, []float64{6}, 70},
		{"errors above 2", 0, 0, []float64{3, 2}, 85},
		{"errors above 1", 0, 0, []float64{1.5}, 95},
		{"errors at 1", 0, 0, []float64{1}, 100},
		{"everything bad", 5000, 100, []float64{50}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := pool.Node{ResponseTimeMs: tc.rt, CurrentConnections: tc.conns, MaxConnections: 100}
			assert.Equal(t, tc.expected, Score(n, samplesWithErrorRate(tc.rates...)))
		})
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	for _, rt := range []float64{0, 150, 250, 600, 2000} {
		for _, conns := range []int{0, 72, 85, 95, 200} {
			for _, rate := range []float64{0, 1.5, 3, 10} {
				n := pool.Node{ResponseTimeMs: rt, CurrentConnections: conns, MaxConnections: 100}
				s := Score(n, samplesWithErrorRate(rate))
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, 100)
			}
		}
	}
}

func TestScore_NoSamplesNoErrorPenalty(t *testing.T) {
	assert.Zero(t, ErrorRatePenalty(nil))
	assert.Equal(t, 100, Score(pool.Node{}, nil))
}

func TestApplyHysteresis(t *testing.T) {
	cases := []struct {
		name        string
		enabled     bool
		score       int
		wantEnabled bool
		want        Transition
	}{
		{"enabled below 30 disables", true, 29, false, TransitionDisabled},
		{"enabled at exactly 30 stays", true, 30, true, TransitionNone},
		{"disabled at exactly 30 stays", false, 30, false, TransitionNone},
		{"disabled in dead zone stays", false, 50, false, TransitionNone},
		{"enabled in dead zone stays", true, 50, true, TransitionNone},
		{"disabled at exactly 70 stays", false, 70, false, TransitionNone},
		{"disabled above 70 enables", false, 71, true, TransitionEnabled},
		{"enabled above 70 stays", true, 95, true, TransitionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := pool.Node{Enabled: tc.enabled, HealthScore: tc.score}
			assert.Equal(t, tc.want, ApplyHysteresis(&n))
			assert.Equal(t, tc.wantEnabled, n.Enabled)
		})
	}
}
