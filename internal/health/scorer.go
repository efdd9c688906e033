// Package health scores node fitness and applies the enable/disable
// hysteresis derived from that score.
package health

import (
	"time"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
)

// ErrorRateWindow is how far back samples count towards the error-rate
// penalty.
const ErrorRateWindow = 5 * time.Minute

// Score computes a node's health in [0, 100] by subtracting penalties for
// response time, capacity and the mean error rate of recent samples from a
// perfect 100.
func Score(n pool.Node, recent []traffic.Sample) int {
	score := 100
	score -= ResponseTimePenalty(n.ResponseTimeMs)
	score -= CapacityPenalty(n.Capacity())
	score -= ErrorRatePenalty(recent)
	return clamp(score)
}

// ResponseTimePenalty is at most 40 points.
func ResponseTimePenalty(ms float64) int {
	switch {
	case ms > 1000:
		return 40
	case ms > 500:
		return 25
	case ms > 200:
		return 10
	}
	return 0
}

// CapacityPenalty is at most 30 points.
func CapacityPenalty(capacity float64) int {
	switch {
	case capacity > 0.9:
		return 30
	case capacity > 0.8:
		return 20
	case capacity > 0.7:
		return 10
	}
	return 0
}

// ErrorRatePenalty is at most 30 points, based on the mean error rate
// percentage of recent. No samples means no penalty.
func ErrorRatePenalty(recent []traffic.Sample) int {
	mean, ok := traffic.MeanErrorRate(recent)
	if !ok {
		return 0
	}
	switch {
	case mean > 5:
		return 30
	case mean > 2:
		return 15
	case mean > 1:
		return 5
	}
	return 0
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
