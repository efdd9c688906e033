// Package traffic keeps bounded per-node histories of sampled traffic and the
// sources those samples come from.
package traffic

import (
	"fmt"
	"time"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
)

// Sample is one observation of a node's traffic. Samples are immutable once
// appended to a Window.
type Sample struct {
	NodeID            string    `json:"nodeId"`
	Timestamp         time.Time `json:"timestamp"`
	Requests          int       `json:"requests"`
	ResponseTimeMs    float64   `json:"responseTimeMs"`
	ErrorRatePct      float64   `json:"errorRatePct"`
	BandwidthMbps     float64   `json:"bandwidthMbps"`
	ActiveConnections int       `json:"activeConnections"`
}

// Validate checks the ranges of an externally reported sample.
func (s Sample) Validate() error {
	switch {
	case s.Requests < 0:
		return fmt.Errorf("%w: requests must not be negative", apperr.ErrInvalidSpec)
	case s.ResponseTimeMs < 0:
		return fmt.Errorf("%w: responseTimeMs must not be negative", apperr.ErrInvalidSpec)
	case s.ErrorRatePct < 0 || s.ErrorRatePct > 100:
		return fmt.Errorf("%w: errorRatePct must be within [0, 100]", apperr.ErrInvalidSpec)
	case s.BandwidthMbps < 0:
		return fmt.Errorf("%w: bandwidthMbps must not be negative", apperr.ErrInvalidSpec)
	case s.ActiveConnections < 0:
		return fmt.Errorf("%w: activeConnections must not be negative", apperr.ErrInvalidSpec)
	}
	return nil
}

// MeanErrorRate returns the average ErrorRatePct of samples, and false when
// samples is empty.
func MeanErrorRate(samples []Sample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	total := 0.0
	for _, s := range samples {
		total += s.ErrorRatePct
	}
	return total / float64(len(samples)), true
}

// Key qualifies a node ID with its pool so that node IDs only need to be
// unique within one pool.
func Key(poolID, nodeID string) string {
	return poolID + "/" + nodeID
}
