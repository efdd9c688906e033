// Package apperr defines the error taxonomy shared by the routing engine.
package apperr

import "errors"

var (
	// ErrNotFound is returned for unknown pool, node, or route IDs.
	ErrNotFound = errors.New("not found")

	// ErrNoHealthyNode is returned when a pool exists but has no enabled
	// node. It is an expected steady-state outcome during outages.
	ErrNoHealthyNode = errors.New("no healthy node available")

	// ErrInvalidSpec is returned for malformed pool, node, or route input.
	ErrInvalidSpec = errors.New("invalid spec")
)
