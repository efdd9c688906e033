package pool

// Capacity returns CurrentConnections/MaxConnections clamped to [0, 1]. A node
// without a connection limit reports zero.
func (n Node) Capacity() float64 {
	if n.MaxConnections <= 0 {
		return 0
	}
	return ClampUnit(float64(n.CurrentConnections) / float64(n.MaxConnections))
}

// ClampUnit clamps v to [0, 1].
func ClampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
