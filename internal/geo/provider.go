package geo

import "sync"

// LocationProvider supplies the caller's current position on a best-effort
// basis.
type LocationProvider interface {
	CurrentLocation() (Coordinate, bool)
}

// StaticLocation is a LocationProvider holding a settable position.
type StaticLocation struct {
	mu    sync.RWMutex
	coord Coordinate
	known bool
}

// NewStaticLocation returns a provider that knows c when c is non-nil.
func NewStaticLocation(c *Coordinate) *StaticLocation {
	l := &StaticLocation{}
	if c != nil {
		l.coord, l.known = *c, true
	}
	return l
}

// CurrentLocation returns the last set position.
func (l *StaticLocation) CurrentLocation() (Coordinate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.coord, l.known
}

// Set updates the position.
func (l *StaticLocation) Set(c Coordinate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.coord, l.known = c, true
}

// Clear forgets the position.
func (l *StaticLocation) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.coord, l.known = Coordinate{}, false
}
