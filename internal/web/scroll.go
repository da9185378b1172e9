package web

import (
	"sync"
	"time"
)

// suppressWindow is how long prefetch triggers are ignored after an
// app-initiated scroll.
const suppressWindow = time.Second

// ScrollGuard distinguishes user-driven scrolling from app-driven
// scrolling (the scroll-to-top after a page change).
//
// A page change calls Suppress; the viewport observer that fires right
// after, because the pagination control scrolled into view on its own,
// finds Suppressed true and skips the prefetch. The flag expires on its
// own after one second.
type ScrollGuard struct {
	mu    sync.Mutex
	until time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewScrollGuard creates a guard with the flag unset.
func NewScrollGuard() *ScrollGuard {
	return &ScrollGuard{now: time.Now}
}

// Suppress marks the next second's scroll activity as app-driven.
func (g *ScrollGuard) Suppress() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until = g.now().Add(suppressWindow)
}

// Suppressed reports whether scroll activity should currently be
// treated as app-driven.
func (g *ScrollGuard) Suppressed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.until)
}
