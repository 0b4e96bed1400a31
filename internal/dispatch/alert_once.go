package dispatch

import (
	"sync"

	"github.com/google/uuid"
)

// alertOnce remembers which request IDs have already produced an
// operator alert. The set is pruned once it grows past maxTracked so a
// long-running process does not accumulate IDs forever.
type alertOnce struct {
	mu         sync.Mutex
	seen       map[uuid.UUID]struct{}
	maxTracked int
}

func newAlertOnce() *alertOnce {
	return &alertOnce{
		seen:       make(map[uuid.UUID]struct{}),
		maxTracked: 4096,
	}
}

// first reports whether this is the first alert for the request ID and
// records it.
func (a *alertOnce) first(id uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[id]; ok {
		return false
	}
	if len(a.seen) >= a.maxTracked {
		a.seen = make(map[uuid.UUID]struct{})
	}
	a.seen[id] = struct{}{}
	return true
}
