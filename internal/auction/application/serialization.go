package application

import (
	"sync"

	"github.com/google/uuid"
)

// unitTable hands out one mutex per auction. Entries are reference counted
// and dropped as soon as nobody holds or waits on them, so ended, sold and
// cancelled auctions do not accumulate.
type unitTable struct {
	mu    sync.Mutex
	units map[uuid.UUID]*unit
}

type unit struct {
	mu   sync.Mutex
	refs int
}

func newUnitTable() *unitTable {
	return &unitTable{units: make(map[uuid.UUID]*unit)}
}

// acquire blocks until the caller owns the auction's unit and returns the
// matching release func.
func (t *unitTable) acquire(id uuid.UUID) (release func()) {
	t.mu.Lock()
	u, ok := t.units[id]
	if !ok {
		u = &unit{}
		t.units[id] = u
	}
	u.refs++
	t.mu.Unlock()

	u.mu.Lock()
	return func() {
		u.mu.Unlock()
		t.mu.Lock()
		u.refs--
		if u.refs == 0 {
			delete(t.units, id)
		}
		t.mu.Unlock()
	}
}

func (t *unitTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.units)
}
