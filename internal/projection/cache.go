package projection

import "github.com/mradkov043/discite-omnes-app/internal/domain"

// entry keeps the visible value next to base, the last value known to be in
// the store. A failed write falls back to base once no other write is in flight.
type entry[T Entity[T]] struct {
	value    T
	base     T
	status   domain.SyncStatus
	inflight int
}

// orderedCache keeps entities keyed by id in snapshot order.
type orderedCache[T Entity[T]] struct {
	keys    []string
	entries map[string]*entry[T]
}

func newOrderedCache[T Entity[T]](capacity int) orderedCache[T] {
	return orderedCache[T]{
		keys:    make([]string, 0, capacity),
		entries: make(map[string]*entry[T], capacity),
	}
}

// put inserts or replaces; a replaced id keeps its first position.
func (c *orderedCache[T]) put(e *entry[T]) {
	id := e.value.EntityID()
	if _, ok := c.entries[id]; !ok {
		c.keys = append(c.keys, id)
	}
	c.entries[id] = e
}

func (c *orderedCache[T]) get(id string) (*entry[T], bool) {
	e, ok := c.entries[id]
	return e, ok
}

func (c *orderedCache[T]) len() int {
	return len(c.keys)
}

func (c *orderedCache[T]) values(keep func(T) bool) []T {
	out := make([]T, 0, len(c.keys))
	for _, id := range c.keys {
		v := c.entries[id].value
		if keep != nil && !keep(v) {
			continue
		}
		out = append(out, v.Clone())
	}
	return out
}
