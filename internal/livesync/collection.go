package livesync

import (
	"sync"
	"time"
)

// Collection is one displayed list. Events from the push channel and from
// the user's own calls are applied one at a time through Apply, with two
// guards on top of the plain rule:
//
//   - a row older than the copy already held is discarded, so a late push
//     cannot undo a newer local response (or the reverse)
//   - a deleted id is not re-inserted by a create that is not newer than
//     the deleted row
//
// An insert for an id already held is treated as an update.
type Collection[T Entity] struct {
	mu       sync.Mutex
	items    []T
	deleted  map[string]time.Time
	buried   []string
	closed   bool
	onChange func([]T)
}

// maxTombstones bounds how many deleted ids a collection remembers
const maxTombstones = 256

// DerivedKeeper is implemented by entities carrying fields the gateway does
// not push, such as a task's attachments. KeepDerived returns the pushed row
// with those fields taken from the held copy.
type DerivedKeeper[T any] interface {
	KeepDerived(held T) T
}

// NewCollection starts a collection from a freshly listed snapshot
func NewCollection[T Entity](initial []T) *Collection[T] {
	c := &Collection[T]{deleted: make(map[string]time.Time)}
	c.items = append([]T(nil), initial...)
	return c
}

// OnChange registers fn to be called with a snapshot after every applied
// event. It runs with the collection locked and must not call back into it.
func (c *Collection[T]) OnChange(fn func([]T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Apply applies a pushed event or the result of the user's own call. It
// reports whether the list changed.
func (c *Collection[T]) Apply(ev Event[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	id := ev.id()
	held := indexOf(c.items, id)

	switch ev.Kind {
	case Insert:
		if at, gone := c.deleted[id]; gone {
			if !newer(ev.New.EntityVersion(), at) {
				return false
			}
			delete(c.deleted, id)
		}
		if held >= 0 {
			if !newer(ev.New.EntityVersion(), c.items[held].EntityVersion()) {
				return false
			}
			ev = Event[T]{Kind: Update, New: keepDerived(ev.New, c.items[held]), ID: id}
		}

	case Update:
		if held < 0 {
			return false
		}
		if !newer(ev.New.EntityVersion(), c.items[held].EntityVersion()) {
			return false
		}
		ev.New = keepDerived(ev.New, c.items[held])

	case Delete:
		at := ev.Old.EntityVersion()
		if held >= 0 && c.items[held].EntityVersion().After(at) {
			at = c.items[held].EntityVersion()
		}
		c.bury(id, at)
		if held < 0 {
			return false
		}

	default:
		return false
	}

	c.items = Apply(c.items, ev)
	if c.onChange != nil {
		c.onChange(append([]T(nil), c.items...))
	}
	return true
}

// bury remembers that id was deleted at version at. Unversioned deletes
// leave no tombstone, and the oldest tombstone goes once the cap is reached.
func (c *Collection[T]) bury(id string, at time.Time) {
	if at.IsZero() {
		return
	}
	if _, ok := c.deleted[id]; !ok {
		c.buried = append(c.buried, id)
		if len(c.buried) > maxTombstones {
			delete(c.deleted, c.buried[0])
			c.buried = c.buried[1:]
		}
	}
	c.deleted[id] = at
}

func keepDerived[T Entity](row, held T) T {
	if k, ok := any(row).(DerivedKeeper[T]); ok {
		return k.KeepDerived(held)
	}
	return row
}

// newer reports whether candidate should replace held. Rows without a
// version always replace.
func newer(candidate, held time.Time) bool {
	if candidate.IsZero() || held.IsZero() {
		return true
	}
	return candidate.After(held)
}

// Items returns a snapshot of the list
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Filtered returns the entries for which keep returns true, in list order
func (c *Collection[T]) Filtered(keep func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close discards every later event. Views call it when they go away.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Collection[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
