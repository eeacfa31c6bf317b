// Package livesync keeps displayed entity lists current by applying the row
// changes pushed by the gateway. Every view goes through the same apply rule:
// an insert is prepended, an update replaces the entry with the same id (and
// is dropped when there is none), and a delete removes it.
package livesync

import (
	"time"
)

// Entity is anything a synchronized list can hold
type Entity interface {
	EntityID() string
	EntityVersion() time.Time
}

// Kind is the kind of change an event carries
type Kind int

const (
	Insert Kind = iota + 1
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one typed change. New is set for inserts and updates; Old is set
// for deletes and, when the gateway provides it, updates.
type Event[T Entity] struct {
	Kind Kind
	New  T
	Old  T
	// ID identifies the affected row
	ID string
}

// Created, Updated and Deleted build events from rows
func Created[T Entity](row T) Event[T] {
	return Event[T]{Kind: Insert, New: row, ID: row.EntityID()}
}

func Updated[T Entity](row T) Event[T] {
	return Event[T]{Kind: Update, New: row, ID: row.EntityID()}
}

func Deleted[T Entity](row T) Event[T] {
	return Event[T]{Kind: Delete, Old: row, ID: row.EntityID()}
}

// id returns the affected row id, falling back to the rows themselves
func (e Event[T]) id() string {
	if e.ID != "" {
		return e.ID
	}
	if e.Kind == Delete {
		return e.Old.EntityID()
	}
	return e.New.EntityID()
}

// Apply returns list with ev applied. The input slice is never modified.
func Apply[T Entity](list []T, ev Event[T]) []T {
	switch ev.Kind {
	case Insert:
		out := make([]T, 0, len(list)+1)
		out = append(out, ev.New)
		return append(out, list...)

	case Update:
		i := indexOf(list, ev.id())
		if i < 0 {
			return list
		}
		out := make([]T, len(list))
		copy(out, list)
		out[i] = ev.New
		return out

	case Delete:
		id := ev.id()
		if indexOf(list, id) < 0 {
			return list
		}
		out := make([]T, 0, len(list))
		for _, item := range list {
			if item.EntityID() != id {
				out = append(out, item)
			}
		}
		return out

	default:
		return list
	}
}

func indexOf[T Entity](list []T, id string) int {
	for i, item := range list {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}
