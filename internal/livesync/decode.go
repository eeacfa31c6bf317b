package livesync

import (
	"encoding/json"
	"fmt"

	"github.com/furkanakkurt/taskmanager/internal/events"
)

// Decode turns a wire change into a typed event
func Decode[T Entity](c events.Change) (Event[T], error) {
	var ev Event[T]

	switch c.Kind {
	case events.ChangeInsert:
		ev.Kind = Insert
	case events.ChangeUpdate:
		ev.Kind = Update
	case events.ChangeDelete:
		ev.Kind = Delete
	default:
		return ev, fmt.Errorf("unknown change kind %q", c.Kind)
	}

	if len(c.New) > 0 {
		if err := json.Unmarshal(c.New, &ev.New); err != nil {
			return ev, fmt.Errorf("failed to decode %s row: %w", c.Table, err)
		}
	}
	if len(c.Old) > 0 {
		if err := json.Unmarshal(c.Old, &ev.Old); err != nil {
			return ev, fmt.Errorf("failed to decode old %s row: %w", c.Table, err)
		}
	}

	switch ev.Kind {
	case Insert, Update:
		if len(c.New) == 0 {
			return ev, fmt.Errorf("%s %s change carries no row", c.Table, c.Kind)
		}
		ev.ID = ev.New.EntityID()
	case Delete:
		ev.ID = ev.Old.EntityID()
		if ev.ID == "" {
			ev.ID = c.Columns["id"]
		}
	}

	if ev.ID == "" {
		return ev, fmt.Errorf("%s %s change has no row id", c.Table, c.Kind)
	}
	return ev, nil
}
