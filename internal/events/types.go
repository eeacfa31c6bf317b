package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProtocolVersion is carried on every wire message
const ProtocolVersion = 1

// ChangeKind is the kind of row change a gateway write produced
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Valid reports whether k is one of the three change kinds
func (k ChangeKind) Valid() bool {
	return k == ChangeInsert || k == ChangeUpdate || k == ChangeDelete
}

// Change is one committed row change. New holds the row after the write
// (inserts and updates), Old the row before it (updates and deletes). Columns
// carries the filterable column values of the affected row.
type Change struct {
	Table      string            `json:"table"`
	Kind       ChangeKind        `json:"kind"`
	OwnerID    string            `json:"owner_id"`
	Columns    map[string]string `json:"columns,omitempty"`
	New        json.RawMessage   `json:"new,omitempty"`
	Old        json.RawMessage   `json:"old,omitempty"`
	CommitTime time.Time         `json:"commit_time"`
}

// Row is implemented by entities that can be carried in a Change
type Row interface {
	FilterColumns() map[string]string
}

// NewChange builds a Change for table from the before/after rows. Either row
// may be nil depending on kind. Filter columns come from the new row, or the
// old one for deletes.
func NewChange(table string, kind ChangeKind, ownerID string, newRow, oldRow Row, at time.Time) (Change, error) {
	c := Change{Table: table, Kind: kind, OwnerID: ownerID, CommitTime: at}

	if newRow != nil {
		data, err := json.Marshal(newRow)
		if err != nil {
			return Change{}, fmt.Errorf("failed to encode new row: %w", err)
		}
		c.New = data
		c.Columns = newRow.FilterColumns()
	}
	if oldRow != nil {
		data, err := json.Marshal(oldRow)
		if err != nil {
			return Change{}, fmt.Errorf("failed to encode old row: %w", err)
		}
		c.Old = data
		if c.Columns == nil {
			c.Columns = oldRow.FilterColumns()
		}
	}
	return c, nil
}

// Filter is an exact-match condition on one row column (for example
// project_id = <id>)
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (f Filter) String() string { return f.Column + "=eq." + f.Value }

// Subscription selects the changes a stream delivers: all changes to Table
// owned by OwnerID, optionally narrowed by Filter.
type Subscription struct {
	Table   string  `json:"table"`
	OwnerID string  `json:"owner_id"`
	Filter  *Filter `json:"filter,omitempty"`
}

var (
	ErrMissingTable = errors.New("subscription requires a table")
	ErrMissingOwner = errors.New("subscription requires an owner")
	ErrBadFilter    = errors.New("subscription filter requires a column and a value")
)

// Validate checks that the subscription is fully scoped
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Table) == "" {
		return ErrMissingTable
	}
	if strings.TrimSpace(s.OwnerID) == "" {
		return ErrMissingOwner
	}
	if s.Filter != nil && (s.Filter.Column == "" || s.Filter.Value == "") {
		return ErrBadFilter
	}
	return nil
}

// Matches reports whether c should be delivered to this subscription
func (s Subscription) Matches(c Change) bool {
	if c.Table != s.Table || c.OwnerID != s.OwnerID {
		return false
	}
	if s.Filter == nil {
		return true
	}
	return c.Columns[s.Filter.Column] == s.Filter.Value
}

func (s Subscription) String() string {
	if s.Filter == nil {
		return fmt.Sprintf("%s[user_id=eq.%s]", s.Table, s.OwnerID)
	}
	return fmt.Sprintf("%s[user_id=eq.%s,%s]", s.Table, s.OwnerID, s.Filter)
}

// EventType indicates what a wire event carries
type EventType string

const (
	EventChange EventType = "change"
	EventPing   EventType = "ping"
	EventPong   EventType = "pong"
)

// Event wraps a change for delivery. The daemon stamps SequenceID with a
// monotonically increasing number.
type Event struct {
	Type       EventType `json:"type"`
	Change     *Change   `json:"change,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	SequenceID int64     `json:"sequence_id"`
}

// Message types on the socket protocol
const (
	MsgPublish    = "publish"
	MsgSubscribe  = "subscribe"
	MsgSubscribed = "subscribed"
	MsgEvent      = "event"
	MsgPing       = "ping"
	MsgPong       = "pong"
	MsgError      = "error"
)

// Message is the JSON-lines envelope exchanged with the daemon
type Message struct {
	Version   int           `json:"version"`
	Type      string        `json:"type"`
	Event     *Event        `json:"event,omitempty"`
	Subscribe *Subscription `json:"subscribe,omitempty"`
	Error     string        `json:"error,omitempty"`
}
