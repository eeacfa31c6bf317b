package daemon

import (
	"sync/atomic"
	"time"
)

// Metrics tracks daemon statistics using atomic operations for thread-safety
type Metrics struct {
	EventsSent            atomic.Int64
	EventsReceived        atomic.Int64
	EventsDropped         atomic.Int64
	ChangesBroadcast      atomic.Int64
	SubscriptionsRejected atomic.Int64
	ConnectedClients      atomic.Int32
	StartTime             time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// IncEventsSent counts any message queued to a client
func (m *Metrics) IncEventsSent() {
	m.EventsSent.Add(1)
}

// IncEventsReceived counts changes published by writers
func (m *Metrics) IncEventsReceived() {
	m.EventsReceived.Add(1)
}

// IncEventsDropped counts change deliveries skipped because a client queue was full
func (m *Metrics) IncEventsDropped() {
	m.EventsDropped.Add(1)
}

func (m *Metrics) IncChangesBroadcast() {
	m.ChangesBroadcast.Add(1)
}

func (m *Metrics) IncSubscriptionsRejected() {
	m.SubscriptionsRejected.Add(1)
}

// SetConnectedClients sets the current connected clients count
func (m *Metrics) SetConnectedClients(count int32) {
	m.ConnectedClients.Store(count)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EventsSent            int64     `json:"events_sent"`
	EventsReceived        int64     `json:"events_received"`
	EventsDropped         int64     `json:"events_dropped"`
	ChangesBroadcast      int64     `json:"changes_broadcast"`
	SubscriptionsRejected int64     `json:"subscriptions_rejected"`
	ConnectedClients      int32     `json:"connected_clients"`
	StartTime             time.Time `json:"start_time"`
	Uptime                string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsSent:            m.EventsSent.Load(),
		EventsReceived:        m.EventsReceived.Load(),
		EventsDropped:         m.EventsDropped.Load(),
		ChangesBroadcast:      m.ChangesBroadcast.Load(),
		SubscriptionsRejected: m.SubscriptionsRejected.Load(),
		ConnectedClients:      m.ConnectedClients.Load(),
		StartTime:             m.StartTime,
		Uptime:                time.Since(m.StartTime).Round(time.Second).String(),
	}
}
