package events

import "context"

// Publisher announces committed row changes to the push channel.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Subscriber opens filtered change streams. Subscribe returns only after the
// push channel has acknowledged the subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, sub Subscription) (Stream, error)
}

// Stream delivers the changes matching one subscription, in delivery order.
// The Changes channel is closed when the stream is closed or the underlying
// connection drops.
type Stream interface {
	Changes() <-chan Change
	Close() error
}

// Broker is a full push-channel transport.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// Compile-time verification that the transports implement Broker
var (
	_ Broker = (*Client)(nil)
	_ Broker = (*LocalBroker)(nil)
	_ Broker = (*NATSBroker)(nil)
)
