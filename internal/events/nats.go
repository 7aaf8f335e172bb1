package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards bus events to NATS. Publishing is fire-and-forget:
// a broker hiccup is logged, never surfaced into the run's outcome.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the broker.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("releasekit"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	slog.Info("NATS event publishing enabled", slog.String("url", url))
	return &NATSPublisher{conn: conn}, nil
}

// Attach subscribes the publisher to every event on the bus.
func (p *NATSPublisher) Attach(bus *Bus) {
	bus.SubscribeAll(p.publish)
}

func (p *NATSPublisher) publish(e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Warn("Event marshal failed", slog.String("event", e.Name()), slog.String("error", err.Error()))
		return nil
	}
	subject := fmt.Sprintf("releasekit.run.%s.%s", e.Run(), e.Name())
	if err := p.conn.Publish(subject, payload); err != nil {
		slog.Warn("Event publish failed", slog.String("subject", subject), slog.String("error", err.Error()))
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
