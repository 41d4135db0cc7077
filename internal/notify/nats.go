package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject change signals are published on.
const DefaultSubject = "procdash.projects.changed"

// Relay bridges a Bus to a NATS subject. Each relay tags its messages with a
// random origin so it can ignore its own echoes.
type Relay struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	origin  string
	bus     *Bus
	logger  *slog.Logger
}

// NewRelay connects to url, subscribes to subject and registers itself as a
// publisher on bus.
func NewRelay(url, subject string, bus *Bus, logger *slog.Logger) (*Relay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("procdash"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	r := &Relay{
		conn:    conn,
		subject: subject,
		origin:  uuid.NewString(),
		bus:     bus,
		logger:  logger,
	}
	r.sub, err = conn.Subscribe(subject, r.handle)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	bus.AddPublisher(r)
	logger.Info("change relay connected", "url", conn.ConnectedUrl(), "subject", subject)
	return r, nil
}

// Publish sends a change signal to other processes.
func (r *Relay) Publish(_ context.Context) error {
	if err := r.conn.Publish(r.subject, []byte(r.origin)); err != nil {
		return fmt.Errorf("publish %s: %w", r.subject, err)
	}
	return nil
}

func (r *Relay) handle(msg *nats.Msg) {
	if string(msg.Data) == r.origin {
		return
	}
	r.logger.Debug("remote change received", "subject", msg.Subject)
	r.bus.Deliver()
}

// Close unsubscribes and drains the connection.
func (r *Relay) Close() error {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	return r.conn.Drain()
}
