// Package notify publishes content-change events so downstream consumers,
// typically the static-site builder, can rebuild without polling the
// repository. Delivery is advisory: a lost event costs one rebuild delay,
// never a failed edit, so publish failures log and move on.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/reperrors"
)

// Actions carried by content-change events.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionPublished = "published"
)

// Event describes one content mutation, identifying the content by its
// slug (posts) or name (pages).
type Event struct {
	Slug      string    `json:"slug"`
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// Kinds of content an event can refer to.
const (
	KindPost = "post"
	KindPage = "page"
)

// Notifier publishes content-change events. Implementations are safe for
// concurrent use.
type Notifier interface {
	ContentChanged(ctx context.Context, event Event)
	Close()
}

// NoopNotifier is the disabled-eventing implementation.
type NoopNotifier struct{}

func (NoopNotifier) ContentChanged(context.Context, Event) {}
func (NoopNotifier) Close()                                {}

// NATSNotifier publishes events on one NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to the NATS server. The connection reconnects
// indefinitely; events published while disconnected are buffered by the
// client.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if url == "" {
		return nil, reperrors.ConfigError("nats url is required").Build()
	}
	if subject == "" {
		subject = "repstack.content"
	}

	conn, err := nats.Connect(url,
		nats.Name("repstack"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryNotify, "connect to nats").WithContext("url", url).Build()
	}

	slog.Info("nats notifier connected", logfields.URL(url), logfields.Subject(subject))
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// ContentChanged publishes the event, stamping the time.
func (n *NATSNotifier) ContentChanged(_ context.Context, event Event) {
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("dropping content event", logfields.Error(err))
		return
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		slog.Warn("content event publish failed", logfields.Subject(n.subject), logfields.Slug(event.Slug), logfields.Error(err))
		return
	}
	slog.Debug("content event published", logfields.Subject(n.subject), logfields.Slug(event.Slug), slog.String("action", event.Action))
}

// Close drains buffered publishes before closing the connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		if err := n.conn.Drain(); err != nil {
			n.conn.Close()
		}
	}
}
