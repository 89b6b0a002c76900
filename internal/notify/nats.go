package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/logfields"
)

// publisher is the part of jetstream.JetStream the transport needs.
type publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSTransport publishes deliveries to a JetStream stream. The job key is
// sent as Nats-Msg-Id so the stream drops duplicates within its window.
type NATSTransport struct {
	conn    *nats.Conn
	js      publisher
	subject string
	timeout time.Duration
}

// NewNATSTransport connects and ensures the notification stream exists.
// dedupWindow becomes the stream's duplicate tracking window.
func NewNATSTransport(ctx context.Context, cfg config.NATSConfig, dedupWindow time.Duration) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("venuestatus"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	_, err = js.CreateOrUpdateStream(initCtx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Venue status push notifications",
		Subjects:    []string{cfg.Subject + ".>"},
		Duplicates:  dedupWindow,
		MaxAge:      24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	slog.Info("NATS notification transport initialized",
		"url", cfg.URL,
		"subject", cfg.Subject,
		"stream", cfg.Stream)

	return &NATSTransport{conn: conn, js: js, subject: cfg.Subject, timeout: 5 * time.Second}, nil
}

// Deliver publishes d on <subject>.<kind>.
func (t *NATSTransport) Deliver(ctx context.Context, d Delivery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	msg := &nats.Msg{
		Subject: t.subject + "." + string(d.Kind),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, d.Key)

	pubCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	ack, err := t.js.PublishMsg(pubCtx, msg)
	if err != nil {
		return ErrDeliveryFailed.WithContext("device_id", d.DeviceID).Wrap(err)
	}

	slog.Debug("Published notification",
		logfields.JobID(d.JobID),
		logfields.DeviceID(d.DeviceID),
		slog.Bool("duplicate", ack != nil && ack.Duplicate))
	return nil
}

// Close drains and closes the connection.
func (t *NATSTransport) Close() error {
	if t.conn != nil {
		return t.conn.Drain()
	}
	return nil
}
