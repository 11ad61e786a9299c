package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConfig holds broker connection settings.
type NATSConfig struct {
	URL            string
	Name           string
	SubjectPrefix  string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// publisher is the subset of *nats.Conn the dispatcher needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSDispatcher delivers events to local subscribers and mirrors them onto
// NATS subjects for the external notification service.
type NATSDispatcher struct {
	local  Dispatcher
	pub    publisher
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// ConnectNATS dials the broker and wraps local.
func ConnectNATS(cfg NATSConfig, local Dispatcher, logger *zap.Logger) (*NATSDispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = nats.DefaultTimeout
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = nats.DefaultReconnectWait
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = nats.DefaultMaxReconnect
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	d := newNATSDispatcher(local, conn, cfg.SubjectPrefix, logger)
	d.conn = conn
	return d, nil
}

func newNATSDispatcher(local Dispatcher, pub publisher, prefix string, logger *zap.Logger) *NATSDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if local == nil {
		local = NewInMemoryDispatcher(logger)
	}
	return &NATSDispatcher{local: local, pub: pub, prefix: prefix, logger: logger}
}

// Subject returns the subject an event type is published on.
func (d *NATSDispatcher) Subject(eventType EventType) string {
	if d.prefix == "" {
		return string(eventType)
	}
	return d.prefix + "." + string(eventType)
}

// Publish runs local handlers, then publishes the JSON encoded event. Broker
// failures are returned to the caller, who logs them.
func (d *NATSDispatcher) Publish(ctx context.Context, event Event) error {
	if err := d.local.Publish(ctx, event); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	if err := d.pub.Publish(d.Subject(event.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe registers a local handler.
func (d *NATSDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.local.Subscribe(eventType, handler)
}

// Close drains the connection.
func (d *NATSDispatcher) Close() {
	if d.conn == nil {
		return
	}
	if err := d.conn.Drain(); err != nil {
		d.logger.Warn("nats drain failed", zap.Error(err))
		d.conn.Close()
	}
}
