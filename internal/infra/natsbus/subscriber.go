// Package natsbus is the NATS push transport: each event arrives on the
// subject "<channel>.<event>" carrying the raw order record.
package natsbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"order-dashboard/internal/push"
)

type Subscriber struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *nats.Conn
	subs []*nats.Subscription
}

var (
	_ push.Transport   = (*Subscriber)(nil)
	_ push.SelfHealing = (*Subscriber)(nil)
)

func NewSubscriber(url string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{url: url, logger: logger.With("component", "nats")}
}

func (s *Subscriber) Open(ctx context.Context, onState func(connected bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := nats.Connect(s.url,
		nats.Name("order-dashboard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.logger.Warn("disconnected", "error", err)
			}
			onState(false)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			s.logger.Info("reconnected")
			onState(true)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			onState(false)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	s.conn = conn
	onState(true)
	return nil
}

// Reconnects reports that the NATS client restores dropped connections
// itself.
func (s *Subscriber) Reconnects() bool { return true }

// Subject is the NATS subject an event of channel is published on.
func Subject(channel, event string) string {
	return channel + "." + event
}

func (s *Subscriber) Subscribe(ctx context.Context, channel string, events []string, deliver push.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.New("nats connection not open")
	}

	for _, event := range events {
		event := event
		sub, err := s.conn.Subscribe(Subject(channel, event), func(msg *nats.Msg) {
			deliver(event, msg.Data)
		})
		if err != nil {
			s.unsubscribeLocked()
			return fmt.Errorf("subscribe %s: %w", Subject(channel, event), err)
		}
		s.subs = append(s.subs, sub)
	}
	return s.conn.Flush()
}

func (s *Subscriber) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribeLocked()
}

func (s *Subscriber) unsubscribeLocked() error {
	var errs []error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			errs = append(errs, err)
		}
	}
	s.subs = nil
	return errors.Join(errs...)
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}
