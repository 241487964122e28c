// Package push owns the real-time order channel subscription and feeds its
// events into the dashboard.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"order-dashboard/internal/domain"
)

var ErrAlreadyStarted = errors.New("push subscription already started")

// Delivery receives one event from a transport.
type Delivery func(event string, payload []byte)

// Transport is a connection to a channel-based push service.
type Transport interface {
	// Open connects and reports connection state changes through onState.
	Open(ctx context.Context, onState func(connected bool)) error
	Subscribe(ctx context.Context, channel string, events []string, deliver Delivery) error
	Unsubscribe() error
	Close() error
}

// Sink applies pushed records to the order list.
type Sink interface {
	ApplyCreated(ctx context.Context, rec domain.RawOrder) error
	ApplyUpdated(ctx context.Context, rec domain.RawOrder) error
}

// SelfHealing is implemented by transports that reconnect on their own.
// The manager does not restart those after a dropped connection.
type SelfHealing interface {
	Reconnects() bool
}

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

type Option func(*Manager)

// WithBackoff sets the first and the longest delay between reconnect attempts.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(m *Manager) {
		if minDelay > 0 {
			m.minBackoff = minDelay
		}
		if maxDelay >= m.minBackoff {
			m.maxBackoff = maxDelay
		}
	}
}

// Manager holds one transport connection and one channel subscription.
// Start and Stop bracket its lifetime; Stop always releases the handlers,
// the subscription and the connection. While started, a dropped connection
// is re-established with exponential backoff.
type Manager struct {
	transport   Transport
	sink        Sink
	channel     string
	logger      *slog.Logger
	selfHealing bool
	minBackoff  time.Duration
	maxBackoff  time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	ctx     context.Context
	done    chan struct{}

	drops     chan struct{}
	bound     atomic.Bool
	connected atomic.Bool
}

func NewManager(t Transport, sink Sink, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		transport:  t,
		sink:       sink,
		channel:    domain.OrdersChannel,
		logger:     logger.With("component", "push"),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		drops:      make(chan struct{}, 1),
	}
	if sh, ok := t.(SelfHealing); ok {
		m.selfHealing = sh.Reconnects()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens the connection, subscribes to the orders channel and binds
// the created and updated handlers. On failure everything acquired so far is
// released.
func (m *Manager) Start(ctx context.Context) error {
	return m.start(ctx, false)
}

// StartRetrying is Start that stays started when the first attempt fails and
// keeps retrying in the background until it connects or Stop is called. The
// first attempt's error is returned.
func (m *Manager) StartRetrying(ctx context.Context) error {
	return m.start(ctx, true)
}

func (m *Manager) start(ctx context.Context, retry bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.started = true
	m.bound.Store(true)
	select {
	case <-m.drops:
	default:
	}
	m.done = make(chan struct{})
	go m.supervise(m.ctx, m.done)

	if err := m.connectLocked(ctx); err != nil {
		if !retry {
			m.stopLocked()
			return err
		}
		m.releaseLocked()
		m.signalDrop()
		m.logger.Warn("push connection failed, retrying in background", "error", err)
		return err
	}

	m.logger.Info("subscribed", "channel", m.channel)
	return nil
}

// Stop unbinds the handlers, unsubscribes and closes the connection. It is
// safe to call more than once.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	err := m.stopLocked()
	done := m.done
	m.mu.Unlock()

	<-done
	m.logger.Info("unsubscribed", "channel", m.channel)
	return err
}

// Connected reports the last connection state seen from the transport.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

func (m *Manager) connectLocked(ctx context.Context) error {
	if err := m.transport.Open(ctx, m.setConnected); err != nil {
		return fmt.Errorf("open push connection: %w", err)
	}

	events := []string{domain.EventOrderCreated, domain.EventOrderUpdated}
	if err := m.transport.Subscribe(ctx, m.channel, events, m.dispatch); err != nil {
		return fmt.Errorf("subscribe to %s: %w", m.channel, err)
	}
	return nil
}

func (m *Manager) releaseLocked() error {
	var errs []error
	if err := m.transport.Unsubscribe(); err != nil {
		errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
	}
	if err := m.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Manager) stopLocked() error {
	m.bound.Store(false)
	if m.cancel != nil {
		m.cancel()
	}

	err := m.releaseLocked()

	m.connected.Store(false)
	m.started = false
	return err
}

func (m *Manager) signalDrop() {
	select {
	case m.drops <- struct{}{}:
	default:
	}
}

func (m *Manager) supervise(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.drops:
			m.reconnect(ctx)
		}
	}
}

func (m *Manager) reconnect(ctx context.Context) {
	delay := m.minBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		stopped, err := m.reconnectOnce(ctx)
		if stopped {
			return
		}
		if err == nil {
			m.logger.Info("reconnected", "channel", m.channel, "attempt", attempt)
			return
		}
		delay = min(delay*2, m.maxBackoff)
		m.logger.Warn("reconnect failed", "attempt", attempt, "retry_in", delay, "error", err)
	}
}

func (m *Manager) reconnectOnce(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return true, nil
	}
	if err := m.releaseLocked(); err != nil {
		m.logger.Debug("release before reconnect", "error", err)
	}
	return false, m.connectLocked(ctx)
}

func (m *Manager) setConnected(connected bool) {
	if !m.bound.Load() {
		return
	}
	if m.connected.Swap(connected) != connected {
		m.logger.Info("connection state changed", "connected", connected)
	}
	if !connected && !m.selfHealing {
		m.signalDrop()
	}
}

func (m *Manager) dispatch(event string, payload []byte) {
	if !m.bound.Load() {
		return
	}

	rec, err := DecodeRecord(payload)
	if err != nil {
		m.logger.Warn("dropping undecodable event", "event", event, "error", err)
		return
	}

	switch event {
	case domain.EventOrderCreated:
		err = m.sink.ApplyCreated(m.ctx, rec)
	case domain.EventOrderUpdated:
		err = m.sink.ApplyUpdated(m.ctx, rec)
	default:
		m.logger.Debug("ignoring event", "event", event)
		return
	}
	if err != nil {
		m.logger.Error("apply event failed", "event", event, "error", err)
	}
}

// DecodeRecord reads a pushed order record. Producers sometimes send the
// object JSON-encoded inside a string; both forms are accepted.
func DecodeRecord(payload []byte) (domain.RawOrder, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, not an object", v)
	}
	return domain.RawOrder(obj), nil
}
