package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"order-dashboard/internal/push"
)

// Envelope is the message shape the notifier publishes: the event name as
// pattern and the raw order record as data.
type Envelope struct {
	Pattern string          `json:"pattern"`
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id,omitempty"`
}

// Subscriber consumes order events from a topic exchange named after the
// channel, one routing key per event.
type Subscriber struct {
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	tag     string
	done    chan struct{}
}

func NewSubscriber(amqpURL string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{url: amqpURL, logger: logger.With("component", "amqp")}
}

func (s *Subscriber) Open(ctx context.Context, onState func(connected bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	s.conn = conn
	onState(true)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			s.logger.Warn("connection closed", "error", err)
		}
		// Only a connection that is still current reports the drop; one
		// replaced or closed through Close stays silent.
		s.mu.Lock()
		current := s.conn == conn
		s.mu.Unlock()
		if current {
			onState(false)
		}
	}()
	return nil
}

func (s *Subscriber) Subscribe(ctx context.Context, exchange string, events []string, deliver push.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.New("rabbitmq connection not open")
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, ev := range events {
		if err := ch.QueueBind(q.Name, ev, exchange, false, nil); err != nil {
			ch.Close()
			return fmt.Errorf("failed to bind %s: %w", ev, err)
		}
	}

	tag := "dashboard-" + uuid.NewString()
	deliveries, err := ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to consume: %w", err)
	}

	s.channel = ch
	s.tag = tag
	s.done = make(chan struct{})
	go s.consume(deliveries, deliver, s.done)
	return nil
}

func (s *Subscriber) consume(deliveries <-chan amqp.Delivery, deliver push.Delivery, done chan struct{}) {
	defer close(done)
	for d := range deliveries {
		event, payload, err := DecodeDelivery(d.RoutingKey, d.Body)
		if err != nil {
			s.logger.Warn("dropping malformed message", "routing_key", d.RoutingKey, "error", err)
			continue
		}
		deliver(event, payload)
	}
}

// Unsubscribe cancels the consumer and closes its channel.
func (s *Subscriber) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return nil
	}
	var errs []error
	if err := s.channel.Cancel(s.tag, false); err != nil {
		errs = append(errs, err)
	}
	if err := s.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, err)
	}
	if s.done != nil {
		<-s.done
	}
	s.channel, s.tag, s.done = nil, "", nil
	return errors.Join(errs...)
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

// DecodeDelivery unwraps an enveloped message. Bodies that are not an
// envelope are passed through with the routing key as the event name.
func DecodeDelivery(routingKey string, body []byte) (string, []byte, error) {
	if !json.Valid(body) {
		return "", nil, errors.New("body is not valid JSON")
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Pattern != "" && len(env.Data) > 0 {
		return env.Pattern, env.Data, nil
	}
	return routingKey, body, nil
}
