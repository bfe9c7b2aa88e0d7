package txlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
)

var (
	// ErrChannelRequired is returned when constructing a publisher without a
	// channel.
	ErrChannelRequired = errors.New("amqp channel is required")

	// ErrConfirmModeUnavailable is returned when the channel rejects confirm
	// mode.
	ErrConfirmModeUnavailable = errors.New("channel does not support confirm mode")

	// ErrPublishNacked is returned when the broker refuses a journal event.
	ErrPublishNacked = errors.New("journal event was nacked by broker")

	// ErrConfirmTimeout is returned when the broker does not confirm within
	// the configured window.
	ErrConfirmTimeout = errors.New("journal event confirmation timed out")
)

const (
	// DefaultConfirmTimeout bounds the wait for a broker confirmation.
	DefaultConfirmTimeout = 5 * time.Second

	confirmBuffer = 16
)

// Channel is the narrow slice of an AMQP channel the publisher needs.
// *amqp.Channel satisfies it.
type Channel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
}

// Event is the journal message fanned out to downstream consumers. It is a
// projection of a Record: completed events carry the outcome, opened events
// only identification.
type Event struct {
	Kind     string `json:"kind"`
	Record   Record `json:"record"`
	EmitTime string `json:"emitTime"`
}

// Event kinds.
const (
	EventTransactionOpened    = "transaction.opened"
	EventTransactionCompleted = "transaction.completed"
)

// AMQPPublisher forwards journal events to a broker with publisher confirms,
// so a journal gap is observable rather than silent. Publishes are
// serialized: each waits for its own confirmation before the next starts.
type AMQPPublisher struct {
	mu             sync.Mutex
	channel        Channel
	confirms       chan amqp.Confirmation
	exchange       string
	routingKey     string
	confirmTimeout time.Duration
}

// NewAMQPPublisher puts the channel in confirm mode and returns a publisher
// bound to the exchange and routing key.
func NewAMQPPublisher(channel Channel, exchange, routingKey string) (*AMQPPublisher, error) {
	if channel == nil {
		return nil, ErrChannelRequired
	}

	if err := channel.Confirm(false); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfirmModeUnavailable, err)
	}

	confirms := channel.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	return &AMQPPublisher{
		channel:        channel,
		confirms:       confirms,
		exchange:       exchange,
		routingKey:     routingKey,
		confirmTimeout: DefaultConfirmTimeout,
	}, nil
}

// Publish sends one journal event and waits for the broker to confirm it.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.channel == nil {
		return ErrChannelRequired
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling journal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: atmcore.CorrelationIDFromContext(ctx),
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing journal event: %w", err)
	}

	if err := p.waitConfirm(ctx); err != nil {
		return err
	}

	logger := atmcore.NewLoggerFromContext(ctx)
	logger.Log(ctx, log.LevelDebug, "journal event published",
		log.String("kind", event.Kind),
		log.String("rrn", event.Record.RRN),
	)

	return nil
}

func (p *AMQPPublisher) waitConfirm(ctx context.Context) error {
	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()

	select {
	case confirmation, ok := <-p.confirms:
		if !ok {
			return ErrChannelRequired
		}

		if !confirmation.Ack {
			return ErrPublishNacked
		}

		return nil
	case <-timer.C:
		return ErrConfirmTimeout
	case <-ctx.Done():
		return fmt.Errorf("waiting for broker confirmation: %w", ctx.Err())
	}
}

// PublishingRecorder decorates a Recorder, emitting an event after every
// journal mutation. Publish failures are logged and do not fail the journal
// write; the local record is the source of truth.
type PublishingRecorder struct {
	Recorder
	publisher *AMQPPublisher
}

// NewPublishingRecorder wraps base so records also reach the broker.
func NewPublishingRecorder(base Recorder, publisher *AMQPPublisher) *PublishingRecorder {
	return &PublishingRecorder{Recorder: base, publisher: publisher}
}

func (r *PublishingRecorder) Create(ctx context.Context, record Record) (Record, error) {
	created, err := r.Recorder.Create(ctx, record)
	if err != nil {
		return created, err
	}

	r.emit(ctx, EventTransactionOpened, created)

	return created, nil
}

func (r *PublishingRecorder) Complete(ctx context.Context, id string, status Status, errorCode, message string) (Record, error) {
	completed, err := r.Recorder.Complete(ctx, id, status, errorCode, message)
	if err != nil {
		return completed, err
	}

	r.emit(ctx, EventTransactionCompleted, completed)

	return completed, nil
}

func (r *PublishingRecorder) emit(ctx context.Context, kind string, record Record) {
	event := Event{
		Kind:     kind,
		Record:   record,
		EmitTime: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to publish journal event",
			log.String("kind", kind),
			log.String("rrn", record.RRN),
			log.Err(err),
		)
	}
}
