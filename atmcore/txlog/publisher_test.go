//go:build unit

package txlog

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mu            sync.Mutex
	confirmErr    error
	publishErr    error
	confirms      chan amqp.Confirmation
	published     []amqp.Publishing
	confirmCalled bool
}

func (m *mockChannel) Confirm(_ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.confirmCalled = true

	return m.confirmErr
}

func (m *mockChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.confirms = confirm

	return confirm
}

func (m *mockChannel) PublishWithContext(
	_ context.Context,
	_, _ string,
	_, _ bool,
	msg amqp.Publishing,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return m.publishErr
	}

	m.published = append(m.published, msg)

	// Confirm asynchronously, the way a broker would.
	go func() {
		m.mu.Lock()
		confirms := m.confirms
		tag := uint64(len(m.published))
		m.mu.Unlock()

		confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: true}
	}()

	return nil
}

func (m *mockChannel) lastPublished(t *testing.T) amqp.Publishing {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.published)

	return m.published[len(m.published)-1]
}

func TestNewAMQPPublisher_RequiresChannel(t *testing.T) {
	t.Parallel()

	_, err := NewAMQPPublisher(nil, "atm.events", "transaction")
	require.ErrorIs(t, err, ErrChannelRequired)
}

func TestNewAMQPPublisher_ConfirmModeFailure(t *testing.T) {
	t.Parallel()

	channel := &mockChannel{confirmErr: amqp.ErrClosed}

	_, err := NewAMQPPublisher(channel, "atm.events", "transaction")
	require.ErrorIs(t, err, ErrConfirmModeUnavailable)
}

func TestAMQPPublisher_Publish(t *testing.T) {
	t.Parallel()

	channel := &mockChannel{}

	publisher, err := NewAMQPPublisher(channel, "atm.events", "transaction")
	require.NoError(t, err)
	assert.True(t, channel.confirmCalled)

	event := Event{
		Kind:   EventTransactionCompleted,
		Record: Record{RRN: "609314000042", STAN: "000042", CardToken: "card-1"},
	}

	require.NoError(t, publisher.Publish(context.Background(), event))

	msg := channel.lastPublished(t)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "609314000042", decoded.Record.RRN)
}

func TestAMQPPublisher_Nack(t *testing.T) {
	t.Parallel()

	channel := &nackingChannel{}

	publisher, err := NewAMQPPublisher(channel, "atm.events", "transaction")
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), Event{Kind: EventTransactionOpened})
	require.ErrorIs(t, err, ErrPublishNacked)
}

// nackingChannel nacks every publish.
type nackingChannel struct {
	confirms chan amqp.Confirmation
}

func (c *nackingChannel) Confirm(_ bool) error { return nil }

func (c *nackingChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	c.confirms = confirm

	return confirm
}

func (c *nackingChannel) PublishWithContext(
	_ context.Context,
	_, _ string,
	_, _ bool,
	_ amqp.Publishing,
) error {
	go func() {
		c.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: false}
	}()

	return nil
}

func TestAMQPPublisher_ConfirmTimeout(t *testing.T) {
	t.Parallel()

	channel := &silentChannel{}

	publisher, err := NewAMQPPublisher(channel, "atm.events", "transaction")
	require.NoError(t, err)

	publisher.confirmTimeout = 50 * time.Millisecond

	err = publisher.Publish(context.Background(), Event{Kind: EventTransactionOpened})
	require.ErrorIs(t, err, ErrConfirmTimeout)
}

// silentChannel accepts publishes and never confirms them.
type silentChannel struct{}

func (c *silentChannel) Confirm(_ bool) error { return nil }

func (c *silentChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	return confirm
}

func (c *silentChannel) PublishWithContext(
	_ context.Context,
	_, _ string,
	_, _ bool,
	_ amqp.Publishing,
) error {
	return nil
}

func TestPublishingRecorder_EmitsEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	channel := &mockChannel{}

	publisher, err := NewAMQPPublisher(channel, "atm.events", "transaction")
	require.NoError(t, err)

	recorder := NewPublishingRecorder(NewMemoryRecorder(), publisher)

	record, err := recorder.Create(ctx, Record{CardToken: "card-1", ATMCode: "ATM-01"})
	require.NoError(t, err)

	_, err = recorder.Complete(ctx, record.ID, StatusSuccess, "", "dispensed")
	require.NoError(t, err)

	channel.mu.Lock()
	defer channel.mu.Unlock()

	require.Len(t, channel.published, 2)

	var opened, completed Event
	require.NoError(t, json.Unmarshal(channel.published[0].Body, &opened))
	require.NoError(t, json.Unmarshal(channel.published[1].Body, &completed))

	assert.Equal(t, EventTransactionOpened, opened.Kind)
	assert.Equal(t, StatusPending, opened.Record.Status)
	assert.Equal(t, EventTransactionCompleted, completed.Kind)
	assert.Equal(t, StatusSuccess, completed.Record.Status)
}
