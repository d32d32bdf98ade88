package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNotification struct {
	ID       string `json:"id"`
	Template string `json:"template"`
}

func TestPublisher_PublishToEmailQueue(t *testing.T) {
	ctx := context.Background()
	url := amqpURL(ctx, t)

	conn, err := Connect(url, 3, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, []QueueConfig{{QueueName: "publisher-test", RoutingKey: "publisher-test"}})
	require.NoError(t, err)
	defer ch.Close()

	publisher := NewPublisher(ch)
	msg := testNotification{ID: "1", Template: "welcome"}
	require.NoError(t, publisher.Publish(ctx, "publisher-test", msg))

	deliveries, err := ch.Consume("publisher-test", "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got testNotification
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, msg, got)
		assert.Equal(t, "application/json", d.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublisher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publisher := NewPublisher(nil)
	err := publisher.Publish(ctx, EmailRoutingKey, testNotification{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishMessage_MarshalError(t *testing.T) {
	err := PublishMessage(nil, Exchange, EmailRoutingKey, struct {
		Ch chan int `json:"ch"`
	}{Ch: make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}
