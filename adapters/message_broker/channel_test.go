package message_broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidbridge/backend/domain"
)

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()
	defer b.Close()

	ch, err := b.Subscribe(ctx, domain.HelpRequestTopic, "")
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, domain.HelpRequestTopic, "", []byte(`{"id":"1"}`)))

	select {
	case msg := <-ch:
		assert.Equal(t, domain.HelpRequestTopic, msg.Topic)
		assert.Equal(t, `{"id":"1"}`, string(msg.Payload))
		assert.False(t, msg.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Equal(t, 1, b.TopicCount())
}

func TestPublishFullTopic(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()
	defer b.Close()

	for i := 0; i < topicBuffer; i++ {
		require.NoError(t, b.Publish(ctx, "t", "k", []byte("x")))
	}
	assert.Error(t, b.Publish(ctx, "t", "k", []byte("x")))
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()

	ch, err := b.Subscribe(ctx, "t", "")
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, open := <-ch
	assert.False(t, open)
	assert.True(t, b.IsClosed())
	assert.Error(t, b.Publish(ctx, "t", "", nil))
	_, err = b.Subscribe(ctx, "t", "")
	assert.Error(t, err)
}
