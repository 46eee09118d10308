package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidbridge/backend/domain"
)

func TestChatServiceExecute(t *testing.T) {
	svc := NewChatService(NewResponder(&stubLlm{text: "remote reply"}, staticCreds("key")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan string)
	output := make(chan domain.ReplyResult)
	done := make(chan error, 1)
	go func() { done <- svc.Execute(ctx, input, output) }()

	input <- "hi"
	select {
	case reply := <-output:
		assert.Equal(t, domain.ReplyResult{Text: "remote reply", Source: domain.RemoteSource}, reply)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}

	close(input)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("execute did not return after input closed")
	}
}

func TestChatServiceExecuteStopsOnCancel(t *testing.T) {
	svc := NewChatService(NewResponder(nil, staticCreds("")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Execute(ctx, make(chan string), make(chan domain.ReplyResult)) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("execute did not return after cancel")
	}
}

func TestChatServiceReply(t *testing.T) {
	svc := NewChatService(NewResponder(nil, staticCreds("")))
	assert.Equal(t, domain.FallbackSource, svc.Reply(context.Background(), "hello").Source)
}
