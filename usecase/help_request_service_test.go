package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidbridge/backend/domain"
)

var testHelpRequest = HelpRequestInput{
	UserName: "Meera",
	Location: "MG Road",
	Landmark: "Near the bus stop",
	Severity: domain.SeverityHigh,
}

func TestSubmitHelpRequest(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	broker := &recordingBroker{}
	svc := NewHelpRequestService(store, broker)

	req, err := svc.Submit(ctx, testHelpRequest)
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.CreatedAt.IsZero())

	_, found, err := store.GetProfile(ctx, domain.HelpRequestsCollection, req.ID)
	require.NoError(t, err)
	assert.True(t, found)

	require.Len(t, broker.published, 1)
	var msg domain.HelpRequestMessage
	require.NoError(t, json.Unmarshal(broker.published[0], &msg))
	assert.Equal(t, req.ID, msg.ID)
	assert.Equal(t, domain.SeverityHigh, msg.Severity)
	assert.Equal(t, "MG Road", msg.Location)
}

func TestSubmitHelpRequestValidation(t *testing.T) {
	svc := NewHelpRequestService(newMemStore(), &recordingBroker{})

	bad := testHelpRequest
	bad.Severity = "apocalyptic"
	_, err := svc.Submit(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Submit(context.Background(), HelpRequestInput{Severity: domain.SeverityLow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitHelpRequestSurvivesBrokerFailure(t *testing.T) {
	store := newMemStore()
	svc := NewHelpRequestService(store, &recordingBroker{err: errors.New("broker closed")})

	req, err := svc.Submit(context.Background(), testHelpRequest)
	require.NoError(t, err)

	_, found, _ := store.GetProfile(context.Background(), domain.HelpRequestsCollection, req.ID)
	assert.True(t, found)
}

func TestHelpRequestsBySeverity(t *testing.T) {
	ctx := context.Background()
	svc := NewHelpRequestService(newMemStore(), &recordingBroker{})

	first, err := svc.Submit(ctx, testHelpRequest)
	require.NoError(t, err)
	low := testHelpRequest
	low.Severity = domain.SeverityLow
	_, err = svc.Submit(ctx, low)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, testHelpRequest)
	require.NoError(t, err)

	high, err := svc.BySeverity(ctx, domain.SeverityHigh)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, first.ID, high[0].ID)
	assert.Equal(t, second.ID, high[1].ID)

	_, err = svc.BySeverity(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
