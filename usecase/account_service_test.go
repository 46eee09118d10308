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

func strPtr(s string) *string { return &s }

var testVolunteer = VolunteerSignup{Name: "Asha", Mobile: "+91 98765 43210", Location: "Koregaon Park", City: "Pune"}

var testNGO = NGOSignup{OrgName: "Paws Trust", FounderName: "Ravi", Mobile: "+91 90000 00000", Location: "Mumbai"}

func TestRegisterAndLoginVolunteer(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAccountService(store, &recordingBroker{})

	v, err := svc.RegisterVolunteer(ctx, "asha@example.com", "secret1", testVolunteer)
	require.NoError(t, err)
	assert.NotEmpty(t, v.UID)
	assert.Equal(t, "Asha", v.Name)
	assert.Equal(t, "asha@example.com", v.Email)
	assert.False(t, v.IsVerified)
	assert.NotEmpty(t, store.lastToken[v.UID], "verification should be sent")

	account, profile, err := svc.LoginVolunteer(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, v.UID, account.UID)
	assert.Equal(t, "Pune", profile.City)

	_, _, err = svc.LoginVolunteer(ctx, "asha@example.com", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginVolunteerWithoutProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAccountService(store, &recordingBroker{})

	_, err := store.CreateAccount(ctx, "bare@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.LoginVolunteer(ctx, "bare@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	// An NGO waiting for approval must not get in through the volunteer door.
	_, err = svc.RegisterNGO(ctx, "paws@example.com", "secret1", testNGO)
	require.NoError(t, err)
	_, _, err = svc.LoginVolunteer(ctx, "paws@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRegisterVolunteerValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemStore(), &recordingBroker{})

	_, err := svc.RegisterVolunteer(ctx, "a@example.com", "secret1", VolunteerSignup{Name: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RegisterVolunteer(ctx, "a@example.com", "123", testVolunteer)
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.RegisterVolunteer(ctx, "a@example.com", "secret1", testVolunteer)
	require.NoError(t, err)
	_, err = svc.RegisterVolunteer(ctx, "a@example.com", "secret1", testVolunteer)
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
}

func TestRegisterVolunteerVerificationFailure(t *testing.T) {
	store := newMemStore()
	store.sendErr = errors.New("smtp down")
	svc := NewAccountService(store, &recordingBroker{})

	ctx := context.Background()
	v, err := svc.RegisterVolunteer(ctx, "a@example.com", "secret1", testVolunteer)
	require.NoError(t, err)

	// The account is complete and usable; only the email is outstanding.
	_, profile, err := svc.LoginVolunteer(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, v.UID, profile.UID)

	assert.ErrorContains(t, svc.ResendVerification(ctx, v.UID), "smtp down")

	store.sendErr = nil
	require.NoError(t, svc.ResendVerification(ctx, v.UID))
	assert.NotEmpty(t, store.lastToken[v.UID])
}

func TestUpdateVolunteer(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemStore(), &recordingBroker{})

	v, err := svc.RegisterVolunteer(ctx, "asha@example.com", "secret1", testVolunteer)
	require.NoError(t, err)

	updated, err := svc.UpdateVolunteer(ctx, v.UID, VolunteerUpdate{City: strPtr("Nagpur")})
	require.NoError(t, err)
	assert.Equal(t, "Nagpur", updated.City)
	assert.Equal(t, "Asha", updated.Name)

	_, err = svc.UpdateVolunteer(ctx, v.UID, VolunteerUpdate{Name: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateVolunteer(ctx, "missing", VolunteerUpdate{City: strPtr("X")})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestNGOLoginRequiresApproval(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemStore(), &recordingBroker{})

	ngo, err := svc.RegisterNGO(ctx, "paws@example.com", "secret1", testNGO)
	require.NoError(t, err)
	assert.False(t, ngo.IsApproved)
	assert.False(t, ngo.IsVerified)

	_, _, err = svc.LoginNGO(ctx, "paws@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrPendingApproval)

	approved, err := svc.ApproveNGO(ctx, ngo.UID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	account, got, err := svc.LoginNGO(ctx, "paws@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ngo.UID, account.UID)
	assert.Equal(t, "Paws Trust", got.OrgName)
}

func TestNGOLoginWithoutProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAccountService(store, &recordingBroker{})

	_, err := svc.RegisterVolunteer(ctx, "vol@example.com", "secret1", testVolunteer)
	require.NoError(t, err)

	_, _, err = svc.LoginNGO(ctx, "vol@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestApprovedNGOsAndProfileUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemStore(), &recordingBroker{})

	a, err := svc.RegisterNGO(ctx, "a@example.com", "secret1", testNGO)
	require.NoError(t, err)
	_, err = svc.RegisterNGO(ctx, "b@example.com", "secret1", testNGO)
	require.NoError(t, err)

	list, err := svc.ApprovedNGOs(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ApproveNGO(ctx, a.UID)
	require.NoError(t, err)

	updated, err := svc.UpdateNGOProfile(ctx, a.UID, NGOUpdate{
		Description: strPtr("Rescue and rehabilitation"),
		ImageURL:    strPtr("https://example.com/logo.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rescue and rehabilitation", updated.Description)
	assert.True(t, updated.IsApproved, "profile update must not reset approval")

	_, err = svc.UpdateNGOProfile(ctx, a.UID, NGOUpdate{ImageURL: strPtr("not a url")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err = svc.ApprovedNGOs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.UID, list[0].UID)
}

func TestVerifyEmailFlagsProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	broker := &recordingBroker{}
	svc := NewAccountService(store, broker)

	v, err := svc.RegisterVolunteer(ctx, "asha@example.com", "secret1", testVolunteer)
	require.NoError(t, err)

	require.NoError(t, svc.ResendVerification(ctx, v.UID))
	account, err := svc.VerifyEmail(ctx, store.lastToken[v.UID])
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)

	profile, err := svc.Volunteer(ctx, v.UID)
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)

	require.Equal(t, []string{domain.AccountVerifiedTopic}, broker.topics)
	var msg domain.AccountVerifiedMessage
	require.NoError(t, json.Unmarshal(broker.published[0], &msg))
	assert.Equal(t, v.UID, msg.UID)
	assert.Equal(t, "asha@example.com", msg.Email)

	_, err = svc.VerifyEmail(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.ResendVerification(ctx, "missing"), domain.ErrNotFound)
}

func TestVerifyEmailPublishFailureStillVerifies(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAccountService(store, &recordingBroker{err: errors.New("broker down")})

	v, err := svc.RegisterVolunteer(ctx, "asha@example.com", "secret1", testVolunteer)
	require.NoError(t, err)

	account, err := svc.VerifyEmail(ctx, store.lastToken[v.UID])
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)
}
