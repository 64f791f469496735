package message

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-secret-switch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}
func (m *mockStore) PutMessage(ctx context.Context, msg domain.SecretMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}
func (m *mockStore) GetMessagesFor(ctx context.Context, email string) ([]domain.MessageProjection, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.MessageProjection), args.Error(1)
}
func (m *mockStore) DeleteMessage(ctx context.Context, email, id string) error {
	return m.Called(ctx, email, id).Error(0)
}

// --- helpers ---

const (
	ownerEmail     = "owner@example.com"
	recipientEmail = "recipient@example.com"
)

func subscribedRecipient() domain.User {
	return domain.User{
		ID:       recipientEmail,
		LastSeen: 1000,
		Subscription: domain.Subscription{
			Endpoint: "https://push.example.com/r",
			Keys:     domain.SubscriptionKeys{P256dh: "p", Auth: "a"},
		},
	}
}

func baseReq() domain.CreateMessageRequest {
	return domain.CreateMessageRequest{
		Recipient:             recipientEmail,
		SystemShare:           "opaque-share",
		VerifyEveryMinutes:    120,
		MaxFailedVerification: 3,
	}
}

// --- Create tests ---

func TestCreate_Succeeds(t *testing.T) {
	st := &mockStore{}
	st.On("GetUser", mock.Anything, recipientEmail).Return(subscribedRecipient(), nil)
	st.On("PutMessage", mock.Anything, mock.MatchedBy(func(m domain.SecretMessage) bool {
		return m.Owner == ownerEmail && m.Recipient == recipientEmail && !m.Revealed
	})).Return("generated-id", nil)

	svc := NewService(st, time.Hour)
	id, err := svc.Create(context.Background(), ownerEmail, baseReq())

	require.NoError(t, err)
	assert.Equal(t, "generated-id", id)
	st.AssertExpectations(t)
}

func TestCreate_RejectsInvalidPayload(t *testing.T) {
	svc := NewService(&mockStore{}, time.Hour)

	req := baseReq()
	req.MaxFailedVerification = 12
	_, err := svc.Create(context.Background(), ownerEmail, req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_WindowShorterThanSweepPeriod(t *testing.T) {
	svc := NewService(&mockStore{}, time.Hour)

	req := baseReq()
	req.VerifyEveryMinutes = 30
	_, err := svc.Create(context.Background(), ownerEmail, req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreate_UnregisteredRecipient(t *testing.T) {
	st := &mockStore{}
	st.On("GetUser", mock.Anything, recipientEmail).Return(domain.User{}, domain.ErrNotFound)

	svc := NewService(st, time.Hour)
	_, err := svc.Create(context.Background(), ownerEmail, baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreate_OwnerCannotBeRecipient(t *testing.T) {
	st := &mockStore{}
	self := subscribedRecipient()
	self.ID = ownerEmail
	st.On("GetUser", mock.Anything, recipientEmail).Return(self, nil)

	svc := NewService(st, time.Hour)
	_, err := svc.Create(context.Background(), ownerEmail, baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreate_RecipientWithoutSubscription(t *testing.T) {
	st := &mockStore{}
	st.On("GetUser", mock.Anything, recipientEmail).Return(domain.User{ID: recipientEmail}, nil)

	svc := NewService(st, time.Hour)
	_, err := svc.Create(context.Background(), ownerEmail, baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	st.AssertNotCalled(t, "PutMessage", mock.Anything, mock.Anything)
}

// --- List / Delete passthrough ---

func TestList(t *testing.T) {
	st := &mockStore{}
	want := []domain.MessageProjection{{ID: "m1", Owner: ownerEmail}}
	st.On("GetMessagesFor", mock.Anything, ownerEmail).Return(want, nil)

	svc := NewService(st, time.Hour)
	got, err := svc.List(context.Background(), ownerEmail)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDelete_PropagatesForbidden(t *testing.T) {
	st := &mockStore{}
	st.On("DeleteMessage", mock.Anything, recipientEmail, "m1").
		Return(domain.ErrForbidden)

	svc := NewService(st, time.Hour)
	err := svc.Delete(context.Background(), recipientEmail, "m1")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
