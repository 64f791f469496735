package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-secret-switch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}
func (m *mockUserStore) PutUser(ctx context.Context, u domain.User) error {
	return m.Called(ctx, u).Error(0)
}

const (
	testEmail = "alice@example.com"
	testNow   = int64(1_700_000_000)
)

func fixedClock() int64 { return testNow }

func TestAuthorize_TouchesExistingUser(t *testing.T) {
	v := &mockVerifier{}
	st := &mockUserStore{}
	sub := domain.Subscription{
		Endpoint: "https://push.example.com/a",
		Keys:     domain.SubscriptionKeys{P256dh: "p", Auth: "a"},
	}

	v.On("Verify", mock.Anything, "token").Return(testEmail, nil)
	st.On("GetUser", mock.Anything, testEmail).
		Return(domain.User{ID: testEmail, LastSeen: 5, Subscription: sub}, nil)
	st.On("PutUser", mock.Anything, domain.User{
		ID:           testEmail,
		LastSeen:     testNow,
		Subscription: sub, // preserved across the touch
	}).Return(nil)

	svc := NewService(v, st, fixedClock, false)
	email, err := svc.Authorize(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, testEmail, email)
	st.AssertExpectations(t)
}

func TestAuthorize_RegistersUnknownUser(t *testing.T) {
	v := &mockVerifier{}
	st := &mockUserStore{}

	v.On("Verify", mock.Anything, "token").Return(testEmail, nil)
	st.On("GetUser", mock.Anything, testEmail).Return(domain.User{}, domain.ErrNotFound)
	st.On("PutUser", mock.Anything, domain.User{ID: testEmail, LastSeen: testNow}).Return(nil)

	svc := NewService(v, st, fixedClock, false)
	email, err := svc.Authorize(context.Background(), "token")

	require.NoError(t, err)
	assert.Equal(t, testEmail, email)
}

func TestAuthorize_BlockedRegistration(t *testing.T) {
	v := &mockVerifier{}
	st := &mockUserStore{}

	v.On("Verify", mock.Anything, "token").Return(testEmail, nil)
	st.On("GetUser", mock.Anything, testEmail).Return(domain.User{}, domain.ErrNotFound)

	svc := NewService(v, st, fixedClock, true)
	_, err := svc.Authorize(context.Background(), "token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	st.AssertNotCalled(t, "PutUser", mock.Anything, mock.Anything)
}

func TestAuthorize_InvalidToken(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "bad").Return("", domain.ErrUnauthorized)

	svc := NewService(v, &mockUserStore{}, fixedClock, false)
	_, err := svc.Authorize(context.Background(), "bad")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
