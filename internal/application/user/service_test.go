package user

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

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}
func (m *mockUserStore) SubscribeUser(ctx context.Context, email string, sub domain.Subscription) error {
	return m.Called(ctx, email, sub).Error(0)
}
func (m *mockUserStore) UnsubscribeUser(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Send(ctx context.Context, sub domain.Subscription, msg domain.PushMessage) error {
	return m.Called(ctx, sub, msg).Error(0)
}

var testSub = domain.Subscription{
	Endpoint: "https://push.example.com/a",
	Keys:     domain.SubscriptionKeys{P256dh: "p", Auth: "a"},
}

func TestSubscribe(t *testing.T) {
	st := &mockUserStore{}
	st.On("SubscribeUser", mock.Anything, "alice@example.com", testSub).Return(nil)

	svc := NewService(st, &mockDispatcher{})
	err := svc.Subscribe(context.Background(), "alice@example.com", testSub)

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestSubscribe_EmptySubscription(t *testing.T) {
	st := &mockUserStore{}

	svc := NewService(st, &mockDispatcher{})
	err := svc.Subscribe(context.Background(), "alice@example.com", domain.Subscription{})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	st.AssertNotCalled(t, "SubscribeUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnsubscribe(t *testing.T) {
	st := &mockUserStore{}
	st.On("UnsubscribeUser", mock.Anything, "alice@example.com").Return(nil)

	svc := NewService(st, &mockDispatcher{})
	require.NoError(t, svc.Unsubscribe(context.Background(), "alice@example.com"))
	st.AssertExpectations(t)
}

func TestTestNotification_Self(t *testing.T) {
	st := &mockUserStore{}
	d := &mockDispatcher{}
	st.On("GetUser", mock.Anything, "alice@example.com").
		Return(domain.User{ID: "alice@example.com", Subscription: testSub}, nil)
	d.On("Send", mock.Anything, testSub, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Tag == "test" && msg.Title == "The switch says hi"
	})).Return(nil)

	svc := NewService(st, d)
	err := svc.TestNotification(context.Background(), "alice@example.com", "")

	require.NoError(t, err)
	d.AssertExpectations(t)
}

func TestTestNotification_OtherUser(t *testing.T) {
	st := &mockUserStore{}
	d := &mockDispatcher{}
	st.On("GetUser", mock.Anything, "bob@example.com").
		Return(domain.User{ID: "bob@example.com", Subscription: testSub}, nil)
	d.On("Send", mock.Anything, testSub, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Title == "alice@example.com says hi"
	})).Return(nil)

	svc := NewService(st, d)
	err := svc.TestNotification(context.Background(), "alice@example.com", "bob@example.com")

	require.NoError(t, err)
	d.AssertExpectations(t)
}

func TestTestNotification_TargetNotRegistered(t *testing.T) {
	st := &mockUserStore{}
	st.On("GetUser", mock.Anything, "ghost@example.com").Return(domain.User{}, domain.ErrNotFound)

	svc := NewService(st, &mockDispatcher{})
	err := svc.TestNotification(context.Background(), "alice@example.com", "ghost@example.com")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTestNotification_TargetHasNoSubscription(t *testing.T) {
	st := &mockUserStore{}
	d := &mockDispatcher{}
	st.On("GetUser", mock.Anything, "bob@example.com").
		Return(domain.User{ID: "bob@example.com"}, nil)

	svc := NewService(st, d)
	err := svc.TestNotification(context.Background(), "alice@example.com", "bob@example.com")

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	d.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
