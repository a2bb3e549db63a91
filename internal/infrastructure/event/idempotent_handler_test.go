package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()
	cfg := shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}

	t.Run("first delivery is handled and repeats are skipped", func(t *testing.T) {
		event := paymentEvent(uuid.New())
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, event.EventID().String(), time.Hour).Return(true, nil).Once()
		store.On("MarkProcessed", mock.Anything, event.EventID().String(), time.Hour).Return(false, nil).Once()
		inner := &recordingHandler{}

		h := NewIdempotentHandler(inner, store, cfg, zap.NewNop())
		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		assert.Len(t, inner.events(), 1)
		assert.Equal(t, IdempotencyStats{Processed: 1, Duplicate: 1}, h.Stats())
		store.AssertExpectations(t)
	})

	t.Run("store errors let the event through", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))
		inner := &recordingHandler{}

		h := NewIdempotentHandler(inner, store, cfg, zap.NewNop())
		require.NoError(t, h.Handle(ctx, paymentEvent(uuid.New())))
		assert.Len(t, inner.events(), 1)
	})

	t.Run("handler failure is returned counted and released", func(t *testing.T) {
		event := paymentEvent(uuid.New())
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		store.On("Release", mock.Anything, event.EventID().String()).Return(nil).Once()
		h := NewIdempotentHandler(&recordingHandler{err: errors.New("boom")}, store, cfg, zap.NewNop())

		assert.EqualError(t, h.Handle(ctx, event), "boom")
		assert.Equal(t, int64(1), h.Stats().Failed)
		store.AssertExpectations(t)
	})

	t.Run("disabled bypasses the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := &recordingHandler{types: []string{"X"}}
		h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{}, zap.NewNop())

		require.NoError(t, h.Handle(ctx, paymentEvent(uuid.New())))
		assert.Equal(t, []string{"X"}, h.EventTypes())
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})
}
