package mocks

import (
	"context"
	"time"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/push"

	"github.com/stretchr/testify/mock"
)

type MockOrderAPI struct {
	mock.Mock
}

type MockJournalRepository struct {
	mock.Mock
}

type MockStatusCache struct {
	mock.Mock
}

type MockSink struct {
	mock.Mock
}

type MockTransport struct {
	mock.Mock
}

func (m *MockOrderAPI) FetchOrders(ctx context.Context) ([]domain.RawOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawOrder), args.Error(1)
}

func (m *MockOrderAPI) UpdateOrderStatus(ctx context.Context, orderID, apiStatus string, updatedAt time.Time) error {
	args := m.Called(ctx, orderID, apiStatus, updatedAt)
	return args.Error(0)
}

func (m *MockOrderAPI) GetOrderStatus(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

func (m *MockJournalRepository) Save(ctx context.Context, entry *domain.StatusChange) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) FindByOrderID(ctx context.Context, orderID string, limit int) ([]domain.StatusChange, error) {
	args := m.Called(ctx, orderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusChange), args.Error(1)
}

func (m *MockStatusCache) Put(ctx context.Context, orderID, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockStatusCache) Get(ctx context.Context, orderID string) (string, bool, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSink) ApplyCreated(ctx context.Context, rec domain.RawOrder) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSink) ApplyUpdated(ctx context.Context, rec domain.RawOrder) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockTransport keeps the callbacks it was given so tests can drive
// deliveries and connection changes.
func (m *MockTransport) Open(ctx context.Context, onState func(connected bool)) error {
	args := m.Called(ctx, onState)
	if args.Error(0) == nil {
		onState(true)
	}
	return args.Error(0)
}

func (m *MockTransport) Subscribe(ctx context.Context, channel string, events []string, deliver push.Delivery) error {
	args := m.Called(ctx, channel, events, deliver)
	return args.Error(0)
}

func (m *MockTransport) Unsubscribe() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}
