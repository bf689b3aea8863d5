package events

import (
	"context"
	"sync"
)

// MockPublisher records published events for test assertions.
type MockPublisher struct {
	mu sync.Mutex

	// Created holds OrderCreated events in publish order.
	Created []OrderCreatedEvent

	// PaymentUpdated holds OrderPaymentUpdated events in publish order.
	PaymentUpdated []OrderPaymentUpdatedEvent

	// Err, when set, is returned from every publish call.
	Err error
}

// NewMockPublisher creates a new recording publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) OrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, event)
	return nil
}

func (m *MockPublisher) OrderPaymentUpdated(ctx context.Context, event OrderPaymentUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.PaymentUpdated = append(m.PaymentUpdated, event)
	return nil
}

func (m *MockPublisher) Close() {}
