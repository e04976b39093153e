package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyboard-server/internal/messaging"
)

// MockPublisher is a mock type for the messaging.Publisher type
type MockPublisher struct {
	mock.Mock
}

var _ messaging.Publisher = (*MockPublisher)(nil)

func (_m *MockPublisher) Publish(ctx context.Context, body []byte) error {
	ret := _m.Called(ctx, body)
	return ret.Error(0)
}

func (_m *MockPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}
