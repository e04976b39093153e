package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/mocks"
	"storyboard-server/internal/service"
)

type rendererMock struct {
	mock.Mock
}

var _ service.FrameRenderer = (*rendererMock)(nil)

func (m *rendererMock) RenderFrame(ctx context.Context, task messaging.FrameRenderTask) service.RenderResult {
	ret := m.Called(ctx, task)
	return ret.Get(0).(service.RenderResult)
}

func newTestHandler(t *testing.T) (*Handler, *rendererMock, *mocks.MockPublisher) {
	t.Helper()
	renderer := new(rendererMock)
	publisher := new(mocks.MockPublisher)
	return NewHandler(zap.NewNop(), renderer, publisher, ""), renderer, publisher
}

func deliveryWith(t *testing.T, payload any) amqp091.Delivery {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return amqp091.Delivery{Body: body}
}

func TestHandleDelivery_SingleTaskSuccess(t *testing.T) {
	handler, renderer, publisher := newTestHandler(t)

	task := messaging.FrameRenderTask{TaskID: "t-1", FrameID: uuid.New(), Prompt: "wide shot"}
	renderer.On("RenderFrame", mock.Anything, mock.MatchedBy(func(got messaging.FrameRenderTask) bool {
		return got.TaskID == task.TaskID && got.Prompt == task.Prompt
	})).Return(service.RenderResult{ImageURL: "http://localhost:8080/images/a.png"})

	var published []byte
	publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]byte)
	}).Return(nil)

	ack := handler.HandleDelivery(context.Background(), deliveryWith(t, task))
	assert.True(t, ack)

	var result messaging.FrameRenderResult
	require.NoError(t, json.Unmarshal(published, &result))
	assert.True(t, result.Success)
	assert.Equal(t, task.TaskID, result.TaskID)
	assert.Equal(t, "http://localhost:8080/images/a.png", result.ImageURL)
}

func TestHandleDelivery_RenderErrorStillPublishesAndAcks(t *testing.T) {
	handler, renderer, publisher := newTestHandler(t)

	task := messaging.FrameRenderTask{TaskID: "t-2", FrameID: uuid.New(), Prompt: "night scene"}
	renderer.On("RenderFrame", mock.Anything, mock.Anything).
		Return(service.RenderResult{Error: errors.New("провайдер недоступен")})

	var published []byte
	publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]byte)
	}).Return(nil)

	ack := handler.HandleDelivery(context.Background(), deliveryWith(t, task))
	assert.True(t, ack)

	var result messaging.FrameRenderResult
	require.NoError(t, json.Unmarshal(published, &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "провайдер недоступен")
}

func TestHandleDelivery_BatchProcessesEveryTask(t *testing.T) {
	handler, renderer, publisher := newTestHandler(t)

	batch := messaging.FrameRenderBatch{
		BatchID: "b-1",
		Tasks: []messaging.FrameRenderTask{
			{TaskID: "t-1", FrameID: uuid.New(), Prompt: "first"},
			{TaskID: "t-2", FrameID: uuid.New(), Prompt: "second"},
			{TaskID: "t-3", FrameID: uuid.New(), Prompt: "third"},
		},
	}
	renderer.On("RenderFrame", mock.Anything, mock.Anything).
		Return(service.RenderResult{ImageURL: "http://localhost:8080/images/x.png"})
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	ack := handler.HandleDelivery(context.Background(), deliveryWith(t, batch))
	assert.True(t, ack)
	renderer.AssertNumberOfCalls(t, "RenderFrame", 3)
	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestHandleDelivery_GarbageMessageIsAcked(t *testing.T) {
	handler, renderer, _ := newTestHandler(t)

	ack := handler.HandleDelivery(context.Background(), amqp091.Delivery{Body: []byte("not json at all")})
	// Битое сообщение не должно вернуться в очередь.
	assert.True(t, ack)
	renderer.AssertNotCalled(t, "RenderFrame", mock.Anything, mock.Anything)
}

func TestHandleDelivery_PublishErrorDoesNotRequeue(t *testing.T) {
	handler, renderer, publisher := newTestHandler(t)

	task := messaging.FrameRenderTask{TaskID: "t-4", FrameID: uuid.New(), Prompt: "dusk"}
	renderer.On("RenderFrame", mock.Anything, mock.Anything).
		Return(service.RenderResult{ImageURL: "http://localhost:8080/images/y.png"})
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	// Повторная отрисовка дороже потерянного уведомления.
	ack := handler.HandleDelivery(context.Background(), deliveryWith(t, task))
	assert.True(t, ack)
}
