package messaging

import (
	"context"

	"github.com/google/uuid"
)

// Publisher - публикация сообщений в очередь результатов/задач.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// FrameRenderTask - задача отрисовки одного кадра. Референсы передаются
// в задаче data URL-ами, чтобы воркер не ходил за ними отдельно.
type FrameRenderTask struct {
	TaskID         string      `json:"taskId"`
	FrameID        uuid.UUID   `json:"frameId"`
	Prompt         string      `json:"prompt"`
	HD             bool        `json:"hd"`
	StyleImage     string      `json:"styleImage,omitempty"`
	CharacterRefs  []NamedRef  `json:"characterRefs,omitempty"`
}

// NamedRef - изображение-референс персонажа (data URL) с именем.
type NamedRef struct {
	Name      string `json:"name"`
	ImageData string `json:"imageData"`
}

// FrameRenderBatch - пакет задач отрисовки. Воркер обрабатывает задачи
// пакета последовательно и публикует результат на каждую.
type FrameRenderBatch struct {
	BatchID string            `json:"batchId"`
	Tasks   []FrameRenderTask `json:"tasks"`
}

// FrameRenderResult - результат отрисовки кадра. Сервер пересылает его
// подписчикам websocket.
type FrameRenderResult struct {
	TaskID       string    `json:"taskId"`
	FrameID      uuid.UUID `json:"frameId"`
	Success      bool      `json:"success"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}
