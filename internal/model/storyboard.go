package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается репозиториями, когда запись отсутствует.
var ErrNotFound = errors.New("запись не найдена")

// ErrAlreadyExists возвращается репозиториями при нарушении уникальности,
// например при сохранении персонажа с занятым именем.
var ErrAlreadyExists = errors.New("запись с таким именем уже существует")

// Character - персонаж проекта: имя, визуальное описание и опциональный
// референс внешности (data URL).
type Character struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ImageData   string    `json:"imageData,omitempty" db:"image_data"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// RoleProfile - персонаж, предложенный анализом сценария. Идентификатор
// присваивает вызывающая сторона при сохранении.
type RoleProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ShotPrompt - результат вывода промпта кадра: сам промпт и имена известных
// персонажей, присутствующих в кадре.
type ShotPrompt struct {
	Prompt     string   `json:"prompt"`
	Characters []string `json:"characters"`
}

// Frame - кадр раскадровки. Segment - исходный фрагмент сценария,
// Prompt - промпт генерации, ImageReference - имя сохраненного файла,
// ImageURL - публичный адрес отрисованного изображения.
type Frame struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Position       int       `json:"position" db:"position"`
	Segment        string    `json:"segment" db:"segment"`
	Prompt         string    `json:"prompt" db:"prompt"`
	Characters     []string  `json:"characters" db:"characters"`
	ImageReference string    `json:"imageReference,omitempty" db:"image_reference"`
	ImageURL       string    `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// StylePreset - визуальный стиль проекта с изображением-референсом (data URL).
type StylePreset struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ImageData string    `json:"imageData,omitempty" db:"image_data"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NamedImage - изображение-референс с именем персонажа.
type NamedImage struct {
	Name  string
	Image ImageData
}
