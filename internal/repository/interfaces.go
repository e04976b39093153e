package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/google/uuid"

	"storyboard-server/internal/model"
)

// DBTX - общий интерфейс над *pgxpool.Pool и *pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsRepository хранит настройки проекта одним jsonb-документом.
type SettingsRepository interface {
	Get(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, settings model.Settings) error
}

// CharacterRepository - персонажи проекта.
type CharacterRepository interface {
	List(ctx context.Context) ([]model.Character, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Character, error)
	ListByNames(ctx context.Context, names []string) ([]model.Character, error)
	Save(ctx context.Context, character model.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FrameRepository - кадры раскадровки, упорядоченные по position.
type FrameRepository interface {
	List(ctx context.Context) ([]model.Frame, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Frame, error)
	Save(ctx context.Context, frame model.Frame) error
	ReplaceAll(ctx context.Context, frames []model.Frame) error
	Reorder(ctx context.Context, ids []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StyleRepository - стили-референсы проекта.
type StyleRepository interface {
	List(ctx context.Context) ([]model.StylePreset, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.StylePreset, error)
	Save(ctx context.Context, preset model.StylePreset) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RenderCache - кэш отрисованных кадров: хэш промпта -> публичный URL.
// Повторная отрисовка того же промпта не тратит квоту провайдера.
type RenderCache interface {
	Get(ctx context.Context, promptHash string) (string, error)
	Set(ctx context.Context, promptHash, imageURL string, ttl time.Duration) error
}
