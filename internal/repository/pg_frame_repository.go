package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
)

var _ FrameRepository = (*pgFrameRepository)(nil)

// pgFrameRepository хранит кадры раскадровки. Порядок кадров задается
// колонкой position; List всегда возвращает кадры по возрастанию position.
type pgFrameRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgFrameRepository(pool *pgxpool.Pool, logger *zap.Logger) FrameRepository {
	return &pgFrameRepository{
		pool:   pool,
		logger: logger.Named("PgFrameRepo"),
	}
}

const frameColumns = `id, position, segment, prompt, characters, image_reference, image_url, created_at, updated_at`

func (r *pgFrameRepository) List(ctx context.Context) ([]model.Frame, error) {
	query := `SELECT ` + frameColumns + ` FROM frames ORDER BY position`

	var frames []model.Frame
	if err := pgxscan.Select(ctx, r.pool, &frames, query); err != nil {
		r.logger.Error("ошибка выборки кадров", zap.Error(err))
		return nil, fmt.Errorf("database error listing frames: %w", err)
	}
	return frames, nil
}

func (r *pgFrameRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Frame, error) {
	query := `SELECT ` + frameColumns + ` FROM frames WHERE id = $1`

	var frame model.Frame
	err := pgxscan.Get(ctx, r.pool, &frame, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Frame{}, fmt.Errorf("%w: frame %s", model.ErrNotFound, id)
		}
		r.logger.Error("ошибка чтения кадра", zap.String("id", id.String()), zap.Error(err))
		return model.Frame{}, fmt.Errorf("database error querying frame: %w", err)
	}
	return frame, nil
}

func (r *pgFrameRepository) Save(ctx context.Context, frame model.Frame) error {
	query := `
        INSERT INTO frames (id, position, segment, prompt, characters, image_reference, image_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            position = EXCLUDED.position,
            segment = EXCLUDED.segment,
            prompt = EXCLUDED.prompt,
            characters = EXCLUDED.characters,
            image_reference = EXCLUDED.image_reference,
            image_url = EXCLUDED.image_url,
            updated_at = NOW()`

	characters := frame.Characters
	if characters == nil {
		characters = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		frame.ID, frame.Position, frame.Segment, frame.Prompt,
		characters, frame.ImageReference, frame.ImageURL)
	if err != nil {
		r.logger.Error("ошибка сохранения кадра", zap.String("id", frame.ID.String()), zap.Error(err))
		return fmt.Errorf("database error saving frame: %w", err)
	}
	return nil
}

// ReplaceAll заменяет всю раскадровку одной транзакцией: используется после
// разбивки сценария заново.
func (r *pgFrameRepository) ReplaceAll(ctx context.Context, frames []model.Frame) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM frames`); err != nil {
		return fmt.Errorf("database error clearing frames: %w", err)
	}

	query := `
        INSERT INTO frames (id, position, segment, prompt, characters, image_reference, image_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, frame := range frames {
		characters := frame.Characters
		if characters == nil {
			characters = []string{}
		}
		if _, err := tx.Exec(ctx, query,
			frame.ID, frame.Position, frame.Segment, frame.Prompt,
			characters, frame.ImageReference, frame.ImageURL); err != nil {
			return fmt.Errorf("database error inserting frame: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.Info("раскадровка заменена", zap.Int("frames", len(frames)))
	return nil
}

// Reorder выставляет position по порядку переданных идентификаторов.
func (r *pgFrameRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for position, id := range ids {
		tag, err := tx.Exec(ctx, `UPDATE frames SET position = $1, updated_at = NOW() WHERE id = $2`, position, id)
		if err != nil {
			return fmt.Errorf("database error reordering frames: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: frame %s", model.ErrNotFound, id)
		}
	}

	return tx.Commit(ctx)
}

func (r *pgFrameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM frames WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("ошибка удаления кадра", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error deleting frame: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: frame %s", model.ErrNotFound, id)
	}
	return nil
}
