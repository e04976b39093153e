package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
)

var _ StyleRepository = (*pgStyleRepository)(nil)

type pgStyleRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgStyleRepository(db DBTX, logger *zap.Logger) StyleRepository {
	return &pgStyleRepository{
		db:     db,
		logger: logger.Named("PgStyleRepo"),
	}
}

func (r *pgStyleRepository) List(ctx context.Context) ([]model.StylePreset, error) {
	query := `SELECT id, name, image_data, created_at FROM style_presets ORDER BY created_at`

	var presets []model.StylePreset
	if err := pgxscan.Select(ctx, r.db, &presets, query); err != nil {
		r.logger.Error("ошибка выборки стилей", zap.Error(err))
		return nil, fmt.Errorf("database error listing style presets: %w", err)
	}
	return presets, nil
}

func (r *pgStyleRepository) GetByID(ctx context.Context, id uuid.UUID) (model.StylePreset, error) {
	query := `SELECT id, name, image_data, created_at FROM style_presets WHERE id = $1`

	var preset model.StylePreset
	err := pgxscan.Get(ctx, r.db, &preset, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StylePreset{}, fmt.Errorf("%w: style preset %s", model.ErrNotFound, id)
		}
		r.logger.Error("ошибка чтения стиля", zap.String("id", id.String()), zap.Error(err))
		return model.StylePreset{}, fmt.Errorf("database error querying style preset: %w", err)
	}
	return preset, nil
}

func (r *pgStyleRepository) Save(ctx context.Context, preset model.StylePreset) error {
	query := `
        INSERT INTO style_presets (id, name, image_data)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            image_data = EXCLUDED.image_data`

	if _, err := r.db.Exec(ctx, query, preset.ID, preset.Name, preset.ImageData); err != nil {
		r.logger.Error("ошибка сохранения стиля", zap.String("name", preset.Name), zap.Error(err))
		return fmt.Errorf("database error saving style preset: %w", err)
	}
	return nil
}

func (r *pgStyleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM style_presets WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("ошибка удаления стиля", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error deleting style preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: style preset %s", model.ErrNotFound, id)
	}
	return nil
}
