package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
)

var _ CharacterRepository = (*pgCharacterRepository)(nil)

type pgCharacterRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgCharacterRepository(db DBTX, logger *zap.Logger) CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("PgCharacterRepo"),
	}
}

func (r *pgCharacterRepository) List(ctx context.Context) ([]model.Character, error) {
	query := `
        SELECT id, name, description, image_data, created_at, updated_at
        FROM characters
        ORDER BY created_at`

	var characters []model.Character
	if err := pgxscan.Select(ctx, r.db, &characters, query); err != nil {
		r.logger.Error("ошибка выборки персонажей", zap.Error(err))
		return nil, fmt.Errorf("database error listing characters: %w", err)
	}
	return characters, nil
}

func (r *pgCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Character, error) {
	query := `
        SELECT id, name, description, image_data, created_at, updated_at
        FROM characters
        WHERE id = $1`

	var character model.Character
	err := pgxscan.Get(ctx, r.db, &character, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Character{}, fmt.Errorf("%w: character %s", model.ErrNotFound, id)
		}
		r.logger.Error("ошибка чтения персонажа", zap.String("id", id.String()), zap.Error(err))
		return model.Character{}, fmt.Errorf("database error querying character: %w", err)
	}
	return character, nil
}

// ListByNames возвращает персонажей по списку имен. Неизвестные имена
// молча пропускаются: список приходит из ответа модели.
func (r *pgCharacterRepository) ListByNames(ctx context.Context, names []string) ([]model.Character, error) {
	if len(names) == 0 {
		return []model.Character{}, nil
	}

	query := `
        SELECT id, name, description, image_data, created_at, updated_at
        FROM characters
        WHERE name = ANY($1::text[])`

	var characters []model.Character
	if err := pgxscan.Select(ctx, r.db, &characters, query, pq.Array(names)); err != nil {
		r.logger.Error("ошибка выборки персонажей по именам", zap.Error(err))
		return nil, fmt.Errorf("database error listing characters by names: %w", err)
	}
	return characters, nil
}

func (r *pgCharacterRepository) Save(ctx context.Context, character model.Character) error {
	query := `
        INSERT INTO characters (id, name, description, image_data)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            image_data = EXCLUDED.image_data,
            updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, character.ID, character.Name, character.Description, character.ImageData); err != nil {
		// Имя персонажа уникально: конфликт по имени (не по id) - ошибка
		// пользователя, а не базы.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: персонаж %q", model.ErrAlreadyExists, character.Name)
		}
		r.logger.Error("ошибка сохранения персонажа", zap.String("name", character.Name), zap.Error(err))
		return fmt.Errorf("database error saving character: %w", err)
	}
	return nil
}

func (r *pgCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("ошибка удаления персонажа", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: character %s", model.ErrNotFound, id)
	}
	return nil
}
