package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
)

var _ SettingsRepository = (*pgSettingsRepository)(nil)

// pgSettingsRepository хранит настройки проекта в единственной строке
// таблицы settings. Документ при чтении накладывается на значения
// по умолчанию, незнакомые ключи отбрасываются.
type pgSettingsRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgSettingsRepository(db DBTX, logger *zap.Logger) SettingsRepository {
	return &pgSettingsRepository{
		db:     db,
		logger: logger.Named("PgSettingsRepo"),
	}
}

func (r *pgSettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	query := `SELECT data FROM settings WHERE id = 1`

	var doc []byte
	err := r.db.QueryRow(ctx, query).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("настройки еще не сохранялись, возвращаем значения по умолчанию")
			return model.DefaultSettings(), nil
		}
		r.logger.Error("ошибка чтения настроек", zap.Error(err))
		return model.Settings{}, fmt.Errorf("database error querying settings: %w", err)
	}

	settings, err := model.SettingsFromJSON(doc)
	if err != nil {
		// Битый документ не должен блокировать работу: откат на дефолты.
		r.logger.Warn("документ настроек не разобран, используются значения по умолчанию", zap.Error(err))
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

func (r *pgSettingsRepository) Save(ctx context.Context, settings model.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
        INSERT INTO settings (id, data)
        VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET
            data = EXCLUDED.data,
            updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, doc); err != nil {
		r.logger.Error("ошибка сохранения настроек", zap.Error(err))
		return fmt.Errorf("database error saving settings: %w", err)
	}
	return nil
}
