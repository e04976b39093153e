package service

import (
	"context"

	"storyboard-server/internal/model"
	"storyboard-server/internal/repository"
	"storyboard-server/pkg/ai"
)

// repoSettingsProvider отдает AI-ядру настройки из БД: изменения на экране
// настроек действуют на следующий же вызов без перезапуска.
type repoSettingsProvider struct {
	repo repository.SettingsRepository
}

func NewSettingsProvider(repo repository.SettingsRepository) ai.SettingsProvider {
	return &repoSettingsProvider{repo: repo}
}

func (p *repoSettingsProvider) Current(ctx context.Context) (model.Settings, error) {
	return p.repo.Get(ctx)
}
