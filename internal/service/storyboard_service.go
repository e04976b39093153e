package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/model"
	"storyboard-server/internal/repository"
	"storyboard-server/pkg/ai"
)

// StoryboardService - прикладной сервис раскадровки: CRUD проекта,
// AI-операции и постановка задач отрисовки.
type StoryboardService struct {
	logger     *zap.Logger
	settings   repository.SettingsRepository
	characters repository.CharacterRepository
	frames     repository.FrameRepository
	styles     repository.StyleRepository
	tasks      *ai.Tasks
	prober     *ai.Prober
	renderer   FrameRenderer
	publisher  messaging.Publisher
}

func NewStoryboardService(
	logger *zap.Logger,
	settings repository.SettingsRepository,
	characters repository.CharacterRepository,
	frames repository.FrameRepository,
	styles repository.StyleRepository,
	tasks *ai.Tasks,
	prober *ai.Prober,
	renderer FrameRenderer,
	publisher messaging.Publisher,
) *StoryboardService {
	return &StoryboardService{
		logger:     logger.Named("StoryboardService"),
		settings:   settings,
		characters: characters,
		frames:     frames,
		styles:     styles,
		tasks:      tasks,
		prober:     prober,
		renderer:   renderer,
		publisher:  publisher,
	}
}

// --- Настройки и каталог моделей ---

func (s *StoryboardService) GetSettings(ctx context.Context) (model.Settings, error) {
	return s.settings.Get(ctx)
}

func (s *StoryboardService) SaveSettings(ctx context.Context, settings model.Settings) error {
	return s.settings.Save(ctx, settings)
}

// ModelCatalog - каталоги текстовых и графических моделей: встроенные
// списки плюс пользовательские поверх, без дубликатов.
type ModelCatalog struct {
	TextModels  []model.ModelRef `json:"textModels"`
	ImageModels []model.ModelRef `json:"imageModels"`
}

func (s *StoryboardService) ListModels(ctx context.Context) (ModelCatalog, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return ModelCatalog{}, err
	}
	return ModelCatalog{
		TextModels:  ai.MergeModels(ai.BuiltinTextModels, settings.CustomModels),
		ImageModels: ai.MergeModels(ai.BuiltinImageModels, settings.CustomModels),
	}, nil
}

// ProbeConnectivity проверяет реквизиты подключения: первой пробуется
// модель из настроек, затем встроенные кандидаты.
func (s *StoryboardService) ProbeConnectivity(ctx context.Context) (string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	var preferred []string
	if settings.TextModel != "" {
		preferred = append(preferred, settings.TextModel)
	}
	return s.prober.ProbeTextModel(ctx, preferred)
}

// --- Персонажи ---

func (s *StoryboardService) ListCharacters(ctx context.Context) ([]model.Character, error) {
	return s.characters.List(ctx)
}

func (s *StoryboardService) SaveCharacter(ctx context.Context, character model.Character) (model.Character, error) {
	if character.ID == uuid.Nil {
		character.ID = uuid.New()
	}
	if err := s.characters.Save(ctx, character); err != nil {
		return model.Character{}, err
	}
	return character, nil
}

func (s *StoryboardService) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	return s.characters.Delete(ctx, id)
}

// AnalyzeRoles прогоняет сценарий через анализ персонажей и сохраняет
// новых персонажей. Уже существующие (по имени) не перезаписываются:
// ручные правки пользователя важнее повторного анализа. Отказ модели
// дает пустой список, не ошибку.
func (s *StoryboardService) AnalyzeRoles(ctx context.Context, script string) ([]model.Character, error) {
	roles := s.tasks.AnalyzeRoles(ctx, script)
	if len(roles) == 0 {
		return []model.Character{}, nil
	}

	existing, err := s.characters.List(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.Name] = struct{}{}
	}

	created := make([]model.Character, 0, len(roles))
	for _, role := range roles {
		if _, ok := known[role.Name]; ok {
			continue
		}
		character := model.Character{
			ID:          uuid.New(),
			Name:        role.Name,
			Description: role.Description,
		}
		if err := s.characters.Save(ctx, character); err != nil {
			return nil, err
		}
		created = append(created, character)
	}

	s.logger.Info("анализ персонажей завершен",
		zap.Int("proposed", len(roles)),
		zap.Int("created", len(created)))
	return created, nil
}

// --- Кадры ---

func (s *StoryboardService) ListFrames(ctx context.Context) ([]model.Frame, error) {
	return s.frames.List(ctx)
}

func (s *StoryboardService) SaveFrame(ctx context.Context, frame model.Frame) (model.Frame, error) {
	if frame.ID == uuid.Nil {
		frame.ID = uuid.New()
	}
	if err := s.frames.Save(ctx, frame); err != nil {
		return model.Frame{}, err
	}
	return frame, nil
}

func (s *StoryboardService) DeleteFrame(ctx context.Context, id uuid.UUID) error {
	return s.frames.Delete(ctx, id)
}

func (s *StoryboardService) ReorderFrames(ctx context.Context, ids []uuid.UUID) error {
	return s.frames.Reorder(ctx, ids)
}

// BreakdownScript разбивает сценарий на кадры и заменяет ими текущую
// раскадровку. Без доступного AI срабатывает построчная разбивка,
// операция не падает.
func (s *StoryboardService) BreakdownScript(ctx context.Context, script string) ([]model.Frame, error) {
	segments := s.tasks.BreakdownScript(ctx, script)

	frames := make([]model.Frame, 0, len(segments))
	for i, segment := range segments {
		frames = append(frames, model.Frame{
			ID:         uuid.New(),
			Position:   i,
			Segment:    segment,
			Characters: []string{},
		})
	}
	if err := s.frames.ReplaceAll(ctx, frames); err != nil {
		return nil, err
	}
	return frames, nil
}

// InferShotPrompts выводит промпты для всех кадров раскадровки одним
// запросом. Пустые результаты (отказ модели) не затирают уже
// существующие промпты кадров.
func (s *StoryboardService) InferShotPrompts(ctx context.Context) ([]model.Frame, error) {
	frames, err := s.frames.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return []model.Frame{}, nil
	}
	characters, err := s.characters.List(ctx)
	if err != nil {
		return nil, err
	}

	segments := make([]string, len(frames))
	for i, f := range frames {
		segments[i] = f.Segment
	}

	shots := s.tasks.InferShotPrompts(ctx, segments, characters)
	for i := range frames {
		if shots[i].Prompt == "" {
			continue
		}
		frames[i].Prompt = shots[i].Prompt
		frames[i].Characters = shots[i].Characters
		if err := s.frames.Save(ctx, frames[i]); err != nil {
			return nil, err
		}
	}
	return frames, nil
}

// InferFramePrompt выводит промпт одного кадра с контекстом соседей.
// Ошибки AI распространяются до пользователя.
func (s *StoryboardService) InferFramePrompt(ctx context.Context, frameID uuid.UUID) (model.Frame, error) {
	frames, err := s.frames.List(ctx)
	if err != nil {
		return model.Frame{}, err
	}

	idx := -1
	for i, f := range frames {
		if f.ID == frameID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Frame{}, fmt.Errorf("%w: frame %s", model.ErrNotFound, frameID)
	}

	var before, after string
	if idx > 0 {
		before = frames[idx-1].Segment
	}
	if idx < len(frames)-1 {
		after = frames[idx+1].Segment
	}

	characters, err := s.characters.List(ctx)
	if err != nil {
		return model.Frame{}, err
	}

	shot, err := s.tasks.InferFramePrompt(ctx, frames[idx].Segment, before, after, characters)
	if err != nil {
		return model.Frame{}, err
	}

	frames[idx].Prompt = shot.Prompt
	frames[idx].Characters = shot.Characters
	if err := s.frames.Save(ctx, frames[idx]); err != nil {
		return model.Frame{}, err
	}
	return frames[idx], nil
}

// --- Отрисовка ---

// RenderOptions - параметры отрисовки: стиль-референс и флаг HD.
type RenderOptions struct {
	StyleID *uuid.UUID `json:"styleId,omitempty"`
	HD      bool       `json:"hd"`
}

// RenderFrame синхронно отрисовывает один кадр.
func (s *StoryboardService) RenderFrame(ctx context.Context, frameID uuid.UUID, opts RenderOptions) (model.Frame, error) {
	task, err := s.buildRenderTask(ctx, frameID, opts)
	if err != nil {
		return model.Frame{}, err
	}

	result := s.renderer.RenderFrame(ctx, task)
	if result.Error != nil {
		return model.Frame{}, result.Error
	}
	return s.frames.GetByID(ctx, frameID)
}

// EnqueueRenderBatch ставит пакет кадров в очередь фоновой отрисовки
// и возвращает идентификатор пакета.
func (s *StoryboardService) EnqueueRenderBatch(ctx context.Context, frameIDs []uuid.UUID, opts RenderOptions) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("фоновая отрисовка не настроена")
	}

	batch := messaging.FrameRenderBatch{BatchID: uuid.New().String()}
	for _, id := range frameIDs {
		task, err := s.buildRenderTask(ctx, id, opts)
		if err != nil {
			return "", err
		}
		batch.Tasks = append(batch.Tasks, task)
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render batch: %w", err)
	}
	if err := s.publisher.Publish(ctx, body); err != nil {
		return "", err
	}

	s.logger.Info("пакет отрисовки поставлен в очередь",
		zap.String("batch_id", batch.BatchID),
		zap.Int("frames", len(batch.Tasks)))
	return batch.BatchID, nil
}

// buildRenderTask собирает задачу отрисовки: промпт кадра, референс стиля
// и референсы персонажей кадра.
func (s *StoryboardService) buildRenderTask(ctx context.Context, frameID uuid.UUID, opts RenderOptions) (messaging.FrameRenderTask, error) {
	frame, err := s.frames.GetByID(ctx, frameID)
	if err != nil {
		return messaging.FrameRenderTask{}, err
	}
	if frame.Prompt == "" {
		return messaging.FrameRenderTask{}, fmt.Errorf("у кадра %s нет промпта, сначала выполните вывод промпта", frameID)
	}

	task := messaging.FrameRenderTask{
		TaskID:  uuid.New().String(),
		FrameID: frame.ID,
		Prompt:  frame.Prompt,
		HD:      opts.HD,
	}

	if opts.StyleID != nil {
		style, err := s.styles.GetByID(ctx, *opts.StyleID)
		if err != nil {
			return messaging.FrameRenderTask{}, err
		}
		task.StyleImage = style.ImageData
	}

	if len(frame.Characters) > 0 {
		refs, err := s.characters.ListByNames(ctx, frame.Characters)
		if err != nil {
			return messaging.FrameRenderTask{}, err
		}
		for _, c := range refs {
			if c.ImageData == "" {
				continue
			}
			task.CharacterRefs = append(task.CharacterRefs, messaging.NamedRef{Name: c.Name, ImageData: c.ImageData})
		}
	}
	return task, nil
}

// GenerateImage генерирует изображение по свободному промпту, минуя кадры
// раскадровки. Результат не сохраняется, возвращается data URL.
func (s *StoryboardService) GenerateImage(ctx context.Context, prompt string, hd bool) (string, error) {
	return s.tasks.GenerateImage(ctx, ai.ImageRequest{Prompt: prompt, HD: hd})
}

// --- Стили ---

func (s *StoryboardService) ListStyles(ctx context.Context) ([]model.StylePreset, error) {
	return s.styles.List(ctx)
}

func (s *StoryboardService) SaveStyle(ctx context.Context, preset model.StylePreset) (model.StylePreset, error) {
	if preset.ID == uuid.Nil {
		preset.ID = uuid.New()
	}
	if err := s.styles.Save(ctx, preset); err != nil {
		return model.StylePreset{}, err
	}
	return preset, nil
}

func (s *StoryboardService) DeleteStyle(ctx context.Context, id uuid.UUID) error {
	return s.styles.Delete(ctx, id)
}
