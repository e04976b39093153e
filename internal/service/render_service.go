package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/model"
	"storyboard-server/internal/repository"
	"storyboard-server/pkg/ai"
)

// RenderResult - исход отрисовки кадра.
type RenderResult struct {
	ImageURL string
	Error    error
}

// FrameRenderer отрисовывает кадр по задаче из очереди (или синхронного
// запроса) и сохраняет результат.
type FrameRenderer interface {
	RenderFrame(ctx context.Context, task messaging.FrameRenderTask) RenderResult
}

var _ FrameRenderer = (*frameRenderService)(nil)

// frameRenderService - полный конвейер отрисовки: кэш по хэшу промпта,
// генерация через AI-ядро, сохранение файла, обновление кадра в БД.
type frameRenderService struct {
	logger   *zap.Logger
	tasks    *ai.Tasks
	frames   repository.FrameRepository
	cache    repository.RenderCache
	store    *ImageStore
	cacheTTL time.Duration
}

func NewFrameRenderService(
	logger *zap.Logger,
	tasks *ai.Tasks,
	frames repository.FrameRepository,
	cache repository.RenderCache,
	store *ImageStore,
	cacheTTL time.Duration,
) FrameRenderer {
	return &frameRenderService{
		logger:   logger.Named("FrameRender"),
		tasks:    tasks,
		frames:   frames,
		cache:    cache,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// promptHash - детерминированный хэш содержимого задачи. HD-вариант и
// референсы меняют результат генерации, поэтому входят в хэш.
func promptHash(task messaging.FrameRenderTask) string {
	payload := task.Prompt
	if task.HD {
		payload += "|hd"
	}
	payload += "|" + task.StyleImage
	for _, ref := range task.CharacterRefs {
		payload += "|" + ref.Name + ":" + ref.ImageData
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(payload)).String()
}

func (s *frameRenderService) RenderFrame(ctx context.Context, task messaging.FrameRenderTask) RenderResult {
	logger := s.logger.With(zap.String("task_id", task.TaskID), zap.String("frame_id", task.FrameID.String()))

	hash := promptHash(task)
	if cachedURL, err := s.cache.Get(ctx, hash); err == nil {
		logger.Info("кадр взят из кэша отрисовки", zap.String("hash", hash))
		if err := s.updateFrame(ctx, task.FrameID, hash, cachedURL); err != nil {
			return RenderResult{Error: err}
		}
		return RenderResult{ImageURL: cachedURL}
	}

	req := ai.ImageRequest{Prompt: task.Prompt, HD: task.HD}
	if task.StyleImage != "" {
		img, err := model.ParseDataURL(task.StyleImage)
		if err != nil {
			logger.Warn("референс стиля не разобран, рисуем без него", zap.Error(err))
		} else {
			req.StyleImage = &img
		}
	}
	for _, ref := range task.CharacterRefs {
		img, err := model.ParseDataURL(ref.ImageData)
		if err != nil {
			logger.Warn("референс персонажа не разобран, пропускаем", zap.String("name", ref.Name), zap.Error(err))
			continue
		}
		req.CharacterImages = append(req.CharacterImages, model.NamedImage{Name: ref.Name, Image: img})
	}

	dataURL, err := s.tasks.GenerateImage(ctx, req)
	if err != nil {
		logger.Error("генерация изображения кадра не удалась", zap.Error(err))
		return RenderResult{Error: err}
	}

	publicURL, err := s.store.SaveDataURL(hash, dataURL)
	if err != nil {
		return RenderResult{Error: err}
	}

	if err := s.cache.Set(ctx, hash, publicURL, s.cacheTTL); err != nil {
		// Кэш вспомогательный: ошибка записи не валит отрисовку.
		logger.Warn("не удалось записать кэш отрисовки", zap.Error(err))
	}

	if err := s.updateFrame(ctx, task.FrameID, hash, publicURL); err != nil {
		return RenderResult{Error: err}
	}

	logger.Info("кадр отрисован", zap.String("image_url", publicURL))
	return RenderResult{ImageURL: publicURL}
}

func (s *frameRenderService) updateFrame(ctx context.Context, frameID uuid.UUID, reference, imageURL string) error {
	frame, err := s.frames.GetByID(ctx, frameID)
	if err != nil {
		return err
	}
	frame.ImageReference = reference
	frame.ImageURL = imageURL
	return s.frames.Save(ctx, frame)
}
