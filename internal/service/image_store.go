package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"storyboard-server/internal/config"
	"storyboard-server/internal/model"
)

// ImageStore сохраняет отрисованные кадры на диск и строит публичные URL.
type ImageStore struct {
	savePath      string
	publicBaseURL string
	logger        *zap.Logger
}

func NewImageStore(cfg config.ImageStoreConfig, logger *zap.Logger) (*ImageStore, error) {
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %q: %w", cfg.SavePath, err)
	}
	return &ImageStore{
		savePath:      cfg.SavePath,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger.Named("ImageStore"),
	}, nil
}

// SaveDataURL декодирует data URL и сохраняет файл под именем reference.
// Возвращает публичный URL изображения.
func (s *ImageStore) SaveDataURL(reference, dataURL string) (string, error) {
	img, err := model.ParseDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}

	filename := reference + extensionFor(img.MIMEType)
	fullPath := filepath.Join(s.savePath, filename)

	if err := os.WriteFile(fullPath, img.Data, 0o644); err != nil {
		s.logger.Error("не удалось сохранить изображение", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	publicURL := s.publicBaseURL + "/" + filename
	s.logger.Info("изображение сохранено",
		zap.String("reference", reference),
		zap.Int("bytes", len(img.Data)),
		zap.String("url", publicURL))
	return publicURL, nil
}

// Dir - каталог с сохраненными изображениями (отдается как статика).
func (s *ImageStore) Dir() string { return s.savePath }

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
