package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
	"storyboard-server/pkg/ai"
)

// Storyboard - операции прикладного сервиса, нужные HTTP-слою.
type Storyboard interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
	ListModels(ctx context.Context) (service.ModelCatalog, error)
	ProbeConnectivity(ctx context.Context) (string, error)

	ListCharacters(ctx context.Context) ([]model.Character, error)
	SaveCharacter(ctx context.Context, character model.Character) (model.Character, error)
	DeleteCharacter(ctx context.Context, id uuid.UUID) error
	AnalyzeRoles(ctx context.Context, script string) ([]model.Character, error)

	ListFrames(ctx context.Context) ([]model.Frame, error)
	SaveFrame(ctx context.Context, frame model.Frame) (model.Frame, error)
	DeleteFrame(ctx context.Context, id uuid.UUID) error
	ReorderFrames(ctx context.Context, ids []uuid.UUID) error
	BreakdownScript(ctx context.Context, script string) ([]model.Frame, error)
	InferShotPrompts(ctx context.Context) ([]model.Frame, error)
	InferFramePrompt(ctx context.Context, frameID uuid.UUID) (model.Frame, error)
	RenderFrame(ctx context.Context, frameID uuid.UUID, opts service.RenderOptions) (model.Frame, error)
	EnqueueRenderBatch(ctx context.Context, frameIDs []uuid.UUID, opts service.RenderOptions) (string, error)
	GenerateImage(ctx context.Context, prompt string, hd bool) (string, error)

	ListStyles(ctx context.Context) ([]model.StylePreset, error)
	SaveStyle(ctx context.Context, preset model.StylePreset) (model.StylePreset, error)
	DeleteStyle(ctx context.Context, id uuid.UUID) error
}

var _ Storyboard = (*service.StoryboardService)(nil)

// Handler - HTTP-обработчики REST API.
type Handler struct {
	svc    Storyboard
	logger *zap.Logger
}

func NewHandler(svc Storyboard, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.Named("API")}
}

// respondError переводит ошибки сервиса в HTTP-статусы. Классифицированные
// ошибки AI-ядра отдают локализованное сообщение и категорию.
func (h *Handler) respondError(c *gin.Context, err error) {
	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		status := http.StatusBadGateway
		switch aiErr.Kind {
		case ai.KindConfig, ai.KindBadRequest:
			status = http.StatusBadRequest
		case ai.KindAuth:
			status = http.StatusUnauthorized
		case ai.KindForbidden:
			status = http.StatusForbidden
		case ai.KindRateLimit, ai.KindQuota:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": aiErr.Error(), "kind": aiErr.Kind.String()})
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, model.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор"})
		return uuid.Nil, false
	}
	return id, true
}

// --- Настройки ---

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.GetSettings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) SaveSettings(c *gin.Context) {
	var settings model.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}
	if err := h.svc.SaveSettings(c.Request.Context(), settings); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) ListModels(c *gin.Context) {
	catalog, err := h.svc.ListModels(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (h *Handler) Probe(c *gin.Context) {
	modelID, err := h.svc.ProbeConnectivity(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": modelID})
}

// --- Персонажи ---

func (h *Handler) ListCharacters(c *gin.Context) {
	characters, err := h.svc.ListCharacters(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *Handler) SaveCharacter(c *gin.Context) {
	var character model.Character
	if err := c.ShouldBindJSON(&character); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}
	saved, err := h.svc.SaveCharacter(c.Request.Context(), character)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteCharacter(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// scriptRequest - тело запросов, принимающих сценарий.
type scriptRequest struct {
	Script string `json:"script" binding:"required"`
}

func (h *Handler) AnalyzeRoles(c *gin.Context) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле script обязательно"})
		return
	}
	created, err := h.svc.AnalyzeRoles(c.Request.Context(), req.Script)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// --- Кадры ---

func (h *Handler) ListFrames(c *gin.Context) {
	frames, err := h.svc.ListFrames(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frames)
}

func (h *Handler) SaveFrame(c *gin.Context) {
	var frame model.Frame
	if err := c.ShouldBindJSON(&frame); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}
	saved, err := h.svc.SaveFrame(c.Request.Context(), frame)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteFrame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteFrame(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReorderFrames(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле ids обязательно"})
		return
	}
	if err := h.svc.ReorderFrames(c.Request.Context(), req.IDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Breakdown(c *gin.Context) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле script обязательно"})
		return
	}
	frames, err := h.svc.BreakdownScript(c.Request.Context(), req.Script)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frames)
}

func (h *Handler) InferShots(c *gin.Context) {
	frames, err := h.svc.InferShotPrompts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frames)
}

func (h *Handler) GenerateImage(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
		HD     bool   `json:"hd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле prompt обязательно"})
		return
	}
	dataURL, err := h.svc.GenerateImage(c.Request.Context(), req.Prompt, req.HD)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": dataURL})
}

func (h *Handler) InferFrame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	frame, err := h.svc.InferFramePrompt(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

// --- Отрисовка ---

func (h *Handler) RenderFrame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var opts service.RenderOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}
	frame, err := h.svc.RenderFrame(c.Request.Context(), id, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

func (h *Handler) RenderBatch(c *gin.Context) {
	var req struct {
		FrameIDs []uuid.UUID `json:"frameIds" binding:"required"`
		service.RenderOptions
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле frameIds обязательно"})
		return
	}
	batchID, err := h.svc.EnqueueRenderBatch(c.Request.Context(), req.FrameIDs, req.RenderOptions)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batchId": batchID})
}

// --- Стили ---

func (h *Handler) ListStyles(c *gin.Context) {
	styles, err := h.svc.ListStyles(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, styles)
}

func (h *Handler) SaveStyle(c *gin.Context) {
	var preset model.StylePreset
	if err := c.ShouldBindJSON(&preset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}
	saved, err := h.svc.SaveStyle(c.Request.Context(), preset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteStyle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteStyle(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
