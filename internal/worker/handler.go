package worker

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/service"
)

var (
	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_worker_tasks_processed_total",
			Help: "Total number of frame render tasks processed.",
		},
		[]string{"status"}, // "success", "error_render", "error_publish", "error_unmarshal"
	)
	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_worker_task_duration_seconds",
		Help:    "Duration of frame render task processing.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	publishResultErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_worker_publish_result_errors_total",
		Help: "Total number of errors publishing render results.",
	})
)

// Handler обрабатывает задачи отрисовки из очереди: пакет или одиночную
// задачу, с публикацией результата на каждую.
type Handler struct {
	logger          *zap.Logger
	renderer        service.FrameRenderer
	resultPublisher messaging.Publisher
	pusher          *push.Pusher
}

func NewHandler(
	logger *zap.Logger,
	renderer service.FrameRenderer,
	resultPublisher messaging.Publisher,
	pushGatewayURL string,
) *Handler {
	if resultPublisher == nil {
		logger.Fatal("result publisher cannot be nil for render worker handler")
	}

	var pusher *push.Pusher
	if pushGatewayURL != "" {
		hostname, _ := os.Hostname()
		pusher = push.New(pushGatewayURL, "render-worker").
			Grouping("instance", hostname).
			Gatherer(prometheus.DefaultGatherer)
		logger.Info("Prometheus Pusher initialized", zap.String("url", pushGatewayURL), zap.String("instance", hostname))
	}

	return &Handler{
		logger:          logger,
		renderer:        renderer,
		resultPublisher: resultPublisher,
		pusher:          pusher,
	}
}

// HandleDelivery обрабатывает сообщение очереди. Поддерживаются пакеты
// FrameRenderBatch и одиночные FrameRenderTask. Возвращает true, если
// сообщение нужно подтвердить (ack).
func (h *Handler) HandleDelivery(ctx context.Context, msg amqp091.Delivery) bool {
	defer func() {
		if h.pusher == nil {
			return
		}
		if err := h.pusher.Push(); err != nil {
			h.logger.Error("не удалось отправить метрики в Pushgateway", zap.Error(err))
		}
	}()

	var batch messaging.FrameRenderBatch
	errBatch := json.Unmarshal(msg.Body, &batch)
	if errBatch == nil && len(batch.Tasks) > 0 {
		log := h.logger.With(zap.String("batch_id", batch.BatchID), zap.Int("task_count", len(batch.Tasks)))
		log.Info("получен пакет задач отрисовки")

		// Задачи пакета обрабатываются последовательно: отрисовка упирается
		// в лимиты провайдера, параллелизм внутри пакета только ловит 429.
		for _, task := range batch.Tasks {
			h.processTask(ctx, log, task)
		}

		log.Info("пакет задач отрисовки обработан")
		return true
	}

	var task messaging.FrameRenderTask
	if err := json.Unmarshal(msg.Body, &task); err != nil || task.TaskID == "" {
		h.logger.Error("сообщение не разобрано ни как пакет, ни как задача",
			zap.Error(errBatch), zap.Error(err))
		tasksProcessed.WithLabelValues("error_unmarshal").Inc()
		// Битое сообщение возвращать в очередь бессмысленно.
		return true
	}

	h.processTask(ctx, h.logger, task)
	return true
}

func (h *Handler) processTask(ctx context.Context, log *zap.Logger, task messaging.FrameRenderTask) {
	taskLog := log.With(zap.String("task_id", task.TaskID), zap.String("frame_id", task.FrameID.String()))
	taskLog.Info("обрабатываем задачу отрисовки")

	started := time.Now()
	result := h.renderer.RenderFrame(ctx, task)
	taskDuration.Observe(time.Since(started).Seconds())

	payload := messaging.FrameRenderResult{
		TaskID:  task.TaskID,
		FrameID: task.FrameID,
	}
	if result.Error != nil {
		taskLog.Error("отрисовка кадра не удалась", zap.Error(result.Error))
		payload.ErrorMessage = result.Error.Error()
		tasksProcessed.WithLabelValues("error_render").Inc()
	} else {
		payload.Success = true
		payload.ImageURL = result.ImageURL
		tasksProcessed.WithLabelValues("success").Inc()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		taskLog.Error("не удалось сериализовать результат", zap.Error(err))
		return
	}
	if err := h.resultPublisher.Publish(ctx, body); err != nil {
		taskLog.Error("не удалось опубликовать результат отрисовки", zap.Error(err))
		publishResultErrors.Inc()
		tasksProcessed.WithLabelValues("error_publish").Inc()
	}
}
