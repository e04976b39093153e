package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyboard_ai_requests_total",
			Help: "Количество вызовов AI API по операциям и статусам.",
		},
		[]string{"task", "status"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyboard_ai_request_duration_seconds",
			Help:    "Длительность вызовов AI API (включая повторы).",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"task"},
	)

	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyboard_ai_prompt_tokens",
			Help:    "Оценка размера промпта в токенах (tiktoken, cl100k_base).",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12),
		},
		[]string{"task"},
	)
)

func observeRequest(task, status string, elapsed time.Duration) {
	aiRequestsTotal.WithLabelValues(task, status).Inc()
	if elapsed > 0 {
		aiRequestDuration.WithLabelValues(task).Observe(elapsed.Seconds())
	}
}
