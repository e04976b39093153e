package ai

import (
	"context"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
)

// RetryConfig задает параметры повторов. Нулевые значения заменяются
// значениями по умолчанию (3 повтора, базовая задержка 2s).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	return c
}

// Retry выполняет op с экспоненциальным backoff: задержка BaseDelay*2^attempt,
// без джиттера и без потолка. Повторяются только преходящие категории
// (лимит запросов, квота, недоступность, сеть); остальные ошибки возвращаются
// сразу. Всего выполняется не более MaxRetries+1 попыток, после исчерпания
// возвращается последняя ошибка. Ожидание прерывается отменой контекста.
func Retry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := Classify(err)
		if !kind.Transient() {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.BaseDelay * (1 << attempt)
		log.Warn().
			Err(err).
			Str("kind", kind.String()).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("преходящая ошибка AI API, повтор после задержки")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}
