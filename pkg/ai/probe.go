package ai

import (
	"context"

	"google.golang.org/genai"
)

// pingFunc отправляет минимальный однорепликовый запрос к модели.
// Подменяется в тестах.
type pingFunc func(ctx context.Context, client *genai.Client, modelID string) error

// Prober перебирает модели-кандидаты и возвращает первую доступную.
// Используется экраном настроек для проверки реквизитов подключения.
type Prober struct {
	caller *Caller
	ping   pingFunc
}

func NewProber(caller *Caller) *Prober {
	return &Prober{caller: caller, ping: pingTextModel}
}

const probeLabel = "проверка подключения"

// ProbeTextModel пробует кандидатов по одному разу в порядке: предпочтения
// вызывающего, затем встроенный список, без повторов. Возвращает первую
// модель, ответившую успешно. Если не ответила ни одна, возвращается
// классифицированная ошибка последнего кандидата; промежуточные отказы
// только логируются.
func (p *Prober) ProbeTextModel(ctx context.Context, preferred []string) (string, error) {
	client, _, err := p.caller.client(ctx, probeLabel)
	if err != nil {
		return "", err
	}

	candidates := dedupeModelIDs(preferred, probeModels)

	var lastErr error
	for _, candidate := range candidates {
		err := p.ping(ctx, client, candidate)
		if err == nil {
			log.Info().Str("model", candidate).Msg("проба подключения успешна")
			return candidate, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("model", candidate).Msg("кандидат не ответил, пробуем следующий")
	}

	if lastErr == nil {
		lastErr = NewError(KindEmpty, probeLabel)
	}
	return "", Classified(probeLabel, lastErr)
}

func pingTextModel(ctx context.Context, client *genai.Client, modelID string) error {
	contents := []*genai.Content{
		genai.NewContentFromText("ping", genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: 8,
	}
	_, err := client.Models.GenerateContent(ctx, modelID, contents, cfg)
	return err
}
