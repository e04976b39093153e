package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"storyboard-server/internal/model"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// SettingsProvider отдает актуальные настройки подключения. Передается в ядро
// явно, ядро не читает глобальное состояние.
type SettingsProvider interface {
	Current(ctx context.Context) (model.Settings, error)
}

// StaticSettings - провайдер с фиксированными настройками (воркер, тесты).
type StaticSettings model.Settings

func (s StaticSettings) Current(context.Context) (model.Settings, error) {
	return model.Settings(s), nil
}

// clientFactory создает провайдерский клиент из нормализованных реквизитов.
// Подменяется в тестах.
type clientFactory func(ctx context.Context, apiKey, baseURL string) (*genai.Client, error)

// Caller - оркестратор вызовов Gemini API: нормализация реквизитов, сборка
// клиента, повторы и классификация ошибок в одном месте. Клиент собирается
// на каждый вызов, чтобы изменение настроек действовало немедленно.
type Caller struct {
	settings  SettingsProvider
	retry     RetryConfig
	newClient clientFactory
}

func NewCaller(settings SettingsProvider, retry RetryConfig) *Caller {
	return &Caller{
		settings:  settings,
		retry:     retry,
		newClient: newGeminiClient,
	}
}

// Do выполняет op под управлением оркестратора. label - короткая метка
// операции, попадает в метку ошибки и в метрики. Любая ошибка на выходе
// классифицирована (*Error).
func (c *Caller) Do(ctx context.Context, label string, op func(ctx context.Context, client *genai.Client, s model.Settings) error) error {
	client, settings, err := c.client(ctx, label)
	if err != nil {
		observeRequest(label, "config_error", 0)
		return err
	}

	started := time.Now()
	err = Retry(ctx, c.retry, func(ctx context.Context) error {
		return op(ctx, client, settings)
	})
	if err != nil {
		cerr := Classified(label, err)
		observeRequest(label, "error", time.Since(started))
		log.Error().
			Err(cerr.Err).
			Str("kind", cerr.Kind.String()).
			Str("label", label).
			Msg("вызов AI API завершился ошибкой")
		return cerr
	}

	observeRequest(label, "success", time.Since(started))
	return nil
}

// client загружает настройки, нормализует реквизиты и собирает клиент.
// Пустой ключ отсекается сразу, без обращения к сети.
func (c *Caller) client(ctx context.Context, label string) (*genai.Client, model.Settings, error) {
	settings, err := c.settings.Current(ctx)
	if err != nil {
		return nil, model.Settings{}, &Error{Kind: KindConfig, Context: label, Message: "не удалось загрузить настройки подключения", Err: err}
	}

	key := NormalizeAPIKey(settings.APIKey)
	if key == "" {
		return nil, model.Settings{}, NewError(KindConfig, label)
	}
	baseURL := NormalizeBaseURL(settings.BaseURL)

	client, err := c.newClient(ctx, key, baseURL)
	if err != nil {
		return nil, model.Settings{}, Classified(label, err)
	}
	return client, settings, nil
}

// newGeminiClient собирает genai-клиент, жестко закрепляя версию API v1beta.
// Ключ передается и как ключ SDK, и заголовком Authorization: Bearer -
// OpenAI-совместимые шлюзы ожидают заголовок.
func newGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+apiKey)

	httpOpts := genai.HTTPOptions{
		APIVersion: "v1beta",
		Headers:    headers,
	}
	if baseURL != "" {
		httpOpts.BaseURL = baseURL
	}

	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
}
