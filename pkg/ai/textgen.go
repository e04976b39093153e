package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"storyboard-server/internal/model"
)

// TextGenerator выполняет один текстовый запрос и возвращает сырой ответ
// модели (ожидается JSON, возможно в markdown-обрамлении).
type TextGenerator interface {
	GenerateJSON(ctx context.Context, label, prompt string) (string, error)
}

// Поддерживаемые текстовые бэкенды.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// NewTextGenerator - фабрика текстового бэкенда. Gemini - основной и
// единственный с генерацией изображений; openai и ollama покрывают только
// текстовые задачи.
func NewTextGenerator(backend string, caller *Caller, retry RetryConfig) (TextGenerator, error) {
	switch backend {
	case BackendGemini, "":
		return &geminiTextGenerator{caller: caller}, nil
	case BackendOpenAI:
		return &openaiTextGenerator{settings: caller.settings, retry: retry}, nil
	case BackendOllama:
		return &ollamaTextGenerator{settings: caller.settings, retry: retry}, nil
	default:
		return nil, fmt.Errorf("неизвестный текстовый бэкенд: %s", backend)
	}
}

// --- Gemini ---

type geminiTextGenerator struct {
	caller *Caller
}

func (g *geminiTextGenerator) GenerateJSON(ctx context.Context, label, prompt string) (string, error) {
	estimateTokens(label, prompt)

	var out string
	err := g.caller.Do(ctx, label, func(ctx context.Context, client *genai.Client, s model.Settings) error {
		contents := []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}
		cfg := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.7),
			ResponseMIMEType: "application/json",
		}
		resp, err := client.Models.GenerateContent(ctx, s.TextModelOrDefault(), contents, cfg)
		if err != nil {
			return err
		}
		text := resp.Text()
		if text == "" {
			return NewError(KindEmpty, label)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// --- OpenAI-совместимый шлюз ---

type openaiTextGenerator struct {
	settings SettingsProvider
	retry    RetryConfig
}

func (g *openaiTextGenerator) GenerateJSON(ctx context.Context, label, prompt string) (string, error) {
	settings, err := g.settings.Current(ctx)
	if err != nil {
		return "", &Error{Kind: KindConfig, Context: label, Message: "не удалось загрузить настройки подключения", Err: err}
	}
	key := NormalizeAPIKey(settings.APIKey)
	if key == "" {
		return "", NewError(KindConfig, label)
	}

	cfg := openai.DefaultConfig(key)
	if base := NormalizeBaseURL(settings.BaseURL); base != "" {
		cfg.BaseURL = base + "/v1"
	}
	client := openai.NewClientWithConfig(cfg)

	estimateTokens(label, prompt)

	started := time.Now()
	var out string
	err = Retry(ctx, g.retry, func(ctx context.Context) error {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: settings.TextModelOrDefault(),
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return NewError(KindEmpty, label)
		}
		out = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		observeRequest(label, "error", time.Since(started))
		return "", Classified(label, err)
	}
	observeRequest(label, "success", time.Since(started))
	return out, nil
}

// --- Ollama ---

type ollamaTextGenerator struct {
	settings SettingsProvider
	retry    RetryConfig
}

func (g *ollamaTextGenerator) GenerateJSON(ctx context.Context, label, prompt string) (string, error) {
	settings, err := g.settings.Current(ctx)
	if err != nil {
		return "", &Error{Kind: KindConfig, Context: label, Message: "не удалось загрузить настройки подключения", Err: err}
	}
	base := NormalizeBaseURL(settings.BaseURL)
	if base == "" {
		base = "http://localhost:11434"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", &Error{Kind: KindConfig, Context: label, Message: "некорректный адрес Ollama", Err: err}
	}
	client := api.NewClient(baseURL, http.DefaultClient)

	estimateTokens(label, prompt)

	started := time.Now()
	stream := false
	var out string
	err = Retry(ctx, g.retry, func(ctx context.Context) error {
		out = ""
		req := &api.ChatRequest{
			Model:  settings.TextModelOrDefault(),
			Stream: &stream,
			Format: json.RawMessage(`"json"`),
			Messages: []api.Message{
				{Role: "user", Content: prompt},
			},
		}
		if err := client.Chat(ctx, req, func(resp api.ChatResponse) error {
			out += resp.Message.Content
			return nil
		}); err != nil {
			return err
		}
		if out == "" {
			return NewError(KindEmpty, label)
		}
		return nil
	})
	if err != nil {
		observeRequest(label, "error", time.Since(started))
		return "", Classified(label, err)
	}
	observeRequest(label, "success", time.Since(started))
	return out, nil
}
