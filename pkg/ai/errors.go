package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"
)

// Kind - категория ошибки AI-провайдера. Определяется один раз на границе
// транспорта (Classify); весь остальной код принимает решения по Kind,
// а не по подстрокам сообщения.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig - неполные настройки подключения (нет ключа и т.п.).
	KindConfig
	KindBadRequest
	KindAuth
	KindForbidden
	KindNotFound
	KindRateLimit
	KindQuota
	KindServer
	KindUnavailable
	KindNetwork
	// KindContentPolicy - генерация остановлена фильтрами провайдера.
	KindContentPolicy
	// KindParse - ответ получен, но не разобран в ожидаемую структуру.
	KindParse
	// KindEmpty - ответ получен, но не содержит полезных данных.
	KindEmpty
)

// Transient сообщает, имеет ли смысл повторять запрос с той же конфигурацией.
func (k Kind) Transient() bool {
	switch k {
	case KindRateLimit, KindQuota, KindUnavailable, KindNetwork:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindBadRequest:
		return "bad_request"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindQuota:
		return "quota"
	case KindServer:
		return "server"
	case KindUnavailable:
		return "unavailable"
	case KindNetwork:
		return "network"
	case KindContentPolicy:
		return "content_policy"
	case KindParse:
		return "parse"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// Error - классифицированная ошибка AI-ядра. Message - локализованная строка
// для показа пользователю, Context - короткая метка операции.
type Error struct {
	Kind    Kind
	Context string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return e.Context + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError создает классифицированную ошибку с готовым сообщением для Kind.
func NewError(kind Kind, contextLabel string) *Error {
	return &Error{Kind: kind, Context: contextLabel, Message: displayMessage(kind)}
}

// Classified оборачивает произвольную ошибку провайдера в *Error,
// классифицируя её. Уже классифицированная ошибка получает только метку.
func Classified(contextLabel string, err error) *Error {
	if err == nil {
		return nil
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		if aiErr.Context == "" {
			return &Error{Kind: aiErr.Kind, Context: contextLabel, Message: aiErr.Message, Err: aiErr.Err}
		}
		return aiErr
	}
	kind := Classify(err)
	msg := displayMessage(kind)
	if msg == "" {
		msg = err.Error()
	}
	return &Error{Kind: kind, Context: contextLabel, Message: msg, Err: err}
}

// Classify определяет категорию сырой ошибки провайдера. Структурированные
// ошибки SDK разбираются по HTTP-коду; для остального остается сопоставление
// по подстрокам, изолированное в этой функции.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if k := classifyStatusCode(apiErr.Code); k != KindUnknown {
			if k == KindRateLimit && containsQuota(apiErr.Message) {
				return KindQuota
			}
			return k
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsQuota(msg):
		return KindQuota
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted"):
		return KindRateLimit
	case strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "overloaded"):
		return KindUnavailable
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "api key not valid"):
		return KindAuth
	case strings.Contains(msg, "403") || strings.Contains(msg, "permission denied"):
		return KindForbidden
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return KindNotFound
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid argument"):
		return KindBadRequest
	case strings.Contains(msg, "500") || strings.Contains(msg, "internal error"):
		return KindServer
	case strings.Contains(msg, "failed to fetch"), strings.Contains(msg, "networkerror"),
		strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"), strings.Contains(msg, "tls handshake"):
		return KindNetwork
	}
	return KindUnknown
}

func classifyStatusCode(code int) Kind {
	switch {
	case code == 400:
		return KindBadRequest
	case code == 401:
		return KindAuth
	case code == 403:
		return KindForbidden
	case code == 404:
		return KindNotFound
	case code == 429:
		return KindRateLimit
	case code == 503:
		return KindUnavailable
	case code >= 500:
		return KindServer
	}
	return KindUnknown
}

func containsQuota(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "quota") || strings.Contains(msg, "billing")
}

// displayMessage возвращает локализованное сообщение для категории;
// для KindUnknown - пустую строку (используется исходный текст ошибки).
func displayMessage(kind Kind) string {
	switch kind {
	case KindConfig:
		return "не указан API ключ, заполните настройки подключения"
	case KindBadRequest:
		return "некорректный запрос к AI API (400), проверьте параметры модели"
	case KindAuth:
		return "неверный API ключ (401), проверьте ключ в настройках"
	case KindForbidden:
		return "доступ запрещен (403), у ключа нет прав на эту модель"
	case KindNotFound:
		return "модель не найдена (404), проверьте идентификатор модели"
	case KindRateLimit:
		return "превышен лимит запросов (429), подождите и повторите попытку"
	case KindQuota:
		return "исчерпана квота API, проверьте лимиты вашего ключа"
	case KindServer:
		return "внутренняя ошибка сервера AI, повторите попытку позже"
	case KindUnavailable:
		return "сервис AI временно недоступен (503), повторите попытку позже"
	case KindNetwork:
		return "сетевая ошибка, проверьте подключение и адрес эндпоинта"
	case KindContentPolicy:
		return "генерация остановлена фильтрами безопасности провайдера"
	case KindParse:
		return "не удалось разобрать ответ модели"
	case KindEmpty:
		return "модель вернула пустой ответ"
	}
	return ""
}

// Display форматирует любую ошибку в строку для показа пользователю:
// метка операции, двоеточие, локализованное сообщение. Незнакомые ошибки
// проходят как есть. Никогда не паникует.
func Display(contextLabel string, err error) string {
	if err == nil {
		return contextLabel
	}
	cerr := Classified(contextLabel, err)
	if cerr.Context == "" {
		return fmt.Sprintf("%s: %s", contextLabel, cerr.Message)
	}
	return cerr.Error()
}
