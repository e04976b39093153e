package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// OfficialBaseURL - эндпоинт Gemini API по умолчанию. Пустой base URL в настройках
// означает "использовать официальный эндпоинт без переопределения".
const OfficialBaseURL = "https://generativelanguage.googleapis.com"

// Суффиксы версий API, которые пользователи часто вставляют вместе с адресом прокси.
// Длинный суффикс проверяется первым, срезается не более одного.
var apiVersionSuffixes = []string{"/v1beta", "/v1"}

// NormalizeAPIKey приводит ключ к каноничному виду: убирает все пробельные символы
// Unicode и BOM (U+FEFF), срезает ведущий префикс "Bearer " без учета регистра.
// Пустой вход дает пустой выход.
func NormalizeAPIKey(raw string) string {
	s := strings.TrimFunc(raw, isSpaceOrBOM)
	// Префикс проверяется до вычищения пробелов: "Bearer " без ключа после
	// обрезки превращается в голое "Bearer", это тоже не ключ.
	if len(s) >= 6 && strings.EqualFold(s[:6], "Bearer") {
		rest := s[6:]
		if rest == "" {
			return ""
		}
		if r, _ := utf8.DecodeRuneInString(rest); isSpaceOrBOM(r) {
			s = rest
		}
	}
	return strings.Map(func(r rune) rune {
		if isSpaceOrBOM(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeBaseURL приводит переопределение эндпоинта к каноничному виду:
// убирает хвостовые слэши, срезает не более одного суффикса версии API
// (/v1beta, затем /v1) и снова убирает слэши. Пустая строка или официальный
// эндпоинт дают "" - переопределение не требуется.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimFunc(raw, isSpaceOrBOM)
	if s == "" {
		return ""
	}
	s = strings.TrimRight(s, "/")
	for _, suffix := range apiVersionSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	s = strings.TrimRight(s, "/")
	if s == "" || s == OfficialBaseURL {
		return ""
	}
	return s
}

func isSpaceOrBOM(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
