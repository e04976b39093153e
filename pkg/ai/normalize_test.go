package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAPIKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "sk-abc123", "sk-abc123"},
		{"bearer with bom and spaces", "  Bearer sk-abc123\uFEFF ", "sk-abc123"},
		{"lowercase bearer", "bearer sk-abc123", "sk-abc123"},
		{"inner whitespace", "sk-abc\t 123\n", "sk-abc123"},
		{"bearer only", "Bearer ", ""},
		{"bearer only no trailing space", "bearer", ""},
		{"bearer glued to key stays", "Bearersk-abc123", "Bearersk-abc123"},
		{"unicode spaces", " sk-abc123 ", "sk-abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAPIKey(tt.in))
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"official", "https://generativelanguage.googleapis.com", ""},
		{"official with v1beta", "https://generativelanguage.googleapis.com/v1beta", ""},
		{"official trailing slash", "https://generativelanguage.googleapis.com/", ""},
		{"proxy", "https://proxy.example.com", "https://proxy.example.com"},
		{"proxy v1", "https://proxy.example.com/v1", "https://proxy.example.com"},
		{"proxy v1beta slashes", "https://proxy.example.com/v1beta///", "https://proxy.example.com"},
		{"single version suffix only", "https://proxy.example.com/v1beta/v1", "https://proxy.example.com/v1beta"},
		{"path kept", "https://proxy.example.com/gemini", "https://proxy.example.com/gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBaseURL(tt.in))
		})
	}
}

// Нормализация идемпотентна: повторный прогон ничего не меняет.
func TestNormalizeIdempotent(t *testing.T) {
	keys := []string{"", "sk-abc123", "  Bearer sk-abc123\uFEFF ", "bearer  x y z "}
	for _, k := range keys {
		once := NormalizeAPIKey(k)
		assert.Equal(t, once, NormalizeAPIKey(once), "key %q", k)
	}

	// Срезается ровно один суффикс версии, поэтому адрес вида .../v1beta/v1
	// идемпотентным не является: он проверяется отдельным кейсом выше.
	urls := []string{
		"",
		"https://generativelanguage.googleapis.com/v1beta/",
		"https://proxy.example.com/v1",
		"https://proxy.example.com/v1beta///",
		"https://proxy.example.com",
	}
	for _, u := range urls {
		once := NormalizeBaseURL(u)
		assert.Equal(t, once, NormalizeBaseURL(once), "url %q", u)
	}
}
