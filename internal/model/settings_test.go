package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromJSON(t *testing.T) {
	t.Run("empty document gives defaults", func(t *testing.T) {
		s, err := SettingsFromJSON(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), s)
	})

	t.Run("document merged onto defaults", func(t *testing.T) {
		s, err := SettingsFromJSON([]byte(`{"apiKey":"sk-1","textModel":"gemini-2.5-pro"}`))
		require.NoError(t, err)
		assert.Equal(t, "sk-1", s.APIKey)
		assert.Equal(t, "gemini-2.5-pro", s.TextModel)
		// незатронутые поля остаются дефолтными
		assert.Equal(t, DefaultSettings().ImageModel, s.ImageModel)
		assert.Equal(t, DefaultSettings().TextBackend, s.TextBackend)
	})

	t.Run("unknown keys dropped", func(t *testing.T) {
		s, err := SettingsFromJSON([]byte(`{"legacyField":42,"apiKey":"sk-2"}`))
		require.NoError(t, err)
		assert.Equal(t, "sk-2", s.APIKey)
	})

	t.Run("broken document resets to defaults with error", func(t *testing.T) {
		s, err := SettingsFromJSON([]byte(`{broken`))
		require.Error(t, err)
		assert.Equal(t, DefaultSettings(), s)
	})
}

func TestModelFallbacks(t *testing.T) {
	var s Settings
	assert.Equal(t, "gemini-2.5-flash", s.TextModelOrDefault())
	assert.Equal(t, "gemini-2.5-flash-image-preview", s.ImageModelOrDefault())

	s.TextModel = "кастомная"
	assert.Equal(t, "кастомная", s.TextModelOrDefault())
}
