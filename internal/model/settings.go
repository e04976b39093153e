package model

import "encoding/json"

// ModelRef - элемент каталога моделей: идентификатор для API и подпись для UI.
type ModelRef struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Settings - настройки проекта. Хранятся одним jsonb-документом; при чтении
// документ накладывается на значения по умолчанию, незнакомые ключи
// отбрасываются.
type Settings struct {
	APIKey       string     `json:"apiKey"`
	BaseURL      string     `json:"baseUrl"`
	TextBackend  string     `json:"textBackend"`
	TextModel    string     `json:"textModel"`
	ImageModel   string     `json:"imageModel"`
	CustomModels []ModelRef `json:"customModels"`
	ThemeColor   string     `json:"themeColor"`
}

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image-preview"
)

// DefaultSettings - настройки нового проекта.
func DefaultSettings() Settings {
	return Settings{
		TextBackend:  "gemini",
		TextModel:    defaultTextModel,
		ImageModel:   defaultImageModel,
		CustomModels: []ModelRef{},
		ThemeColor:   "#0ea5e9",
	}
}

func (s Settings) TextModelOrDefault() string {
	if s.TextModel != "" {
		return s.TextModel
	}
	return defaultTextModel
}

func (s Settings) ImageModelOrDefault() string {
	if s.ImageModel != "" {
		return s.ImageModel
	}
	return defaultImageModel
}

// SettingsFromJSON накладывает сохраненный документ на значения по умолчанию.
// Пустой или отсутствующий документ дает настройки по умолчанию.
func SettingsFromJSON(doc []byte) (Settings, error) {
	s := DefaultSettings()
	if len(doc) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(doc, &s); err != nil {
		return DefaultSettings(), err
	}
	if s.CustomModels == nil {
		s.CustomModels = []ModelRef{}
	}
	return s, nil
}
