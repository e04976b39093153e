package ai

import "storyboard-server/internal/model"

// Встроенные каталоги моделей. Пользовательские модели из настроек
// накладываются поверх, дубликаты по value отбрасываются.
var (
	BuiltinTextModels = []model.ModelRef{
		{Value: "gemini-2.5-flash", Label: "Gemini 2.5 Flash"},
		{Value: "gemini-2.5-pro", Label: "Gemini 2.5 Pro"},
		{Value: "gemini-2.5-flash-lite", Label: "Gemini 2.5 Flash Lite"},
		{Value: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
	}

	BuiltinImageModels = []model.ModelRef{
		{Value: "gemini-2.5-flash-image-preview", Label: "Gemini 2.5 Flash Image"},
		{Value: "gemini-3-pro-image-preview", Label: "Gemini 3 Pro Image (HD)"},
	}
)

// hdImageModel используется при включенном флаге HD вместо модели из настроек.
const hdImageModel = "gemini-3-pro-image-preview"

// probeModels - кандидаты пробы подключения в порядке предпочтения.
var probeModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
}

// MergeModels складывает каталоги, сохраняя порядок первого вхождения
// и отбрасывая повторы по value.
func MergeModels(lists ...[]model.ModelRef) []model.ModelRef {
	seen := make(map[string]struct{})
	merged := make([]model.ModelRef, 0)
	for _, list := range lists {
		for _, ref := range list {
			if ref.Value == "" {
				continue
			}
			if _, ok := seen[ref.Value]; ok {
				continue
			}
			seen[ref.Value] = struct{}{}
			merged = append(merged, ref)
		}
	}
	return merged
}

func dedupeModelIDs(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, list := range lists {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}
