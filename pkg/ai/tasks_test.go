package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"storyboard-server/internal/model"
)

// stubTextGenerator отдает заранее заданные ответы по меткам операций.
type stubTextGenerator struct {
	responses map[string]string
	err       error
	prompts   []string
}

func (s *stubTextGenerator) GenerateJSON(_ context.Context, label, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.responses[label], nil
}

func newTestTasks(gen TextGenerator) *Tasks {
	return NewTasks(testCallerForTasks(), gen)
}

func testCallerForTasks() *Caller {
	return NewCaller(StaticSettings(model.Settings{APIKey: "test-key"}), RetryConfig{MaxRetries: 1, BaseDelay: 1})
}

func TestBreakdownScript(t *testing.T) {
	t.Run("model response used", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{
			labelBreakdown: `["кадр один", "кадр два"]`,
		}}
		got := newTestTasks(gen).BreakdownScript(context.Background(), "сценарий")
		assert.Equal(t, []string{"кадр один", "кадр два"}, got)
	})

	t.Run("terminal failure falls back to lines", func(t *testing.T) {
		gen := &stubTextGenerator{err: NewError(KindAuth, labelBreakdown)}
		got := newTestTasks(gen).BreakdownScript(context.Background(), "строка один\nстрока два")
		assert.Equal(t, []string{"строка один", "строка два"}, got)
	})

	t.Run("garbage response falls back to lines", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{labelBreakdown: "вовсе не json"}}
		got := newTestTasks(gen).BreakdownScript(context.Background(), "одна строка")
		assert.Equal(t, []string{"одна строка"}, got)
	})
}

func TestAnalyzeRoles(t *testing.T) {
	t.Run("roles parsed", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{
			labelRoles: `[{"name":"Анна","description":"детектив в плаще"}]`,
		}}
		got := newTestTasks(gen).AnalyzeRoles(context.Background(), "сценарий")
		require.Len(t, got, 1)
		assert.Equal(t, "Анна", got[0].Name)
	})

	t.Run("failure swallowed", func(t *testing.T) {
		gen := &stubTextGenerator{err: NewError(KindUnavailable, labelRoles)}
		got := newTestTasks(gen).AnalyzeRoles(context.Background(), "сценарий")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("long script truncated with marker", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{labelRoles: `[]`}}
		newTestTasks(gen).AnalyzeRoles(context.Background(), strings.Repeat("с", maxScriptChars+100))
		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], truncationMarker)
	})
}

func TestInferShotPrompts(t *testing.T) {
	segments := []string{"кадр 1", "кадр 2", "кадр 3"}

	t.Run("terminal failure yields one placeholder per segment", func(t *testing.T) {
		gen := &stubTextGenerator{err: NewError(KindQuota, labelShots)}
		got := newTestTasks(gen).InferShotPrompts(context.Background(), segments, nil)
		require.Len(t, got, 3)
		for _, shot := range got {
			assert.Empty(t, shot.Prompt)
			assert.NotNil(t, shot.Characters)
		}
	})

	t.Run("length mismatch padded and trimmed", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{
			labelShots: `[{"prompt":"только один","characters":[]}]`,
		}}
		got := newTestTasks(gen).InferShotPrompts(context.Background(), segments, nil)
		require.Len(t, got, 3)
		assert.Equal(t, "только один", got[0].Prompt)
		assert.Empty(t, got[1].Prompt)
	})

	t.Run("characters included in prompt", func(t *testing.T) {
		gen := &stubTextGenerator{responses: map[string]string{labelShots: `[]`}}
		chars := []model.Character{{Name: "Анна", Description: "детектив"}}
		newTestTasks(gen).InferShotPrompts(context.Background(), segments, chars)
		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "Анна: детектив")
	})

	t.Run("empty input", func(t *testing.T) {
		gen := &stubTextGenerator{}
		got := newTestTasks(gen).InferShotPrompts(context.Background(), nil, nil)
		assert.Empty(t, got)
		assert.Empty(t, gen.prompts, "запрос к модели не отправляется")
	})
}

func TestInferFramePromptPropagatesErrors(t *testing.T) {
	gen := &stubTextGenerator{err: NewError(KindRateLimit, labelFrame)}
	_, err := newTestTasks(gen).InferFramePrompt(context.Background(), "кадр", "до", "после", nil)
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindRateLimit, cerr.Kind)
}

func TestInferFramePromptParsed(t *testing.T) {
	gen := &stubTextGenerator{responses: map[string]string{
		labelFrame: "```json\n{\"prompt\":\"крупный план\",\"activeCharacters\":[\"Анна\"]}\n```",
	}}
	shot, err := newTestTasks(gen).InferFramePrompt(context.Background(), "кадр", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "крупный план", shot.Prompt)
	assert.Equal(t, []string{"Анна"}, shot.Characters)
}

func TestImageFromResponse(t *testing.T) {
	t.Run("inline image becomes data url", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "вот изображение"},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
				}},
			}},
		}
		got, err := imageFromResponse(resp)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))
	})

	t.Run("finish reason maps to content policy", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		_, err := imageFromResponse(resp)
		require.Error(t, err)
		assert.Equal(t, KindContentPolicy, Classify(err))
	})

	t.Run("no candidates is empty result", func(t *testing.T) {
		_, err := imageFromResponse(&genai.GenerateContentResponse{})
		require.Error(t, err)
		assert.Equal(t, KindEmpty, Classify(err))
	})
}

func TestMergeModels(t *testing.T) {
	merged := MergeModels(
		[]model.ModelRef{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}},
		[]model.ModelRef{{Value: "b", Label: "B custom"}, {Value: "c", Label: "C"}, {Value: "", Label: "мусор"}},
	)
	assert.Equal(t, []model.ModelRef{
		{Value: "a", Label: "A"},
		{Value: "b", Label: "B"},
		{Value: "c", Label: "C"},
	}, merged)
}
