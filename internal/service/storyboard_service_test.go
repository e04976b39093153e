package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/mocks"
	"storyboard-server/internal/model"
	"storyboard-server/pkg/ai"
)

// stubTextGen отдает один и тот же ответ на любую текстовую задачу.
type stubTextGen struct {
	response string
	err      error
}

func (s *stubTextGen) GenerateJSON(context.Context, string, string) (string, error) {
	return s.response, s.err
}

type rendererMock struct {
	mock.Mock
}

var _ FrameRenderer = (*rendererMock)(nil)

func (m *rendererMock) RenderFrame(ctx context.Context, task messaging.FrameRenderTask) RenderResult {
	ret := m.Called(ctx, task)
	return ret.Get(0).(RenderResult)
}

type serviceMocks struct {
	settings   *mocks.MockSettingsRepository
	characters *mocks.MockCharacterRepository
	frames     *mocks.MockFrameRepository
	styles     *mocks.MockStyleRepository
	renderer   *rendererMock
	publisher  *mocks.MockPublisher
}

func newTestService(t *testing.T, gen *stubTextGen) (*StoryboardService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		settings:   new(mocks.MockSettingsRepository),
		characters: new(mocks.MockCharacterRepository),
		frames:     new(mocks.MockFrameRepository),
		styles:     new(mocks.MockStyleRepository),
		renderer:   new(rendererMock),
		publisher:  new(mocks.MockPublisher),
	}
	if gen == nil {
		gen = &stubTextGen{err: errors.New("text generator not configured for this test")}
	}
	tasks := ai.NewTasks(nil, gen)
	svc := NewStoryboardService(zap.NewNop(),
		m.settings, m.characters, m.frames, m.styles,
		tasks, nil, m.renderer, m.publisher)
	return svc, m
}

func TestBreakdownScript_CreatesFramesInOrder(t *testing.T) {
	gen := &stubTextGen{response: `["Герой входит в бар.","Бармен поднимает взгляд."]`}
	svc, m := newTestService(t, gen)

	m.frames.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(frames []model.Frame) bool {
		return len(frames) == 2 &&
			frames[0].Position == 0 && frames[0].Segment == "Герой входит в бар." &&
			frames[1].Position == 1 && frames[1].Segment == "Бармен поднимает взгляд."
	})).Return(nil)

	frames, err := svc.BreakdownScript(context.Background(), "Герой входит в бар.\nБармен поднимает взгляд.")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.NotEqual(t, uuid.Nil, frames[0].ID)
	assert.NotEqual(t, frames[0].ID, frames[1].ID)
	m.frames.AssertExpectations(t)
}

func TestBreakdownScript_FallbackWithoutModelStillReplaces(t *testing.T) {
	gen := &stubTextGen{err: errors.New("model unavailable")}
	svc, m := newTestService(t, gen)

	m.frames.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(frames []model.Frame) bool {
		return len(frames) == 2
	})).Return(nil)

	frames, err := svc.BreakdownScript(context.Background(), "Первая строка.\n\nВторая строка.")
	require.NoError(t, err)
	assert.Len(t, frames, 2)
	m.frames.AssertExpectations(t)
}

func TestAnalyzeRoles_SkipsExistingNames(t *testing.T) {
	gen := &stubTextGen{response: `[
		{"name":"Алиса","description":"девушка в красном плаще"},
		{"name":"Бармен","description":"усталый мужчина за стойкой"}
	]`}
	svc, m := newTestService(t, gen)

	m.characters.On("List", mock.Anything).Return([]model.Character{
		{ID: uuid.New(), Name: "Алиса", Description: "ручное описание, важнее анализа"},
	}, nil)
	m.characters.On("Save", mock.Anything, mock.MatchedBy(func(c model.Character) bool {
		return c.Name == "Бармен" && c.ID != uuid.Nil
	})).Return(nil)

	created, err := svc.AnalyzeRoles(context.Background(), "сценарий")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Бармен", created[0].Name)
	m.characters.AssertExpectations(t)
	m.characters.AssertNumberOfCalls(t, "Save", 1)
}

func TestAnalyzeRoles_ModelRefusalGivesEmptyList(t *testing.T) {
	gen := &stubTextGen{err: errors.New("quota exceeded")}
	svc, m := newTestService(t, gen)

	created, err := svc.AnalyzeRoles(context.Background(), "сценарий")
	require.NoError(t, err)
	assert.Empty(t, created)
	m.characters.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInferShotPrompts_EmptyResultKeepsExistingPrompts(t *testing.T) {
	gen := &stubTextGen{response: `[
		{"prompt":"wide shot, night bar exterior","characters":["Алиса"]},
		{"prompt":"","characters":[]}
	]`}
	svc, m := newTestService(t, gen)

	frames := []model.Frame{
		{ID: uuid.New(), Position: 0, Segment: "Вход в бар", Prompt: ""},
		{ID: uuid.New(), Position: 1, Segment: "За стойкой", Prompt: "старый промпт"},
	}
	m.frames.On("List", mock.Anything).Return(frames, nil)
	m.characters.On("List", mock.Anything).Return([]model.Character{}, nil)
	m.frames.On("Save", mock.Anything, mock.MatchedBy(func(f model.Frame) bool {
		return f.ID == frames[0].ID && f.Prompt == "wide shot, night bar exterior"
	})).Return(nil)

	result, err := svc.InferShotPrompts(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	// Пустой ответ модели не затирает промпт второго кадра.
	assert.Equal(t, "старый промпт", result[1].Prompt)
	m.frames.AssertNumberOfCalls(t, "Save", 1)
}

func TestInferFramePrompt_UnknownFrame(t *testing.T) {
	svc, m := newTestService(t, nil)
	m.frames.On("List", mock.Anything).Return([]model.Frame{}, nil)

	_, err := svc.InferFramePrompt(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInferFramePrompt_SavesPromptWithNeighbours(t *testing.T) {
	gen := &stubTextGen{response: `{"prompt":"close-up on glass","characters":["Бармен"]}`}
	svc, m := newTestService(t, gen)

	target := model.Frame{ID: uuid.New(), Position: 1, Segment: "Бармен наливает"}
	m.frames.On("List", mock.Anything).Return([]model.Frame{
		{ID: uuid.New(), Position: 0, Segment: "Вход в бар"},
		target,
		{ID: uuid.New(), Position: 2, Segment: "Алиса садится"},
	}, nil)
	m.characters.On("List", mock.Anything).Return([]model.Character{}, nil)
	m.frames.On("Save", mock.Anything, mock.MatchedBy(func(f model.Frame) bool {
		return f.ID == target.ID && f.Prompt == "close-up on glass"
	})).Return(nil)

	frame, err := svc.InferFramePrompt(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "close-up on glass", frame.Prompt)
	assert.Equal(t, []string{"Бармен"}, frame.Characters)
	m.frames.AssertExpectations(t)
}

func TestRenderFrame_RequiresPrompt(t *testing.T) {
	svc, m := newTestService(t, nil)

	frame := model.Frame{ID: uuid.New(), Segment: "сегмент без промпта"}
	m.frames.On("GetByID", mock.Anything, frame.ID).Return(frame, nil)

	_, err := svc.RenderFrame(context.Background(), frame.ID, RenderOptions{})
	require.Error(t, err)
	m.renderer.AssertNotCalled(t, "RenderFrame", mock.Anything, mock.Anything)
}

func TestRenderFrame_ReturnsUpdatedFrame(t *testing.T) {
	svc, m := newTestService(t, nil)

	frame := model.Frame{ID: uuid.New(), Prompt: "wide shot"}
	rendered := frame
	rendered.ImageURL = "http://localhost:8080/images/abc.png"

	m.frames.On("GetByID", mock.Anything, frame.ID).Return(frame, nil).Once()
	m.renderer.On("RenderFrame", mock.Anything, mock.MatchedBy(func(task messaging.FrameRenderTask) bool {
		return task.FrameID == frame.ID && task.Prompt == "wide shot" && task.TaskID != ""
	})).Return(RenderResult{ImageURL: rendered.ImageURL})
	m.frames.On("GetByID", mock.Anything, frame.ID).Return(rendered, nil).Once()

	got, err := svc.RenderFrame(context.Background(), frame.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, rendered.ImageURL, got.ImageURL)
	m.renderer.AssertExpectations(t)
}

func TestEnqueueRenderBatch_PublishesAllTasks(t *testing.T) {
	svc, m := newTestService(t, nil)

	styleID := uuid.New()
	style := model.StylePreset{ID: styleID, Name: "нуар", ImageData: "data:image/png;base64,aGk="}
	frames := []model.Frame{
		{ID: uuid.New(), Prompt: "shot one", Characters: []string{"Алиса"}},
		{ID: uuid.New(), Prompt: "shot two"},
	}

	m.frames.On("GetByID", mock.Anything, frames[0].ID).Return(frames[0], nil)
	m.frames.On("GetByID", mock.Anything, frames[1].ID).Return(frames[1], nil)
	m.styles.On("GetByID", mock.Anything, styleID).Return(style, nil)
	m.characters.On("ListByNames", mock.Anything, []string{"Алиса"}).Return([]model.Character{
		{ID: uuid.New(), Name: "Алиса", ImageData: "data:image/png;base64,aGk="},
	}, nil)

	var published []byte
	m.publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]byte)
	}).Return(nil)

	batchID, err := svc.EnqueueRenderBatch(context.Background(),
		[]uuid.UUID{frames[0].ID, frames[1].ID}, RenderOptions{StyleID: &styleID, HD: true})
	require.NoError(t, err)
	assert.NotEmpty(t, batchID)

	var batch messaging.FrameRenderBatch
	require.NoError(t, json.Unmarshal(published, &batch))
	assert.Equal(t, batchID, batch.BatchID)
	require.Len(t, batch.Tasks, 2)
	assert.True(t, batch.Tasks[0].HD)
	assert.Equal(t, style.ImageData, batch.Tasks[0].StyleImage)
	require.Len(t, batch.Tasks[0].CharacterRefs, 1)
	assert.Equal(t, "Алиса", batch.Tasks[0].CharacterRefs[0].Name)
	assert.Empty(t, batch.Tasks[1].CharacterRefs)
}

func TestEnqueueRenderBatch_FrameWithoutPromptFailsWhole(t *testing.T) {
	svc, m := newTestService(t, nil)

	frame := model.Frame{ID: uuid.New()}
	m.frames.On("GetByID", mock.Anything, frame.ID).Return(frame, nil)

	_, err := svc.EnqueueRenderBatch(context.Background(), []uuid.UUID{frame.ID}, RenderOptions{})
	require.Error(t, err)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSaveCharacter_AssignsID(t *testing.T) {
	svc, m := newTestService(t, nil)
	m.characters.On("Save", mock.Anything, mock.MatchedBy(func(c model.Character) bool {
		return c.ID != uuid.Nil
	})).Return(nil)

	saved, err := svc.SaveCharacter(context.Background(), model.Character{Name: "Алиса"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
}

func TestListModels_MergesCustomModels(t *testing.T) {
	svc, m := newTestService(t, nil)
	m.settings.On("Get", mock.Anything).Return(model.Settings{
		CustomModels: []model.ModelRef{{Value: "my-tuned-model", Label: "Моя модель"}},
	}, nil)

	catalog, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(catalog.TextModels), len(ai.BuiltinTextModels)-1)

	found := false
	for _, ref := range catalog.TextModels {
		if ref.Value == "my-tuned-model" {
			found = true
		}
	}
	assert.True(t, found, "пользовательская модель должна попасть в каталог")
}
