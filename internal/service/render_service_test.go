package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"storyboard-server/internal/messaging"
	"storyboard-server/internal/mocks"
	"storyboard-server/internal/model"
)

func TestPromptHash_Deterministic(t *testing.T) {
	task := messaging.FrameRenderTask{
		Prompt: "wide shot, night bar",
		HD:     true,
		CharacterRefs: []messaging.NamedRef{
			{Name: "Алиса", ImageData: "data:image/png;base64,aGk="},
		},
	}
	assert.Equal(t, promptHash(task), promptHash(task))
}

func TestPromptHash_SensitiveToInputs(t *testing.T) {
	base := messaging.FrameRenderTask{Prompt: "wide shot"}

	hd := base
	hd.HD = true
	assert.NotEqual(t, promptHash(base), promptHash(hd))

	styled := base
	styled.StyleImage = "data:image/png;base64,aGk="
	assert.NotEqual(t, promptHash(base), promptHash(styled))

	withRef := base
	withRef.CharacterRefs = []messaging.NamedRef{{Name: "Бармен", ImageData: "data:image/png;base64,aGk="}}
	assert.NotEqual(t, promptHash(base), promptHash(withRef))
}

func TestRenderFrame_CacheHitSkipsGeneration(t *testing.T) {
	frames := new(mocks.MockFrameRepository)
	cache := new(mocks.MockRenderCache)

	renderer := NewFrameRenderService(zap.NewNop(), nil, frames, cache, nil, time.Hour)

	task := messaging.FrameRenderTask{
		TaskID:  "t-1",
		FrameID: uuid.New(),
		Prompt:  "wide shot, night bar",
	}
	cachedURL := "http://localhost:8080/images/cached.png"
	frame := model.Frame{ID: task.FrameID, Prompt: task.Prompt}

	cache.On("Get", mock.Anything, promptHash(task)).Return(cachedURL, nil)
	frames.On("GetByID", mock.Anything, task.FrameID).Return(frame, nil)
	frames.On("Save", mock.Anything, mock.MatchedBy(func(f model.Frame) bool {
		return f.ID == task.FrameID && f.ImageURL == cachedURL && f.ImageReference == promptHash(task)
	})).Return(nil)

	result := renderer.RenderFrame(context.Background(), task)
	require.NoError(t, result.Error)
	assert.Equal(t, cachedURL, result.ImageURL)
	frames.AssertExpectations(t)
	cache.AssertExpectations(t)
}
