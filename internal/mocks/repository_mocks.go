package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storyboard-server/internal/model"
	"storyboard-server/internal/repository"
)

// MockSettingsRepository is a mock type for the SettingsRepository type
type MockSettingsRepository struct {
	mock.Mock
}

var _ repository.SettingsRepository = (*MockSettingsRepository)(nil)

func (_m *MockSettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(model.Settings), ret.Error(1)
}

func (_m *MockSettingsRepository) Save(ctx context.Context, settings model.Settings) error {
	ret := _m.Called(ctx, settings)
	return ret.Error(0)
}

// MockCharacterRepository is a mock type for the CharacterRepository type
type MockCharacterRepository struct {
	mock.Mock
}

var _ repository.CharacterRepository = (*MockCharacterRepository)(nil)

func (_m *MockCharacterRepository) List(ctx context.Context) ([]model.Character, error) {
	ret := _m.Called(ctx)
	var r0 []model.Character
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Character)
	}
	return r0, ret.Error(1)
}

func (_m *MockCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Character, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.Character), ret.Error(1)
}

func (_m *MockCharacterRepository) ListByNames(ctx context.Context, names []string) ([]model.Character, error) {
	ret := _m.Called(ctx, names)
	var r0 []model.Character
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Character)
	}
	return r0, ret.Error(1)
}

func (_m *MockCharacterRepository) Save(ctx context.Context, character model.Character) error {
	ret := _m.Called(ctx, character)
	return ret.Error(0)
}

func (_m *MockCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// MockFrameRepository is a mock type for the FrameRepository type
type MockFrameRepository struct {
	mock.Mock
}

var _ repository.FrameRepository = (*MockFrameRepository)(nil)

func (_m *MockFrameRepository) List(ctx context.Context) ([]model.Frame, error) {
	ret := _m.Called(ctx)
	var r0 []model.Frame
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Frame)
	}
	return r0, ret.Error(1)
}

func (_m *MockFrameRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Frame, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.Frame), ret.Error(1)
}

func (_m *MockFrameRepository) Save(ctx context.Context, frame model.Frame) error {
	ret := _m.Called(ctx, frame)
	return ret.Error(0)
}

func (_m *MockFrameRepository) ReplaceAll(ctx context.Context, frames []model.Frame) error {
	ret := _m.Called(ctx, frames)
	return ret.Error(0)
}

func (_m *MockFrameRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	ret := _m.Called(ctx, ids)
	return ret.Error(0)
}

func (_m *MockFrameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// MockStyleRepository is a mock type for the StyleRepository type
type MockStyleRepository struct {
	mock.Mock
}

var _ repository.StyleRepository = (*MockStyleRepository)(nil)

func (_m *MockStyleRepository) List(ctx context.Context) ([]model.StylePreset, error) {
	ret := _m.Called(ctx)
	var r0 []model.StylePreset
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.StylePreset)
	}
	return r0, ret.Error(1)
}

func (_m *MockStyleRepository) GetByID(ctx context.Context, id uuid.UUID) (model.StylePreset, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.StylePreset), ret.Error(1)
}

func (_m *MockStyleRepository) Save(ctx context.Context, preset model.StylePreset) error {
	ret := _m.Called(ctx, preset)
	return ret.Error(0)
}

func (_m *MockStyleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// MockRenderCache is a mock type for the RenderCache type
type MockRenderCache struct {
	mock.Mock
}

var _ repository.RenderCache = (*MockRenderCache)(nil)

func (_m *MockRenderCache) Get(ctx context.Context, promptHash string) (string, error) {
	ret := _m.Called(ctx, promptHash)
	return ret.String(0), ret.Error(1)
}

func (_m *MockRenderCache) Set(ctx context.Context, promptHash, imageURL string, ttl time.Duration) error {
	ret := _m.Called(ctx, promptHash, imageURL, ttl)
	return ret.Error(0)
}
