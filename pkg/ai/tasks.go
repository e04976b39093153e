package ai

import (
	"context"

	"storyboard-server/internal/model"
)

// Tasks - пять операций AI-ядра поверх оркестратора: разбивка сценария,
// анализ ролей, пакетный и одиночный вывод промптов кадров, генерация
// изображения. Текстовые задачи идут через выбранный бэкенд, изображения
// всегда через Gemini.
type Tasks struct {
	caller  *Caller
	textGen TextGenerator
}

func NewTasks(caller *Caller, textGen TextGenerator) *Tasks {
	return &Tasks{caller: caller, textGen: textGen}
}

// Метки операций: попадают в сообщения об ошибках и метрики.
const (
	labelBreakdown = "разбивка сценария"
	labelRoles     = "анализ персонажей"
	labelShots     = "промпты кадров"
	labelFrame     = "промпт кадра"
	labelImage     = "генерация изображения"
)

// BreakdownScript разбивает сценарий на сегменты-кадры. При любом отказе
// модели (включая отказ оркестратора) молча откатывается на построчную
// разбивку: экран разбивки должен работать и без доступного AI.
func (t *Tasks) BreakdownScript(ctx context.Context, script string) []string {
	raw, err := t.textGen.GenerateJSON(ctx, labelBreakdown, buildBreakdownPrompt(script))
	if err != nil {
		log.Warn().Err(err).Msg("разбивка сценария моделью не удалась, построчный фолбэк")
		return splitByParagraphs(script)
	}
	segments, err := parseSegmentList(raw)
	if err != nil || len(segments) == 0 {
		log.Warn().Err(err).Msg("ответ разбивки не разобран, построчный фолбэк")
		return splitByParagraphs(script)
	}
	return segments
}

// AnalyzeRoles выделяет персонажей из сценария. Сценарий усечен до 30000
// символов. Отказ не распространяется: возвращается пустой список, ошибка
// остается в логе.
func (t *Tasks) AnalyzeRoles(ctx context.Context, script string) []model.RoleProfile {
	raw, err := t.textGen.GenerateJSON(ctx, labelRoles, buildRolesPrompt(script))
	if err != nil {
		log.Warn().Err(err).Msg("анализ персонажей не удался, возвращаем пустой список")
		return []model.RoleProfile{}
	}
	roles, err := parseRoleList(raw)
	if err != nil {
		log.Warn().Err(err).Msg("ответ анализа персонажей не разобран, возвращаем пустой список")
		return []model.RoleProfile{}
	}
	return roles
}

// InferShotPrompts строит промпты для пакета сегментов. Контракт: на выходе
// ровно len(segments) элементов в том же порядке. Любой отказ дает пустые
// заглушки на каждый сегмент, вызывающий код обязан переживать полностью
// пустой результат.
func (t *Tasks) InferShotPrompts(ctx context.Context, segments []string, characters []model.Character) []model.ShotPrompt {
	if len(segments) == 0 {
		return []model.ShotPrompt{}
	}

	raw, err := t.textGen.GenerateJSON(ctx, labelShots, buildShotsPrompt(segments, characters))
	if err != nil {
		log.Warn().Err(err).Int("segments", len(segments)).Msg("пакетный вывод промптов не удался, возвращаем заглушки")
		return emptyShotPrompts(len(segments))
	}
	shots, err := parseShotList(raw)
	if err != nil {
		log.Warn().Err(err).Msg("ответ пакетного вывода не разобран, возвращаем заглушки")
		return emptyShotPrompts(len(segments))
	}

	// Модель может вернуть не ту длину: лишнее срезаем, недостающее добиваем
	// заглушками, порядок сегментов сохраняется.
	if len(shots) > len(segments) {
		shots = shots[:len(segments)]
	}
	for len(shots) < len(segments) {
		shots = append(shots, model.ShotPrompt{Characters: []string{}})
	}
	return shots
}

// InferFramePrompt строит промпт одного кадра с учетом соседних сегментов.
// В отличие от пакетной задачи, ошибки распространяются: пользователь явно
// запросил перегенерацию одного кадра и должен увидеть причину отказа.
func (t *Tasks) InferFramePrompt(ctx context.Context, segment, before, after string, characters []model.Character) (model.ShotPrompt, error) {
	raw, err := t.textGen.GenerateJSON(ctx, labelFrame, buildFramePrompt(segment, before, after, characters))
	if err != nil {
		return model.ShotPrompt{}, Classified(labelFrame, err)
	}
	shot, err := parseShot(raw)
	if err != nil {
		return model.ShotPrompt{}, Classified(labelFrame, err)
	}
	return shot, nil
}

func emptyShotPrompts(n int) []model.ShotPrompt {
	shots := make([]model.ShotPrompt, n)
	for i := range shots {
		shots[i].Characters = []string{}
	}
	return shots
}
