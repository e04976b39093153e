package ai

import (
	"encoding/json"
	"strings"

	"storyboard-server/internal/model"
)

// stripCodeFences срезает markdown-обрамление ```json ... ``` вокруг ответа
// модели. Ответ без обрамления возвращается как есть.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// язык после открывающей тройки (json, JSON) срезается вместе с ней
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// shotPayload принимает оба исторических имени поля со списком персонажей:
// characters и activeCharacters. При наличии обоих приоритет у characters.
type shotPayload struct {
	Prompt           string   `json:"prompt"`
	Characters       []string `json:"characters"`
	ActiveCharacters []string `json:"activeCharacters"`
}

func (p shotPayload) toShotPrompt() model.ShotPrompt {
	names := p.Characters
	if len(names) == 0 {
		names = p.ActiveCharacters
	}
	if names == nil {
		names = []string{}
	}
	return model.ShotPrompt{Prompt: strings.TrimSpace(p.Prompt), Characters: names}
}

func parseShotList(raw string) ([]model.ShotPrompt, error) {
	var payload []shotPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, &Error{Kind: KindParse, Message: displayMessage(KindParse), Err: err}
	}
	shots := make([]model.ShotPrompt, 0, len(payload))
	for _, p := range payload {
		shots = append(shots, p.toShotPrompt())
	}
	return shots, nil
}

func parseShot(raw string) (model.ShotPrompt, error) {
	var payload shotPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return model.ShotPrompt{}, &Error{Kind: KindParse, Message: displayMessage(KindParse), Err: err}
	}
	return payload.toShotPrompt(), nil
}

func parseRoleList(raw string) ([]model.RoleProfile, error) {
	var payload []model.RoleProfile
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, &Error{Kind: KindParse, Message: displayMessage(KindParse), Err: err}
	}
	roles := make([]model.RoleProfile, 0, len(payload))
	for _, r := range payload {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			continue
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func parseSegmentList(raw string) ([]string, error) {
	var payload []string
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, &Error{Kind: KindParse, Message: displayMessage(KindParse), Err: err}
	}
	segments := make([]string, 0, len(payload))
	for _, s := range payload {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		segments = append(segments, s)
	}
	return segments, nil
}

// splitByParagraphs - резервная разбивка сценария без участия модели:
// по пустым строкам, затем по одиночным переводам строк.
func splitByParagraphs(script string) []string {
	normalized := strings.ReplaceAll(script, "\r\n", "\n")
	blocks := strings.Split(normalized, "\n\n")
	segments := make([]string, 0, len(blocks))
	for _, block := range blocks {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			segments = append(segments, line)
		}
	}
	return segments
}
