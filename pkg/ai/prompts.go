package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"storyboard-server/internal/model"
)

//go:embed prompts/breakdown.md
var breakdownTemplate string

//go:embed prompts/roles.md
var rolesTemplate string

//go:embed prompts/shots.md
var shotsTemplate string

//go:embed prompts/frame.md
var frameTemplate string

// maxScriptChars - потолок длины сценария для анализа ролей. Хвост срезается
// с маркером, чтобы модель видела, что текст неполный.
const (
	maxScriptChars   = 30000
	truncationMarker = "\n...[сценарий обрезан]"
	contextEmptyMark = "(нет)"
)

func truncateScript(script string) string {
	runes := []rune(script)
	if len(runes) <= maxScriptChars {
		return script
	}
	return string(runes[:maxScriptChars]) + truncationMarker
}

func buildBreakdownPrompt(script string) string {
	return strings.ReplaceAll(breakdownTemplate, "{{SCRIPT}}", script)
}

func buildRolesPrompt(script string) string {
	return strings.ReplaceAll(rolesTemplate, "{{SCRIPT}}", truncateScript(script))
}

func buildShotsPrompt(segments []string, characters []model.Character) string {
	p := strings.ReplaceAll(shotsTemplate, "{{CHARACTERS}}", formatCharacterList(characters))
	return strings.ReplaceAll(p, "{{SEGMENTS}}", formatSegmentList(segments))
}

func buildFramePrompt(segment, before, after string, characters []model.Character) string {
	p := strings.ReplaceAll(frameTemplate, "{{CHARACTERS}}", formatCharacterList(characters))
	p = strings.ReplaceAll(p, "{{BEFORE}}", orEmptyMark(before))
	p = strings.ReplaceAll(p, "{{SEGMENT}}", segment)
	return strings.ReplaceAll(p, "{{AFTER}}", orEmptyMark(after))
}

func formatCharacterList(characters []model.Character) string {
	if len(characters) == 0 {
		return contextEmptyMark
	}
	var b strings.Builder
	for _, c := range characters {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if c.Description != "" {
			b.WriteString(": ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSegmentList(segments []string) string {
	var b strings.Builder
	for i, s := range segments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orEmptyMark(s string) string {
	if strings.TrimSpace(s) == "" {
		return contextEmptyMark
	}
	return s
}

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// estimateTokens дает грубую оценку размера промпта для метрик и логов.
// Gemini токенизирует иначе, чем cl100k_base, но порядок величины тот же.
func estimateTokens(task, prompt string) {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn().Err(err).Msg("не удалось инициализировать tiktoken, оценка токенов отключена")
			return
		}
		tokenizer = enc
	})
	if tokenizer == nil {
		return
	}
	n := len(tokenizer.Encode(prompt, nil, nil))
	aiPromptTokens.WithLabelValues(task).Observe(float64(n))
	log.Debug().Str("task", task).Int("tokens", n).Msg("оценка размера промпта")
}
