// Package generation drives the draft pipeline: outline planning,
// concurrent section drafting, assembly, the compliance check, and the
// correction/retry loop, all inside the session's attempt budget.
package generation

import (
	"context"
	"log/slog"
	"strings"

	"podium/internal/domain/models"
	"podium/internal/service/llm"
)

// Planner produces the drafting outline. The five-section skeleton is a
// static template; the model's only job is picking up to three body
// keywords. Asking the model for the structure itself used to
// intermittently yield fewer than five sections, which broke every
// downstream assumption.
type Planner struct {
	completer llm.Completer
	logger    *slog.Logger
	model     string
}

func NewPlanner(completer llm.Completer, model string, logger *slog.Logger) *Planner {
	return &Planner{completer: completer, logger: logger, model: model}
}

// PlanRequest carries everything keyword extraction can use.
type PlanRequest struct {
	Topic        string
	Instructions string
	NewsContext  string
	Profile      *models.UserProfile
}

// Plan always returns an outline with exactly five sections in fixed
// order. When keyword extraction fails, the raw topic fills in, so no
// section spec is ever missing.
func (p *Planner) Plan(ctx context.Context, req *PlanRequest) *models.Outline {
	keywords := p.extractKeywords(ctx, req)

	sections := make([]models.SectionSpec, 0, models.SectionCount)
	bodyIdx := 0
	for _, t := range models.SectionOrder {
		spec := models.SectionSpec{Type: t}
		switch t {
		case models.SectionIntro:
			spec.Guide = "주제를 독자의 일상과 연결해 여는 도입부"
		case models.SectionOutro:
			spec.Guide = "핵심 메시지를 정리하고 여운을 남기는 마무리"
		default:
			spec.Keyword = keywords[bodyIdx]
			spec.Guide = "핵심어 \"" + spec.Keyword + "\"를 중심으로 구체적인 사실과 현장 경험을 담은 본문 단락"
			bodyIdx++
		}
		sections = append(sections, spec)
	}

	return &models.Outline{
		Title:    defaultTitle(req.Topic),
		Sections: sections,
	}
}

func (p *Planner) extractKeywords(ctx context.Context, req *PlanRequest) [3]string {
	fallback := [3]string{req.Topic, req.Topic, req.Topic}

	raw, err := p.completer.Complete(ctx, &llm.Request{
		System:      keywordSystem,
		Prompt:      buildKeywordPrompt(req.Topic, req.Instructions, req.NewsContext),
		Model:       p.model,
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		p.logger.Warn("keyword extraction failed, falling back to topic", "error", err)
		return fallback
	}

	parsed := parseKeywords(raw, 3)
	if len(parsed) == 0 {
		p.logger.Warn("keyword extraction returned nothing usable", "raw", raw)
		return fallback
	}

	var out [3]string
	for i := 0; i < 3; i++ {
		if i < len(parsed) {
			out[i] = parsed[i]
		} else {
			out[i] = req.Topic
		}
	}
	return out
}

// defaultTitle derives the initial working title from the topic. The
// corrector may replace it later.
func defaultTitle(topic string) string {
	title := strings.TrimSpace(topic)
	runes := []rune(title)
	if len(runes) > 25 {
		title = string(runes[:25])
	}
	return title
}
