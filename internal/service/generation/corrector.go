package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podium/internal/compliance"
	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/service/llm"
)

// Corrector asks the model for a rewritten title and body, seeded with
// the specific issues the compliance engine found. Corrections always
// produce a whole new draft; the result is never trusted as fixed and
// goes back through the entire engine.
type Corrector struct {
	completer llm.Completer
	logger    *slog.Logger
	model     string
}

func NewCorrector(completer llm.Completer, model string, logger *slog.Logger) *Corrector {
	return &Corrector{completer: completer, logger: logger, model: model}
}

// Revise returns a replacement draft addressing the issues. On model
// failure the caller keeps the previous draft; the error is contained
// at this one correction attempt.
func (c *Corrector) Revise(ctx context.Context, draft *models.Draft, issues []compliance.Issue) (*models.Draft, error) {
	raw, err := c.completer.Complete(ctx, &llm.Request{
		System:      correctionSystem,
		Prompt:      buildCorrectionPrompt(draft, issues),
		Model:       c.model,
		MaxTokens:   3000,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("correction call: %w", err)
	}

	title, content := parseCorrectionResponse(raw, draft.Title)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: correction returned empty content", domain.ErrModelCall)
	}

	c.logger.Debug("draft revised",
		"issues", len(issues),
		"attempt_index", draft.AttemptIndex,
	)

	return &models.Draft{
		Title:        title,
		Content:      content,
		Outline:      draft.Outline,
		AttemptIndex: draft.AttemptIndex,
	}, nil
}
