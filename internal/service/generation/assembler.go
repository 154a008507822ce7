package generation

import (
	"strings"

	"podium/internal/domain/models"
)

// sectionSeparator joins fragments into one document. A blank line is
// also the paragraph boundary the compliance engine's structural stage
// splits on.
const sectionSeparator = "\n\n"

// Assemble concatenates the five fragments in fixed order into one
// draft, carrying the outline forward for diagnostics. Pure function:
// no model calls, no I/O.
func Assemble(outline *models.Outline, fragments [models.SectionCount]string, attemptIndex int) *models.Draft {
	parts := make([]string, 0, models.SectionCount)
	for _, f := range fragments {
		parts = append(parts, strings.TrimSpace(f))
	}

	return &models.Draft{
		Title:        outline.Title,
		Content:      strings.Join(parts, sectionSeparator),
		Outline:      outline,
		AttemptIndex: attemptIndex,
	}
}
