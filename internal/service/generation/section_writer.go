package generation

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"podium/internal/domain/models"
	"podium/internal/metrics"
	"podium/internal/service/llm"
)

// SectionPlaceholder is what a failed or timed-out section call leaves
// behind. Clearly marked so the reviewer cannot mistake it for prose.
const SectionPlaceholder = "[이 단락은 생성되지 않았습니다. 다시 시도해 주세요.]"

// DefaultSectionDeadline bounds the fan-in wait for all five section
// calls. On expiry, outstanding sections fall back to the placeholder
// instead of failing the whole request.
const DefaultSectionDeadline = 4 * time.Minute

// SectionWriter drafts the five sections concurrently. Each call writes
// to its own slot in a fixed-size array, so output order is always the
// outline order regardless of completion order, and no locking is
// needed.
type SectionWriter struct {
	completer llm.Completer
	logger    *slog.Logger
	collector metrics.Collector
	model     string
	deadline  time.Duration
}

func NewSectionWriter(completer llm.Completer, model string, collector metrics.Collector, logger *slog.Logger) *SectionWriter {
	return &SectionWriter{
		completer: completer,
		logger:    logger,
		collector: collector,
		model:     model,
		deadline:  DefaultSectionDeadline,
	}
}

// WithDeadline overrides the fan-in deadline, for tests.
func (w *SectionWriter) WithDeadline(d time.Duration) *SectionWriter {
	w.deadline = d
	return w
}

// WriteAll drafts every section of the outline and blocks until all
// five resolve or the deadline passes. The returned array always holds
// exactly five fragments; a failed section carries the placeholder.
func (w *SectionWriter) WriteAll(ctx context.Context, outline *models.Outline, topic string, profile *models.UserProfile, contextText string) [models.SectionCount]string {
	var fragments [models.SectionCount]string

	ctx, cancel := context.WithTimeout(ctx, w.deadline)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < models.SectionCount && i < len(outline.Sections); i++ {
		spec := outline.Sections[i]
		slot := i
		g.Go(func() error {
			fragments[slot] = w.writeSection(ctx, spec, topic, profile, contextText)
			return nil
		})
	}
	// Errors never propagate out of a section goroutine; each failure
	// is contained as a placeholder in its own slot.
	_ = g.Wait()

	return fragments
}

// writeSection makes the model call for one section, with one retry
// before degrading to the placeholder.
func (w *SectionWriter) writeSection(ctx context.Context, spec models.SectionSpec, topic string, profile *models.UserProfile, contextText string) string {
	req := &llm.Request{
		System:      sectionSystem,
		Prompt:      buildSectionPrompt(spec, topic, profile, contextText),
		Model:       w.model,
		MaxTokens:   900,
		Temperature: 0.7,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		text, err := w.completer.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			w.checkLengthBand(spec, text)
			return strings.TrimSpace(text)
		}
		lastErr = err
		w.collector.RecordModelCallFailure("section")
	}

	w.logger.Warn("section fell back to placeholder",
		"section", spec.Type,
		"error", lastErr,
	)
	return SectionPlaceholder
}

var markupRe = regexp.MustCompile(`<[^>]+>|[#*_>\x60]`)

// checkLengthBand logs sections that drift far outside their target
// band; the band is advisory, so this never fails the section.
func (w *SectionWriter) checkLengthBand(spec models.SectionSpec, text string) {
	plain := markupRe.ReplaceAllString(text, "")
	n := utf8.RuneCountInString(plain)
	minLen, maxLen := sectionLengthBand(spec.Type)
	if n < minLen*3/4 || n > maxLen*5/4 {
		w.logger.Debug("section outside length band",
			"section", spec.Type,
			"chars", n,
			"band_min", minLen,
			"band_max", maxLen,
		)
	}
}
