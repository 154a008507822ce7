package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"podium/internal/compliance"
	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/metrics"
	"podium/internal/service/contextbuild"
	"podium/internal/service/session"
)

// Generate outcome labels. Best-effort means no draft passed within the
// correction budget; the human reviewer is the final gate, so the
// best-scoring draft goes out with its full report instead of an error.
const (
	StatusPassed     = "passed"
	StatusBestEffort = "best-effort"
)

// DefaultCorrectionRetries is how many corrector round-trips one
// attempt may spend after the initial validation fails.
const DefaultCorrectionRetries = 2

// Orchestrator drives Planner → SectionWriter → Assembler →
// ComplianceEngine → (Corrector loop) and owns the session and attempt
// bookkeeping around it.
type Orchestrator struct {
	sessions  *session.Store
	planner   *Planner
	writer    *SectionWriter
	corrector *Corrector
	engine    *compliance.Engine
	builder   contextbuild.Builder
	facts     contextbuild.FactSource
	collector metrics.Collector
	logger    *slog.Logger

	policyBans        []compliance.Rule
	correctionRetries int
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Sessions  *session.Store
	Planner   *Planner
	Writer    *SectionWriter
	Corrector *Corrector
	Engine    *compliance.Engine
	Builder   contextbuild.Builder
	Facts     contextbuild.FactSource
	Collector metrics.Collector
	Logger    *slog.Logger
	// PolicyBans are dynamically administered forbidden terms, merged
	// into the engine run as its second stage.
	PolicyBans []compliance.Rule
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		sessions:          deps.Sessions,
		planner:           deps.Planner,
		writer:            deps.Writer,
		corrector:         deps.Corrector,
		engine:            deps.Engine,
		builder:           deps.Builder,
		facts:             deps.Facts,
		collector:         deps.Collector,
		logger:            deps.Logger,
		policyBans:        deps.PolicyBans,
		correctionRetries: DefaultCorrectionRetries,
	}
}

// GenerateRequest is one external generate call.
type GenerateRequest struct {
	OwnerID        string
	Topic          string
	Category       string
	Instructions   string
	NewsContext    string
	SourceMaterial string
	Tier           models.Tier
	Profile        *models.UserProfile
}

// Validate checks the request before any quota or model work.
func (r *GenerateRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.OwnerID, validation.Required),
		validation.Field(&r.Topic, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Category, validation.Required, validation.In(
			string(models.CategoryCurrentAffairs),
			string(models.CategoryPolicy),
			string(models.CategoryDaily),
			string(models.CategoryVision),
		)),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	if r.Profile == nil {
		return &domain.ValidationError{Message: "profile is required"}
	}
	return nil
}

// GenerateResult is what the thin request handler returns to the user.
type GenerateResult struct {
	Status  string
	Draft   *models.Draft
	HTML    string
	Report  *compliance.Report
	Session *models.GenerationSession
}

// Generate runs one full attempt: plan, draft, assemble, validate, and
// correct until the draft passes or the correction budget runs out.
// Quota and session errors surface before any model call; everything
// after that degrades instead of failing.
func (o *Orchestrator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Cheap checks first: quota and session gates run before a single
	// model token is spent.
	sess, isNew, err := o.sessions.GetOrCreate(ctx, req.OwnerID, req.Category, req.Topic, req.Tier)
	if err != nil {
		o.recordRejection(err)
		return nil, err
	}

	started := time.Now()
	defer func() {
		o.collector.RecordPipelineLatency(time.Since(started))
	}()

	o.logger.Info("generation started",
		"owner_id", req.OwnerID,
		"session_id", sess.ID,
		"attempt", sess.Attempts+1,
		"new_session", isNew,
	)

	contextText := o.builder.Build(ctx, req.OwnerID, req.Topic, req.Category)

	var allowlist map[string]struct{}
	if o.facts != nil && req.SourceMaterial != "" {
		allowlist = o.facts.Allowlist(req.SourceMaterial)
	}

	outline := o.planner.Plan(ctx, &PlanRequest{
		Topic:        req.Topic,
		Instructions: req.Instructions,
		NewsContext:  req.NewsContext,
		Profile:      req.Profile,
	})

	fragments := o.writer.WriteAll(ctx, outline, req.Topic, req.Profile, contextText)
	draft := Assemble(outline, fragments, sess.Attempts+1)

	best := o.check(draft, req, allowlist)
	current := best

	for i := 0; i < o.correctionRetries && !current.result.Report.Passed; i++ {
		revised, err := o.corrector.Revise(ctx, current.draft, current.result.Report.AllIssues())
		if err != nil {
			// One failed correction never aborts the attempt; the best
			// draft so far still goes to the reviewer.
			o.collector.RecordModelCallFailure("correction")
			o.logger.Warn("correction attempt failed", "error", err)
			break
		}
		current = o.check(revised, req, allowlist)
		if current.result.Report.Score > best.result.Report.Score {
			best = current
		}
	}
	if current.result.Report.Passed {
		best = current
	}

	// The attempt is finished (pass or retry budget spent) - this is
	// the one place the session counter moves.
	sess, err = o.sessions.IncrementAttempts(ctx, sess)
	if err != nil {
		return nil, err
	}

	status := StatusBestEffort
	if best.result.Report.Passed {
		status = StatusPassed
	}
	o.collector.RecordGeneration(status)
	o.collector.RecordAutoReplacements(len(best.result.Report.Replacements))

	html, err := RenderHTML(best.draft.Content)
	if err != nil {
		o.logger.Warn("html rendering failed, returning plain content", "error", err)
		html = best.draft.Content
	}

	o.logger.Info("generation finished",
		"session_id", sess.ID,
		"status", status,
		"score", best.result.Report.Score,
		"issues", len(best.result.Report.AllIssues()),
	)

	return &GenerateResult{
		Status:  status,
		Draft:   best.draft,
		HTML:    html,
		Report:  &best.result.Report,
		Session: sess,
	}, nil
}

// checked pairs a draft with its engine run. The engine may have
// rewritten the text, so the draft of record is rebuilt from the
// engine's output.
type checked struct {
	draft  *models.Draft
	result *compliance.Result
}

func (o *Orchestrator) check(draft *models.Draft, req *GenerateRequest, allowlist map[string]struct{}) checked {
	result := o.engine.Check(compliance.Input{
		Title:       draft.Title,
		Content:     draft.Content,
		Stage:       string(req.Profile.Stage),
		Category:    req.Category,
		HasChildren: req.Profile.HasChildren,
		ExtraBans:   o.policyBans,
		Allowlist:   allowlist,
	})
	return checked{
		draft: &models.Draft{
			Title:        result.Title,
			Content:      result.Content,
			Outline:      draft.Outline,
			AttemptIndex: draft.AttemptIndex,
		},
		result: result,
	}
}

// Save finalizes the session after the owner stored the draft.
func (o *Orchestrator) Save(ctx context.Context, ownerID, sessionID string) error {
	sess, err := o.sessions.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", sessionID)}
		}
		return err
	}
	if sess.ID != sessionID {
		return &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", sessionID)}
	}
	return o.sessions.Complete(ctx, ownerID)
}

// Reset abandons the active session without touching quota.
func (o *Orchestrator) Reset(ctx context.Context, ownerID string) error {
	return o.sessions.Reset(ctx, ownerID)
}

func (o *Orchestrator) recordRejection(err error) {
	switch {
	case errors.Is(err, domain.ErrQuotaExhausted):
		o.collector.RecordQuotaRejection("quota_exhausted")
	case errors.Is(err, domain.ErrTrialExpired):
		o.collector.RecordQuotaRejection("trial_expired")
	case errors.Is(err, domain.ErrSessionCapReached):
		o.collector.RecordQuotaRejection("session_cap")
	}
}
