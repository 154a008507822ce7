package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"podium/internal/compliance"
	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/metrics"
	"podium/internal/repository/memory"
	"podium/internal/service/contextbuild"
	"podium/internal/service/llm"
	"podium/internal/service/quota"
	"podium/internal/service/session"
)

// fakeClock lets session expiry and trial windows be driven by the test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type pipelineFixture struct {
	orch      *Orchestrator
	completer *fakeCompleter
	ledger    *quota.Ledger
	clock     *fakeClock
}

func newPipeline(t *testing.T, fn func(ctx context.Context, req *llm.Request) (string, error)) *pipelineFixture {
	t.Helper()
	logger := testLogger()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}

	ledger := quota.NewLedger(memory.NewQuotaRepository(), logger).WithClock(clock.Now)
	sessions := session.NewStore(memory.NewSessionRepository(), ledger, logger).WithClock(clock.Now)

	rs, err := compliance.LoadDefaultRuleSet()
	if err != nil {
		t.Fatalf("LoadDefaultRuleSet() error = %v", err)
	}
	engine, err := compliance.NewEngine(rs)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	completer := &fakeCompleter{fn: fn}
	orch := NewOrchestrator(Deps{
		Sessions:  sessions,
		Planner:   NewPlanner(completer, "offline-test", logger),
		Writer:    NewSectionWriter(completer, "offline-test", metrics.Noop{}, logger).WithDeadline(2 * time.Second),
		Corrector: NewCorrector(completer, "offline-test", logger),
		Engine:    engine,
		Builder:   contextbuild.NoopBuilder{},
		Facts:     contextbuild.TokenFactSource{},
		Collector: metrics.Noop{},
		Logger:    logger,
	})
	return &pipelineFixture{orch: orch, completer: completer, ledger: ledger, clock: clock}
}

// happyCompleter answers every pipeline stage with clean Korean prose.
func happyCompleter(_ context.Context, req *llm.Request) (string, error) {
	switch req.System {
	case keywordSystem:
		return "공원, 산책로, 주민", nil
	case correctionSystem:
		return "제목: 지역 현안 보고\n\n문제를 정리해 새로 썼습니다. 현장 의견을 반영했습니다.", nil
	default:
		return "주민 여러분과 함께 공원을 둘러보았습니다. 현장의 의견을 꼼꼼히 기록했습니다.", nil
	}
}

func newGenerateRequest(topic string) *GenerateRequest {
	return &GenerateRequest{
		OwnerID:  "owner-1",
		Topic:    topic,
		Category: string(models.CategoryDaily),
		Tier:     models.TierTrial,
		Profile: &models.UserProfile{
			OwnerID:     "owner-1",
			Stage:       models.StageNone,
			HasChildren: true,
		},
	}
}

func TestGenerateHappyPath(t *testing.T) {
	fx := newPipeline(t, happyCompleter)

	result, err := fx.orch.Generate(context.Background(), newGenerateRequest("동네 공원 소식"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Status != StatusPassed {
		t.Errorf("status = %q, want %q (report: %+v)", result.Status, StatusPassed, result.Report)
	}
	if got := strings.Count(result.Draft.Content, "\n\n") + 1; got != models.SectionCount {
		t.Errorf("draft has %d paragraphs, want %d", got, models.SectionCount)
	}
	if result.HTML == "" {
		t.Error("HTML rendering missing")
	}
	if result.Session.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", result.Session.Attempts)
	}
	if result.Report == nil || !result.Report.Passed {
		t.Errorf("report = %+v, want passed", result.Report)
	}
}

func TestGenerateDebitsQuotaOncePerSession(t *testing.T) {
	fx := newPipeline(t, happyCompleter)
	ctx := context.Background()
	req := newGenerateRequest("동네 공원 소식")

	if _, err := fx.orch.Generate(ctx, req); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	state, err := fx.ledger.State(ctx, req.OwnerID, req.Tier)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.Remaining != memory.TrialGenerations-1 {
		t.Fatalf("remaining after first attempt = %d, want %d", state.Remaining, memory.TrialGenerations-1)
	}

	// Second attempt in the same session costs nothing further.
	result, err := fx.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if result.Session.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Session.Attempts)
	}
	state, err = fx.ledger.State(ctx, req.OwnerID, req.Tier)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.Remaining != memory.TrialGenerations-1 {
		t.Errorf("remaining after second attempt = %d, want %d", state.Remaining, memory.TrialGenerations-1)
	}
}

func TestGenerateSessionCapBlocksFourthAttempt(t *testing.T) {
	fx := newPipeline(t, happyCompleter)
	ctx := context.Background()
	req := newGenerateRequest("동네 공원 소식")

	for i := 0; i < models.MaxAttempts; i++ {
		if _, err := fx.orch.Generate(ctx, req); err != nil {
			t.Fatalf("attempt %d error = %v", i+1, err)
		}
	}

	callsBefore := fx.completer.callCount()
	_, err := fx.orch.Generate(ctx, req)
	if !errors.Is(err, domain.ErrSessionCapReached) {
		t.Fatalf("fourth attempt error = %v, want session cap", err)
	}
	// The gate fires before any model token is spent.
	if got := fx.completer.callCount(); got != callsBefore {
		t.Errorf("model calls went from %d to %d on a rejected attempt", callsBefore, got)
	}
}

func TestGenerateIdleExpiryOpensNewSession(t *testing.T) {
	fx := newPipeline(t, happyCompleter)
	ctx := context.Background()
	req := newGenerateRequest("동네 공원 소식")

	first, err := fx.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	fx.clock.Advance(models.SessionIdleTimeout + time.Minute)

	second, err := fx.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate() after expiry error = %v", err)
	}
	if second.Session.ID == first.Session.ID {
		t.Error("expired session was reused")
	}
	if second.Session.Attempts != 1 {
		t.Errorf("attempts on fresh session = %d, want 1", second.Session.Attempts)
	}

	// The replacement session consumed its own quota unit.
	state, err := fx.ledger.State(ctx, req.OwnerID, req.Tier)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.Remaining != memory.TrialGenerations-2 {
		t.Errorf("remaining = %d, want %d", state.Remaining, memory.TrialGenerations-2)
	}
}

func TestGenerateCorrectionLoopRepairsDraft(t *testing.T) {
	// The topic seeds a promissory title, which the corrector then
	// replaces with a clean one.
	fx := newPipeline(t, happyCompleter)

	result, err := fx.orch.Generate(context.Background(), newGenerateRequest("반드시 지키는 약속"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Status != StatusPassed {
		t.Fatalf("status = %q, want %q (report: %+v)", result.Status, StatusPassed, result.Report)
	}
	if result.Draft.Title != "지역 현안 보고" {
		t.Errorf("title = %q, want the corrected title", result.Draft.Title)
	}
}

func TestGenerateBestEffortWhenCorrectionFails(t *testing.T) {
	fx := newPipeline(t, func(ctx context.Context, req *llm.Request) (string, error) {
		if req.System == correctionSystem {
			return "", errors.New("model down")
		}
		return happyCompleter(ctx, req)
	})

	result, err := fx.orch.Generate(context.Background(), newGenerateRequest("반드시 지키는 약속"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Status != StatusBestEffort {
		t.Errorf("status = %q, want %q", result.Status, StatusBestEffort)
	}
	if result.Draft == nil || result.Draft.Content == "" {
		t.Error("best-effort result must still carry a draft")
	}
	if result.Report == nil || result.Report.Passed {
		t.Errorf("report = %+v, want failing report attached", result.Report)
	}
	if result.Session.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (a failed attempt still counts)", result.Session.Attempts)
	}
}

func TestGenerateValidation(t *testing.T) {
	fx := newPipeline(t, happyCompleter)

	tests := []struct {
		name   string
		mutate func(*GenerateRequest)
	}{
		{"missing owner", func(r *GenerateRequest) { r.OwnerID = "" }},
		{"topic too short", func(r *GenerateRequest) { r.Topic = "가" }},
		{"unknown category", func(r *GenerateRequest) { r.Category = "gossip" }},
		{"missing profile", func(r *GenerateRequest) { r.Profile = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newGenerateRequest("동네 공원 소식")
			tt.mutate(req)
			_, err := fx.orch.Generate(context.Background(), req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSaveRequiresMatchingSession(t *testing.T) {
	fx := newPipeline(t, happyCompleter)
	ctx := context.Background()

	result, err := fx.orch.Generate(ctx, newGenerateRequest("동네 공원 소식"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if err := fx.orch.Save(ctx, "owner-1", "stale-session-id"); err == nil {
		t.Error("save with a stale session id must fail")
	}
	if err := fx.orch.Save(ctx, "owner-1", result.Session.ID); err != nil {
		t.Errorf("Save() error = %v", err)
	}

	// Saving closed the session; the next generate opens a fresh one.
	next, err := fx.orch.Generate(ctx, newGenerateRequest("동네 공원 소식"))
	if err != nil {
		t.Fatalf("Generate() after save error = %v", err)
	}
	if next.Session.ID == result.Session.ID {
		t.Error("completed session was reused")
	}
}

func TestResetKeepsQuotaSpent(t *testing.T) {
	fx := newPipeline(t, happyCompleter)
	ctx := context.Background()
	req := newGenerateRequest("동네 공원 소식")

	if _, err := fx.orch.Generate(ctx, req); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := fx.orch.Reset(ctx, req.OwnerID); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	// No refund: the abandoned session's unit stays consumed and the
	// next session costs another.
	if _, err := fx.orch.Generate(ctx, req); err != nil {
		t.Fatalf("Generate() after reset error = %v", err)
	}
	state, err := fx.ledger.State(ctx, req.OwnerID, req.Tier)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.Remaining != memory.TrialGenerations-2 {
		t.Errorf("remaining = %d, want %d", state.Remaining, memory.TrialGenerations-2)
	}
}
