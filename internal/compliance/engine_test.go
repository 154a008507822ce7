package compliance

import (
	"strings"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	rs, err := LoadDefaultRuleSet()
	if err != nil {
		t.Fatalf("LoadDefaultRuleSet() error = %v", err)
	}
	engine, err := NewEngine(rs)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestCheckRewritesVoteRequestForPreCandidate(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:   "동네 소식을 전합니다",
		Content: "주민 여러분, 저에게 투표해 주세요. 현장에서 늘 듣고 있습니다.",
		Stage:   "예비후보",
	})

	if strings.Contains(result.Content, "투표해 주세요") {
		t.Errorf("content still contains forbidden phrase:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "관심 가져주세요") {
		t.Errorf("content missing replacement phrase:\n%s", result.Content)
	}

	var found bool
	for _, issue := range result.Report.Issues {
		if issue.Type == IssueElectionLaw && issue.AutoFixed {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an auto-fixed %s issue, got %+v", IssueElectionLaw, result.Report.Issues)
	}
	if len(result.Report.Replacements) == 0 {
		t.Error("expected replacement record for the rewrite")
	}
	// Auto-fixed text no longer blocks publication.
	if !result.Report.Passed {
		t.Errorf("expected auto-fixed draft to pass, report = %+v", result.Report)
	}
}

func TestCheckStagePhrasingSelectsTable(t *testing.T) {
	engine := newTestEngine(t)

	// The same phrase is legal for someone with no declared candidacy.
	result := engine.Check(Input{
		Title:   "동네 소식을 전합니다",
		Content: "주민 여러분, 저에게 투표해 주세요.",
		Stage:   "일반",
	})
	if !strings.Contains(result.Content, "투표해 주세요") {
		t.Errorf("stage 일반 must not rewrite vote requests, got:\n%s", result.Content)
	}
}

func TestCheckUniversalBanAppliesOnAnyStage(t *testing.T) {
	engine := newTestEngine(t)

	for _, stage := range []string{"일반", "예비후보", "후보"} {
		result := engine.Check(Input{
			Title:   "주간 활동 보고",
			Content: "기호 2번을 기억해 주세요. 다음 주에 다시 찾아뵙겠습니다.",
			Stage:   stage,
		})
		if strings.Contains(result.Content, "기호 2번") {
			t.Errorf("stage %s: ballot number survived:\n%s", stage, result.Content)
		}
		if !result.Report.Passed {
			t.Errorf("stage %s: auto-fixed ban should not block, report = %+v", stage, result.Report)
		}
	}
}

func TestCheckIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	in := Input{
		Title:       "의정 준비 소식",
		Content:     "저에게 투표해 주세요. 아이를 키우는 아빠로서 공원도 둘러봤습니다. 신공항 건설을 추진하겠습니다.",
		Stage:       "예비후보",
		Category:    "current-affairs",
		HasChildren: false,
	}
	first := engine.Check(in)

	in.Title = first.Title
	in.Content = first.Content
	second := engine.Check(in)

	if len(second.Report.Replacements) != 0 {
		t.Errorf("second run applied replacements: %+v", second.Report.Replacements)
	}
	if second.Content != first.Content {
		t.Errorf("second run changed content:\nfirst:  %s\nsecond: %s", first.Content, second.Content)
	}
	if second.Title != first.Title {
		t.Errorf("second run changed title: %q -> %q", first.Title, second.Title)
	}
}

func TestCheckPolicyBans(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:   "지역 현안 보고",
		Content: "특별교부금으로 모두 해결됩니다.",
		Stage:   "일반",
		ExtraBans: []Rule{
			{Literal: "모두 해결됩니다", Replace: "해결 방안을 찾고 있습니다", Reason: "단정적 해결 표현"},
		},
	})

	if strings.Contains(result.Content, "모두 해결됩니다") {
		t.Errorf("policy ban not applied:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "해결 방안을 찾고 있습니다") {
		t.Errorf("policy replacement missing:\n%s", result.Content)
	}
}

func TestCheckPolicyBanBadPatternFallsBackToLiteral(t *testing.T) {
	engine := newTestEngine(t)

	// "[무효" is not a valid regex; the engine must treat it as a plain
	// substring instead of failing.
	result := engine.Check(Input{
		Title:   "지역 현안 보고",
		Content: "이 표현 [무효 은 제거됩니다.",
		Stage:   "일반",
		ExtraBans: []Rule{
			{Pattern: "[무효", Replace: "", Reason: "테스트"},
		},
	})
	if strings.Contains(result.Content, "[무효") {
		t.Errorf("literal fallback not applied:\n%s", result.Content)
	}
}

func TestCheckPrescriptiveNeutralizedForCurrentAffairs(t *testing.T) {
	engine := newTestEngine(t)

	content := "최근 정부 대응을 짚어봅니다.\n\n신공항 건설을 추진하겠습니다.\n\n감사합니다."
	result := engine.Check(Input{
		Title:    "정부 대응 진단",
		Content:  content,
		Stage:    "일반",
		Category: "current-affairs",
	})

	if strings.Contains(result.Content, "추진하겠습니다") {
		t.Errorf("prescriptive sentence survived:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "관련 동향을 계속 주시하겠습니다.") {
		t.Errorf("placeholder missing:\n%s", result.Content)
	}

	// Other categories keep pledges untouched.
	policy := engine.Check(Input{
		Title:    "공약 구상",
		Content:  content,
		Stage:    "일반",
		Category: "policy",
	})
	if !strings.Contains(policy.Content, "추진하겠습니다") {
		t.Errorf("policy category must not neutralize pledges:\n%s", policy.Content)
	}
}

func TestCheckRiskPhrasesFlagWithoutRewrite(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:   "지역 현안 보고",
		Content: "이런 퍼주기 정책은 문제가 있습니다.",
		Stage:   "일반",
	})

	if !strings.Contains(result.Content, "퍼주기") {
		t.Errorf("risk phrases must not be rewritten:\n%s", result.Content)
	}
	var found bool
	for _, issue := range result.Report.Issues {
		if issue.Type == IssuePoliticalRisk && issue.Severity == SeverityMedium {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a %s issue, got %+v", IssuePoliticalRisk, result.Report.Issues)
	}
	// Medium never blocks on its own.
	if !result.Report.Passed {
		t.Errorf("medium-only report should pass, got %+v", result.Report)
	}
}

func TestCheckSelfCriticismOverride(t *testing.T) {
	engine := newTestEngine(t)

	flagged := engine.Check(Input{
		Title:   "지역 현안 보고",
		Content: "우리 당이 이번 사안에서 잘못했다는 지적이 있습니다.",
		Stage:   "일반",
	})
	var found bool
	for _, issue := range flagged.Report.Issues {
		if issue.Type == IssueSelfCriticism {
			found = true
		}
	}
	if !found {
		t.Errorf("expected self-criticism flag, got %+v", flagged.Report.Issues)
	}

	// The same sentence inside an opposition-criticism context is fine.
	suppressed := engine.Check(Input{
		Title:   "지역 현안 보고",
		Content: "야당의 주장과 달리, 우리 당이 이번 사안에서 잘못했다는 지적은 근거가 없습니다.",
		Stage:   "일반",
	})
	for _, issue := range suppressed.Report.Issues {
		if issue.Type == IssueSelfCriticism {
			t.Errorf("override keyword should suppress the flag, got %+v", issue)
		}
	}
}

func TestCheckFamilyConsistency(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:       "주말 공원 산책",
		Content:     "아이를 키우는 아빠로서 공원을 둘러봤습니다. 시설 상태를 확인했습니다.",
		Stage:       "일반",
		HasChildren: false,
	})

	if strings.Contains(result.Content, "아이를 키우는 아빠로서") {
		t.Errorf("family phrase survived for a childless profile:\n%s", result.Content)
	}
	var found bool
	for _, issue := range result.Report.Issues {
		if issue.Type == IssueFamilyConsistency && issue.AutoFixed {
			found = true
		}
	}
	if !found {
		t.Errorf("expected auto-fixed family issue, got %+v", result.Report.Issues)
	}

	withKids := engine.Check(Input{
		Title:       "주말 공원 산책",
		Content:     "아이를 키우는 아빠로서 공원을 둘러봤습니다.",
		Stage:       "일반",
		HasChildren: true,
	})
	if !strings.Contains(withKids.Content, "아이를 키우는 아빠로서") {
		t.Errorf("family phrase must survive when the profile has children:\n%s", withKids.Content)
	}
}

func TestCheckFactGuard(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:     "공단 입주 현황 점검",
		Content:   "올해 28개사가 입주했고 내년에는 30개사가 들어옵니다.",
		Stage:     "일반",
		Allowlist: map[string]struct{}{"28개사": {}},
	})

	var flagged []string
	for _, issue := range result.Report.Issues {
		if issue.Type == IssueUnverifiedNumber {
			flagged = append(flagged, issue.Match)
		}
	}
	if len(flagged) != 1 || flagged[0] != "30개사" {
		t.Errorf("expected only 30개사 flagged, got %v", flagged)
	}
	// Low severity: the guard informs, never blocks.
	if !result.Report.Passed {
		t.Errorf("fact guard must not block, report = %+v", result.Report)
	}

	// Nil allowlist disables the stage entirely.
	off := engine.Check(Input{
		Title:   "공단 입주 현황 점검",
		Content: "올해 28개사가 입주했습니다.",
		Stage:   "일반",
	})
	for _, issue := range off.Report.Issues {
		if issue.Type == IssueUnverifiedNumber {
			t.Errorf("fact guard ran without an allowlist: %+v", issue)
		}
	}
}

func TestCheckRunawayStructure(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:   "주간 활동 보고",
		Content: "이번 주 활동을 정리했습니다.\n\n감사합니다.\n\n추가 단락이 계속 이어집니다.",
		Stage:   "일반",
	})

	var found bool
	for _, issue := range result.Report.Issues {
		if issue.Type == IssueRunawayStructure {
			found = true
		}
	}
	if !found {
		t.Errorf("expected runaway structure issue, got %+v", result.Report.Issues)
	}
}

func TestCheckIncompleteSentence(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Check(Input{
		Title:   "주간 활동 보고",
		Content: "주민들과 함께 이야기를 나누던 중에 갑자기 멈춘 문장으로서",
		Stage:   "일반",
	})

	var found bool
	for _, issue := range result.Report.Issues {
		if issue.Type == IssueIncompleteSentence {
			found = true
		}
	}
	if !found {
		t.Errorf("expected incomplete sentence issue, got %+v", result.Report.Issues)
	}
}
