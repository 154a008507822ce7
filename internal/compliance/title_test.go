package compliance

import (
	"strings"
	"testing"
)

func titleIssueTypes(r *Result) []string {
	var out []string
	for _, issue := range r.Report.TitleIssues {
		out = append(out, issue.Type)
	}
	return out
}

func hasIssue(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func TestTitleNumberGuard(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("title number missing from body blocks", func(t *testing.T) {
		result := engine.Check(Input{
			Title:   "수출 실적 27위 달성",
			Content: "수출 실적이 크게 개선되었습니다.",
			Stage:   "일반",
		})
		if !hasIssue(titleIssueTypes(result), IssueTitleNumberMismatch) {
			t.Fatalf("expected %s, got %+v", IssueTitleNumberMismatch, result.Report.TitleIssues)
		}
		if result.Report.Passed {
			t.Error("unverified title number must block publication")
		}
	})

	t.Run("title number backed by body passes", func(t *testing.T) {
		result := engine.Check(Input{
			Title:   "공단 입주 기업 28개사",
			Content: "올해 공단에 입주한 기업은 28개사로 늘었습니다.",
			Stage:   "일반",
		})
		for _, issue := range result.Report.TitleIssues {
			if issue.Type == IssueTitleNumberMismatch && issue.Severity == SeverityHigh {
				t.Errorf("28개사 appears in the body, got %+v", issue)
			}
		}
		if !result.Report.Passed {
			t.Errorf("expected pass, report = %+v", result.Report)
		}
	})

	t.Run("body numbers without any in title is advisory", func(t *testing.T) {
		result := engine.Check(Input{
			Title:   "공단 입주 현황",
			Content: "올해 28개사가 입주했습니다.",
			Stage:   "일반",
		})
		var sev Severity
		for _, issue := range result.Report.TitleIssues {
			if issue.Type == IssueTitleNumberMismatch {
				sev = issue.Severity
			}
		}
		if sev != SeverityLow {
			t.Errorf("expected low advisory, got %q", sev)
		}
		if !result.Report.Passed {
			t.Errorf("advisory must not block, report = %+v", result.Report)
		}
	})
}

func TestTitleValidation(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("missing title", func(t *testing.T) {
		result := engine.Check(Input{Title: "  ", Content: "본문입니다.", Stage: "일반"})
		if !hasIssue(titleIssueTypes(result), IssueTitleMissing) {
			t.Fatalf("expected %s, got %+v", IssueTitleMissing, result.Report.TitleIssues)
		}
		if result.Report.Passed {
			t.Error("missing title must block publication")
		}
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("가", 26)
		result := engine.Check(Input{Title: long, Content: "본문입니다.", Stage: "일반"})
		if !hasIssue(titleIssueTypes(result), IssueTitleTooLong) {
			t.Errorf("expected %s for %d-rune title, got %+v", IssueTitleTooLong, 26, result.Report.TitleIssues)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		result := engine.Check(Input{Title: strings.Repeat("가", 25), Content: "본문입니다.", Stage: "일반"})
		if hasIssue(titleIssueTypes(result), IssueTitleTooLong) {
			t.Errorf("25 runes is within the limit, got %+v", result.Report.TitleIssues)
		}
	})

	t.Run("separator", func(t *testing.T) {
		result := engine.Check(Input{Title: "오늘의 기록: 공원에서", Content: "본문입니다.", Stage: "일반"})
		if !hasIssue(titleIssueTypes(result), IssueTitleSeparator) {
			t.Errorf("expected %s, got %+v", IssueTitleSeparator, result.Report.TitleIssues)
		}
	})

	t.Run("promissory word", func(t *testing.T) {
		result := engine.Check(Input{Title: "반드시 지키는 사람", Content: "본문입니다.", Stage: "일반"})
		if !hasIssue(titleIssueTypes(result), IssueTitlePromissory) {
			t.Fatalf("expected %s, got %+v", IssueTitlePromissory, result.Report.TitleIssues)
		}
		if result.Report.Passed {
			t.Error("promissory title must block publication")
		}
	})
}
