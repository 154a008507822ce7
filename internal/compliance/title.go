package compliance

import (
	"fmt"
	"strings"
)

// Stage 8: title validation, run independently against the title
// string. A missing title is itself a finding; title checking is never
// silently skipped.
func (e *Engine) titleValidation(st *runState) {
	title := strings.TrimSpace(st.title)
	if title == "" {
		st.titleIssues = append(st.titleIssues, Issue{
			Type:     IssueTitleMissing,
			Severity: SeverityHigh,
			Reason:   "제목이 없습니다",
		})
		return
	}

	if n := runeLen(title); n > e.rules.Title.MaxLength {
		st.titleIssues = append(st.titleIssues, Issue{
			Type:     IssueTitleTooLong,
			Severity: SeverityMedium,
			Match:    snippet(title, 30),
			Reason:   fmt.Sprintf("제목은 %d자 이내여야 합니다 (현재 %d자)", e.rules.Title.MaxLength, n),
		})
	}

	for _, sep := range e.rules.Title.Separators {
		if strings.Contains(title, sep) {
			st.titleIssues = append(st.titleIssues, Issue{
				Type:     IssueTitleSeparator,
				Severity: SeverityLow,
				Match:    sep,
				Reason:   "제목에 부제 구분 기호를 쓸 수 없습니다",
			})
			break
		}
	}

	for _, word := range e.rules.Title.Promissory {
		if strings.Contains(title, word) {
			st.titleIssues = append(st.titleIssues, Issue{
				Type:     IssueTitlePromissory,
				Severity: SeverityHigh,
				Match:    word,
				Reason:   "제목에 공약성 단어를 쓸 수 없습니다",
			})
		}
	}

	st.titleNumberGuard(title)
}

// titleNumberGuard enforces the hallucinated-statistic rule: every
// numeric token in the title must also appear in the body, and a body
// that cites numbers expects the title to carry one.
func (st *runState) titleNumberGuard(title string) {
	titleTokens := NumericTokens(title)
	bodyTokens := numericTokenSet(st.content)

	for _, tok := range titleTokens {
		if _, ok := bodyTokens[tok]; !ok {
			st.titleIssues = append(st.titleIssues, Issue{
				Type:     IssueTitleNumberMismatch,
				Severity: SeverityHigh,
				Match:    tok,
				Reason:   "제목의 수치가 본문에 없습니다",
			})
		}
	}

	if len(bodyTokens) > 0 && len(titleTokens) == 0 {
		st.titleIssues = append(st.titleIssues, Issue{
			Type:     IssueTitleNumberMismatch,
			Severity: SeverityLow,
			Reason:   "본문에 수치가 있으나 제목에는 없습니다",
		})
	}
}
