package compliance

import (
	"strings"
)

// Stage 10: structural sanity. Two signals of a runaway or truncated
// generation: body paragraphs continuing after a closing salutation,
// and long sentences that never reach a sentence-final particle.
func (e *Engine) structuralSanity(st *runState) {
	st.checkRunaway(e.rules.Closings)
	st.checkIncompleteSentences()
}

func (st *runState) checkRunaway(closings []string) {
	paragraphs := splitParagraphs(st.content)
	closingIdx := -1
	for i, p := range paragraphs {
		for _, c := range closings {
			if strings.Contains(p, c) {
				closingIdx = i
				break
			}
		}
		if closingIdx >= 0 {
			break
		}
	}
	if closingIdx < 0 || closingIdx == len(paragraphs)-1 {
		return
	}
	st.issues = append(st.issues, Issue{
		Type:     IssueRunawayStructure,
		Severity: SeverityMedium,
		Match:    snippet(paragraphs[closingIdx+1], 40),
		Reason:   "맺음 인사 뒤에 본문 문단이 이어집니다",
	})
}

// A sentence over 20 characters without a sentence-final particle is a
// soft defect (mid-sentence truncation by the model).
func (st *runState) checkIncompleteSentences() {
	for _, s := range splitSentences(st.content) {
		if runeLen(s) <= 20 || isCompleteSentence(s) {
			continue
		}
		st.issues = append(st.issues, Issue{
			Type:     IssueIncompleteSentence,
			Severity: SeverityLow,
			Match:    snippet(s, 40),
			Reason:   "문장이 완결되지 않았습니다",
		})
	}
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
