package generation

import (
	"fmt"
	"strings"

	"podium/internal/compliance"
	"podium/internal/domain/models"
)

// Prompt builders are pure functions; every model call in the pipeline
// goes through one of these so prompts stay reviewable in one place.

const keywordSystem = "너는 정치인 블로그 원고의 기획을 돕는 편집자다. 지시한 형식 외의 설명은 출력하지 않는다."

func buildKeywordPrompt(topic, instructions, newsContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "주제: %s\n", topic)
	if instructions != "" {
		fmt.Fprintf(&b, "작성 지침: %s\n", instructions)
	}
	if newsContext != "" {
		fmt.Fprintf(&b, "참고 자료:\n%s\n", newsContext)
	}
	b.WriteString("\n위 주제로 본문 3개 단락 각각의 핵심어를 뽑아라. ")
	b.WriteString("핵심어 3개를 쉼표로만 구분해 한 줄로 출력하라.")
	return b.String()
}

const sectionSystem = "너는 정치인의 블로그 원고를 대신 쓰는 작가다. 과장과 단정적 공약 표현을 피하고, 지시된 단락만 출력한다."

// sectionLengthBand returns the target character band (markup excluded)
// for a section type.
func sectionLengthBand(t models.SectionType) (min, max int) {
	switch t {
	case models.SectionIntro, models.SectionOutro:
		return 350, 400
	default:
		return 400, 500
	}
}

func buildSectionPrompt(spec models.SectionSpec, topic string, profile *models.UserProfile, contextText string) string {
	minLen, maxLen := sectionLengthBand(spec.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "주제: %s\n", topic)
	fmt.Fprintf(&b, "단락 역할: %s\n", spec.Guide)
	if spec.Keyword != "" {
		fmt.Fprintf(&b, "핵심어: %s\n", spec.Keyword)
	}
	if profile.Region != "" {
		fmt.Fprintf(&b, "지역: %s\n", profile.Region)
	}
	if profile.Tone != "" {
		fmt.Fprintf(&b, "어조: %s\n", profile.Tone)
	}
	if contextText != "" {
		fmt.Fprintf(&b, "참고 맥락:\n%s\n", contextText)
	}
	fmt.Fprintf(&b, "\n공백 포함 %d~%d자 분량의 단락 하나만 출력하라. ", minLen, maxLen)
	b.WriteString("제목이나 머리글 없이 본문 문장만 쓴다.")
	return b.String()
}

const correctionSystem = "너는 선거법과 정치적 리스크를 아는 교정 전문가다. 지적된 문제를 모두 해결한 전체 원고를 다시 쓴다."

func buildCorrectionPrompt(draft *models.Draft, issues []compliance.Issue) string {
	var b strings.Builder
	b.WriteString("아래 원고에서 다음 문제들이 발견되었다.\n\n")
	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, issue.Severity, issue.Reason)
		if issue.Match != "" {
			fmt.Fprintf(&b, " (해당 표현: %q)", issue.Match)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n현재 제목: %s\n\n현재 본문:\n%s\n\n", draft.Title, draft.Content)
	b.WriteString("문제를 모두 고친 원고를 출력하라. 첫 줄은 \"제목: \"으로 시작하는 새 제목(25자 이내), ")
	b.WriteString("한 줄 비우고 그 아래 전체 본문을 쓴다. 단락 구성은 유지한다.")
	return b.String()
}

// parseCorrectionResponse splits the corrector's reply into title and
// content. A reply without the title line keeps the previous title.
func parseCorrectionResponse(raw, fallbackTitle string) (title, content string) {
	raw = strings.TrimSpace(raw)
	title = fallbackTitle
	lines := strings.SplitN(raw, "\n", 2)
	if strings.HasPrefix(lines[0], "제목:") {
		title = strings.TrimSpace(strings.TrimPrefix(lines[0], "제목:"))
		if len(lines) > 1 {
			content = strings.TrimSpace(lines[1])
		}
		return title, content
	}
	return title, raw
}

// parseKeywords pulls up to max keywords out of the model's reply.
func parseKeywords(raw string, max int) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		kw := strings.Trim(strings.TrimSpace(part), "\"'·-• ")
		if kw == "" {
			continue
		}
		out = append(out, kw)
		if len(out) == max {
			break
		}
	}
	return out
}
