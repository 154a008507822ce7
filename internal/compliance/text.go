package compliance

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// numericTokenRe matches a number plus its immediate unit. The unit
// alternation is ordered longest-first so "개사" wins over "개".
var numericTokenRe = regexp.MustCompile(
	`[0-9]+(?:[.,][0-9]+)*(?:%|퍼센트|개사|시간|명|년|월|일|개|위|억|만|천|호|건|회|차|대|곳|배|원|분|석|표|세)?`)

// NumericTokens extracts all normalized numeric tokens (number+unit,
// percentages, years) from s, in order of appearance.
func NumericTokens(s string) []string {
	matches := numericTokenRe.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// numericTokenSet returns the tokens of s as a set for subset checks.
func numericTokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range NumericTokens(s) {
		set[tok] = struct{}{}
	}
	return set
}

// splitSentences breaks text on sentence-final punctuation and blank
// lines. Delimiters stay attached to their sentence so rewrites can
// splice sentences back without losing punctuation.
func splitSentences(text string) []string {
	var (
		sentences []string
		cur       strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}
	for _, r := range text {
		cur.WriteRune(r)
		switch r {
		case '.', '!', '?', '\n':
			flush()
		}
	}
	flush()
	return sentences
}

// sentence-final endings considered complete for Korean prose.
var completeEndings = []string{"다", "요", "까", "죠", "네", "오", "자", "라", "…"}

// isCompleteSentence reports whether s ends in a sentence-final particle
// (after stripping trailing punctuation and quotes).
func isCompleteSentence(s string) bool {
	s = strings.TrimRight(s, ".!?\"'”’) \t")
	if s == "" {
		return true
	}
	for _, end := range completeEndings {
		if strings.HasSuffix(s, end) {
			return true
		}
	}
	return false
}

// runeLen counts characters the way the title limit is defined: runes,
// not bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// snippet caps a match string for reporting.
func snippet(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
