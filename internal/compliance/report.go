package compliance

// Severity ranks how strongly an issue blocks publication.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Issue types, one per rule class. Names describe what was matched, not
// which stage found it.
const (
	IssueBannedTerm          = "banned_term"
	IssuePolicyBannedTerm    = "policy_banned_term"
	IssueElectionLaw         = "election_law_phrasing"
	IssuePrescriptive        = "prescriptive_language"
	IssuePoliticalRisk       = "political_risk"
	IssueSelfCriticism       = "self_criticism"
	IssueFamilyConsistency   = "family_consistency"
	IssueTitleMissing        = "title_missing"
	IssueTitleTooLong        = "title_too_long"
	IssueTitleNumberMismatch = "title_number_mismatch"
	IssueTitleSeparator      = "title_separator"
	IssueTitlePromissory     = "title_promissory"
	IssueUnverifiedNumber    = "unverified_number"
	IssueRunawayStructure    = "runaway_structure"
	IssueIncompleteSentence  = "incomplete_sentence"
)

// Issue is one finding. AutoFixed means the engine already rewrote the
// offending text; the finding stays on the report for the reviewer but
// no longer blocks a pass.
type Issue struct {
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
	Match     string   `json:"match"`
	Reason    string   `json:"reason"`
	AutoFixed bool     `json:"auto_fixed"`
}

// Replacement records one substitution the engine applied.
type Replacement struct {
	Original string `json:"original"`
	Replaced string `json:"replaced"`
}

// Report is the outcome of one engine run.
type Report struct {
	Passed       bool          `json:"passed"`
	Score        float64       `json:"score"`
	Issues       []Issue       `json:"issues"`
	TitleIssues  []Issue       `json:"title_issues"`
	Replacements []Replacement `json:"replacements"`
}

// AllIssues returns body and title issues as one list, the way the
// Corrector and the scorer consume them.
func (r *Report) AllIssues() []Issue {
	out := make([]Issue, 0, len(r.Issues)+len(r.TitleIssues))
	out = append(out, r.Issues...)
	out = append(out, r.TitleIssues...)
	return out
}

// Score derives the numeric pass/fail score from an issue list:
// 10 − 5·critical − 2·high − 0.5·everything else, floored at 0.
// Auto-fixed findings count as "everything else" regardless of their
// original severity, because the text no longer contains the match.
func Score(issues []Issue) float64 {
	crit, high, other := countBySeverity(issues)
	score := 10 - 5*float64(crit) - 2*float64(high) - 0.5*float64(other)
	if score < 0 {
		return 0
	}
	return score
}

// Passed reports whether an issue list blocks publication: true iff no
// outstanding (non-auto-fixed) critical or high finding remains.
func Passed(issues []Issue) bool {
	crit, high, _ := countBySeverity(issues)
	return crit == 0 && high == 0
}

func countBySeverity(issues []Issue) (crit, high, other int) {
	for _, is := range issues {
		switch {
		case is.AutoFixed:
			other++
		case is.Severity == SeverityCritical:
			crit++
		case is.Severity == SeverityHigh:
			high++
		default:
			other++
		}
	}
	return crit, high, other
}
