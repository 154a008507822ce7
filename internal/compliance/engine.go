// Package compliance validates and auto-corrects generated drafts
// against the election-law, political-risk, and factual-consistency
// rule tables. The engine is pure: no I/O, no model calls, only
// pattern-driven rewriting over the supplied text.
package compliance

import (
	"fmt"
	"regexp"
	"strings"
)

// Input is one document to check. Stage selects the election-law table,
// Category drives prescriptive-language neutralization, Allowlist (when
// non-nil) enables the numeric fact guard.
type Input struct {
	Title       string
	Content     string
	Stage       string
	Category    string
	HasChildren bool
	// ExtraBans are dynamically supplied forbidden terms (policy bans),
	// merged in after the universal table.
	ExtraBans []Rule
	// Allowlist holds the numeric tokens considered evidenced for this
	// draft. Nil disables the fact guard entirely.
	Allowlist map[string]struct{}
}

// Result carries the possibly-rewritten document and its report.
type Result struct {
	Title   string
	Content string
	Report  Report
}

// Engine runs the ordered battery of checking stages. Construct once,
// share freely; Check is safe for concurrent use.
type Engine struct {
	rules         *RuleSet
	universal     []compiledRule
	stagePatterns map[string][]compiledRule
	risk          []compiledRule
	selfCrit      []compiledRule
}

// NewEngine compiles the rule tables.
func NewEngine(rs *RuleSet) (*Engine, error) {
	universal, err := compileRules(rs.UniversalBans)
	if err != nil {
		return nil, fmt.Errorf("universal bans: %w", err)
	}
	stagePatterns := make(map[string][]compiledRule, len(rs.Stages))
	for name, sr := range rs.Stages {
		compiled, err := compileRules(sr.Patterns)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		stagePatterns[name] = compiled
	}
	risk, err := compileRules(rs.RiskPhrases)
	if err != nil {
		return nil, fmt.Errorf("risk phrases: %w", err)
	}
	selfCrit, err := compileRules(rs.SelfCriticism.Patterns)
	if err != nil {
		return nil, fmt.Errorf("self criticism: %w", err)
	}
	return &Engine{
		rules:         rs,
		universal:     universal,
		stagePatterns: stagePatterns,
		risk:          risk,
		selfCrit:      selfCrit,
	}, nil
}

// runState is the accumulator the stage fold mutates.
type runState struct {
	in           *Input
	title        string
	content      string
	issues       []Issue
	titleIssues  []Issue
	replacements []Replacement
}

type stageFunc func(*runState)

// Check runs every stage in its fixed order and derives the final
// score. A non-compliant draft is a normal outcome, not an error, so
// Check never fails.
func (e *Engine) Check(in Input) *Result {
	st := &runState{
		in:      &in,
		title:   in.Title,
		content: in.Content,
	}

	stages := []stageFunc{
		e.universalBans,
		e.policyBans,
		e.stagePhrasing,
		e.neutralizePrescriptive,
		e.riskPhrases,
		e.selfCriticism,
		e.familyConsistency,
		e.titleValidation,
		e.factGuard,
		e.structuralSanity,
	}
	for _, stage := range stages {
		stage(st)
	}

	all := append(append([]Issue{}, st.issues...), st.titleIssues...)
	return &Result{
		Title:   st.title,
		Content: st.content,
		Report: Report{
			Passed:       Passed(all),
			Score:        Score(all),
			Issues:       st.issues,
			TitleIssues:  st.titleIssues,
			Replacements: st.replacements,
		},
	}
}

// applyRewrites runs one rule table over title and content, recording a
// replacement plus one issue per distinct match.
func (st *runState) applyRewrites(rules []compiledRule, issueType string, sev Severity, reason string) {
	for _, r := range rules {
		ruleReason := r.reason
		if ruleReason == "" {
			ruleReason = reason
		}
		if r.re != nil {
			st.rewriteRegexp(r.re, r.replace, issueType, sev, ruleReason)
			continue
		}
		if r.literal != "" {
			st.rewriteLiteral(r.literal, r.replace, issueType, sev, ruleReason)
		}
	}
}

func (st *runState) rewriteRegexp(re *regexp.Regexp, replace, issueType string, sev Severity, reason string) {
	for _, match := range dedupe(re.FindAllString(st.content, -1), re.FindAllString(st.title, -1)) {
		st.recordFix(match, replace, issueType, sev, reason)
	}
	st.content = re.ReplaceAllString(st.content, replace)
	st.title = re.ReplaceAllString(st.title, replace)
}

func (st *runState) rewriteLiteral(literal, replace, issueType string, sev Severity, reason string) {
	if !strings.Contains(st.content, literal) && !strings.Contains(st.title, literal) {
		return
	}
	st.recordFix(literal, replace, issueType, sev, reason)
	st.content = strings.ReplaceAll(st.content, literal, replace)
	st.title = strings.ReplaceAll(st.title, literal, replace)
}

func (st *runState) recordFix(match, replace, issueType string, sev Severity, reason string) {
	st.replacements = append(st.replacements, Replacement{Original: match, Replaced: replace})
	st.issues = append(st.issues, Issue{
		Type:      issueType,
		Severity:  sev,
		Match:     snippet(match, 40),
		Reason:    reason,
		AutoFixed: true,
	})
}

// Stage 1: absolute prohibitions, always auto-replaced.
func (e *Engine) universalBans(st *runState) {
	st.applyRewrites(e.universal, IssueBannedTerm, SeverityCritical, "절대 금지 표현")
}

// Stage 2: externally supplied policy bans. Uncompilable patterns are
// treated as literals so a bad admin entry cannot take the engine down.
func (e *Engine) policyBans(st *runState) {
	if len(st.in.ExtraBans) == 0 {
		return
	}
	compiled := make([]compiledRule, 0, len(st.in.ExtraBans))
	for _, r := range st.in.ExtraBans {
		cr := compiledRule{literal: r.Literal, replace: r.Replace, reason: r.Reason}
		if r.Pattern != "" {
			if re, err := regexp.Compile(r.Pattern); err == nil {
				cr.re = re
			} else {
				cr.literal = r.Pattern
			}
		}
		compiled = append(compiled, cr)
	}
	st.applyRewrites(compiled, IssuePolicyBannedTerm, SeverityHigh, "정책상 금지 표현")
}

// Stage 3: election-law phrasing for the declared candidacy stage.
// Regex rules first, then the literal substitution map.
func (e *Engine) stagePhrasing(st *runState) {
	patterns, ok := e.stagePatterns[st.in.Stage]
	if ok {
		st.applyRewrites(patterns, IssueElectionLaw, SeverityHigh, "선거법 관련 표현")
	}
	sr, ok := e.rules.Stages[st.in.Stage]
	if !ok {
		return
	}
	for from, to := range sr.Literals {
		st.rewriteLiteral(from, to, IssueElectionLaw, SeverityHigh, "선거법 관련 표현")
	}
}

// Stage 4: current-affairs drafts must stay diagnostic. Sentences with
// prescriptive markers are swapped for a neutral placeholder.
func (e *Engine) neutralizePrescriptive(st *runState) {
	if st.in.Category != "current-affairs" {
		return
	}
	placeholder := e.rules.Prescriptive.Placeholder
	sentences := splitSentences(st.content)
	for _, s := range sentences {
		if s == placeholder {
			continue
		}
		for _, marker := range e.rules.Prescriptive.Markers {
			if strings.Contains(s, marker) {
				st.content = strings.Replace(st.content, s, placeholder, 1)
				st.recordFix(snippet(s, 40), placeholder, IssuePrescriptive, SeverityMedium, "시사진단 글에는 정책 공약성 문장을 쓸 수 없습니다")
				break
			}
		}
	}
}

// Stage 5: political-risk phrases. Flag only, no rewriting.
func (e *Engine) riskPhrases(st *runState) {
	for _, r := range e.risk {
		var match string
		if r.re != nil {
			match = r.re.FindString(st.content)
		} else if strings.Contains(st.content, r.literal) {
			match = r.literal
		}
		if match == "" {
			continue
		}
		st.issues = append(st.issues, Issue{
			Type:     IssuePoliticalRisk,
			Severity: SeverityMedium,
			Match:    snippet(match, 40),
			Reason:   r.reason,
		})
	}
}

// Stage 6: self-criticism risk, suppressed entirely when an override
// keyword shows the criticism targets the other side.
func (e *Engine) selfCriticism(st *runState) {
	for _, kw := range e.rules.SelfCriticism.Overrides {
		if strings.Contains(st.content, kw) {
			return
		}
	}
	for _, r := range e.selfCrit {
		if r.re == nil {
			continue
		}
		if match := r.re.FindString(st.content); match != "" {
			st.issues = append(st.issues, Issue{
				Type:     IssueSelfCriticism,
				Severity: SeverityMedium,
				Match:    snippet(match, 40),
				Reason:   r.reason,
			})
		}
	}
}

// Stage 7: hallucination guard against the profile. A writer with no
// children must not publish family anecdotes.
func (e *Engine) familyConsistency(st *runState) {
	if st.in.HasChildren {
		return
	}
	for _, phrase := range e.rules.FamilyPhrases {
		if !strings.Contains(st.content, phrase) {
			continue
		}
		st.content = strings.ReplaceAll(st.content, phrase, "")
		st.replacements = append(st.replacements, Replacement{Original: phrase, Replaced: ""})
		st.issues = append(st.issues, Issue{
			Type:      IssueFamilyConsistency,
			Severity:  SeverityCritical,
			Match:     phrase,
			Reason:    "프로필과 모순되는 가족 언급",
			AutoFixed: true,
		})
	}
}

// Stage 9: numeric tokens not present in the fact allowlist. Logged as
// low severity; the allowlist is best-effort, so this never blocks.
func (e *Engine) factGuard(st *runState) {
	if st.in.Allowlist == nil {
		return
	}
	seen := make(map[string]struct{})
	for _, tok := range append(NumericTokens(st.title), NumericTokens(st.content)...) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := st.in.Allowlist[tok]; ok {
			continue
		}
		st.issues = append(st.issues, Issue{
			Type:     IssueUnverifiedNumber,
			Severity: SeverityLow,
			Match:    tok,
			Reason:   "근거 자료에 없는 수치",
		})
	}
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
