package compliance

import (
	"embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var ruleFiles embed.FS

// Rule is one rewrite/flag record. Exactly one of Pattern (regex) or
// Literal (plain substring) is set.
type Rule struct {
	Pattern string `yaml:"pattern,omitempty"`
	Literal string `yaml:"literal,omitempty"`
	Replace string `yaml:"replace"`
	Reason  string `yaml:"reason"`
}

// StageRules is the phrasing table for one election stage.
type StageRules struct {
	Patterns []Rule            `yaml:"patterns"`
	Literals map[string]string `yaml:"literals"`
}

// RuleSet is the full data backing of the engine, as loaded from YAML.
type RuleSet struct {
	UniversalBans []Rule                `yaml:"universal_bans"`
	Stages        map[string]StageRules `yaml:"stages"`
	RiskPhrases   []Rule                `yaml:"risk_phrases"`
	SelfCriticism struct {
		Patterns  []Rule   `yaml:"patterns"`
		Overrides []string `yaml:"overrides"`
	} `yaml:"self_criticism"`
	FamilyPhrases []string `yaml:"family_phrases"`
	Prescriptive  struct {
		Markers     []string `yaml:"markers"`
		Placeholder string   `yaml:"placeholder"`
	} `yaml:"prescriptive"`
	Title struct {
		MaxLength  int      `yaml:"max_length"`
		Separators []string `yaml:"separators"`
		Promissory []string `yaml:"promissory"`
	} `yaml:"title"`
	Closings []string `yaml:"closings"`
}

// compiledRule is a Rule with its regex compiled once at load time.
type compiledRule struct {
	re      *regexp.Regexp
	literal string
	replace string
	reason  string
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{literal: r.Literal, replace: r.Replace, reason: r.Reason}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compile rule pattern %q: %w", r.Pattern, err)
			}
			cr.re = re
		}
		out = append(out, cr)
	}
	return out, nil
}

// LoadDefaultRuleSet parses the embedded rule tables.
func LoadDefaultRuleSet() (*RuleSet, error) {
	data, err := ruleFiles.ReadFile("rules/default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded rule file: %w", err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet parses a YAML rule document and validates the parts the
// engine cannot run without.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal rule set: %w", err)
	}
	if rs.Title.MaxLength == 0 {
		rs.Title.MaxLength = 25
	}
	if rs.Prescriptive.Placeholder == "" {
		return nil, fmt.Errorf("rule set missing prescriptive placeholder")
	}
	return &rs, nil
}
