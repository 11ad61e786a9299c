package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// ErrInvalidRule reports a rule table that cannot be used.
var ErrInvalidRule = errors.New("invalid assignment rule")

// AssignmentRule is the static routing default for one category.
type AssignmentRule struct {
	Category           domain.CategoryCode `yaml:"category" json:"category"`
	DepartmentCategory domain.CategoryCode `yaml:"departmentCategory" json:"department_category"`
	Priority           domain.Priority     `yaml:"priority" json:"priority"`
	SLAHours           float64             `yaml:"slaHours" json:"sla_hours"`
}

// SLA returns the rule SLA as a duration.
func (r AssignmentRule) SLA() time.Duration {
	return time.Duration(r.SLAHours * float64(time.Hour))
}

type ruleFile struct {
	Rules    []AssignmentRule `yaml:"rules"`
	Fallback AssignmentRule   `yaml:"fallback"`
}

// RuleSet is an immutable category to rule table.
type RuleSet struct {
	rules    map[domain.CategoryCode]AssignmentRule
	fallback AssignmentRule
}

// NewRuleSet validates rules and builds the table.
func NewRuleSet(rules []AssignmentRule, fallback AssignmentRule) (*RuleSet, error) {
	set := &RuleSet{rules: make(map[domain.CategoryCode]AssignmentRule, len(rules))}
	for _, r := range rules {
		r.Category = domain.NormalizeCategory(string(r.Category))
		if r.DepartmentCategory == "" {
			r.DepartmentCategory = r.Category
		}
		if err := validateRule(r); err != nil {
			return nil, err
		}
		if _, dup := set.rules[r.Category]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidRule, r.Category)
		}
		set.rules[r.Category] = r
	}
	if fallback.Category == "" {
		fallback.Category = domain.CategoryOther
	}
	if err := validateRule(fallback); err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	set.fallback = fallback
	return set, nil
}

func validateRule(r AssignmentRule) error {
	if r.Category == "" {
		return fmt.Errorf("%w: empty category", ErrInvalidRule)
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("%w: %s has priority %q", ErrInvalidRule, r.Category, r.Priority)
	}
	if r.SLAHours <= 0 {
		return fmt.Errorf("%w: %s has non-positive slaHours", ErrInvalidRule, r.Category)
	}
	return nil
}

// LoadRules parses a YAML rule table.
func LoadRules(r io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return parseRules(data)
}

// LoadRulesFile reads rules from path, or the embedded defaults when path is empty.
func LoadRulesFile(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return parseRules(data)
}

// DefaultRules returns the embedded rule table.
func DefaultRules() (*RuleSet, error) {
	return parseRules(defaultRulesYAML)
}

func parseRules(data []byte) (*RuleSet, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return NewRuleSet(file.Rules, file.Fallback)
}

// Lookup returns the rule for category. ok is false when the fallback rule
// was returned.
func (s *RuleSet) Lookup(category domain.CategoryCode) (AssignmentRule, bool) {
	if r, found := s.rules[domain.NormalizeCategory(string(category))]; found {
		return r, true
	}
	return s.fallback, false
}

// Fallback returns the rule used for unknown categories.
func (s *RuleSet) Fallback() AssignmentRule {
	return s.fallback
}

// Rules returns every configured rule ordered by category.
func (s *RuleSet) Rules() []AssignmentRule {
	out := make([]AssignmentRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
