package rules

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// Store holds the user-configurable security rules. All operations are
// safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	rules    []core.SecurityRule
	compiled map[string]*regexp.Regexp
}

// NewStore creates a rule store seeded with the default rule set
func NewStore() *Store {
	s := &Store{compiled: make(map[string]*regexp.Regexp)}
	for _, rule := range defaultRules() {
		// Defaults are known-good patterns
		_, _ = s.Add(rule)
	}
	return s
}

func defaultRules() []core.SecurityRule {
	return []core.SecurityRule{
		{
			Name:        "Dangerous attachments",
			Description: "Block emails with executable attachments",
			Type:        core.RuleTypeAttachment,
			Rule:        `\.(exe|scr|bat|cmd|com|pif|vbs|js|jar)$`,
			Action:      core.RuleActionBlock,
			Severity:    core.SeverityCritical,
			Enabled:     true,
		},
		{
			Name:        "Urgent financial requests",
			Description: "Flag urgent language combined with payment requests",
			Type:        core.RuleTypePattern,
			Rule:        `urgent.{0,80}(wire|transfer|payment)`,
			Action:      core.RuleActionFlag,
			Severity:    core.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "Lottery and inheritance scams",
			Description: "Quarantine classic advance-fee scam language",
			Type:        core.RuleTypePattern,
			Rule:        `(lottery|inheritance|unclaimed funds?)`,
			Action:      core.RuleActionQuarantine,
			Severity:    core.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "Suspicious top-level domains",
			Description: "Warn on senders from high-abuse registries",
			Type:        core.RuleTypeDomain,
			Rule:        `\.(tk|ml|ga|cf)$`,
			Action:      core.RuleActionWarn,
			Severity:    core.SeverityMedium,
			Enabled:     true,
		},
		{
			Name:        "Account verification requests",
			Description: "Flag credential verification language",
			Type:        core.RuleTypePattern,
			Rule:        `(verify|confirm).{0,40}(account|identity|password)`,
			Action:      core.RuleActionFlag,
			Severity:    core.SeverityMedium,
			Enabled:     true,
		},
	}
}

// needsCompile reports whether a rule type is matched as a regex
func needsCompile(t core.RuleType) bool {
	switch t {
	case core.RuleTypePattern, core.RuleTypeDomain, core.RuleTypeAttachment, core.RuleTypeHeader:
		return true
	default:
		return false
	}
}

// List returns a copy of all rules
func (s *Store) List() []core.SecurityRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.SecurityRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Add validates the rule, assigns it a fresh id, and appends it. Regex-type
// rules that do not compile are rejected up front rather than failing at
// match time.
func (s *Store) Add(rule core.SecurityRule) (string, error) {
	var re *regexp.Regexp
	if needsCompile(rule.Type) {
		var err error
		re, err = regexp.Compile(rule.Rule)
		if err != nil {
			return "", fmt.Errorf("invalid %s rule pattern %q: %w", rule.Type, rule.Rule, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rule.ID = uuid.NewString()
	s.rules = append(s.rules, rule)
	if re != nil {
		s.compiled[rule.ID] = re
	}
	return rule.ID, nil
}

// Update merges non-nil patch fields into the rule with the given id.
// It returns false when the id is unknown, and an error when the patched
// pattern does not compile (the rule is left unchanged).
func (s *Store) Update(id string, patch core.RulePatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}

		updated := s.rules[i]
		if patch.Name != nil {
			updated.Name = *patch.Name
		}
		if patch.Description != nil {
			updated.Description = *patch.Description
		}
		if patch.Type != nil {
			updated.Type = *patch.Type
		}
		if patch.Rule != nil {
			updated.Rule = *patch.Rule
		}
		if patch.Action != nil {
			updated.Action = *patch.Action
		}
		if patch.Severity != nil {
			updated.Severity = *patch.Severity
		}
		if patch.Enabled != nil {
			updated.Enabled = *patch.Enabled
		}

		if needsCompile(updated.Type) {
			re, err := regexp.Compile(updated.Rule)
			if err != nil {
				return false, fmt.Errorf("invalid %s rule pattern %q: %w", updated.Type, updated.Rule, err)
			}
			s.compiled[id] = re
		} else {
			delete(s.compiled, id)
		}

		s.rules[i] = updated
		return true, nil
	}

	return false, nil
}

// Delete removes the rule with the given id, reporting whether it existed
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			delete(s.compiled, id)
			return true
		}
	}
	return false
}

// snapshot returns the enabled rules together with their compiled patterns
func (s *Store) snapshot() ([]core.SecurityRule, map[string]*regexp.Regexp) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled := make([]core.SecurityRule, 0, len(s.rules))
	compiled := make(map[string]*regexp.Regexp, len(s.compiled))
	for _, r := range s.rules {
		if r.Enabled {
			enabled = append(enabled, r)
			if re, ok := s.compiled[r.ID]; ok {
				compiled[r.ID] = re
			}
		}
	}
	return enabled, compiled
}
