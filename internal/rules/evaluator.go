package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/utils"
)

// ruleConfidence is the fixed confidence assigned to user-rule matches;
// user rules state intent, not probability
const ruleConfidence = 0.70

// detectionTypeFor maps a rule type to the detection type its matches emit
func detectionTypeFor(t core.RuleType) core.DetectionType {
	switch t {
	case core.RuleTypeDomain:
		return core.DetectionSuspiciousDomain
	case core.RuleTypeHeader:
		return core.DetectionSpoofing
	case core.RuleTypeAttachment:
		return core.DetectionMalware
	case core.RuleTypeKeyword:
		return core.DetectionSpam
	default:
		return core.DetectionPhishing
	}
}

// Evaluator applies the enabled rules from a Store to emails. It implements
// the same analyzer interface as the built-in detection strategies so user
// rules run inside the normal pipeline.
type Evaluator struct {
	store         *Store
	textProcessor *utils.TextProcessor
	maxTextSize   int
}

// NewEvaluator creates an evaluator bound to a rule store
func NewEvaluator(store *Store, textProcessor *utils.TextProcessor, maxTextSize int) *Evaluator {
	return &Evaluator{
		store:         store,
		textProcessor: textProcessor,
		maxTextSize:   maxTextSize,
	}
}

// Name returns the analyzer name
func (e *Evaluator) Name() string {
	return "User Rules"
}

// Analyze applies every enabled rule to the email and returns one detection
// per matching rule
func (e *Evaluator) Analyze(email *core.Email) []core.SecurityDetection {
	enabled, compiled := e.store.snapshot()
	if len(enabled) == 0 {
		return nil
	}

	text := strings.ToLower(email.Subject + " " + email.Body)
	if e.textProcessor != nil {
		text = e.textProcessor.ProcessText(text, e.maxTextSize)
	}

	detections := make([]core.SecurityDetection, 0)
	for _, rule := range enabled {
		evidence := e.match(rule, compiled[rule.ID], email, text)
		if evidence == "" {
			continue
		}
		detections = append(detections, core.SecurityDetection{
			Type:        detectionTypeFor(rule.Type),
			Severity:    rule.Severity,
			Description: fmt.Sprintf("Matched rule %q (action: %s)", rule.Name, rule.Action),
			Evidence:    []string{evidence},
			Confidence:  ruleConfidence,
		})
	}
	return detections
}

func (e *Evaluator) match(rule core.SecurityRule, re *regexp.Regexp, email *core.Email, text string) string {
	switch rule.Type {
	case core.RuleTypeKeyword:
		keyword := strings.ToLower(rule.Rule)
		if strings.Contains(text, keyword) {
			return fmt.Sprintf("Keyword %q found in message text", rule.Rule)
		}
	case core.RuleTypePattern:
		if re != nil {
			if m := re.FindString(text); m != "" {
				return fmt.Sprintf("Pattern matched: %q", m)
			}
		}
	case core.RuleTypeDomain:
		domain := extractDomain(email.SenderEmail)
		if domain != "" && re != nil && re.MatchString(domain) {
			return fmt.Sprintf("Sender domain %q matched", domain)
		}
	case core.RuleTypeHeader:
		if re != nil {
			for name, value := range email.Headers {
				if re.MatchString(name + ": " + value) {
					return fmt.Sprintf("Header %q matched", name)
				}
			}
		}
	case core.RuleTypeAttachment:
		if re != nil {
			for _, att := range email.Attachments {
				if re.MatchString(strings.ToLower(att.Name)) {
					return fmt.Sprintf("Attachment %q matched", att.Name)
				}
			}
		}
	}
	return ""
}

func extractDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
