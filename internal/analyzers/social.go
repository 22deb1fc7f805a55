package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// authorityWords are roles and institutions impersonated to pressure the
// recipient into compliance
var authorityWords = []string{
	"ceo", "president", "manager", "director", "administrator",
	"irs", "fbi", "police", "government", "bank", "paypal", "amazon",
}

// fearPatterns are explicit threats of consequences
var fearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`account (closure|closed|termination)`),
	regexp.MustCompile(`legal action`),
	regexp.MustCompile(`(arrest|arrested)`),
	regexp.MustCompile(`(penalty|penalties)`),
	regexp.MustCompile(`(fine|fined)\b`),
}

// SocialEngineeringAnalyzer detects authority impersonation and fear-based
// manipulation language
type SocialEngineeringAnalyzer struct {
	ctx *Context
}

// NewSocialEngineeringAnalyzer creates a new social-engineering analyzer
func NewSocialEngineeringAnalyzer(ctx *Context) *SocialEngineeringAnalyzer {
	return &SocialEngineeringAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *SocialEngineeringAnalyzer) Name() string {
	return "Social Engineering"
}

// Analyze scans the email text and returns zero or more detections
func (a *SocialEngineeringAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	text := a.ctx.scanText(email)

	detections := make([]core.SecurityDetection, 0, 2)

	// Authority impersonation only counts when paired with urgency; the
	// first matching authority word is enough, more add no signal
	if strings.Contains(text, "urgent") {
		for _, word := range authorityWords {
			if strings.Contains(text, word) {
				detections = append(detections, core.SecurityDetection{
					Type:        core.DetectionSocialEngineering,
					Severity:    core.SeverityHigh,
					Description: "Authority impersonation combined with urgency",
					Evidence:    []string{fmt.Sprintf("Authority reference %q with urgent language", word)},
					Confidence:  0.75,
				})
				break
			}
		}
	}

	for _, re := range fearPatterns {
		if match := re.FindString(text); match != "" {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionSocialEngineering,
				Severity:    core.SeverityHigh,
				Description: "Fear-based manipulation language",
				Evidence:    []string{fmt.Sprintf("Threat language: %q", match)},
				Confidence:  0.80,
			})
			break
		}
	}

	return detections
}
