package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// contentPattern ties one body/subject regex to the detection it produces
type contentPattern struct {
	re          *regexp.Regexp
	detType     core.DetectionType
	severity    core.Severity
	confidence  float64
	description string
}

var contentPatterns = []contentPattern{
	{
		re:          regexp.MustCompile(`urgent.{0,80}action required`),
		detType:     core.DetectionPhishing,
		severity:    core.SeverityHigh,
		confidence:  0.75,
		description: "Urgent call-to-action language typical of phishing",
	},
	{
		re:          regexp.MustCompile(`congratulations.{0,80}won`),
		detType:     core.DetectionScam,
		severity:    core.SeverityHigh,
		confidence:  0.80,
		description: "Lottery or prize-winning language",
	},
	{
		re:          regexp.MustCompile(`inheritance.{0,120}million`),
		detType:     core.DetectionScam,
		severity:    core.SeverityCritical,
		confidence:  0.85,
		description: "Advance-fee inheritance scam language",
	},
	{
		re:          regexp.MustCompile(`(verify|confirm).{0,40}(account|identity|password)`),
		detType:     core.DetectionPhishing,
		severity:    core.SeverityMedium,
		confidence:  0.65,
		description: "Credential verification request",
	},
	{
		re:          regexp.MustCompile(`(suspended|locked|restricted).{0,40}account`),
		detType:     core.DetectionPhishing,
		severity:    core.SeverityHigh,
		confidence:  0.70,
		description: "Account suspension pressure language",
	},
}

var (
	currencyAmountRe = regexp.MustCompile(`[$€£]\s?\d[\d,]*`)
	transferWordRe   = regexp.MustCompile(`(wire|transfer|bitcoin|crypto|western union|money ?gram)`)
)

// urgencyWords are counted individually; three or more distinct hits signal
// pressure tactics
var urgencyWords = []string{"urgent", "immediate", "asap", "emergency", "expire", "deadline"}

// ContentAnalyzer scans the subject and body for phishing, scam, and
// urgency-language signals using a fixed pattern table
type ContentAnalyzer struct {
	ctx *Context
}

// NewContentAnalyzer creates a new content pattern analyzer
func NewContentAnalyzer(ctx *Context) *ContentAnalyzer {
	return &ContentAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *ContentAnalyzer) Name() string {
	return "Content Patterns"
}

// Analyze scans the email text and returns zero or more detections
func (a *ContentAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	text := a.ctx.scanText(email)

	detections := make([]core.SecurityDetection, 0, 2)

	for _, p := range contentPatterns {
		if match := p.re.FindString(text); match != "" {
			detections = append(detections, core.SecurityDetection{
				Type:        p.detType,
				Severity:    p.severity,
				Description: p.description,
				Evidence:    []string{fmt.Sprintf("Matched content: %q", snippet(match))},
				Confidence:  p.confidence,
			})
		}
	}

	// Money amounts next to transfer/crypto language is a strong scam signal
	if amount := currencyAmountRe.FindString(text); amount != "" {
		if transfer := transferWordRe.FindString(text); transfer != "" {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionScam,
				Severity:    core.SeverityHigh,
				Description: "Money amount combined with transfer language",
				Evidence: []string{
					fmt.Sprintf("Amount mentioned: %q", amount),
					fmt.Sprintf("Transfer keyword: %q", transfer),
				},
				Confidence: 0.75,
			})
		}
	}

	if hits := countUrgencyWords(text); len(hits) >= 3 {
		detections = append(detections, core.SecurityDetection{
			Type:        core.DetectionSocialEngineering,
			Severity:    core.SeverityMedium,
			Description: "Heavy use of urgency language",
			Evidence:    []string{fmt.Sprintf("Urgency words found: %s", strings.Join(hits, ", "))},
			Confidence:  0.60,
		})
	}

	return detections
}

func countUrgencyWords(text string) []string {
	var hits []string
	for _, word := range urgencyWords {
		if strings.Contains(text, word) {
			hits = append(hits, word)
		}
	}
	return hits
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
