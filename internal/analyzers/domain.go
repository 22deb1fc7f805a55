package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// suspiciousDomains lists exact hostnames with poor sending reputation,
// mostly public link shorteners abused for redirect chains. Shared with the
// URL analyzer.
var suspiciousDomains = map[string]bool{
	"bit.ly":            true,
	"tinyurl.com":       true,
	"t.co":              true,
	"goo.gl":            true,
	"short.link":        true,
	"tempmail.com":      true,
	"guerrillamail.com": true,
}

// suspiciousTLDs lists free registries with a high abuse rate
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf"}

// Indicators of freshly registered, machine-generated domains
var (
	digitClusterRe    = regexp.MustCompile(`\d{4,}`)
	doubledHyphenRe   = regexp.MustCompile(`--`)
	digitHyphenWordRe = regexp.MustCompile(`\d+-[a-z]`)
)

// DomainAnalyzer classifies the sender domain: known-bad sets, typosquat
// spoofing against the trusted-domain allowlist, and newly-registered
// domain heuristics. A single domain can trigger several detections.
type DomainAnalyzer struct {
	ctx *Context
}

// NewDomainAnalyzer creates a new sender-domain reputation analyzer
func NewDomainAnalyzer(ctx *Context) *DomainAnalyzer {
	return &DomainAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *DomainAnalyzer) Name() string {
	return "Sender Domain Reputation"
}

// Analyze inspects the sender address and returns zero or more detections.
// A malformed sender address is not this analyzer's concern and yields none.
func (a *DomainAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	domain := extractDomain(email.SenderEmail)
	if domain == "" {
		return nil
	}

	detections := make([]core.SecurityDetection, 0, 2)

	if isSuspiciousDomain(domain) {
		detections = append(detections, core.SecurityDetection{
			Type:        core.DetectionSuspiciousDomain,
			Severity:    core.SeverityHigh,
			Description: "Sender domain has a poor reputation",
			Evidence:    []string{fmt.Sprintf("Domain %q is on the suspicious-domain list", domain)},
			Confidence:  0.85,
		})
	}

	// Typosquat check: close to a trusted domain but not identical.
	// Only the first qualifying match is reported.
	for _, trusted := range a.ctx.TrustedDomains {
		similarity := Similarity(domain, trusted)
		if similarity >= 0.8 && similarity < 1.0 {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionSpoofing,
				Severity:    core.SeverityCritical,
				Description: "Sender domain appears to spoof a trusted domain",
				Evidence: []string{fmt.Sprintf(
					"Domain %q is %.0f%% similar to trusted domain %q",
					domain, similarity*100, trusted)},
				Confidence: 0.90,
			})
			break
		}
	}

	if indicators := newDomainIndicators(domain); len(indicators) > 0 {
		detections = append(detections, core.SecurityDetection{
			Type:        core.DetectionSuspiciousDomain,
			Severity:    core.SeverityMedium,
			Description: "Sender domain looks freshly registered",
			Evidence:    indicators,
			Confidence:  0.65,
		})
	}

	return detections
}

// isSuspiciousDomain reports membership in the fixed suspicious-domain set,
// by exact hostname or by TLD
func isSuspiciousDomain(domain string) bool {
	if suspiciousDomains[domain] {
		return true
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			return true
		}
	}
	return false
}

func newDomainIndicators(domain string) []string {
	var indicators []string
	if digitClusterRe.MatchString(domain) {
		indicators = append(indicators, fmt.Sprintf("Domain %q contains a long digit run", domain))
	}
	if doubledHyphenRe.MatchString(domain) {
		indicators = append(indicators, fmt.Sprintf("Domain %q contains doubled hyphens", domain))
	}
	if digitHyphenWordRe.MatchString(domain) {
		indicators = append(indicators, fmt.Sprintf("Domain %q mixes digits and hyphenated words", domain))
	}
	return indicators
}
