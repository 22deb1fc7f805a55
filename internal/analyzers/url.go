package analyzers

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"')]+`)

// urlShorteners hide the real destination of a link
var urlShorteners = map[string]bool{
	"bit.ly":      true,
	"tinyurl.com": true,
	"t.co":        true,
	"goo.gl":      true,
	"short.link":  true,
}

// URLAnalyzer inspects embedded links for shorteners, known-bad hosts, and
// raw IP destinations
type URLAnalyzer struct {
	ctx *Context
}

// NewURLAnalyzer creates a new embedded-link analyzer
func NewURLAnalyzer(ctx *Context) *URLAnalyzer {
	return &URLAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *URLAnalyzer) Name() string {
	return "Embedded Links"
}

// Analyze extracts links from the body, merges any caller-supplied links,
// and returns zero or more detections
func (a *URLAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	links := urlRe.FindAllString(email.Body, -1)
	links = append(links, email.Links...)

	detections := make([]core.SecurityDetection, 0, len(links))
	for _, link := range links {
		if d := a.inspectLink(link); d != nil {
			detections = append(detections, *d)
		}
	}
	return detections
}

func (a *URLAnalyzer) inspectLink(link string) *core.SecurityDetection {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Hostname() == "" {
		return &core.SecurityDetection{
			Type:        core.DetectionPhishing,
			Severity:    core.SeverityLow,
			Description: "Malformed link",
			Evidence:    []string{fmt.Sprintf("Unparsable URL: %q", snippet(link))},
			Confidence:  0.50,
		}
	}

	host := strings.ToLower(parsed.Hostname())

	switch {
	case urlShorteners[host]:
		return &core.SecurityDetection{
			Type:        core.DetectionPhishing,
			Severity:    core.SeverityMedium,
			Description: "Link uses a URL shortener",
			Evidence:    []string{fmt.Sprintf("Shortened link via %q hides its destination", host)},
			Confidence:  0.60,
		}
	case isSuspiciousDomain(host):
		return &core.SecurityDetection{
			Type:        core.DetectionPhishing,
			Severity:    core.SeverityHigh,
			Description: "Link points to a known suspicious domain",
			Evidence:    []string{fmt.Sprintf("Suspicious link host: %q", host)},
			Confidence:  0.85,
		}
	case net.ParseIP(host) != nil && strings.Count(host, ".") == 3:
		return &core.SecurityDetection{
			Type:        core.DetectionPhishing,
			Severity:    core.SeverityHigh,
			Description: "Link points directly to an IP address",
			Evidence:    []string{fmt.Sprintf("Raw IP link host: %q", host)},
			Confidence:  0.80,
		}
	}

	return nil
}
