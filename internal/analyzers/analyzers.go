package analyzers

import (
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/utils"
)

// Context carries the shared configuration used by the detection analyzers
type Context struct {
	// TrustedDomains are legitimate external domains used as the reference
	// set for typosquat spoofing detection
	TrustedDomains []string

	// MaxTextSize caps the subject+body text scanned by regex-based
	// analyzers, bounding worst-case matching cost on hostile input
	MaxTextSize int

	textProcessor *utils.TextProcessor
}

// NewContext creates an analyzer context with the provided configuration
func NewContext(trustedDomains []string, maxTextSize int, textProcessor *utils.TextProcessor) *Context {
	normalized := make([]string, len(trustedDomains))
	for i, d := range trustedDomains {
		normalized[i] = strings.ToLower(strings.TrimSpace(d))
	}
	return &Context{
		TrustedDomains: normalized,
		MaxTextSize:    maxTextSize,
		textProcessor:  textProcessor,
	}
}

// scanText returns the lower-cased subject+body, size-capped and sanitized
func (c *Context) scanText(email *core.Email) string {
	text := email.Subject + " " + email.Body
	if c.textProcessor != nil {
		text = c.textProcessor.ProcessText(text, c.MaxTextSize)
	} else if c.MaxTextSize > 0 && len(text) > c.MaxTextSize {
		text = text[:c.MaxTextSize]
	}
	return strings.ToLower(text)
}

// NewPipeline assembles the standard analyzer pipeline. Each analyzer
// inspects one facet of the email and the results are aggregated by the
// core service.
func NewPipeline(ctx *Context) []core.Analyzer {
	return []core.Analyzer{
		NewDomainAnalyzer(ctx),
		NewContentAnalyzer(ctx),
		NewHeaderAnalyzer(ctx),
		NewAttachmentAnalyzer(ctx),
		NewURLAnalyzer(ctx),
		NewSocialEngineeringAnalyzer(ctx),
	}
}

// extractDomain extracts the lower-cased domain from an email address,
// returning "" for malformed addresses
func extractDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
