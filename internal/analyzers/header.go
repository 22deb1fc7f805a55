package analyzers

import (
	"fmt"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// authHeaders are the authentication results an honest mail path leaves
// behind. Only the absence of ALL of them is treated as a spoofing signal:
// any one present means the path performed some authentication, and which
// subset a given relay stamps varies too much to score partial absence.
var authHeaders = []string{"DKIM-Signature", "Received-SPF", "Authentication-Results"}

const maxReceivedHops = 5

// HeaderAnalyzer checks for missing authentication headers and anomalous
// routing paths
type HeaderAnalyzer struct {
	ctx *Context
}

// NewHeaderAnalyzer creates a new header analyzer
func NewHeaderAnalyzer(ctx *Context) *HeaderAnalyzer {
	return &HeaderAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *HeaderAnalyzer) Name() string {
	return "Header Authentication"
}

// Analyze inspects the header map and returns zero or more detections.
// A missing headers map yields none; that is the caller's input, not an
// anomaly this analyzer can judge.
func (a *HeaderAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	if len(email.Headers) == 0 {
		return nil
	}

	// Header lookup is case-insensitive per RFC 5322
	lower := make(map[string]string, len(email.Headers))
	for k, v := range email.Headers {
		lower[strings.ToLower(k)] = v
	}

	detections := make([]core.SecurityDetection, 0, 2)

	var missing []string
	for _, h := range authHeaders {
		if _, ok := lower[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) == len(authHeaders) {
		detections = append(detections, core.SecurityDetection{
			Type:        core.DetectionSpoofing,
			Severity:    core.SeverityMedium,
			Description: "No email authentication headers present",
			Evidence:    []string{fmt.Sprintf("Missing headers: %s", strings.Join(missing, ", "))},
			Confidence:  0.60,
		})
	}

	if received, ok := lower["received"]; ok {
		hops := strings.Count(received, "from ")
		if hops > maxReceivedHops || strings.Contains(strings.ToLower(received), "suspicious") {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionSpoofing,
				Severity:    core.SeverityMedium,
				Description: "Anomalous mail routing path",
				Evidence:    []string{fmt.Sprintf("Received chain has %d hops", hops)},
				Confidence:  0.60,
			})
		}
	}

	return detections
}
