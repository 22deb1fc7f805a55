// Package contract defines the JSON exchange shared by every LLM-backed
// classifier adapter: the prompt sent to the provider and the structured
// response expected back. Any reply that does not satisfy the contract is
// a parse failure, which callers turn into a rule-based fallback.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// SystemInstruction primes the model for strict JSON output
const SystemInstruction = "You are an email security analysis system. Respond only with JSON."

// promptFormat embeds sender, subject, links, attachment names, and body
const promptFormat = `You are an email security analysis system. Analyze the following email for phishing, scam, spoofing, malware, and social engineering threats.
Respond with a JSON object containing:
- threatLevel: one of "safe", "low", "medium", "high", "critical"
- threatTypes: array of detected threat type strings
- confidence: number between 0 and 1
- reasoning: brief explanation of the assessment
- warningMessage: short warning suitable for showing to the recipient (empty if safe)
- actionRecommended: one of "allow", "warn", "quarantine", "block"
- suspiciousElements: array of strings naming the specific suspicious parts
- legitimacyScore: integer 0-100, higher means more legitimate

Email:
From: %s <%s>
Subject: %s
Links: %s
Attachments: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// ThreatAnalysisResponse is the structured response expected from the LLM
type ThreatAnalysisResponse struct {
	ThreatLevel        string   `json:"threatLevel"`
	ThreatTypes        []string `json:"threatTypes"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	WarningMessage     string   `json:"warningMessage"`
	ActionRecommended  string   `json:"actionRecommended"`
	SuspiciousElements []string `json:"suspiciousElements"`
	LegitimacyScore    int      `json:"legitimacyScore"`
}

// BuildPrompt formats the classification prompt for one email. The body
// must already be truncated by the caller.
func BuildPrompt(email *core.Email, body string) string {
	links := "none"
	if len(email.Links) > 0 {
		links = strings.Join(email.Links, ", ")
	}
	attachments := "none"
	if len(email.Attachments) > 0 {
		names := make([]string, len(email.Attachments))
		for i, a := range email.Attachments {
			names[i] = a.Name
		}
		attachments = strings.Join(names, ", ")
	}
	return fmt.Sprintf(promptFormat, email.Sender, email.SenderEmail, email.Subject, links, attachments, body)
}

// Parse decodes the provider's response text. When the model wraps the JSON
// object in prose, the outermost braces are located and retried.
func Parse(responseText string) (*ThreatAnalysisResponse, error) {
	var resp ThreatAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		start := strings.Index(responseText, "{")
		end := strings.LastIndex(responseText, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in classifier response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse classifier response as JSON: %w", err)
		}
	}
	return &resp, nil
}

var validLevels = map[string]core.ThreatLevel{
	"safe":     core.ThreatSafe,
	"low":      core.ThreatLow,
	"medium":   core.ThreatMedium,
	"high":     core.ThreatHigh,
	"critical": core.ThreatCritical,
}

var validActions = map[string]core.Action{
	"allow":      core.ActionAllow,
	"warn":       core.ActionWarn,
	"quarantine": core.ActionQuarantine,
	"block":      core.ActionBlock,
}

func severityFor(level core.ThreatLevel) core.Severity {
	switch level {
	case core.ThreatCritical:
		return core.SeverityCritical
	case core.ThreatHigh:
		return core.SeverityHigh
	case core.ThreatMedium:
		return core.SeverityMedium
	default:
		return core.SeverityLow
	}
}

// ToResult validates the response and converts it into the canonical
// analysis result. Out-of-contract field values are treated as a parse
// failure so the caller can fall back.
func (r *ThreatAnalysisResponse) ToResult() (*core.EmailAnalysisResult, error) {
	level, ok := validLevels[strings.ToLower(r.ThreatLevel)]
	if !ok {
		return nil, fmt.Errorf("classifier returned unknown threat level %q", r.ThreatLevel)
	}
	action, ok := validActions[strings.ToLower(r.ActionRecommended)]
	if !ok {
		return nil, fmt.Errorf("classifier returned unknown action %q", r.ActionRecommended)
	}

	confidence := r.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	score := r.LegitimacyScore
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	// One detection per reported threat type, graded by the overall level
	detections := make([]core.SecurityDetection, 0, len(r.ThreatTypes))
	if level != core.ThreatSafe {
		for _, t := range r.ThreatTypes {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionType(strings.ToLower(t)),
				Severity:    severityFor(level),
				Description: r.Reasoning,
				Evidence:    r.SuspiciousElements,
				Confidence:  confidence,
			})
		}
	}

	return &core.EmailAnalysisResult{
		OverallThreatLevel:    level,
		Confidence:            confidence,
		Detections:            detections,
		Recommendations:       core.RecommendationsFor(detections),
		QuarantineRecommended: level == core.ThreatHigh || level == core.ThreatCritical,
		ThreatTypes:           append([]string(nil), r.ThreatTypes...),
		WarningMessage:        r.WarningMessage,
		ActionRecommended:     action,
		LegitimacyScore:       score,
	}, nil
}
