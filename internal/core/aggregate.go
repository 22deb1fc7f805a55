package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Threat-level decision table, evaluated in precedence order:
//
//	any critical detection            -> critical
//	two or more high detections       -> critical
//	one high detection                -> high
//	three or more medium detections   -> high
//	one medium detection              -> medium
//	no detections                     -> safe
//	only low detections               -> low
func threatLevelFor(detections []SecurityDetection) ThreatLevel {
	if len(detections) == 0 {
		return ThreatSafe
	}

	var high, medium int
	for _, d := range detections {
		switch d.Severity {
		case SeverityCritical:
			return ThreatCritical
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}

	switch {
	case high >= 2:
		return ThreatCritical
	case high >= 1:
		return ThreatHigh
	case medium >= 3:
		return ThreatHigh
	case medium >= 1:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// actionFor maps an aggregate threat level to the recommended handling
func actionFor(level ThreatLevel) Action {
	switch level {
	case ThreatCritical:
		return ActionBlock
	case ThreatHigh:
		return ActionQuarantine
	case ThreatMedium:
		return ActionWarn
	default:
		return ActionAllow
	}
}

// legitimacyFor maps an aggregate threat level to a 0-100 legitimacy score
// (inverse of risk)
func legitimacyFor(level ThreatLevel) int {
	switch level {
	case ThreatCritical:
		return 5
	case ThreatHigh:
		return 25
	case ThreatMedium:
		return 55
	case ThreatLow:
		return 80
	default:
		return 100
	}
}

func aggregateConfidence(detections []SecurityDetection) float64 {
	if len(detections) == 0 {
		// High confidence the email is safe
		return 0.95
	}
	sum := 0.0
	for _, d := range detections {
		sum += d.Confidence
	}
	return math.Round(sum/float64(len(detections))*100) / 100
}

// RecommendationsFor derives handling advice from the detection types
// present. Rules are non-exclusive and may combine.
func RecommendationsFor(detections []SecurityDetection) []string {
	present := make(map[DetectionType]bool, len(detections))
	severe := false
	for _, d := range detections {
		present[d.Type] = true
		if d.Severity == SeverityHigh || d.Severity == SeverityCritical {
			severe = true
		}
	}

	recs := make([]string, 0, 8)
	if present[DetectionPhishing] {
		recs = append(recs,
			"Do not click any links in this email",
			"Verify the sender through an alternate channel")
	}
	if present[DetectionMalware] {
		recs = append(recs,
			"Do not open any attachments",
			"Scan attachments with antivirus before opening")
	}
	if present[DetectionScam] {
		recs = append(recs,
			"Do not respond to this email",
			"Consider reporting this email to authorities")
	}
	if present[DetectionSpoofing] {
		recs = append(recs,
			"Verify the sender through official channels",
			"Check the exact sender address carefully")
	}
	if severe {
		recs = append(recs,
			"Consider blocking this sender",
			"Quarantine this email immediately")
	}
	return recs
}

// threatTypesFor returns the distinct detection types in first-seen order
func threatTypesFor(detections []SecurityDetection) []string {
	seen := make(map[DetectionType]bool, len(detections))
	types := make([]string, 0, len(detections))
	for _, d := range detections {
		if !seen[d.Type] {
			seen[d.Type] = true
			types = append(types, string(d.Type))
		}
	}
	return types
}

func warningFor(level ThreatLevel, types []string) string {
	if level == ThreatSafe || len(types) == 0 {
		return ""
	}
	return fmt.Sprintf("This email shows %s-risk indicators: %s", level, strings.Join(types, ", "))
}

// Aggregate merges all analyzer detections for one email into a final
// verdict. The result is a deterministic function of the detection set.
func Aggregate(emailID string, detections []SecurityDetection) *EmailAnalysisResult {
	level := threatLevelFor(detections)
	quarantine := false
	for _, d := range detections {
		if d.Severity == SeverityHigh || d.Severity == SeverityCritical {
			quarantine = true
			break
		}
	}
	types := threatTypesFor(detections)

	return &EmailAnalysisResult{
		EmailID:               emailID,
		OverallThreatLevel:    level,
		Confidence:            aggregateConfidence(detections),
		Detections:            detections,
		Recommendations:       RecommendationsFor(detections),
		QuarantineRecommended: quarantine,
		ThreatTypes:           types,
		WarningMessage:        warningFor(level, types),
		ActionRecommended:     actionFor(level),
		LegitimacyScore:       legitimacyFor(level),
		AnalyzedAt:            time.Now(),
	}
}
