package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func det(severity Severity, detType DetectionType, confidence float64) SecurityDetection {
	return SecurityDetection{
		Type:        detType,
		Severity:    severity,
		Description: "test detection",
		Confidence:  confidence,
	}
}

func TestThreatLevelDecisionTable(t *testing.T) {
	tests := []struct {
		name       string
		detections []SecurityDetection
		expected   ThreatLevel
	}{
		{
			name:       "No detections is safe",
			detections: nil,
			expected:   ThreatSafe,
		},
		{
			name: "Single critical dominates everything",
			detections: []SecurityDetection{
				det(SeverityLow, DetectionSpam, 0.4),
				det(SeverityCritical, DetectionMalware, 0.9),
			},
			expected: ThreatCritical,
		},
		{
			name: "Two highs escalate to critical",
			detections: []SecurityDetection{
				det(SeverityHigh, DetectionPhishing, 0.7),
				det(SeverityHigh, DetectionScam, 0.8),
			},
			expected: ThreatCritical,
		},
		{
			name: "One high is high",
			detections: []SecurityDetection{
				det(SeverityHigh, DetectionPhishing, 0.7),
			},
			expected: ThreatHigh,
		},
		{
			name: "Three mediums escalate to high",
			detections: []SecurityDetection{
				det(SeverityMedium, DetectionPhishing, 0.6),
				det(SeverityMedium, DetectionSpoofing, 0.6),
				det(SeverityMedium, DetectionSpam, 0.6),
			},
			expected: ThreatHigh,
		},
		{
			name: "Two mediums stay medium",
			detections: []SecurityDetection{
				det(SeverityMedium, DetectionPhishing, 0.6),
				det(SeverityMedium, DetectionSpoofing, 0.6),
			},
			expected: ThreatMedium,
		},
		{
			name: "One medium is medium",
			detections: []SecurityDetection{
				det(SeverityMedium, DetectionPhishing, 0.6),
			},
			expected: ThreatMedium,
		},
		{
			name: "Only lows stay low",
			detections: []SecurityDetection{
				det(SeverityLow, DetectionSpam, 0.4),
				det(SeverityLow, DetectionPhishing, 0.5),
			},
			expected: ThreatLow,
		},
		{
			name: "Mediums do not mask a high",
			detections: []SecurityDetection{
				det(SeverityMedium, DetectionPhishing, 0.6),
				det(SeverityHigh, DetectionScam, 0.8),
			},
			expected: ThreatHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, threatLevelFor(tt.detections))
		})
	}
}

func TestAggregateConfidence(t *testing.T) {
	t.Run("Empty detection set means confidently safe", func(t *testing.T) {
		result := Aggregate("id-1", nil)
		assert.Equal(t, ThreatSafe, result.OverallThreatLevel)
		assert.InDelta(t, 0.95, result.Confidence, 0.001)
		assert.False(t, result.QuarantineRecommended)
		assert.Empty(t, result.WarningMessage)
		assert.Equal(t, ActionAllow, result.ActionRecommended)
		assert.Equal(t, 100, result.LegitimacyScore)
	})

	t.Run("Confidence is the rounded mean", func(t *testing.T) {
		result := Aggregate("id-2", []SecurityDetection{
			det(SeverityHigh, DetectionPhishing, 0.70),
			det(SeverityMedium, DetectionSpam, 0.65),
		})
		// (0.70 + 0.65) / 2 = 0.675, rounded to 0.68
		assert.InDelta(t, 0.68, result.Confidence, 0.001)
	})
}

func TestAggregateQuarantineAndAction(t *testing.T) {
	tests := []struct {
		name               string
		detections         []SecurityDetection
		expectedAction     Action
		expectedQuarantine bool
		expectedLegitimacy int
	}{
		{
			name:               "Critical blocks",
			detections:         []SecurityDetection{det(SeverityCritical, DetectionMalware, 0.9)},
			expectedAction:     ActionBlock,
			expectedQuarantine: true,
			expectedLegitimacy: 5,
		},
		{
			name:               "High quarantines",
			detections:         []SecurityDetection{det(SeverityHigh, DetectionPhishing, 0.75)},
			expectedAction:     ActionQuarantine,
			expectedQuarantine: true,
			expectedLegitimacy: 25,
		},
		{
			name:               "Medium warns without quarantining",
			detections:         []SecurityDetection{det(SeverityMedium, DetectionSpam, 0.6)},
			expectedAction:     ActionWarn,
			expectedQuarantine: false,
			expectedLegitimacy: 55,
		},
		{
			name:               "Low allows",
			detections:         []SecurityDetection{det(SeverityLow, DetectionSpam, 0.4)},
			expectedAction:     ActionAllow,
			expectedQuarantine: false,
			expectedLegitimacy: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate("id", tt.detections)
			assert.Equal(t, tt.expectedAction, result.ActionRecommended)
			assert.Equal(t, tt.expectedQuarantine, result.QuarantineRecommended)
			assert.Equal(t, tt.expectedLegitimacy, result.LegitimacyScore)
			assert.NotEmpty(t, result.WarningMessage)
		})
	}
}

func TestAggregateThreatTypesDeduplicated(t *testing.T) {
	result := Aggregate("id", []SecurityDetection{
		det(SeverityHigh, DetectionPhishing, 0.7),
		det(SeverityMedium, DetectionSpoofing, 0.6),
		det(SeverityLow, DetectionPhishing, 0.5),
	})

	assert.Equal(t, []string{"phishing", "spoofing"}, result.ThreatTypes)
}

func TestRecommendationsFor(t *testing.T) {
	t.Run("Phishing advice", func(t *testing.T) {
		recs := RecommendationsFor([]SecurityDetection{det(SeverityMedium, DetectionPhishing, 0.6)})
		assert.Contains(t, recs, "Do not click any links in this email")
	})

	t.Run("Severe detections add containment advice", func(t *testing.T) {
		recs := RecommendationsFor([]SecurityDetection{det(SeverityCritical, DetectionMalware, 0.9)})
		assert.Contains(t, recs, "Do not open any attachments")
		assert.Contains(t, recs, "Quarantine this email immediately")
	})

	t.Run("No detections means no advice", func(t *testing.T) {
		assert.Empty(t, RecommendationsFor(nil))
	})
}
