package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emailguard/threat-analyzer/internal/core"
)

func TestSocialEngineeringAnalyzer_AuthorityWithUrgency(t *testing.T) {
	analyzer := NewSocialEngineeringAnalyzer(testContext())

	tests := []struct {
		name            string
		subject         string
		body            string
		expectDetection bool
	}{
		{
			name:            "CEO plus urgent",
			subject:         "Urgent request",
			body:            "I need you to handle this personally. - The CEO",
			expectDetection: true,
		},
		{
			name:            "Authority without urgency",
			subject:         "Quarterly update",
			body:            "The CEO will present the results next week.",
			expectDetection: false,
		},
		{
			name:            "Urgency without authority",
			subject:         "Urgent",
			body:            "The printer on floor 3 is out of toner again.",
			expectDetection: false,
		},
		{
			name:            "Institution impersonation",
			subject:         "urgent notice",
			body:            "The IRS requires your immediate response.",
			expectDetection: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := analyzer.Analyze(&core.Email{Subject: tt.subject, Body: tt.body})

			if tt.expectDetection {
				assert.Len(t, detections, 1)
				assert.Equal(t, core.DetectionSocialEngineering, detections[0].Type)
				assert.Equal(t, core.SeverityHigh, detections[0].Severity)
				assert.InDelta(t, 0.75, detections[0].Confidence, 0.001)
			} else {
				assert.Empty(t, detections)
			}
		})
	}
}

func TestSocialEngineeringAnalyzer_FearLanguage(t *testing.T) {
	analyzer := NewSocialEngineeringAnalyzer(testContext())

	tests := []struct {
		name            string
		body            string
		expectDetection bool
	}{
		{"Legal threat", "Failure to comply will result in legal action.", true},
		{"Arrest threat", "You will be arrested unless you respond now.", true},
		{"Account closure threat", "This will lead to account closure.", true},
		{"Plain reminder", "Please return the library book when convenient.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := analyzer.Analyze(&core.Email{Body: tt.body})

			if tt.expectDetection {
				assert.Len(t, detections, 1)
				assert.Equal(t, core.SeverityHigh, detections[0].Severity)
				assert.InDelta(t, 0.80, detections[0].Confidence, 0.001)
			} else {
				assert.Empty(t, detections)
			}
		})
	}
}
