package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emailguard/threat-analyzer/internal/core"
)

func TestURLAnalyzer(t *testing.T) {
	analyzer := NewURLAnalyzer(testContext())

	tests := []struct {
		name             string
		body             string
		expectedSeverity core.Severity
		expectDetection  bool
	}{
		{
			name:            "Ordinary link",
			body:            "Docs are at https://example.com/handbook",
			expectDetection: false,
		},
		{
			name:             "URL shortener",
			body:             "Click https://bit.ly/3xYz to claim",
			expectedSeverity: core.SeverityMedium,
			expectDetection:  true,
		},
		{
			name:             "Suspicious TLD host",
			body:             "Login at http://secure-login.tk/account",
			expectedSeverity: core.SeverityHigh,
			expectDetection:  true,
		},
		{
			name:             "Raw IP destination",
			body:             "Update your details at http://203.0.113.7/verify",
			expectedSeverity: core.SeverityHigh,
			expectDetection:  true,
		},
		{
			name:            "No links at all",
			body:            "See you at the meeting tomorrow.",
			expectDetection: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := analyzer.Analyze(&core.Email{Body: tt.body})

			if tt.expectDetection {
				assert.Len(t, detections, 1)
				assert.Equal(t, core.DetectionPhishing, detections[0].Type)
				assert.Equal(t, tt.expectedSeverity, detections[0].Severity)
			} else {
				assert.Empty(t, detections)
			}
		})
	}
}

func TestURLAnalyzer_UsesCallerSuppliedLinks(t *testing.T) {
	analyzer := NewURLAnalyzer(testContext())

	detections := analyzer.Analyze(&core.Email{
		Body:  "No links in the body.",
		Links: []string{"https://tinyurl.com/abc123"},
	})

	assert.Len(t, detections, 1)
	assert.Equal(t, core.DetectionPhishing, detections[0].Type)
	assert.Equal(t, core.SeverityMedium, detections[0].Severity)
}

func TestURLAnalyzer_EachBadLinkCounted(t *testing.T) {
	analyzer := NewURLAnalyzer(testContext())

	detections := analyzer.Analyze(&core.Email{
		Body: "First https://bit.ly/a then http://198.51.100.9/b and finally https://example.com/ok",
	})

	assert.Len(t, detections, 2)
}
