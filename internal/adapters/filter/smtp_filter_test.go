package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

func newTestSMTPFilter(modifySubject bool) *SMTPFilter {
	return NewSMTPFilter(
		nil,
		zap.NewNop(),
		"127.0.0.1:0",
		false,
		"X-Threat-Level",
		"X-Threat-Score",
		"X-Threat-Reason",
		"127.0.0.1",
		10026,
		false,
		"",
		modifySubject,
	)
}

func rawMessage() []byte {
	return []byte("From: a@b.com\r\nSubject: Invoice\r\n\r\nPay now.\r\n")
}

func TestSMTPFilter_Annotate(t *testing.T) {
	f := newTestSMTPFilter(false)

	result := &core.EmailAnalysisResult{
		OverallThreatLevel: core.ThreatHigh,
		Confidence:         0.82,
		WarningMessage:     "This email shows high-risk indicators: phishing",
	}

	annotated := string(f.annotate(rawMessage(), result))

	assert.True(t, strings.HasPrefix(annotated, "X-Threat-Level: high\r\n"))
	assert.Contains(t, annotated, "X-Threat-Score: 0.82\r\n")
	assert.Contains(t, annotated, "X-Threat-Reason: This email shows high-risk indicators: phishing\r\n")
	assert.Contains(t, annotated, "Subject: Invoice")
	assert.Contains(t, annotated, "Pay now.")
}

func TestSMTPFilter_AnnotateOmitsEmptyReason(t *testing.T) {
	f := newTestSMTPFilter(false)

	annotated := string(f.annotate(rawMessage(), &core.EmailAnalysisResult{
		OverallThreatLevel: core.ThreatSafe,
		Confidence:         0.95,
	}))

	assert.Contains(t, annotated, "X-Threat-Level: safe\r\n")
	assert.NotContains(t, annotated, "X-Threat-Reason")
}

func TestSMTPFilter_SubjectPrefix(t *testing.T) {
	f := newTestSMTPFilter(true)

	result := &core.EmailAnalysisResult{
		OverallThreatLevel:    core.ThreatCritical,
		Confidence:            0.9,
		QuarantineRecommended: true,
		WarningMessage:        "dangerous",
	}

	annotated := string(f.annotate(rawMessage(), result))
	assert.Contains(t, annotated, "Subject: [**THREAT**] Invoice\r\n")
}

func TestSMTPFilter_SubjectUntouchedWhenNotQuarantined(t *testing.T) {
	f := newTestSMTPFilter(true)

	annotated := string(f.annotate(rawMessage(), &core.EmailAnalysisResult{
		OverallThreatLevel: core.ThreatLow,
		Confidence:         0.5,
	}))

	assert.Contains(t, annotated, "Subject: Invoice\r\n")
	assert.NotContains(t, annotated, "[**THREAT**]")
}

func TestPrefixSubjectIsIdempotent(t *testing.T) {
	data := []byte("Subject: [**THREAT**] Invoice\r\n\r\nbody")
	out := string(prefixSubject(data, "[**THREAT**] "))
	assert.Equal(t, 1, strings.Count(out, "[**THREAT**]"))
}
