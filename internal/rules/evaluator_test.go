package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailguard/threat-analyzer/internal/core"
)

func emptyStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	for _, rule := range store.List() {
		require.True(t, store.Delete(rule.ID))
	}
	return store
}

func TestEvaluator_DefaultRules(t *testing.T) {
	evaluator := NewEvaluator(NewStore(), nil, 65536)

	tests := []struct {
		name         string
		email        *core.Email
		expectedType core.DetectionType
	}{
		{
			name: "Executable attachment rule",
			email: &core.Email{
				Attachments: []core.Attachment{{Name: "payload.scr", Size: 100}},
			},
			expectedType: core.DetectionMalware,
		},
		{
			name: "Urgent payment rule",
			email: &core.Email{
				Subject: "Urgent",
				Body:    "Urgent: approve the wire before noon.",
			},
			expectedType: core.DetectionPhishing,
		},
		{
			name: "Suspicious TLD rule",
			email: &core.Email{
				SenderEmail: "promo@deals.ml",
			},
			expectedType: core.DetectionSuspiciousDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := evaluator.Analyze(tt.email)

			require.NotEmpty(t, detections)
			assert.Equal(t, tt.expectedType, detections[0].Type)
			assert.InDelta(t, 0.70, detections[0].Confidence, 0.001)
			assert.NotEmpty(t, detections[0].Evidence)
		})
	}
}

func TestEvaluator_KeywordRule(t *testing.T) {
	store := emptyStore(t)
	_, err := store.Add(core.SecurityRule{
		Name:     "Gift cards",
		Type:     core.RuleTypeKeyword,
		Rule:     "Gift Card",
		Action:   core.RuleActionFlag,
		Severity: core.SeverityMedium,
		Enabled:  true,
	})
	require.NoError(t, err)

	evaluator := NewEvaluator(store, nil, 65536)

	detections := evaluator.Analyze(&core.Email{Body: "Please buy ten gift cards for the team."})
	require.Len(t, detections, 1)
	assert.Equal(t, core.DetectionSpam, detections[0].Type)
	assert.Equal(t, core.SeverityMedium, detections[0].Severity)
}

func TestEvaluator_HeaderRule(t *testing.T) {
	store := emptyStore(t)
	_, err := store.Add(core.SecurityRule{
		Name:     "Bulk mailer",
		Type:     core.RuleTypeHeader,
		Rule:     `X-Mailer: .*bulk`,
		Action:   core.RuleActionWarn,
		Severity: core.SeverityLow,
		Enabled:  true,
	})
	require.NoError(t, err)

	evaluator := NewEvaluator(store, nil, 65536)

	detections := evaluator.Analyze(&core.Email{
		Headers: map[string]string{"X-Mailer": "superbulk 2.0"},
	})
	require.Len(t, detections, 1)
	assert.Equal(t, core.DetectionSpoofing, detections[0].Type)
}

func TestEvaluator_DisabledRulesAreSkipped(t *testing.T) {
	store := emptyStore(t)
	id, err := store.Add(core.SecurityRule{
		Name:     "Gift cards",
		Type:     core.RuleTypeKeyword,
		Rule:     "gift card",
		Action:   core.RuleActionFlag,
		Severity: core.SeverityMedium,
		Enabled:  true,
	})
	require.NoError(t, err)

	disabled := false
	ok, err := store.Update(id, core.RulePatch{Enabled: &disabled})
	require.NoError(t, err)
	require.True(t, ok)

	evaluator := NewEvaluator(store, nil, 65536)

	detections := evaluator.Analyze(&core.Email{Body: "gift card request"})
	assert.Empty(t, detections)
}

func TestEvaluator_NoRules(t *testing.T) {
	evaluator := NewEvaluator(emptyStore(t), nil, 65536)
	assert.Empty(t, evaluator.Analyze(&core.Email{Body: "anything at all"}))
}
