package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAnalyzer returns a fixed detection set for every email
type stubAnalyzer struct {
	name       string
	detections []SecurityDetection
}

func (a *stubAnalyzer) Analyze(email *Email) []SecurityDetection { return a.detections }
func (a *stubAnalyzer) Name() string                             { return a.name }

// failingClassifier always errors, forcing the rule-based fallback
type failingClassifier struct{}

func (c *failingClassifier) ClassifyEmail(ctx context.Context, email *Email) (*EmailAnalysisResult, error) {
	return nil, errors.New("provider unavailable")
}

// fixedClassifier returns a canned verdict
type fixedClassifier struct {
	result *EmailAnalysisResult
}

func (c *fixedClassifier) ClassifyEmail(ctx context.Context, email *Email) (*EmailAnalysisResult, error) {
	cp := *c.result
	return &cp, nil
}

// flakyClassifier errors for a single sender and answers with a canned
// verdict for everyone else
type flakyClassifier struct {
	failFor string
	result  *EmailAnalysisResult
}

func (c *flakyClassifier) ClassifyEmail(ctx context.Context, email *Email) (*EmailAnalysisResult, error) {
	if email.SenderEmail == c.failFor {
		return nil, errors.New("provider unavailable")
	}
	cp := *c.result
	return &cp, nil
}

// stubReputations records Set calls for assertions
type stubReputations struct {
	mu      sync.Mutex
	entries map[string]*DomainReputation
}

func newStubReputations() *stubReputations {
	return &stubReputations{entries: make(map[string]*DomainReputation)}
}

func (s *stubReputations) Get(ctx context.Context, domain string) (*DomainReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.entries[domain]
	if !ok {
		return nil, errors.New("not found")
	}
	return rep, nil
}

func (s *stubReputations) Set(ctx context.Context, rep *DomainReputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[rep.Domain] = rep
	return nil
}

func (s *stubReputations) Delete(ctx context.Context, domain string) error { return nil }
func (s *stubReputations) Cleanup(ctx context.Context) error               { return nil }

func newTestService(classifier ThreatClassifier, analyzers []Analyzer, reputations ReputationCache, whitelist []string) *EmailSecurityService {
	return NewEmailSecurityService(
		classifier,
		analyzers,
		reputations,
		zap.NewNop(),
		time.Second,
		time.Hour,
		whitelist,
	)
}

func TestAnalyzeEmail_RulesOnly(t *testing.T) {
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionPhishing, Severity: SeverityHigh, Confidence: 0.75},
		}},
	}, nil, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@example.com"})
	require.NoError(t, err)

	assert.Equal(t, ThreatHigh, result.OverallThreatLevel)
	assert.InDelta(t, 0.75, result.Confidence, 0.001)
	assert.Equal(t, "rules", result.ModelUsed)
	assert.True(t, result.QuarantineRecommended)
	assert.NotEmpty(t, result.EmailID)
}

func TestAnalyzeEmail_CleanEmailIsSafe(t *testing.T) {
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub"},
	}, nil, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@example.com"})
	require.NoError(t, err)

	assert.Equal(t, ThreatSafe, result.OverallThreatLevel)
	assert.Equal(t, ActionAllow, result.ActionRecommended)
	assert.False(t, result.QuarantineRecommended)
}

func TestAnalyzeEmail_IsDeterministic(t *testing.T) {
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionScam, Severity: SeverityMedium, Confidence: 0.6},
		}},
	}, nil, nil)

	email := &Email{SenderEmail: "user@example.com", Subject: "hello"}

	first, err := service.AnalyzeEmail(context.Background(), email)
	require.NoError(t, err)
	second, err := service.AnalyzeEmail(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, first.OverallThreatLevel, second.OverallThreatLevel)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Detections, second.Detections)
	assert.Equal(t, first.ActionRecommended, second.ActionRecommended)
}

func TestAnalyzeEmail_WhitelistBypass(t *testing.T) {
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionPhishing, Severity: SeverityCritical, Confidence: 0.9},
		}},
	}, nil, []string{"trusted.example"})

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "ceo@trusted.example"})
	require.NoError(t, err)

	assert.Equal(t, ThreatSafe, result.OverallThreatLevel)
	assert.InDelta(t, 1.0, result.Confidence, 0.001)
	assert.Equal(t, "whitelist", result.ModelUsed)
	assert.Empty(t, result.Detections)
}

func TestAnalyzeEmail_ClassifierVerdict(t *testing.T) {
	canned := &EmailAnalysisResult{
		OverallThreatLevel: ThreatMedium,
		Confidence:         0.82,
		ActionRecommended:  ActionWarn,
		LegitimacyScore:    55,
		ModelUsed:          "test-model",
	}
	service := newTestService(&fixedClassifier{result: canned}, nil, nil, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@example.com"})
	require.NoError(t, err)

	assert.Equal(t, ThreatMedium, result.OverallThreatLevel)
	assert.Equal(t, "test-model", result.ModelUsed)
	assert.NotEmpty(t, result.EmailID, "Service assigns an id when the classifier leaves it empty")
}

func TestAnalyzeEmail_FallbackOnClassifierFailure(t *testing.T) {
	service := newTestService(&failingClassifier{}, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionPhishing, Severity: SeverityHigh, Confidence: 0.75},
		}},
	}, nil, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@example.com"})
	require.NoError(t, err, "Classifier failure must degrade, not fail")

	assert.Equal(t, "rules-fallback", result.ModelUsed)
	assert.Equal(t, ThreatHigh, result.OverallThreatLevel)
	// Rule confidence 0.75 scaled by 0.8
	assert.InDelta(t, 0.60, result.Confidence, 0.001)
}

func TestAnalyzeEmail_MaliciousReputationShortCircuits(t *testing.T) {
	reputations := newStubReputations()
	require.NoError(t, reputations.Set(context.Background(), &DomainReputation{
		Domain:     "evil.example",
		Reputation: ReputationMalicious,
		Score:      10,
		Reasons:    []string{"impersonates paypal.com"},
	}))

	// A failing classifier proves the cached verdict is served before the
	// classifier is consulted.
	service := newTestService(&failingClassifier{}, nil, reputations, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@evil.example"})
	require.NoError(t, err)

	assert.Equal(t, "cache", result.ModelUsed)
	assert.Equal(t, ThreatCritical, result.OverallThreatLevel)
	assert.True(t, result.QuarantineRecommended)
	require.Len(t, result.Detections, 1)
	assert.Contains(t, result.Detections[0].Evidence, "impersonates paypal.com")
}

func TestAnalyzeEmail_NeutralReputationDoesNotShortCircuit(t *testing.T) {
	reputations := newStubReputations()
	require.NoError(t, reputations.Set(context.Background(), &DomainReputation{
		Domain:     "known.example",
		Reputation: ReputationNeutral,
		Score:      80,
	}))

	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionMalware, Severity: SeverityCritical, Confidence: 0.9},
		}},
	}, reputations, nil)

	result, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@known.example"})
	require.NoError(t, err)

	// Content signals still apply even when the domain itself is known.
	assert.Equal(t, "rules", result.ModelUsed)
	assert.Equal(t, ThreatCritical, result.OverallThreatLevel)
}

func TestAnalyzeEmail_RecordsReputation(t *testing.T) {
	reputations := newStubReputations()
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionSuspiciousDomain, Severity: SeverityHigh, Description: "bad domain", Confidence: 0.85},
		}},
	}, reputations, nil)

	_, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@shady.example"})
	require.NoError(t, err)

	rep, err := reputations.Get(context.Background(), "shady.example")
	require.NoError(t, err)
	assert.Equal(t, ReputationSuspicious, rep.Reputation)
	assert.Equal(t, 30, rep.Score)
	assert.Contains(t, rep.Reasons, "bad domain")
}

func TestAnalyzeEmail_NeutralReputationForCleanDomain(t *testing.T) {
	reputations := newStubReputations()
	service := newTestService(nil, []Analyzer{
		&stubAnalyzer{name: "stub"},
	}, reputations, nil)

	_, err := service.AnalyzeEmail(context.Background(), &Email{SenderEmail: "user@clean.example"})
	require.NoError(t, err)

	rep, err := reputations.Get(context.Background(), "clean.example")
	require.NoError(t, err)
	assert.Equal(t, ReputationNeutral, rep.Reputation)
	assert.Equal(t, 80, rep.Score)
}

func TestAnalyzeBatch(t *testing.T) {
	service := newTestService(&failingClassifier{}, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionSpam, Severity: SeverityLow, Confidence: 0.4},
		}},
	}, nil, nil)

	emails := []*Email{
		{SenderEmail: "a@example.com"},
		{SenderEmail: "b@example.com"},
		{SenderEmail: "c@example.com"},
	}

	results := service.AnalyzeBatch(context.Background(), emails)

	require.Len(t, results, len(emails), "One result per input, classifier failures included")
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, "rules-fallback", result.ModelUsed)
		assert.Equal(t, ThreatLow, result.OverallThreatLevel)
	}
}

func TestAnalyzeBatch_PartialClassifierFailure(t *testing.T) {
	canned := &EmailAnalysisResult{
		OverallThreatLevel: ThreatSafe,
		Confidence:         0.92,
		ActionRecommended:  ActionAllow,
		LegitimacyScore:    100,
		ModelUsed:          "test-model",
	}
	service := newTestService(&flakyClassifier{failFor: "b@example.com", result: canned}, []Analyzer{
		&stubAnalyzer{name: "stub", detections: []SecurityDetection{
			{Type: DetectionSpam, Severity: SeverityLow, Confidence: 0.5},
		}},
	}, nil, nil)

	emails := []*Email{
		{SenderEmail: "a@example.com"},
		{SenderEmail: "b@example.com"},
		{SenderEmail: "c@example.com"},
	}

	results := service.AnalyzeBatch(context.Background(), emails)
	require.Len(t, results, len(emails))

	// Results come back in input order, with only the failing email
	// degraded to the rule-based path at reduced confidence.
	assert.Equal(t, "test-model", results[0].ModelUsed)
	assert.Equal(t, "test-model", results[2].ModelUsed)

	assert.Equal(t, "rules-fallback", results[1].ModelUsed)
	assert.Equal(t, ThreatLow, results[1].OverallThreatLevel)
	assert.InDelta(t, 0.40, results[1].Confidence, 0.001)
}

func TestAnalyzeBatch_Empty(t *testing.T) {
	service := newTestService(nil, nil, nil, nil)
	assert.Empty(t, service.AnalyzeBatch(context.Background(), nil))
}
