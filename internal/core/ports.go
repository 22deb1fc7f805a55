package core

import (
	"context"
)

// ThreatClassifier defines the interface for external classification
// services (LLM providers). Implementations build a structured prompt from
// the email and parse the provider's JSON reply into an analysis result.
type ThreatClassifier interface {
	// ClassifyEmail scores an email for threats
	ClassifyEmail(ctx context.Context, email *Email) (*EmailAnalysisResult, error)
}

// Analyzer is one rule-based detection strategy. Implementations are pure
// functions over the email and may emit any number of detections.
type Analyzer interface {
	// Analyze inspects the email and returns zero or more detections
	Analyze(email *Email) []SecurityDetection

	// Name returns the human-readable name of this analyzer
	Name() string
}

// ReputationCache defines the interface for caching per-domain verdicts
type ReputationCache interface {
	// Get retrieves a cached reputation for a domain
	Get(ctx context.Context, domain string) (*DomainReputation, error)

	// Set stores a reputation entry
	Set(ctx context.Context, rep *DomainReputation) error

	// Delete removes a reputation entry
	Delete(ctx context.Context, domain string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
