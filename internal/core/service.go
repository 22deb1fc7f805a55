package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fallbackConfidenceScale is applied to rule-based confidence when the
// external classifier was attempted but failed, so callers can tell a
// degraded verdict from a full-fidelity one.
const fallbackConfidenceScale = 0.8

// EmailSecurityService is the core service for email threat analysis. It
// tries the external classifier first (when configured) and falls back to
// the rule-based analyzer pipeline on any failure.
type EmailSecurityService struct {
	classifier         ThreatClassifier
	analyzers          []Analyzer
	reputations        ReputationCache
	logger             *zap.Logger
	classifierTimeout  time.Duration
	reputationTTL      time.Duration
	whitelistedDomains []string
}

// NewEmailSecurityService creates a new email security service. The
// classifier and reputation cache may be nil, in which case analysis is
// purely rule-based and reputations are not recorded.
func NewEmailSecurityService(
	classifier ThreatClassifier,
	analyzers []Analyzer,
	reputations ReputationCache,
	logger *zap.Logger,
	classifierTimeout time.Duration,
	reputationTTL time.Duration,
	whitelistedDomains []string,
) *EmailSecurityService {
	return &EmailSecurityService{
		classifier:         classifier,
		analyzers:          analyzers,
		reputations:        reputations,
		logger:             logger,
		classifierTimeout:  classifierTimeout,
		reputationTTL:      reputationTTL,
		whitelistedDomains: whitelistedDomains,
	}
}

// senderDomain extracts the lower-cased domain of an address, or "" when
// the address has no usable domain part.
func senderDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}

// isDomainWhitelisted checks if the sender's domain is in the whitelist
func (s *EmailSecurityService) isDomainWhitelisted(email string) bool {
	domain := senderDomain(email)
	if domain == "" {
		return false
	}

	for _, whitelisted := range s.whitelistedDomains {
		if strings.EqualFold(domain, whitelisted) {
			return true
		}
	}
	return false
}

// AnalyzeEmail analyzes a single email and returns the aggregate verdict.
// It never returns an error for attacker-controlled content; a failed
// classifier call degrades to the rule-based path instead.
func (s *EmailSecurityService) AnalyzeEmail(ctx context.Context, email *Email) (*EmailAnalysisResult, error) {
	emailID := uuid.NewString()

	if s.isDomainWhitelisted(email.SenderEmail) {
		s.logger.Info("Skipping threat analysis for whitelisted domain",
			zap.String("sender", email.SenderEmail),
			zap.String("action", "whitelist_bypass"))
		result := Aggregate(emailID, nil)
		result.Confidence = 1.0
		result.ModelUsed = "whitelist"
		return result, nil
	}

	if result := s.cachedVerdict(ctx, emailID, email); result != nil {
		return result, nil
	}

	if s.classifier != nil {
		classifyCtx := ctx
		if s.classifierTimeout > 0 {
			var cancel context.CancelFunc
			classifyCtx, cancel = context.WithTimeout(ctx, s.classifierTimeout)
			defer cancel()
		}

		result, err := s.classifier.ClassifyEmail(classifyCtx, email)
		if err == nil {
			if result.EmailID == "" {
				result.EmailID = emailID
			}
			s.recordReputation(ctx, email, result.Detections)
			return result, nil
		}

		s.logger.Warn("Classifier failed, falling back to rule-based analysis",
			zap.Error(err),
			zap.String("sender", email.SenderEmail))

		result = s.analyzeWithRules(emailID, email)
		result.Confidence = round2(result.Confidence * fallbackConfidenceScale)
		result.ModelUsed = "rules-fallback"
		s.recordReputation(ctx, email, result.Detections)
		return result, nil
	}

	result := s.analyzeWithRules(emailID, email)
	result.ModelUsed = "rules"
	s.recordReputation(ctx, email, result.Detections)
	return result, nil
}

// AnalyzeBatch analyzes emails concurrently. Results are returned in input
// order, and one email's classifier failure never aborts the batch.
func (s *EmailSecurityService) AnalyzeBatch(ctx context.Context, emails []*Email) []*EmailAnalysisResult {
	results := make([]*EmailAnalysisResult, len(emails))

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email *Email) {
			defer wg.Done()
			result, err := s.AnalyzeEmail(ctx, email)
			if err != nil {
				// AnalyzeEmail degrades rather than fails; this is a
				// belt-and-braces guard against future error paths.
				s.logger.Error("Batch item analysis failed", zap.Error(err), zap.Int("index", i))
				result = Aggregate(uuid.NewString(), nil)
				result.Confidence = 0.0
				result.WarningMessage = "analysis unavailable"
			}
			results[i] = result
		}(i, email)
	}
	wg.Wait()

	return results
}

// cachedVerdict consults the reputation cache before classification. A
// fresh malicious entry for the sender's domain yields an immediate
// critical verdict without re-running the classifier or the analyzers.
// Lesser reputations never short-circuit: a clean domain says nothing
// about the message content.
func (s *EmailSecurityService) cachedVerdict(ctx context.Context, emailID string, email *Email) *EmailAnalysisResult {
	if s.reputations == nil {
		return nil
	}
	domain := senderDomain(email.SenderEmail)
	if domain == "" {
		return nil
	}

	rep, err := s.reputations.Get(ctx, domain)
	if err != nil || rep.Reputation != ReputationMalicious {
		return nil
	}

	s.logger.Debug("Reputation cache hit for sender domain",
		zap.String("domain", domain))

	detection := SecurityDetection{
		Type:        DetectionSuspiciousDomain,
		Severity:    SeverityCritical,
		Description: "Sender domain has a malicious reputation",
		Evidence:    append([]string(nil), rep.Reasons...),
		Confidence:  0.9,
	}
	result := Aggregate(emailID, []SecurityDetection{detection})
	result.ModelUsed = "cache"
	return result
}

// analyzeWithRules runs every analyzer and aggregates the detections
func (s *EmailSecurityService) analyzeWithRules(emailID string, email *Email) *EmailAnalysisResult {
	detections := make([]SecurityDetection, 0)
	for _, analyzer := range s.analyzers {
		detections = append(detections, analyzer.Analyze(email)...)
	}
	return Aggregate(emailID, detections)
}

// recordReputation writes a per-domain verdict derived from domain-scoped
// detections into the reputation cache. Cache failures are logged and
// otherwise ignored.
func (s *EmailSecurityService) recordReputation(ctx context.Context, email *Email, detections []SecurityDetection) {
	if s.reputations == nil {
		return
	}
	domain := senderDomain(email.SenderEmail)
	if domain == "" {
		return
	}

	rep := &DomainReputation{
		Domain:      domain,
		Reputation:  ReputationNeutral,
		Score:       80,
		LastChecked: time.Now(),
		ExpiresAt:   time.Now().Add(s.reputationTTL),
	}
	for _, d := range detections {
		if d.Type != DetectionSuspiciousDomain && d.Type != DetectionSpoofing {
			continue
		}
		rep.Reasons = append(rep.Reasons, d.Description)
		switch d.Severity {
		case SeverityCritical:
			rep.Reputation = ReputationMalicious
			rep.Score = min(rep.Score, 10)
		case SeverityHigh:
			if rep.Reputation != ReputationMalicious {
				rep.Reputation = ReputationSuspicious
			}
			rep.Score = min(rep.Score, 30)
		default:
			if rep.Reputation == ReputationNeutral {
				rep.Reputation = ReputationSuspicious
			}
			rep.Score = min(rep.Score, 50)
		}
	}

	if err := s.reputations.Set(ctx, rep); err != nil {
		s.logger.Error("Failed to update reputation cache",
			zap.Error(err),
			zap.String("domain", domain))
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
