package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// CliFilter implements a command-line interface for threat analysis
type CliFilter struct {
	service *core.EmailSecurityService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.EmailSecurityService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailAnalysisResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.SenderEmail))

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s <%s>\n", email.Sender, email.SenderEmail)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))
	fmt.Printf("Attachments: %d\n", len(email.Attachments))
	fmt.Printf("Links: %d\n", len(email.Links))

	// Print body preview if verbose
	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	// Analyze email
	fmt.Printf("=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Threat level: %s\n", result.OverallThreatLevel)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Legitimacy score: %d\n", result.LegitimacyScore)
	fmt.Printf("Action: %s\n", result.ActionRecommended)
	fmt.Printf("Quarantine recommended: %t\n", result.QuarantineRecommended)
	if len(result.ThreatTypes) > 0 {
		fmt.Printf("Threat types: %s\n", strings.Join(result.ThreatTypes, ", "))
	}
	if result.WarningMessage != "" {
		fmt.Printf("Warning: %s\n", result.WarningMessage)
	}
	fmt.Printf("Model used: %s\n", result.ModelUsed)
	fmt.Printf("Processing time: %v\n", duration)

	if len(result.Detections) > 0 {
		fmt.Printf("\n=== Detections ===\n")
		for _, d := range result.Detections {
			fmt.Printf("- [%s] %s: %s (confidence %.2f)\n", d.Severity, d.Type, d.Description, d.Confidence)
			if f.verbose {
				for _, ev := range d.Evidence {
					fmt.Printf("    evidence: %s\n", ev)
				}
			}
		}
	}

	if len(result.Recommendations) > 0 {
		fmt.Printf("\n=== Recommendations ===\n")
		for _, r := range result.Recommendations {
			fmt.Printf("- %s\n", r)
		}
	}

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
