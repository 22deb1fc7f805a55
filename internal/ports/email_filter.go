package ports

import (
	"context"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// EmailFilter defines the interface for the deployment front ends that feed
// emails into the analysis service
type EmailFilter interface {
	// ProcessEmail analyzes one email and returns the verdict
	ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailAnalysisResult, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
