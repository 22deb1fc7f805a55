package analyzers

import (
	"fmt"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

var dangerousExtensions = []string{
	".exe", ".scr", ".bat", ".cmd", ".com", ".pif", ".vbs", ".js", ".jar",
}

var archiveExtensions = []string{".zip", ".rar", ".7z"}

// maxAttachmentSize is the size above which an attachment is flagged as a
// data-exfiltration risk
const maxAttachmentSize = 50 * 1024 * 1024

// AttachmentAnalyzer flags dangerous and suspicious attachment types
type AttachmentAnalyzer struct {
	ctx *Context
}

// NewAttachmentAnalyzer creates a new attachment analyzer
func NewAttachmentAnalyzer(ctx *Context) *AttachmentAnalyzer {
	return &AttachmentAnalyzer{ctx: ctx}
}

// Name returns the analyzer name
func (a *AttachmentAnalyzer) Name() string {
	return "Attachments"
}

// Analyze classifies each attachment and returns zero or more detections
func (a *AttachmentAnalyzer) Analyze(email *core.Email) []core.SecurityDetection {
	detections := make([]core.SecurityDetection, 0, len(email.Attachments))

	for _, att := range email.Attachments {
		name := strings.ToLower(att.Name)

		if hasAnySuffix(name, dangerousExtensions) {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionMalware,
				Severity:    core.SeverityCritical,
				Description: "Executable attachment",
				Evidence:    []string{fmt.Sprintf("Attachment %q can run arbitrary code", att.Name)},
				Confidence:  0.90,
			})
			continue
		}

		if hasAnySuffix(name, archiveExtensions) {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionMalware,
				Severity:    core.SeverityMedium,
				Description: "Archive attachment may hide malicious files",
				Evidence:    []string{fmt.Sprintf("Archive attachment: %q", att.Name)},
				Confidence:  0.50,
			})
		}

		if att.Size > maxAttachmentSize {
			detections = append(detections, core.SecurityDetection{
				Type:        core.DetectionDataExfilRisk,
				Severity:    core.SeverityLow,
				Description: "Oversized attachment",
				Evidence:    []string{fmt.Sprintf("Attachment %q is %d bytes", att.Name, att.Size)},
				Confidence:  0.40,
			})
		}
	}

	return detections
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
