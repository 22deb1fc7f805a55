package core

import (
	"time"
)

// DetectionType identifies the category of a single analyzer finding
type DetectionType string

const (
	DetectionPhishing          DetectionType = "phishing"
	DetectionSpam              DetectionType = "spam"
	DetectionMalware           DetectionType = "malware"
	DetectionScam              DetectionType = "scam"
	DetectionSuspiciousDomain  DetectionType = "suspicious_domain"
	DetectionSpoofing          DetectionType = "spoofing"
	DetectionSocialEngineering DetectionType = "social_engineering"
	DetectionDataExfilRisk     DetectionType = "data_exfiltration_risk"
)

// Severity grades how serious an individual detection is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ThreatLevel is the aggregate verdict for a whole email
type ThreatLevel string

const (
	ThreatSafe     ThreatLevel = "safe"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Action is the recommended handling for an analyzed email
type Action string

const (
	ActionAllow      Action = "allow"
	ActionWarn       Action = "warn"
	ActionQuarantine Action = "quarantine"
	ActionBlock      Action = "block"
)

// Attachment describes one email attachment
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Email represents an email message submitted for threat analysis
type Email struct {
	Subject     string            `json:"subject"`
	Sender      string            `json:"sender"`
	SenderEmail string            `json:"senderEmail"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Links       []string          `json:"links,omitempty"`
}

// SecurityDetection is one finding emitted by one analyzer for one email.
// Detections are immutable once created.
type SecurityDetection struct {
	Type        DetectionType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	Evidence    []string      `json:"evidence"`
	Confidence  float64       `json:"confidence"`
}

// EmailAnalysisResult is the aggregate verdict for one email. It is derived
// purely from the detection set and never mutated after construction.
type EmailAnalysisResult struct {
	EmailID               string              `json:"emailId"`
	OverallThreatLevel    ThreatLevel         `json:"overallThreatLevel"`
	Confidence            float64             `json:"confidence"`
	Detections            []SecurityDetection `json:"detections"`
	Recommendations       []string            `json:"recommendations"`
	QuarantineRecommended bool                `json:"quarantineRecommended"`
	ThreatTypes           []string            `json:"threatTypes"`
	WarningMessage        string              `json:"warningMessage,omitempty"`
	ActionRecommended     Action              `json:"actionRecommended"`
	LegitimacyScore       int                 `json:"legitimacyScore"`
	AnalyzedAt            time.Time           `json:"analyzedAt"`
	ModelUsed             string              `json:"modelUsed,omitempty"`
}

// Reputation classifies a sender domain
type Reputation string

const (
	ReputationTrusted    Reputation = "trusted"
	ReputationNeutral    Reputation = "neutral"
	ReputationSuspicious Reputation = "suspicious"
	ReputationMalicious  Reputation = "malicious"
)

// DomainReputation is a cached verdict for a sender domain. Entries expire
// at ExpiresAt and must not be trusted past it.
type DomainReputation struct {
	Domain      string
	Reputation  Reputation
	Score       int
	Reasons     []string
	LastChecked time.Time
	ExpiresAt   time.Time
}

// RuleType selects how a security rule's pattern is applied
type RuleType string

const (
	RuleTypeDomain     RuleType = "domain"
	RuleTypeKeyword    RuleType = "keyword"
	RuleTypePattern    RuleType = "pattern"
	RuleTypeHeader     RuleType = "header"
	RuleTypeAttachment RuleType = "attachment"
)

// RuleAction is what a matching rule asks the caller to do
type RuleAction string

const (
	RuleActionBlock      RuleAction = "block"
	RuleActionQuarantine RuleAction = "quarantine"
	RuleActionFlag       RuleAction = "flag"
	RuleActionWarn       RuleAction = "warn"
)

// SecurityRule is a user-defined filter applied alongside the built-in
// analyzers. The ID is assigned by the store at creation time.
type SecurityRule struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        RuleType   `json:"type"`
	Rule        string     `json:"rule"`
	Action      RuleAction `json:"action"`
	Severity    Severity   `json:"severity"`
	Enabled     bool       `json:"enabled"`
}

// RulePatch carries a partial update for a stored rule. Nil fields are left
// unchanged by Update.
type RulePatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Type        *RuleType   `json:"type,omitempty"`
	Rule        *string     `json:"rule,omitempty"`
	Action      *RuleAction `json:"action,omitempty"`
	Severity    *Severity   `json:"severity,omitempty"`
	Enabled     *bool       `json:"enabled,omitempty"`
}
