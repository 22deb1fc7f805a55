package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/adapters/bedrock"
	"github.com/emailguard/threat-analyzer/internal/adapters/gemini"
	"github.com/emailguard/threat-analyzer/internal/adapters/openai"
	"github.com/emailguard/threat-analyzer/internal/config"
	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/utils"
)

// LLMFactory creates threat classifiers backed by LLM providers
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a threat classifier based on the configuration.
// A nil classifier means rule-based analysis only.
func (f *LLMFactory) CreateClassifier() (core.ThreatClassifier, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "none", "":
		f.logger.Info("No LLM provider configured, using rule-based analysis only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
