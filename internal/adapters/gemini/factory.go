package gemini

import (
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/config"
	"github.com/emailguard/threat-analyzer/internal/utils"
)

// Factory creates Gemini classifier clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Gemini classifier client from configuration
func (f *Factory) CreateClient() (*GeminiClient, error) {
	cfg := f.cfg.GetGemini()
	return NewGeminiClient(
		cfg.APIKey,
		cfg.ModelName,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
