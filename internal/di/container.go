package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/analyzers"
	"github.com/emailguard/threat-analyzer/internal/config"
	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/factory"
	"github.com/emailguard/threat-analyzer/internal/logging"
	"github.com/emailguard/threat-analyzer/internal/ports"
	"github.com/emailguard/threat-analyzer/internal/rules"
	"github.com/emailguard/threat-analyzer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register threat classifier (nil when provider is "none")
	if err := container.Provide(func(f *factory.LLMFactory) (core.ThreatClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register reputation cache
	if err := container.Provide(func(f *factory.CacheFactory, logger *zap.Logger) (core.ReputationCache, error) {
		if !f.IsCacheEnabled() {
			logger.Info("Reputation caching disabled")
			return nil, nil
		}
		return f.CreateReputationCache()
	}); err != nil {
		return nil, err
	}

	// Register security rule store
	if err := container.Provide(rules.NewStore); err != nil {
		return nil, err
	}

	// Register analyzer pipeline
	if err := container.Provide(func(
		cfg *config.Config,
		textProcessor *utils.TextProcessor,
		store *rules.Store,
	) []core.Analyzer {
		analysisCfg := cfg.GetAnalysis()
		actx := analyzers.NewContext(analysisCfg.TrustedDomains, analysisCfg.MaxTextSize, textProcessor)
		pipeline := analyzers.NewPipeline(actx)
		return append(pipeline, rules.NewEvaluator(store, textProcessor, analysisCfg.MaxTextSize))
	}); err != nil {
		return nil, err
	}

	// Register email security service
	if err := container.Provide(func(
		classifier core.ThreatClassifier,
		pipeline []core.Analyzer,
		reputations core.ReputationCache,
		cacheFactory *factory.CacheFactory,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.EmailSecurityService, error) {
		ttl, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}

		analysisCfg := cfg.GetAnalysis()
		if len(analysisCfg.WhitelistedDomains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", analysisCfg.WhitelistedDomains))
		}

		return core.NewEmailSecurityService(
			classifier,
			pipeline,
			reputations,
			logger,
			cfg.GetLLM().Timeout,
			ttl,
			analysisCfg.WhitelistedDomains,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
