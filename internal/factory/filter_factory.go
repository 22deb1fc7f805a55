package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/adapters/filter"
	"github.com/emailguard/threat-analyzer/internal/config"
	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/ports"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.EmailSecurityService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.EmailSecurityService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "smtp":
		return filter.NewSMTPFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_threats"),
			f.cfg.GetString("server.headers.level"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.reason"),
			f.cfg.GetString("server.relay.address"),
			f.cfg.GetInt("server.relay.port"),
			f.cfg.GetBool("server.relay.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
