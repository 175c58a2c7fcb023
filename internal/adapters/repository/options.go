package repository

import (
	"github.com/okian/roster/pkg/logger"
)

type options struct {
	autoMigrate bool
	logger      logger.Logger
}

func newOptions(opts ...Option) *options {
	cfg := &options{
		autoMigrate: false,
		logger:      logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option applies a configuration option to the store.
type Option func(*options)

// WithAutoMigrate runs schema migration on startup.
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) {
		o.autoMigrate = enabled
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
