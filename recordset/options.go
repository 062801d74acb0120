package recordset

import (
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option is a function that modifies Controller configuration
type Option func(*Controller)

// WithConfig sets the field schema. Defaults to types.DefaultConfig().
func WithConfig(cfg types.Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithNotifier routes change notifications through n
func WithNotifier(n *Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithKeyFunc sets the generator of keys for records that have no id.
// Defaults to random UUIDs.
func WithKeyFunc(fn func() string) Option {
	return func(c *Controller) {
		c.keyFunc = fn
	}
}

func newKey() string {
	return uuid.New().String()
}
