package supervisor

import (
	"context"
	"sync"

	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// AutoscalerConfig mirrors the supervisor autoscale configuration section.
type AutoscalerConfig struct {
	// Enabled turns scale decisions on. Scale-in gating works either way.
	Enabled bool
	// MinWorkers and MaxWorkers bound the worker count when Enabled.
	MinWorkers int
	MaxWorkers int
}

// Autoscaler holds the reference counted scale-in gate.
type Autoscaler struct {
	cfg    AutoscalerConfig
	logger logging.Logger

	mu           sync.Mutex
	disableCount int
}

// NewAutoscaler creates an autoscaler with scale-in enabled.
func NewAutoscaler(cfg AutoscalerConfig, logger logging.Logger) *Autoscaler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Autoscaler{cfg: cfg, logger: logger}
}

// DisableAutoscaleIn suppresses scale-in until a matching TryEnableAutoscaleIn.
func (a *Autoscaler) DisableAutoscaleIn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	a.disableCount++
	n := a.disableCount
	a.mu.Unlock()
	a.logger.Debug("autoscale-in disabled", "disable_count", n)
	return nil
}

// TryEnableAutoscaleIn releases one suppression. Scale-in resumes only when
// no suppression remains; extra calls are no-ops.
func (a *Autoscaler) TryEnableAutoscaleIn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	if a.disableCount > 0 {
		a.disableCount--
	}
	n := a.disableCount
	a.mu.Unlock()
	if n == 0 {
		a.logger.Debug("autoscale-in enabled")
	}
	return nil
}

// AutoscaleInEnabled reports whether scale-in is currently allowed.
func (a *Autoscaler) AutoscaleInEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disableCount == 0
}

// DisableCount returns the number of outstanding suppressions.
func (a *Autoscaler) DisableCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disableCount
}

// Config returns the autoscaler configuration.
func (a *Autoscaler) Config() AutoscalerConfig { return a.cfg }

var _ core.Autoscaler = (*Autoscaler)(nil)
