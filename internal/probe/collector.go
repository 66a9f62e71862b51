package probe

import (
	"context"
	"log/slog"

	"github.com/loykin/dormant/internal/metrics"
)

// Collector OR-combines an ordered set of probes into one per-cycle answer.
// Order matters for wake decisions: callers should list the network probe
// before the log heuristics so hard evidence is consulted first. Any probe
// error is absorbed as "no evidence"; a broken signal source must neither
// abort the cycle nor prevent eventual hibernation.
type Collector struct {
	probes []Probe
	logger *slog.Logger
}

func NewCollector(logger *slog.Logger, probes ...Probe) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{probes: probes, logger: logger}
}

// Observe returns true if any probe reports activity. The first positive
// probe short-circuits the rest.
func (c *Collector) Observe(ctx context.Context) bool {
	for _, p := range c.probes {
		if ctx.Err() != nil {
			return false
		}
		active, err := p.Active()
		if err != nil {
			c.logger.Debug("probe unavailable", "probe", p.Describe(), "error", err)
			metrics.SetProbeActive(p.Describe(), false)
			continue
		}
		metrics.SetProbeActive(p.Describe(), active)
		if active {
			c.logger.Debug("activity observed", "probe", p.Describe())
			return true
		}
	}
	return false
}

// Probes exposes the configured probe set for status reporting.
func (c *Collector) Probes() []Probe { return c.probes }
