package modules

import (
	"context"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/selftest"
)

// HealthChecks probes every section endpoint with the same fetch and schema
// the section itself uses.
func HealthChecks(cfg config.Config, doer dispatch.Doer) []selftest.Check {
	client := NewClient(cfg.APIBase, doer, cfg.HTTPTimeout, cfg.Endpoints)
	checks := make([]selftest.Check, 0, len(catalog))
	for _, s := range catalog {
		s := s
		checks = append(checks, selftest.Probe(s.name, func(ctx context.Context) error {
			_, err := client.Fetch(ctx, s.endpoint, s.schema)
			return err
		}))
	}
	return checks
}
