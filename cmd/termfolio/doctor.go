package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/termfolio/internal/modules"
	"github.com/joss/termfolio/internal/render"
	"github.com/joss/termfolio/internal/selftest"
)

func doctorCmd() *cobra.Command {
	var verbose bool
	var offline bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check environment health",
		Long: `Diagnose the termfolio environment.

Checks:
  - TTY availability
  - Link opener and clipboard support
  - Config file
  - Every section endpoint of the API (skipped with --offline)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := selftest.Detect(cfg.APIBase, flags.configPath)
			w := render.NewWriter(cmd.OutOrStdout())

			var status *selftest.HealthStatus
			if !offline {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+2*time.Second)
				defer cancel()
				status = selftest.CheckHealth(ctx, modules.HealthChecks(cfg, nil))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]interface{}{"environment": env, "api": status}); err != nil {
					return err
				}
			} else {
				if verbose {
					w.Print("%s", env.Summary())
				} else {
					w.Println("%s", env.QuickCheck())
				}
				if status != nil {
					printHealth(w, status)
				}
			}

			if !env.IsHealthy() || (status != nil && status.Status == "unhealthy") {
				teardown()
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostics")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the API probes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printHealth(w *render.Writer, status *selftest.HealthStatus) {
	w.Line()
	w.Header("api %s", status.Status)
	for _, name := range status.Names() {
		c := status.Components[name]
		line := fmt.Sprintf("%s %-12s %5dms", render.BoolIcon(c.Status != "error"), name, c.Latency)
		if c.Status == "degraded" {
			line += "  slow"
		}
		if c.Error != "" {
			line += "  " + c.Error
		}
		w.Item("%s", line)
	}
}
