// Package main provides the termfolio CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/headless"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/metrics"
	"github.com/joss/termfolio/internal/modules"
	"github.com/joss/termfolio/internal/selftest"
	"github.com/joss/termfolio/internal/session"
	"github.com/joss/termfolio/internal/tui"
)

var (
	version = "0.1.0"
	cfg     config.Config
	flags   = &globalFlags{}
	logFile *os.File
	server  *metrics.Server
)

type globalFlags struct {
	configPath  string
	apiBase     string
	noStream    bool
	speed       float64
	theme       string
	metricsPort int
	logFile     string
	logLevel    string
	plain       bool
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "termfolio",
		Short: "A portfolio you read in the terminal",
		Long: `termfolio: a portfolio rendered by a terminal typewriter.

Usage modes:
  termfolio            Interactive session (full screen when attached to a terminal)
  termfolio run 1 3    Run commands and print the output
  echo 1 | termfolio   Read commands from stdin when not attached to a terminal

Use 'termfolio doctor' to check the API and local helpers.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			if interactive() {
				return runInteractive(ctx)
			}
			cmds, err := headless.ReadCommands(os.Stdin)
			if err != nil {
				return err
			}
			return runHeadless(ctx, cmds, headlessFlags{})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.Env().ConfigFile, "YAML config file")
	pf.StringVar(&flags.apiBase, "api-base", "", "Portfolio API origin")
	pf.BoolVar(&flags.noStream, "no-stream", false, "Print lines instantly")
	pf.Float64Var(&flags.speed, "speed", 0, "Typewriter speed in characters per second")
	pf.StringVar(&flags.theme, "theme", "", "Initial theme (dark, light, amber)")
	pf.IntVar(&flags.metricsPort, "metrics-port", 0, "Serve /metrics and /health on this port")
	pf.StringVar(&flags.logFile, "log-file", "", "Write structured logs here")
	pf.StringVar(&flags.logLevel, "log-level", "", "Minimum log level (debug, info, warn, error)")
	pf.BoolVar(&flags.plain, "plain", false, "No color in headless output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		teardown()
		os.Exit(1)
	}
}

// setup resolves configuration and points logging at the log file.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)

	if cfg.LogFile != "" {
		if err := config.EnsureDir(filepath.Dir(cfg.LogFile)); err != nil {
			return fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		logging.SetOutput(f)
	} else {
		logging.SetOutput(nil)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	if cfg.MetricsPort > 0 {
		startServer()
	}
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("api-base") {
		c.APIBase = flags.apiBase
	}
	if changed("no-stream") {
		c.NoStream = flags.noStream
	}
	if changed("speed") && flags.speed > 0 {
		c.BaseRate = flags.speed
	}
	if changed("theme") {
		c.Theme = flags.theme
	}
	if changed("metrics-port") {
		c.MetricsPort = flags.metricsPort
	}
	if changed("log-file") {
		c.LogFile = flags.logFile
	}
	if changed("log-level") {
		c.LogLevel = flags.logLevel
	}
}

func startServer() {
	log := logging.New("metrics")
	server = metrics.NewServer(cfg.MetricsPort, metrics.Global())
	server.Handle("/health/full", selftest.HealthHandler(modules.HealthChecks(cfg, nil)))
	server.Handle("/health/quick", selftest.QuickHealthHandler())
	server.Start(func(err error) {
		log.Error("listen", map[string]interface{}{"port": cfg.MetricsPort}, err)
	})
	log.Info("listening", map[string]interface{}{"port": cfg.MetricsPort})
}

func teardown() {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		server.Stop(ctx)
		cancel()
		server = nil
	}
	if logFile != nil {
		logging.SetOutput(nil)
		logFile.Close()
		logFile = nil
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// interactive is true when both ends are a terminal.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runInteractive(ctx context.Context) error {
	sess := session.New(session.Options{
		Config: cfg,
		Loader: modules.Default(cfg),
	})
	logging.New("main").WithSession(sess.ID()).Info("session_start", map[string]interface{}{
		"api_base": cfg.APIBase,
		"version":  version,
	})
	if err := tui.Run(ctx, sess); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show termfolio version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "termfolio version %s\n", version)
		},
	}
}
