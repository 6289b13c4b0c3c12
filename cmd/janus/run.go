package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/accounting"
	"mercator-hq/janus/pkg/accounting/retention"
	"mercator-hq/janus/pkg/accounting/storage"
	"mercator-hq/janus/pkg/cli"
	"mercator-hq/janus/pkg/config"
	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/pcl/parser"
	"mercator-hq/janus/pkg/policy/engine"
	"mercator-hq/janus/pkg/policy/engine/source"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/value"
	"mercator-hq/janus/pkg/server"
	"mercator-hq/janus/pkg/session"
	"mercator-hq/janus/pkg/telemetry/metrics"
	"mercator-hq/janus/pkg/xlat"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Janus policy server",
	Long: `Start the Janus policy server with the specified configuration.

The server loads the attribute dictionary and policies, then serves
evaluation requests on the configured address.

Examples:
  # Start with default config
  janus run

  # Start with custom config
  janus run --config /etc/janus/config.yaml

  # Override listen address
  janus run --listen 0.0.0.0:8812

  # Validate config and policies without starting the server
  janus run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and policies without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger := newLogger(&cfg.Telemetry.Logging)
	slog.SetDefault(logger)

	ctx := cli.SetupSignalHandler()

	// Dictionary
	d, err := buildDictionary(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Dictionary loaded (%d attributes)\n", d.Len())

	// Session store and pair comparators
	comparators := paircmp.NewRegistry()
	sessions, err := session.NewStore(cfg.Session.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessions.Close()

	if simUse := d.Lookup("Simultaneous-Use"); simUse != nil {
		userName := d.Lookup("User-Name")
		if userName == nil {
			return fmt.Errorf("Simultaneous-Use requires a User-Name attribute in the dictionary")
		}
		comparators.Register(simUse.Name, session.SimultaneousUseComparator(sessions, userName))
		slog.Info("registered pair comparator", "attribute", simUse.Name)
	}

	// Policy source
	p := parser.NewParser(d).
		WithComparators(comparators).
		WithMaxDepth(cfg.Policy.MaxDepth).
		WithMaxFileSize(cfg.Policy.MaxFileSize)
	policySource := source.NewFileSource(cfg.Policy.Path, p, logger)

	policies, err := policySource.LoadPolicies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	policySet := server.NewPolicySet(policies)
	fmt.Printf("✓ Policies loaded (%d policies)\n", policySet.Len())

	if runFlags.dryRun {
		fmt.Println("✓ Configuration and policies valid")
		return nil
	}

	// Metrics
	var (
		evalMetrics    *metrics.EvaluationMetrics
		metricsHandler http.Handler
	)
	if *cfg.Telemetry.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		evalMetrics = metrics.NewEvaluationMetrics(cfg.Telemetry.Metrics.Namespace, "policy", registry)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	// Evaluator
	eval := engine.New(&xlat.TemplateExpander{},
		engine.WithComparators(comparators),
		engine.WithLogger(logger),
		engine.WithMetrics(evalMetrics),
	)

	// Accounting
	var recorder *accounting.Recorder
	if *cfg.Accounting.Enabled {
		storageCfg := storage.DefaultSQLiteConfig()
		storageCfg.Path = cfg.Accounting.DBPath
		accountingStorage, err := storage.NewSQLiteStorage(storageCfg)
		if err != nil {
			return fmt.Errorf("failed to open accounting storage: %w", err)
		}
		defer accountingStorage.Close()

		recorder = accounting.NewRecorder(accountingStorage, &accounting.RecorderConfig{
			Enabled:      true,
			AsyncBuffer:  cfg.Accounting.AsyncBuffer,
			WriteTimeout: cfg.Accounting.WriteTimeout,
		})
		defer recorder.Close()

		if cfg.Accounting.PruneSchedule != "" {
			pruner := retention.NewPruner(accountingStorage, &retention.Config{
				RetentionDays: cfg.Accounting.RetentionDays,
				PruneSchedule: cfg.Accounting.PruneSchedule,
			})
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("retention scheduler started", "next_pruning", next)
				}
			}
		}
		fmt.Println("✓ Accounting initialized")
	}

	// Stale session sweeper
	go sweepSessions(ctx, sessions, cfg.Session.StaleAfter)

	// Policy hot reload
	if *cfg.Policy.Watch {
		watcher, err := source.NewWatcher(&source.WatcherConfig{
			DebounceInterval: cfg.Policy.WatchDebounce,
			Extensions:       []string{".yaml", ".yml"},
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create policy watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, cfg.Policy.Path, func() error {
				reloaded, err := policySource.LoadPolicies(ctx)
				if err != nil {
					return err
				}
				policySet.Replace(reloaded)
				slog.Info("policies reloaded", "policy_count", len(reloaded))
				return nil
			})
			if err != nil && ctx.Err() == nil {
				slog.Error("policy watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(server.Options{
		Config:   &cfg.Server,
		Engine:   eval,
		Policies: policySet,
		Dict:     d,
		Sessions: sessions,
		Recorder: recorder,
		Metrics:  metricsHandler,
		Logger:   logger,
	})

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Evaluation endpoint: http://%s/v1/evaluate\n", cfg.Server.ListenAddress)
	if metricsHandler != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// newLogger builds the slog handler described by the logging configuration.
func newLogger(cfg *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// buildDictionary registers the configured attributes.
func buildDictionary(cfg *config.Config) (*dict.Dictionary, error) {
	d := dict.New()
	for _, a := range cfg.Dictionary.Attributes {
		typ, err := value.ParseType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("dictionary attribute %q: %w", a.Name, err)
		}
		if err := d.Register(&dict.Attribute{Name: a.Name, Number: a.Number, Type: typ}); err != nil {
			return nil, fmt.Errorf("dictionary attribute %q: %w", a.Name, err)
		}
	}
	return d, nil
}

// sweepSessions periodically removes sessions that never saw a stop.
func sweepSessions(ctx context.Context, store *session.Store, staleAfter time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Cleanup(ctx, time.Now().Add(-staleAfter))
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
			} else if removed > 0 {
				slog.Info("swept stale sessions", "removed", removed)
			}
		}
	}
}
