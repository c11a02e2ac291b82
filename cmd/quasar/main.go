package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/command"
	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/executor"
	qjson "github.com/ajitpratap0/quasar/pkg/json"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/metrics"
	"github.com/ajitpratap0/quasar/pkg/middleware"
	"github.com/ajitpratap0/quasar/pkg/pool"
	"github.com/ajitpratap0/quasar/pkg/scope"
)

var version = "0.1.0"

// runtimeHandle bundles everything the CLI needs to drive the runtime.
type runtimeHandle struct {
	cfg      config.RuntimeConfig
	exec     *executor.Executor
	registry *pool.Registry
	codec    *qjson.Codec
	commands map[string]command.Command
	log      *zap.Logger
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "quasar",
		Short: "Quasar - cancellable, concurrency-bounded command execution runtime",
		Long: `Quasar is the execution runtime underlying a CLI command framework:
a bounded, cancellable command executor built on an ordered middleware
pipeline, paired with self-tuning adaptive object pools.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Quasar v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var configFile string
	var maxConcurrency int
	var timeout time.Duration
	var logLevel string

	runCmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Run a built-in command through the runtime",
		Long: `Run one of the built-in commands (echo, sleep, fail) through the full
execution runtime: middleware pipeline, cancellation, timeout race, pools.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := buildRuntime(configFile)
			if err != nil {
				return err
			}
			defer h.teardown()

			target, ok := h.commands[args[0]]
			if !ok {
				target = nil // settles as a failed not-found result
			}

			result := h.exec.Execute(target, args[1:], nil, args, executor.Options{})
			if result.Message != "" {
				fmt.Println(result.Message)
			}
			if !result.Success {
				os.Exit(result.ExitCode)
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML runtime configuration")
	runCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "Maximum concurrent executions (0 = config default)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-execution timeout (0 = config default)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	bindFlags(runCmd)
	root.AddCommand(runCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a synthetic workload and print runtime statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := buildRuntime(configFile)
			if err != nil {
				return err
			}
			defer h.teardown()

			reqs := make([]command.Request, 0, 32)
			for i := 0; i < 16; i++ {
				reqs = append(reqs, command.Request{Command: h.commands["echo"], Args: []string{"warmup"}})
				reqs = append(reqs, command.Request{Command: h.commands["sleep"], Args: []string{"5ms"}})
			}
			h.exec.ExecuteConcurrent(reqs)
			h.registry.OptimizeAll()

			all := h.registry.AllMetrics()
			if h.cfg.Observability.EnableMetrics {
				for name, m := range all {
					metrics.ObservePool(name, m.IdleCount, m.ActiveCount, m.HitRate)
				}
			}

			report := map[string]interface{}{
				"executor":  h.exec.Stats(),
				"pools":     all,
				"analytics": h.registry.Analytics(),
			}
			out, err := h.codec.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	statsCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML runtime configuration")
	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags layers flag values over QUASAR_* environment variables.
func bindFlags(cmd *cobra.Command) {
	viper.SetEnvPrefix("quasar")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("max_concurrency", cmd.Flags().Lookup("max-concurrency"))
	_ = viper.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
}

// buildRuntime assembles the executor, pools, and middleware from layered
// configuration: defaults, then the config file, then flags/environment.
func buildRuntime(configFile string) (*runtimeHandle, error) {
	cfg := config.Default()
	if configFile != "" {
		if err := config.Load(configFile, &cfg); err != nil {
			return nil, err
		}
	}
	if v := viper.GetInt("max_concurrency"); v > 0 {
		cfg.Executor.MaxConcurrentExecutions = v
	}
	if v := viper.GetDuration("timeout"); v > 0 {
		cfg.Executor.DefaultTimeout = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return nil, err
	}
	log := logger.Get()

	registry := pool.NewRegistry(log)
	buffers, err := pool.RegisterNew(registry, "buffers",
		func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 1024)) },
		func(b *bytes.Buffer) { b.Reset() },
		pool.DefaultConfig(),
		pool.WithLogger[*bytes.Buffer](log),
	)
	if err != nil {
		return nil, err
	}

	codec, err := qjson.NewCodec(pool.WithLogger[*bytes.Buffer](log))
	if err != nil {
		return nil, err
	}
	registry.Register(codec.Pool())

	chain := middleware.NewChain(log)
	middleware.RegisterBuiltins(chain, log)

	rootScope := scope.New()
	rootScope.Register("registry", registry)

	exec := executor.New(cfg.Executor, chain, rootScope, log)

	return &runtimeHandle{
		cfg:      cfg,
		exec:     exec,
		registry: registry,
		codec:    codec,
		commands: builtinCommands(buffers),
		log:      log,
	}, nil
}

func (h *runtimeHandle) teardown() {
	ctx, cancelFn := context.WithTimeout(context.Background(), h.cfg.Executor.ShutdownGrace)
	defer cancelFn()

	if err := h.exec.Shutdown(ctx); err != nil {
		h.log.Warn("executor shutdown incomplete", zap.Error(err))
	}
	h.registry.Dispose()
	_ = logger.Sync()
}
