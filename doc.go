// Package quasar is the execution runtime underlying a CLI command
// framework: a concurrency-bounded, cancellable command executor built on
// an ordered middleware pipeline, paired with self-tuning adaptive object
// pools.
//
// # Architecture
//
// Quasar is organized around three cooperating subsystems:
//
// 1. Adaptive Pooling: pool.Pool[T] tracks exact idle and active sets so
// it can enforce size bounds, detect foreign releases, and resize itself
// from usage heuristics. pool.Registry aggregates every pool's metrics
// into runtime-wide analytics.
//
// 2. Middleware Pipeline: middleware.Chain wraps each command in named,
// ordered stages. The built-in set handles panics and errors, timing,
// logging, setup/cleanup lifecycle, and validation; applications add their
// own stages with Chain.Use.
//
// 3. Bounded Execution: executor.Executor caps in-flight executions with a
// fixed worker pool and queues the rest FIFO. Every execution carries a
// cooperative cancellation signal, a private child scope, and a timeout
// raced against the pipeline.
//
// # Quick Start
//
// Run a command through the full runtime:
//
//	import (
//	    "github.com/ajitpratap0/quasar/pkg/config"
//	    "github.com/ajitpratap0/quasar/pkg/executor"
//	    "github.com/ajitpratap0/quasar/pkg/middleware"
//	    "github.com/ajitpratap0/quasar/pkg/scope"
//	)
//
//	cfg := config.Default()
//
//	chain := middleware.NewChain(log)
//	middleware.RegisterBuiltins(chain, log)
//
//	exec := executor.New(cfg.Executor, chain, scope.New(), log)
//	result := exec.Execute(cmd, args, nil, nil, executor.Options{})
//
// # Key Packages
//
//	pkg/executor    - Bounded, cancellable command executor
//	pkg/middleware  - Ordered stage pipeline with built-in stages
//	pkg/pool        - Adaptive object pooling and the pool registry
//	pkg/command     - Command interface, capability hooks, results
//	pkg/cancel      - Monotonic cooperative cancellation signals
//	pkg/scope       - Hierarchical dependency registry
//	pkg/config      - Runtime configuration with YAML loading
//	pkg/qerrors     - Structured error handling
//	pkg/logger      - Structured logging
//	pkg/metrics     - Prometheus metrics collection
//
// # Cancellation
//
// Cancellation is cooperative and monotonic. A cancel.Signal fires once,
// keeps its first reason, and is observed at every middleware stage
// boundary and at handler checkpoints; nothing is preempted mid-flight.
//
// # Configuration
//
// Configuration layers defaults, an optional YAML file, and QUASAR_*
// environment variables. Environment references in files use the
// ${VAR_NAME} syntax.
package quasar
