// Package executor implements the concurrency-bounded command executor at
// the heart of the Quasar runtime. In-flight executions are capped by a
// fixed worker pool; submissions beyond the cap queue FIFO and are never
// rejected for capacity reasons. Each execution gets its own context,
// cancellation signal, and child scope, runs through the middleware chain,
// and races the pipeline against its timeout.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/cancel"
	"github.com/ajitpratap0/quasar/pkg/command"
	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/metrics"
	"github.com/ajitpratap0/quasar/pkg/middleware"
	"github.com/ajitpratap0/quasar/pkg/qerrors"
	"github.com/ajitpratap0/quasar/pkg/scope"
)

// Options carries per-call settings for ExecuteAsync.
type Options struct {
	// Timeout overrides the executor's default; zero means the default,
	// negative disables the timer entirely.
	Timeout time.Duration
	// Scope, when set, is used as the parent of the execution's child scope.
	Scope *scope.Scope
	// Cancellation, when set, is shared with the caller; otherwise the
	// executor creates a fresh signal.
	Cancellation *cancel.Signal
}

// Execution is the caller's handle on one submitted command.
type Execution struct {
	id     string
	signal *cancel.Signal
	done   chan struct{}
	result *command.Result
}

// ID returns the execution's record ID.
func (e *Execution) ID() string { return e.id }

// Signal returns the execution's cancellation signal.
func (e *Execution) Signal() *cancel.Signal { return e.signal }

// Wait blocks until the execution settles and returns its result.
func (e *Execution) Wait() *command.Result {
	<-e.done
	return e.result
}

// Done returns a channel closed when the execution settles.
func (e *Execution) Done() <-chan struct{} { return e.done }

type task struct {
	exec    *Execution
	cmd     command.Command
	args    []string
	options map[string]string
	rawArgs []string
	opts    Options
	record  *Record
}

// Executor bounds, schedules, and tracks command executions.
type Executor struct {
	cfg       config.ExecutorConfig
	chain     *middleware.Chain
	rootScope *scope.Scope
	logger    *zap.Logger

	mu       sync.Mutex
	queue    []*task
	notEmpty *sync.Cond
	shutdown bool
	records  map[string]*Record
	signals  map[string]*cancel.Signal

	totalExecuted int64
	succeeded     int64
	failed        int64
	cancelled     int64
	running       int64
	durationTotal time.Duration

	wg       sync.WaitGroup // in-flight and queued executions
	workerWG sync.WaitGroup
}

// New creates an executor and starts its worker pool. The chain is shared
// by all executions; stage registration should finish before traffic starts.
func New(cfg config.ExecutorConfig, chain *middleware.Chain, rootScope *scope.Scope, logger *zap.Logger) *Executor {
	e := &Executor{
		cfg:       cfg,
		chain:     chain,
		rootScope: rootScope,
		logger:    logger.With(zap.String("component", "executor")),
		records:   make(map[string]*Record),
		signals:   make(map[string]*cancel.Signal),
	}
	e.notEmpty = sync.NewCond(&e.mu)

	for i := 0; i < cfg.MaxConcurrentExecutions; i++ {
		e.workerWG.Add(1)
		go e.worker()
	}

	e.logger.Info("executor started",
		zap.Int("max_concurrent_executions", cfg.MaxConcurrentExecutions),
		zap.Duration("default_timeout", cfg.DefaultTimeout))

	return e
}

// ExecuteAsync submits one command. It returns immediately with a handle;
// the execution queues FIFO when all worker slots are busy. A nil command
// settles as a failed not-found result rather than an error or panic.
func (e *Executor) ExecuteAsync(cmd command.Command, args []string, options map[string]string, rawArgs []string, opts Options) *Execution {
	signal := opts.Cancellation
	if signal == nil {
		signal = cancel.NewSignal()
	}

	exec := &Execution{
		id:     uuid.NewString(),
		signal: signal,
		done:   make(chan struct{}),
	}

	name := "<unknown>"
	if cmd != nil {
		name = cmd.Name()
	}
	record := &Record{
		ID:          exec.id,
		CommandName: name,
		StartedAt:   time.Now(),
		Status:      StatusPending,
	}

	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		e.settleImmediate(exec, record, command.Fail(
			qerrors.New(qerrors.KindInternal, "executor is shut down")), StatusFailed)
		return exec
	}
	e.records[exec.id] = record
	e.signals[exec.id] = signal
	e.wg.Add(1)

	if cmd == nil {
		e.mu.Unlock()
		e.settle(exec, record, command.Fail(
			qerrors.New(qerrors.KindNotFound, "unknown command")), StatusFailed, 0)
		return exec
	}

	e.queue = append(e.queue, &task{
		exec:    exec,
		cmd:     cmd,
		args:    args,
		options: options,
		rawArgs: rawArgs,
		opts:    opts,
		record:  record,
	})
	metrics.QueueDepth.Set(float64(len(e.queue)))
	e.notEmpty.Signal()
	e.mu.Unlock()

	return exec
}

// Execute submits a command and blocks until it settles.
func (e *Executor) Execute(cmd command.Command, args []string, options map[string]string, rawArgs []string, opts Options) *command.Result {
	return e.ExecuteAsync(cmd, args, options, rawArgs, opts).Wait()
}

// ExecuteConcurrent runs all requests with no ordering guarantee between
// them. The result slice preserves input order.
func (e *Executor) ExecuteConcurrent(reqs []command.Request) []*command.Result {
	handles := make([]*Execution, len(reqs))
	for i, req := range reqs {
		handles[i] = e.ExecuteAsync(req.Command, req.Args, req.Options, req.RawArgs, Options{Timeout: req.Timeout})
	}

	results := make([]*command.Result, len(reqs))
	for i, h := range handles {
		results[i] = h.Wait()
	}
	return results
}

// ExecuteSequential runs requests strictly one at a time, each settling
// (cleanup included) before the next starts. A failing entry never prevents
// later independent entries from running.
func (e *Executor) ExecuteSequential(reqs []command.Request) []*command.Result {
	results := make([]*command.Result, 0, len(reqs))
	for _, req := range reqs {
		res := e.ExecuteAsync(req.Command, req.Args, req.Options, req.RawArgs, Options{Timeout: req.Timeout}).Wait()
		results = append(results, res)
	}
	return results
}

// CancelAll cancels every pending and running execution and returns how
// many were signalled. Cancellation remains cooperative: a running handler
// that never checks its signal settles only when it returns.
func (e *Executor) CancelAll(reason string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for id, record := range e.records {
		if record.Status == StatusPending || record.Status == StatusRunning {
			if sig, ok := e.signals[id]; ok {
				sig.Cancel(reason)
				count++
			}
		}
	}

	e.logger.Info("cancelled executions", zap.Int("count", count), zap.String("reason", reason))
	return count
}

// WaitForAll blocks until every submitted execution has settled.
func (e *Executor) WaitForAll() {
	e.wg.Wait()
}

// Shutdown stops intake and waits for in-flight work up to the configured
// grace period, then up to ctx's deadline.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.shutdown = true
	e.notEmpty.Broadcast()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		e.workerWG.Wait()
		close(done)
	}()

	grace := e.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		e.logger.Info("executor drained")
		return nil
	case <-timer.C:
		return qerrors.New(qerrors.KindTimeout, "shutdown grace period exceeded")
	case <-ctx.Done():
		return qerrors.Wrap(ctx.Err(), qerrors.KindTimeout, "shutdown context expired")
	}
}

// Stats reports the executor's aggregate counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var avg time.Duration
	if e.totalExecuted > 0 {
		avg = e.durationTotal / time.Duration(e.totalExecuted)
	}

	return Stats{
		TotalExecuted:    e.totalExecuted,
		Succeeded:        e.succeeded,
		Failed:           e.failed,
		Cancelled:        e.cancelled,
		CurrentlyRunning: e.running,
		AverageDuration:  avg,
	}
}

// Records returns a snapshot of all execution records.
func (e *Executor) Records() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Record, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, *r)
	}
	return out
}

func (e *Executor) worker() {
	defer e.workerWG.Done()

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.shutdown {
			e.notEmpty.Wait()
		}
		if len(e.queue) == 0 && e.shutdown {
			e.mu.Unlock()
			return
		}
		t := e.queue[0]
		e.queue = e.queue[1:]
		metrics.QueueDepth.Set(float64(len(e.queue)))
		e.mu.Unlock()

		e.run(t)
	}
}

type pipelineOutcome struct {
	result *command.Result
	err    error
}

func (e *Executor) run(t *task) {
	// Cancelled while still queued: settle without touching the pipeline.
	if t.exec.signal.Cancelled() {
		e.settle(t.exec, t.record, command.Fail(
			qerrors.New(qerrors.KindCancelled, "cancelled before start").
				WithDetail("reason", t.exec.signal.Reason())), StatusCancelled, 0)
		return
	}

	e.mu.Lock()
	t.record.Status = StatusRunning
	t.record.StartedAt = time.Now()
	e.running++
	e.mu.Unlock()
	metrics.ExecutionsInFlight.Inc()

	parent := t.opts.Scope
	if parent == nil {
		parent = e.rootScope
	}
	childScope := parent.CreateChild()
	childScope.Register("execution_id", t.exec.id)

	ctx := &command.ExecutionContext{
		Command:      t.cmd,
		Args:         t.args,
		Options:      t.options,
		RawArgs:      t.rawArgs,
		Cancellation: t.exec.signal,
		Scope:        childScope,
		Metadata:     make(map[string]interface{}),
		Logger: e.logger.With(
			zap.String("execution_id", t.exec.id),
			zap.String("command", t.cmd.Name())),
	}

	timeout := t.opts.Timeout
	if timeout == 0 {
		timeout = e.cfg.DefaultTimeout
	}

	start := time.Now()
	outcomeCh := make(chan pipelineOutcome, 1)
	go func() {
		result, err := e.chain.Execute(ctx, func(c *command.ExecutionContext) (*command.Result, error) {
			return c.Command.Execute(c)
		})
		outcomeCh <- pipelineOutcome{result: result, err: err}
	}()

	var result *command.Result
	var status Status

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case out := <-outcomeCh:
			result, status = e.interpret(out)
		case <-timer.C:
			// The timer won the race. Cancel the pipeline and synthesize a
			// timeout result; the pipeline's eventual settlement is
			// discarded, but side effects it already performed stand.
			t.exec.signal.Cancel("execution timed out")
			result = command.Fail(qerrors.Newf(qerrors.KindTimeout,
				"execution exceeded timeout of %s", timeout).
				WithDetail("command", t.cmd.Name()))
			status = StatusFailed
		}
	} else {
		result, status = e.interpret(<-outcomeCh)
	}

	metrics.ExecutionsInFlight.Dec()
	e.settle(t.exec, t.record, result, status, time.Since(start))
}

// interpret maps a pipeline outcome onto a result and record status.
func (e *Executor) interpret(out pipelineOutcome) (*command.Result, Status) {
	if out.err != nil {
		if qerrors.IsKind(out.err, qerrors.KindCancelled) {
			return command.Fail(out.err), StatusCancelled
		}
		return command.Fail(out.err), StatusFailed
	}
	if out.result == nil {
		return command.Fail(qerrors.New(qerrors.KindInternal,
			"pipeline settled without a result")), StatusFailed
	}
	if !out.result.Success {
		if out.result.Err != nil && qerrors.IsKind(out.result.Err, qerrors.KindCancelled) {
			return out.result, StatusCancelled
		}
		return out.result, StatusFailed
	}
	return out.result, StatusCompleted
}

func (e *Executor) settle(exec *Execution, record *Record, result *command.Result, status Status, duration time.Duration) {
	e.mu.Lock()
	if record.Status == StatusRunning {
		e.running--
	}
	record.Status = status
	record.Duration = duration

	e.totalExecuted++
	e.durationTotal += duration
	switch status {
	case StatusCompleted:
		e.succeeded++
	case StatusCancelled:
		e.cancelled++
	default:
		e.failed++
	}
	e.mu.Unlock()

	metrics.ObserveExecution(record.CommandName, string(status), duration)

	exec.result = result
	close(exec.done)
	e.wg.Done()
}

// settleImmediate finalizes a handle that was rejected before being
// recorded, so it is excluded from stats and WaitForAll accounting.
func (e *Executor) settleImmediate(exec *Execution, record *Record, result *command.Result, status Status) {
	record.Status = status
	exec.result = result
	close(exec.done)
}
