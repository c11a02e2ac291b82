package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/command"
	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Built-in stage names and orders. Smaller orders wrap further out, so
// error-handling encloses everything and validation sits closest to the
// terminal call.
const (
	StageErrorHandling = "error-handling"
	StageTiming        = "timing"
	StageLogging       = "logging"
	StageLifecycle     = "lifecycle"
	StageValidation    = "validation"

	OrderErrorHandling = -100
	OrderTiming        = -50
	OrderLogging       = -40
	OrderLifecycle     = -30
	OrderValidation    = -20
)

// MetadataDuration is the context metadata key the timing stage writes.
const MetadataDuration = "duration"

// RegisterBuiltins installs the canonical stage set on a chain.
func RegisterBuiltins(c *Chain, logger *zap.Logger) {
	c.Use(StageErrorHandling, ErrorHandling(logger), OrderErrorHandling)
	c.Use(StageTiming, Timing(), OrderTiming)
	c.Use(StageLogging, Logging(logger), OrderLogging)
	c.Use(StageLifecycle, Lifecycle(logger), OrderLifecycle)
	c.Use(StageValidation, Validation(), OrderValidation)
}

// ErrorHandling converts any error or panic escaping the inner stages into
// a failed Result. It is the outermost stage; without it, failures
// propagate to the executor as-is.
func ErrorHandling(logger *zap.Logger) Handler {
	log := logger.With(zap.String("stage", StageErrorHandling))

	return func(ctx *command.ExecutionContext, next Next) (result *command.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered in pipeline",
					zap.String("command", ctx.Command.Name()),
					zap.Any("panic", r))
				result = command.Fail(qerrors.Newf(qerrors.KindInternal, "panic: %v", r))
				err = nil
			}
		}()

		result, err = next()
		if err != nil {
			log.Warn("pipeline error converted to failed result",
				zap.String("command", ctx.Command.Name()),
				zap.Error(err))
			return command.Fail(err), nil
		}
		return result, nil
	}
}

// Timing measures wall-clock duration of everything inside it and records
// it in the context metadata.
func Timing() Handler {
	return func(ctx *command.ExecutionContext, next Next) (*command.Result, error) {
		start := time.Now()
		result, err := next()
		ctx.SetMetadata(MetadataDuration, time.Since(start))
		return result, err
	}
}

// Logging emits start and settle events for each execution.
func Logging(logger *zap.Logger) Handler {
	log := logger.With(zap.String("stage", StageLogging))

	return func(ctx *command.ExecutionContext, next Next) (*command.Result, error) {
		log.Debug("command starting",
			zap.String("command", ctx.Command.Name()),
			zap.Strings("args", ctx.Args))

		result, err := next()

		switch {
		case err != nil:
			log.Warn("command failed",
				zap.String("command", ctx.Command.Name()),
				zap.Error(err))
		case result != nil && !result.Success:
			log.Warn("command returned failure",
				zap.String("command", ctx.Command.Name()),
				zap.Int("exit_code", result.ExitCode),
				zap.String("message", result.Message))
		default:
			log.Debug("command completed",
				zap.String("command", ctx.Command.Name()))
		}
		return result, err
	}
}

// Lifecycle runs the optional Setup hook before the terminal call and the
// optional Cleanup hook after it. Setup failure aborts the execution with a
// failed Result; Cleanup failure is logged and swallowed so it never masks
// the primary outcome.
func Lifecycle(logger *zap.Logger) Handler {
	log := logger.With(zap.String("stage", StageLifecycle))

	return func(ctx *command.ExecutionContext, next Next) (*command.Result, error) {
		if hook, ok := ctx.Command.(command.SetupHook); ok {
			if err := hook.Setup(); err != nil {
				setupErr := qerrors.Wrap(err, qerrors.KindSetup, "command setup failed").
					WithDetail("command", ctx.Command.Name())
				return command.Fail(setupErr), nil
			}
		}

		result, err := next()

		if hook, ok := ctx.Command.(command.CleanupHook); ok {
			if cleanupErr := hook.Cleanup(); cleanupErr != nil {
				log.Warn("command cleanup failed",
					zap.String("command", ctx.Command.Name()),
					zap.Error(cleanupErr))
			}
		}

		return result, err
	}
}

// Validation calls the optional Validate hook. A validation failure is
// recovered locally into a failed Result and never propagates as an error.
func Validation() Handler {
	return func(ctx *command.ExecutionContext, next Next) (*command.Result, error) {
		if v, ok := ctx.Command.(command.Validator); ok {
			if err := v.Validate(ctx); err != nil {
				valErr := qerrors.Wrap(err, qerrors.KindValidation, "command validation failed").
					WithDetail("command", ctx.Command.Name())
				return command.Fail(valErr), nil
			}
		}
		return next()
	}
}
