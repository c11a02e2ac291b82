// Package command defines the collaborator boundary between the execution
// runtime and the commands it runs: the Command interface with its optional
// capability hooks, the Result every execution settles to, and the
// ExecutionContext threaded through the middleware chain.
package command

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/cancel"
	"github.com/ajitpratap0/quasar/pkg/scope"
)

// Command is the terminal operation a middleware chain ultimately invokes.
type Command interface {
	// Name identifies the command for dispatch, logging, and stats.
	Name() string
	// Execute runs the command body.
	Execute(ctx *ExecutionContext) (*Result, error)
}

// Validator is an optional capability. The validation stage calls Validate
// before the terminal call and converts a failure into a failed Result.
type Validator interface {
	Validate(ctx *ExecutionContext) error
}

// SetupHook is an optional capability. The lifecycle stage calls Setup
// before the terminal call; a failure aborts the execution.
type SetupHook interface {
	Setup() error
}

// CleanupHook is an optional capability. The lifecycle stage calls Cleanup
// after the terminal call; a failure is logged and swallowed so it never
// masks the primary result.
type CleanupHook interface {
	Cleanup() error
}

// Result is the settled outcome of one execution.
type Result struct {
	Success  bool        `json:"success"`
	ExitCode int         `json:"exit_code"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Err      error       `json:"-"`
}

// OK returns a successful result carrying data.
func OK(data interface{}) *Result {
	return &Result{Success: true, ExitCode: 0, Data: data}
}

// OKMessage returns a successful result with a message.
func OKMessage(message string) *Result {
	return &Result{Success: true, ExitCode: 0, Message: message}
}

// Fail returns a failed result wrapping err.
func Fail(err error) *Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Result{Success: false, ExitCode: 1, Message: msg, Err: err}
}

// Request describes one entry of a batch submitted to the executor.
type Request struct {
	Command Command
	Args    []string
	Options map[string]string
	RawArgs []string
	Timeout time.Duration
}

// ExecutionContext carries everything one invocation needs. It is created
// per call by the executor and discarded once the result is returned.
type ExecutionContext struct {
	Command      Command
	Args         []string
	Options      map[string]string
	RawArgs      []string
	Cancellation *cancel.Signal
	Scope        *scope.Scope
	Metadata     map[string]interface{}
	Logger       *zap.Logger
}

// SetMetadata stores a per-execution value, initializing the map if needed.
func (c *ExecutionContext) SetMetadata(key string, value interface{}) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	c.Metadata[key] = value
}

// GetMetadata retrieves a per-execution value.
func (c *ExecutionContext) GetMetadata(key string) (interface{}, bool) {
	if c.Metadata == nil {
		return nil, false
	}
	v, ok := c.Metadata[key]
	return v, ok
}
