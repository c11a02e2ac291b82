package main

import (
	"bytes"
	"strings"
	"time"

	"github.com/ajitpratap0/quasar/pkg/command"
	"github.com/ajitpratap0/quasar/pkg/pool"
	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// echoCommand writes its arguments back, rendering through a pooled buffer.
type echoCommand struct {
	buffers *pool.Pool[*bytes.Buffer]
}

func (c *echoCommand) Name() string { return "echo" }

func (c *echoCommand) Validate(ctx *command.ExecutionContext) error {
	if len(ctx.Args) == 0 {
		return qerrors.New(qerrors.KindValidation, "echo requires at least one argument")
	}
	return nil
}

func (c *echoCommand) Execute(ctx *command.ExecutionContext) (*command.Result, error) {
	buf := c.buffers.Acquire()
	defer c.buffers.Release(buf)

	buf.WriteString(strings.Join(ctx.Args, " "))
	return command.OKMessage(buf.String()), nil
}

// sleepCommand waits for the duration given as its first argument,
// observing the cancellation signal while it waits.
type sleepCommand struct{}

func (c *sleepCommand) Name() string { return "sleep" }

func (c *sleepCommand) Validate(ctx *command.ExecutionContext) error {
	if len(ctx.Args) != 1 {
		return qerrors.New(qerrors.KindValidation, "sleep requires exactly one duration argument")
	}
	if _, err := time.ParseDuration(ctx.Args[0]); err != nil {
		return qerrors.Wrap(err, qerrors.KindValidation, "invalid duration")
	}
	return nil
}

func (c *sleepCommand) Execute(ctx *command.ExecutionContext) (*command.Result, error) {
	d, _ := time.ParseDuration(ctx.Args[0])

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return command.OKMessage("slept " + d.String()), nil
	case <-ctx.Cancellation.Done():
		return nil, ctx.Cancellation.Check()
	}
}

// failCommand always fails; useful for exercising the error-handling stage.
type failCommand struct{}

func (c *failCommand) Name() string { return "fail" }

func (c *failCommand) Execute(ctx *command.ExecutionContext) (*command.Result, error) {
	return nil, qerrors.New(qerrors.KindInternal, "fail command invoked")
}

func builtinCommands(buffers *pool.Pool[*bytes.Buffer]) map[string]command.Command {
	return map[string]command.Command{
		"echo":  &echoCommand{buffers: buffers},
		"sleep": &sleepCommand{},
		"fail":  &failCommand{},
	}
}
