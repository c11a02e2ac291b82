// Package middleware implements the ordered stage pipeline every execution
// flows through. A chain wraps a terminal handler with named stages sorted
// by (order, insertion sequence); each stage may observe the context, call
// next() to continue inward, or return its own result to short-circuit.
package middleware

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/command"
)

// Next continues the pipeline toward the terminal handler.
type Next func() (*command.Result, error)

// Handler is one stage of the pipeline.
type Handler func(ctx *command.ExecutionContext, next Next) (*command.Result, error)

// Terminal is the innermost operation, the command body itself.
type Terminal func(ctx *command.ExecutionContext) (*command.Result, error)

type stage struct {
	name    string
	order   int
	seq     int
	handler Handler
}

// Chain is an ordered list of stages. Stages are registered at build time;
// a snapshot is taken per Execute so an in-flight run never observes a
// concurrent Use or Remove.
type Chain struct {
	mu      sync.RWMutex
	stages  []stage
	nextSeq int
	logger  *zap.Logger
}

// NewChain creates an empty chain.
func NewChain(logger *zap.Logger) *Chain {
	return &Chain{logger: logger.With(zap.String("component", "middleware_chain"))}
}

// Use inserts a stage and re-sorts by (order, insertion sequence). Smaller
// orders run further out. Registering an existing name replaces that stage
// in place, keeping its original insertion sequence.
func (c *Chain) Use(name string, handler Handler, order int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.stages {
		if c.stages[i].name == name {
			c.stages[i].handler = handler
			c.stages[i].order = order
			c.sortLocked()
			return
		}
	}

	c.stages = append(c.stages, stage{name: name, order: order, seq: c.nextSeq, handler: handler})
	c.nextSeq++
	c.sortLocked()
}

// Remove deletes a stage by name, reporting whether it was present.
func (c *Chain) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.stages {
		if c.stages[i].name == name {
			c.stages = append(c.stages[:i], c.stages[i+1:]...)
			return true
		}
	}
	return false
}

// StageNames returns the registered stage names in execution order.
func (c *Chain) StageNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.name
	}
	return names
}

func (c *Chain) sortLocked() {
	sort.SliceStable(c.stages, func(i, j int) bool {
		if c.stages[i].order != c.stages[j].order {
			return c.stages[i].order < c.stages[j].order
		}
		return c.stages[i].seq < c.stages[j].seq
	})
}

// Execute runs ctx through the chain and into terminal. The continuation is
// cursor-driven: a single index advances across the stage snapshot, so the
// chain itself adds no closure nesting beyond the handlers' own frames.
// The cancellation signal is checked at every stage boundary.
func (c *Chain) Execute(ctx *command.ExecutionContext, terminal Terminal) (*command.Result, error) {
	c.mu.RLock()
	snapshot := make([]stage, len(c.stages))
	copy(snapshot, c.stages)
	c.mu.RUnlock()

	idx := -1
	var next Next
	next = func() (*command.Result, error) {
		idx++

		if ctx.Cancellation != nil {
			if err := ctx.Cancellation.Check(); err != nil {
				return nil, err
			}
		}

		if idx < len(snapshot) {
			s := snapshot[idx]
			return s.handler(ctx, next)
		}
		return terminal(ctx)
	}

	return next()
}
