// Package pool provides adaptive, type-safe object pooling for the Quasar
// runtime. Unlike sync.Pool, a Pool tracks exact idle and active sets so it
// can enforce size bounds, detect foreign releases, and resize itself from
// two heuristics: a fast path reacting to individual misses and releases,
// and a coarser periodic optimize cycle that corrects drift under bursty
// traffic. The two paths use different thresholds on purpose; both clamp to
// [MinSize, MaxSize], so their disagreement only moves sizes inside the
// legal band (intentional hysteresis).
package pool

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Optimize-cycle constants. Deliberately coarser than the per-call
// heuristics: 20% steps against wider utilization bands.
const (
	optimizeStep        = 0.20
	optimizeGrowUtil    = 0.75
	optimizeShrinkUtil  = 0.25
	optimizeLowHitRate  = 0.50
	optimizeHighHitRate = 0.90
)

// Managed is the registry-facing surface of a pool, independent of its
// element type.
type Managed interface {
	Name() string
	Metrics() Metrics
	Optimize()
	Dispose()
}

// Pool is an adaptive object pool for instances of T. T must be comparable
// so ownership can be tracked by identity; pointer types are the intended
// use. An idle object is owned exclusively by the pool; ownership transfers
// to the caller on Acquire and back on Release.
//
// The factory, reset, and validator callbacks run while the pool lock is
// held and must not call back into the pool.
type Pool[T comparable] struct {
	name     string
	config   Config
	factory  func() T
	reset    func(T)
	validate func(T) bool
	logger   *zap.Logger

	mu       sync.Mutex
	idle     []T
	active   map[T]time.Time
	disposed bool

	acquisitions  int64
	releases      int64
	hits          int64
	misses        int64
	growthEvents  int64
	shrinkEvents  int64
	peakActive    int64
	lifetimeTotal time.Duration
	lifetimeCount int64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option customizes pool construction.
type Option[T comparable] func(*Pool[T])

// WithValidator installs a health check applied to recycled instances on
// Acquire. Instances failing it are discarded.
func WithValidator[T comparable](fn func(T) bool) Option[T] {
	return func(p *Pool[T]) { p.validate = fn }
}

// WithLogger attaches a logger for warnings and sizing events.
func WithLogger[T comparable](logger *zap.Logger) Option[T] {
	return func(p *Pool[T]) {
		p.logger = logger.With(zap.String("component", "pool"), zap.String("pool", p.name))
	}
}

// New creates a pool. The factory constructs instances; reset, if non-nil,
// is applied before an instance re-enters the idle set. Warmup and the
// background optimize cycle follow cfg.
func New[T comparable](name string, factory func() T, reset func(T), cfg Config, opts ...Option[T]) (*Pool[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool[T]{
		name:    name,
		config:  cfg,
		factory: factory,
		reset:   reset,
		logger:  zap.NewNop(),
		active:  make(map[T]time.Time),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.WarmupEnabled {
		p.idle = make([]T, 0, cfg.InitialSize)
		for i := 0; i < cfg.InitialSize; i++ {
			p.idle = append(p.idle, factory())
		}
	}

	if cfg.AutoOptimizeEnabled {
		go p.optimizeLoop()
	}

	return p, nil
}

// Name returns the pool's registry name.
func (p *Pool[T]) Name() string { return p.name }

// Acquire returns an instance, transferring ownership to the caller. It
// never blocks and never fails: a recycled instance when one is idle and
// valid, otherwise a fresh construction. A miss additionally runs the
// fast-path growth heuristic.
func (p *Pool[T]) Acquire() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acquisitions++

	for len(p.idle) > 0 {
		obj := p.popIdleLocked()
		if p.validate == nil || p.validate(obj) {
			p.hits++
			p.trackActiveLocked(obj)
			return obj
		}
		p.logger.Debug("discarding invalid idle object")
	}

	p.misses++
	obj := p.factory()
	p.trackActiveLocked(obj)
	p.growLocked()
	return obj
}

// Release returns an instance to the pool. Releasing an object this pool
// does not track as active (double release, or an object from elsewhere)
// is a warned no-op, never a panic or error.
func (p *Pool[T]) Release(obj T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acquiredAt, ok := p.active[obj]
	if !ok {
		p.logger.Warn("release of object not tracked as active; ignoring")
		return
	}

	delete(p.active, obj)
	p.releases++
	p.lifetimeTotal += time.Since(acquiredAt)
	p.lifetimeCount++

	if p.reset != nil {
		p.reset(obj)
	}

	if !p.disposed && len(p.idle) < p.config.MaxSize {
		p.idle = append(p.idle, obj)
	}

	p.shrinkLocked()
}

// Resize grows or shrinks the idle set to exactly n. Values outside
// [MinSize, MaxSize] are rejected.
func (p *Pool[T]) Resize(n int) error {
	if n < p.config.MinSize || n > p.config.MaxSize {
		return qerrors.Newf(qerrors.KindPool,
			"resize to %d outside [%d, %d]", n, p.config.MinSize, p.config.MaxSize).
			WithDetail("pool", p.name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.idle) < n {
		p.idle = append(p.idle, p.factory())
	}
	for len(p.idle) > n {
		p.popIdleLocked()
	}
	return nil
}

// Optimize runs one pass of the coarse sizing cycle. It is invoked
// periodically when auto-optimize is on, and may be called directly; the
// outcome depends only on the counters at the time of the call.
func (p *Pool[T]) Optimize() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return
	}

	hitRate := p.hitRateLocked()
	util := p.utilizationLocked()
	total := len(p.active) + len(p.idle)

	switch {
	case p.acquisitions > 0 && (util >= optimizeGrowUtil || hitRate < optimizeLowHitRate) && len(p.idle) < p.config.MaxSize:
		step := int(math.Ceil(optimizeStep * float64(total)))
		if step < 1 {
			step = 1
		}
		if len(p.idle)+step > p.config.MaxSize {
			step = p.config.MaxSize - len(p.idle)
		}
		for i := 0; i < step; i++ {
			p.idle = append(p.idle, p.factory())
		}
		p.growthEvents++
		p.logger.Debug("optimize grew idle set",
			zap.Int("step", step),
			zap.Float64("utilization", util),
			zap.Float64("hit_rate", hitRate))

	case util <= optimizeShrinkUtil && hitRate >= optimizeHighHitRate && len(p.idle) > p.config.MinSize:
		step := int(math.Floor(optimizeStep * float64(len(p.idle))))
		if len(p.idle)-step < p.config.MinSize {
			step = len(p.idle) - p.config.MinSize
		}
		if step > 0 {
			for i := 0; i < step; i++ {
				p.popIdleLocked()
			}
			p.shrinkEvents++
			p.logger.Debug("optimize shrank idle set",
				zap.Int("step", step),
				zap.Float64("utilization", util),
				zap.Float64("hit_rate", hitRate))
		}
	}
}

// Dispose stops the optimize ticker and drops all idle instances. Objects
// still checked out become foreign to the pool; releasing them afterwards
// is the usual warned no-op. Acquire keeps working via the factory.
func (p *Pool[T]) Dispose() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.idle) > 0 {
		p.popIdleLocked()
	}
	p.active = make(map[T]time.Time)
	p.disposed = true
}

// Metrics returns a snapshot of the pool's counters and derived rates.
func (p *Pool[T]) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	var avgLifetime time.Duration
	if p.lifetimeCount > 0 {
		avgLifetime = p.lifetimeTotal / time.Duration(p.lifetimeCount)
	}

	return Metrics{
		Acquisitions:    p.acquisitions,
		Releases:        p.releases,
		Hits:            p.hits,
		Misses:          p.misses,
		GrowthEvents:    p.growthEvents,
		ShrinkEvents:    p.shrinkEvents,
		PeakActive:      p.peakActive,
		AverageLifetime: avgLifetime,
		HitRate:         p.hitRateLocked(),
		Utilization:     p.utilizationLocked(),
		IdleCount:       len(p.idle),
		ActiveCount:     len(p.active),
	}
}

// IdleCount returns the current idle set size.
func (p *Pool[T]) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// ActiveCount returns the number of checked-out instances.
func (p *Pool[T]) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Utilization returns the fraction of pooled instances currently active,
// zero when the pool holds nothing at all.
func (p *Pool[T]) Utilization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.utilizationLocked()
}

func (p *Pool[T]) trackActiveLocked(obj T) {
	p.active[obj] = time.Now()
	if n := int64(len(p.active)); n > p.peakActive {
		p.peakActive = n
	}
}

func (p *Pool[T]) popIdleLocked() T {
	last := len(p.idle) - 1
	obj := p.idle[last]
	var zero T
	p.idle[last] = zero
	p.idle = p.idle[:last]
	return obj
}

// utilizationLocked is defined as 0 when the pool is empty; the
// active+idle == 0 case must never divide.
func (p *Pool[T]) utilizationLocked() float64 {
	total := len(p.active) + len(p.idle)
	if total == 0 {
		return 0
	}
	return float64(len(p.active)) / float64(total)
}

func (p *Pool[T]) hitRateLocked() float64 {
	if p.acquisitions == 0 {
		return 0
	}
	return float64(p.hits) / float64(p.acquisitions)
}

// growLocked is the fast-path heuristic, triggered on a miss.
func (p *Pool[T]) growLocked() {
	if p.disposed {
		return
	}

	util := p.utilizationLocked()
	if util <= p.config.GrowthThreshold && !(len(p.idle) == 0 && len(p.active) > 0) {
		return
	}

	step := int(math.Ceil(float64(len(p.idle)) * (p.config.GrowthFactor - 1)))
	if step < 1 {
		step = 1
	}
	if len(p.idle)+step > p.config.MaxSize {
		step = p.config.MaxSize - len(p.idle)
	}
	if step <= 0 {
		return
	}

	for i := 0; i < step; i++ {
		p.idle = append(p.idle, p.factory())
	}
	p.growthEvents++
	p.logger.Debug("fast path grew idle set",
		zap.Int("step", step),
		zap.Float64("utilization", util))
}

// shrinkLocked is the fast-path heuristic, triggered on a release.
func (p *Pool[T]) shrinkLocked() {
	util := p.utilizationLocked()
	if util >= p.config.ShrinkThreshold || len(p.idle) <= p.config.MinSize {
		return
	}

	step := int(math.Floor(float64(len(p.idle)) * (1 - p.config.ShrinkFactor)))
	if len(p.idle)-step < p.config.MinSize {
		step = len(p.idle) - p.config.MinSize
	}
	if step <= 0 {
		return
	}

	for i := 0; i < step; i++ {
		p.popIdleLocked()
	}
	p.shrinkEvents++
	p.logger.Debug("fast path shrank idle set",
		zap.Int("step", step),
		zap.Float64("utilization", util))
}

func (p *Pool[T]) optimizeLoop() {
	ticker := time.NewTicker(p.config.OptimizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Optimize()
		case <-p.stopCh:
			return
		}
	}
}
