package pool

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/performance"
)

// Registry is a name-to-pool directory with aggregate analytics. Pools are
// fully independent: the registry never moves capacity between them. It is
// an explicit instance owned by whoever builds the runtime; there is no
// package-level singleton.
type Registry struct {
	mu      sync.RWMutex
	pools   map[string]Managed
	logger  *zap.Logger
	monitor *performance.Monitor
}

// Analytics aggregates counters across all registered pools together with
// a process resource snapshot.
type Analytics struct {
	PoolCount         int                  `json:"pool_count"`
	TotalAcquisitions int64                `json:"total_acquisitions"`
	TotalHits         int64                `json:"total_hits"`
	CombinedHitRate   float64              `json:"combined_hit_rate"`
	TotalIdle         int                  `json:"total_idle"`
	TotalActive       int                  `json:"total_active"`
	Process           performance.Snapshot `json:"process"`
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		pools:   make(map[string]Managed),
		logger:  logger.With(zap.String("component", "pool_registry")),
		monitor: performance.NewMonitor(),
	}
}

// Register stores a pool under its name. Last registration wins; a
// replaced pool is disposed so its optimize ticker does not leak.
func (r *Registry) Register(p Managed) {
	r.mu.Lock()
	old, existed := r.pools[p.Name()]
	r.pools[p.Name()] = p
	r.mu.Unlock()

	if existed {
		r.logger.Warn("pool registration overwritten", zap.String("pool", p.Name()))
		old.Dispose()
	}
}

// RegisterNew creates a pool from its parts and registers it in one step.
func RegisterNew[T comparable](r *Registry, name string, factory func() T, reset func(T), cfg Config, opts ...Option[T]) (*Pool[T], error) {
	p, err := New(name, factory, reset, cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.Register(p)
	return p, nil
}

// Get returns the named pool, if registered.
func (r *Registry) Get(name string) (Managed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[name]
	return p, ok
}

// AllMetrics snapshots every registered pool.
func (r *Registry) AllMetrics() map[string]Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Metrics, len(r.pools))
	for name, p := range r.pools {
		out[name] = p.Metrics()
	}
	return out
}

// OptimizeAll forces one optimize pass on every pool.
func (r *Registry) OptimizeAll() {
	r.mu.RLock()
	pools := make([]Managed, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.RUnlock()

	for _, p := range pools {
		p.Optimize()
	}
}

// Analytics aggregates all pool metrics and attaches a process snapshot.
func (r *Registry) Analytics() Analytics {
	all := r.AllMetrics()

	a := Analytics{
		PoolCount: len(all),
		Process:   r.monitor.Capture(),
	}
	for _, m := range all {
		a.TotalAcquisitions += m.Acquisitions
		a.TotalHits += m.Hits
		a.TotalIdle += m.IdleCount
		a.TotalActive += m.ActiveCount
	}
	if a.TotalAcquisitions > 0 {
		a.CombinedHitRate = float64(a.TotalHits) / float64(a.TotalAcquisitions)
	}
	return a
}

// Dispose tears down every pool and empties the registry.
func (r *Registry) Dispose() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]Managed)
	r.mu.Unlock()

	for name, p := range pools {
		p.Dispose()
		r.logger.Debug("pool disposed", zap.String("pool", name))
	}
}
