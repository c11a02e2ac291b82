package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

type widget struct {
	id    int
	dirty bool
}

// testConfig returns a deterministic configuration: no background ticker,
// and a shrink threshold of zero so releases never shrink unless a test
// raises it on purpose.
func testConfig() Config {
	return Config{
		InitialSize:     5,
		MinSize:         2,
		MaxSize:         20,
		GrowthFactor:    2.0,
		ShrinkFactor:    0.5,
		GrowthThreshold: 0.8,
		ShrinkThreshold: 0,
		WarmupEnabled:   true,
	}
}

func newWidgetPool(t *testing.T, cfg Config) *Pool[*widget] {
	t.Helper()

	next := 0
	p, err := New("widgets", func() *widget {
		next++
		return &widget{id: next}
	}, func(w *widget) { w.dirty = false }, cfg)
	require.NoError(t, err)
	t.Cleanup(p.Dispose)
	return p
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MinSize = 10 // violates min <= initial

	_, err := New("bad", func() *widget { return &widget{} }, nil, cfg)
	require.Error(t, err)
	assert.True(t, qerrors.IsKind(err, qerrors.KindConfig))
}

func TestWarmup(t *testing.T) {
	p := newWidgetPool(t, testConfig())
	assert.Equal(t, 5, p.IdleCount())

	cfg := testConfig()
	cfg.WarmupEnabled = false
	cold := newWidgetPool(t, cfg)
	assert.Equal(t, 0, cold.IdleCount())
}

func TestAcquireHitThenMiss(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	// Drain the warmed idle set: all hits.
	held := make([]*widget, 0, 5)
	for i := 0; i < 5; i++ {
		held = append(held, p.Acquire())
	}

	m := p.Metrics()
	assert.Equal(t, int64(5), m.Hits)
	assert.Equal(t, int64(0), m.Misses)
	assert.Equal(t, 5, m.ActiveCount)

	// Next acquire misses and constructs.
	w := p.Acquire()
	require.NotNil(t, w)
	held = append(held, w)

	m = p.Metrics()
	assert.Equal(t, int64(1), m.Misses)
	assert.Equal(t, 6, m.ActiveCount)

	for _, w := range held {
		p.Release(w)
	}
}

func TestMissAtFullUtilizationGrows(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	// Five acquisitions empty the idle set; the sixth misses with
	// utilization 1.0 and must trigger fast-path growth so the idle set
	// is non-empty again.
	for i := 0; i < 6; i++ {
		p.Acquire()
	}

	m := p.Metrics()
	assert.Equal(t, int64(1), m.GrowthEvents)
	assert.Greater(t, m.IdleCount, 0)
	assert.LessOrEqual(t, m.IdleCount, 20)
}

func TestGrowthCappedAtMaxSize(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 2
	cfg.MaxSize = 3
	p := newWidgetPool(t, cfg)

	for i := 0; i < 50; i++ {
		p.Acquire()
	}

	assert.LessOrEqual(t, p.IdleCount(), 3)
}

func TestReleaseReturnsToIdle(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	w := p.Acquire()
	w.dirty = true
	assert.Equal(t, 4, p.IdleCount())
	assert.Equal(t, 1, p.ActiveCount())

	p.Release(w)

	assert.Equal(t, 5, p.IdleCount())
	assert.Equal(t, 0, p.ActiveCount())
	assert.False(t, w.dirty, "reset must run on release")
}

func TestReleaseShrinksUnderLowUtilization(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 8
	cfg.ShrinkThreshold = 0.5
	p := newWidgetPool(t, cfg)

	w := p.Acquire()
	p.Release(w)

	// Utilization 0 after release; half the idle set is dropped.
	m := p.Metrics()
	assert.Equal(t, int64(1), m.ShrinkEvents)
	assert.Equal(t, 4, m.IdleCount)
}

func TestShrinkFloorsAtMinSize(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 3
	cfg.ShrinkThreshold = 1.0
	p := newWidgetPool(t, cfg)

	for i := 0; i < 10; i++ {
		p.Release(p.Acquire())
	}

	assert.GreaterOrEqual(t, p.IdleCount(), cfg.MinSize)
}

func TestForeignReleaseIsNoOp(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	before := p.IdleCount()
	assert.NotPanics(t, func() { p.Release(&widget{id: 999}) })

	assert.Equal(t, before, p.IdleCount())
	assert.Equal(t, int64(0), p.Metrics().Releases)
}

func TestDoubleReleaseIsNoOp(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	w := p.Acquire()
	p.Release(w)
	p.Release(w)

	m := p.Metrics()
	assert.Equal(t, int64(1), m.Releases)
	assert.Equal(t, 5, m.IdleCount)
}

func TestValidatorDiscardsInvalid(t *testing.T) {
	cfg := testConfig()
	next := 0
	p, err := New("widgets", func() *widget {
		next++
		return &widget{id: next}
	}, nil, cfg, WithValidator[*widget](func(w *widget) bool {
		return !w.dirty
	}))
	require.NoError(t, err)
	t.Cleanup(p.Dispose)

	w := p.Acquire()
	w.dirty = true // no reset installed, so the flag survives release
	p.Release(w)

	got := p.Acquire()
	assert.NotSame(t, w, got, "invalid instance must not be served")
	assert.False(t, got.dirty)
}

func TestResize(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	require.NoError(t, p.Resize(10))
	assert.Equal(t, 10, p.IdleCount())

	require.NoError(t, p.Resize(2))
	assert.Equal(t, 2, p.IdleCount())
}

func TestResizeOutOfRange(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	for _, n := range []int{1, 21, -5} {
		err := p.Resize(n)
		require.Error(t, err)
		assert.True(t, qerrors.IsKind(err, qerrors.KindPool))
	}
	assert.Equal(t, 5, p.IdleCount())
}

func TestUtilization(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 0
	cfg.MinSize = 0
	cfg.WarmupEnabled = false
	p := newWidgetPool(t, cfg)

	assert.Zero(t, p.Utilization(), "empty pool must report zero, not NaN")

	w := p.Acquire()
	assert.Greater(t, p.Utilization(), 0.0)
	p.Release(w)
}

func TestOptimizeGrowsOnHighUtilization(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 4
	cfg.GrowthThreshold = 1.0 // keep the fast path quiet
	p := newWidgetPool(t, cfg)

	// Three of four checked out: utilization 0.75 hits the grow band.
	for i := 0; i < 3; i++ {
		p.Acquire()
	}

	before := p.IdleCount()
	p.Optimize()

	m := p.Metrics()
	assert.Equal(t, int64(1), m.GrowthEvents)
	assert.Greater(t, m.IdleCount, before)
}

func TestOptimizeShrinksOnLowUtilization(t *testing.T) {
	cfg := testConfig()
	cfg.InitialSize = 8
	p := newWidgetPool(t, cfg)

	// One hit out of one acquisition: hit rate 1.0, utilization 0 after
	// the release. Squarely in the shrink band.
	p.Release(p.Acquire())

	p.Optimize()

	m := p.Metrics()
	assert.Equal(t, int64(1), m.ShrinkEvents)
	assert.Equal(t, 7, m.IdleCount)
	assert.GreaterOrEqual(t, m.IdleCount, cfg.MinSize)
}

func TestOptimizeIdleOnColdPool(t *testing.T) {
	cfg := testConfig()
	cfg.WarmupEnabled = false
	cfg.InitialSize = 0
	cfg.MinSize = 0
	p := newWidgetPool(t, cfg)

	p.Optimize()

	m := p.Metrics()
	assert.Zero(t, m.GrowthEvents)
	assert.Zero(t, m.ShrinkEvents)
	assert.Zero(t, m.IdleCount)
}

func TestDispose(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	held := p.Acquire()
	p.Dispose()

	assert.Equal(t, 0, p.IdleCount())

	// Checked-out instances become foreign once disposed.
	p.Release(held)
	assert.Equal(t, 0, p.IdleCount())

	// Acquire keeps working via the factory.
	w := p.Acquire()
	assert.NotNil(t, w)
	assert.Equal(t, 0, p.IdleCount())
}

func TestDisposeIdempotent(t *testing.T) {
	p := newWidgetPool(t, testConfig())
	p.Dispose()
	assert.NotPanics(t, p.Dispose)
}

func TestMetricsLifetime(t *testing.T) {
	p := newWidgetPool(t, testConfig())

	w := p.Acquire()
	time.Sleep(5 * time.Millisecond)
	p.Release(w)

	m := p.Metrics()
	assert.Equal(t, int64(1), m.Acquisitions)
	assert.Equal(t, int64(1), m.Releases)
	assert.Equal(t, int64(1), m.PeakActive)
	assert.GreaterOrEqual(t, m.AverageLifetime, 5*time.Millisecond)
	assert.Equal(t, 1.0, m.HitRate)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"negative min", func(c *Config) { c.MinSize = -1 }, false},
		{"min above initial", func(c *Config) { c.MinSize = 9 }, false},
		{"initial above max", func(c *Config) { c.InitialSize = 65 }, false},
		{"growth factor one", func(c *Config) { c.GrowthFactor = 1.0 }, false},
		{"shrink factor one", func(c *Config) { c.ShrinkFactor = 1.0 }, false},
		{"growth threshold above one", func(c *Config) { c.GrowthThreshold = 1.5 }, false},
		{"shrink threshold negative", func(c *Config) { c.ShrinkThreshold = -0.1 }, false},
		{"auto optimize without interval", func(c *Config) { c.OptimizeInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, qerrors.IsKind(err, qerrors.KindConfig))
			}
		})
	}
}
