package scope

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

func TestRegisterAndResolve(t *testing.T) {
	s := New()
	s.Register("answer", 42)

	v, err := s.Resolve("answer")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestResolveMissing(t *testing.T) {
	s := New()

	_, err := s.Resolve("nothing")
	require.Error(t, err)
	assert.True(t, qerrors.IsKind(err, qerrors.KindNotFound))
}

func TestChildFallsBackToParent(t *testing.T) {
	parent := New()
	parent.Register("shared", "from-parent")

	child := parent.CreateChild()

	v, err := child.Resolve("shared")
	require.NoError(t, err)
	assert.Equal(t, "from-parent", v)
}

func TestChildDoesNotLeakUpward(t *testing.T) {
	parent := New()
	child := parent.CreateChild()
	child.Register("private", "child-only")

	_, err := parent.Resolve("private")
	require.Error(t, err)
	assert.True(t, qerrors.IsKind(err, qerrors.KindNotFound))
	assert.False(t, parent.Has("private"))
	assert.True(t, child.Has("private"))
}

func TestChildShadowsParent(t *testing.T) {
	parent := New()
	parent.Register("key", "parent-value")

	child := parent.CreateChild()
	child.Register("key", "child-value")

	v, err := child.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "child-value", v)

	v, err = parent.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "parent-value", v)
}

func TestSingletonFactoryBuiltOnce(t *testing.T) {
	s := New()

	calls := 0
	s.RegisterFactory("db", func() (interface{}, error) {
		calls++
		return "connection", nil
	}, true)

	for i := 0; i < 5; i++ {
		v, err := s.Resolve("db")
		require.NoError(t, err)
		assert.Equal(t, "connection", v)
	}
	assert.Equal(t, 1, calls)
}

func TestSingletonFactoryBuiltOnceConcurrently(t *testing.T) {
	s := New()

	var mu sync.Mutex
	calls := 0
	s.RegisterFactory("shared", func() (interface{}, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return struct{}{}, nil
	}, true)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Resolve("shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}

func TestTransientFactoryRunsEveryTime(t *testing.T) {
	s := New()

	calls := 0
	s.RegisterFactory("fresh", func() (interface{}, error) {
		calls++
		return calls, nil
	}, false)

	v1, err := s.Resolve("fresh")
	require.NoError(t, err)
	v2, err := s.Resolve("fresh")
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
}

func TestFactoryError(t *testing.T) {
	s := New()
	s.RegisterFactory("broken", func() (interface{}, error) {
		return nil, qerrors.New(qerrors.KindConfig, "bad wiring")
	}, true)

	_, err := s.Resolve("broken")
	require.Error(t, err)
	assert.True(t, qerrors.IsKind(err, qerrors.KindInternal))
}
