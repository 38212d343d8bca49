package nwire

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// wrapTest runs inner quietly and, if it fails, runs it again with
// debug logging sent to the test log.
func wrapTest(t *testing.T, inner func(*testing.T, *zap.Logger)) {
	if !t.Run("1st attempt", func(t *testing.T) { inner(t, zap.NewNop()) }) {
		t.Run("2nd attempt", func(t *testing.T) {
			inner(t, zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)))
		})
	}
}

func TestDetailedError(t *testing.T) {
	t.Parallel()
	m := NewModule("Storage")
	dsn := Export[string](m, "dsn")
	p := NewProvider("StorageFromEnv", m)
	Supply(p, dsn, func() string { return "postgres://" })
	other := NewProvider("StorageFromFile", m)
	Supply(other, dsn, func() string { return "sqlite://" })

	c := NewContainer()
	require.NoError(t, c.Register(m, p))
	err := c.RegisterProvider(other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCannotOverrideProvider))
	assert.Equal(t, "register provider StorageFromFile: module already has a registered provider", err.Error())
	detailed := DetailedError(err)
	assert.True(t, strings.HasPrefix(detailed, err.Error()+"\n\n"), detailed)
	assert.Contains(t, detailed, "StorageFromEnv is already the provider for Storage")
	assert.Contains(t, detailed, "Tamper(AllowOverrides())")

	plain := errors.New("plain")
	assert.Equal(t, "plain", DetailedError(plain))
	wrapped := errors.Wrap(&PhaseError{Op: "provide", Phase: "registering", Err: ErrNotReady}, "outer")
	assert.Contains(t, DetailedError(wrapped), "Call Ready() before Provide()")
}

func TestDetailedCircularDependency(t *testing.T) {
	t.Parallel()
	m := NewModule("Loop")
	a := Export[int](m, "a")
	b := Export[int](m, "b")
	p := NewProvider("LoopProvider", m)
	Supply(p, a, func(b int) int { return b }, Arg("b", b))
	Supply(p, b, func(a int) int { return a }, Arg("a", a))

	c := NewContainer()
	require.NoError(t, c.Register(m, p))
	err := c.Ready()
	require.Error(t, err)
	assert.Equal(t, "circular dependency: Loop.a int -> Loop.b int -> Loop.a int", err.Error())
	detailed := DetailedError(err)
	assert.Contains(t, detailed, "Loop.a int -> LoopProvider.a(..., b Loop.b int)")
	assert.Contains(t, detailed, "Loop.b int -> LoopProvider.b(..., a Loop.a int)")
	assert.Contains(t, detailed, "Providers involved:\n\t- LoopProvider")
}

func TestLogging(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)

	m := NewModule("Clock")
	now := Export[int64](m, "now")
	p := NewProvider("FixedClock", m)
	Supply(p, now, func() int64 { return 1700000000 })
	require.NoError(t, m.SetDefaultProvider(p))

	c := NewContainer(WithLogger(zap.New(core)))
	require.NoError(t, c.Register(m, nil))
	require.NoError(t, c.Ready())
	_, err := Provide(c, now)
	require.NoError(t, err)

	resolved := logs.FilterMessage("module resolved").All()
	require.Len(t, resolved, 1)
	assert.Equal(t, "nwire", resolved[0].LoggerName)
	assert.Equal(t, "Clock", resolved[0].ContextMap()["module"])
	assert.Equal(t, "FixedClock", resolved[0].ContextMap()["provider"])
	assert.Equal(t, "default", resolved[0].ContextMap()["source"])
	assert.Equal(t, 1, logs.FilterMessage("resource built").Len())
	assert.Equal(t, 1, logs.FilterMessage("container ready").Len())
}
