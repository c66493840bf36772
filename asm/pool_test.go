package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRegister(t *testing.T) {
	p := NewPool[string]()
	require.Equal(t, 0, p.Register("a"))
	require.Equal(t, 1, p.Register("b"))
	require.Equal(t, 0, p.Register("a"))
	require.Equal(t, 2, p.Register("c"))
	require.Equal(t, 1, p.Register("b"))
	require.Equal(t, 3, p.Len())
	require.Equal(t, []string{"a", "b", "c"}, p.Values())
}

func TestPoolSeed(t *testing.T) {
	p := NewPool("x", "y", "x")
	require.Equal(t, []string{"x", "y"}, p.Values())
	i, ok := p.Index("y")
	require.True(t, ok)
	require.Equal(t, 1, i)
	_, ok = p.Index("z")
	require.False(t, ok)
	require.Equal(t, 2, p.Len())
}

func TestPoolValuesIsACopy(t *testing.T) {
	p := NewPool("x")
	values := p.Values()
	values[0] = "changed"
	require.Equal(t, []string{"x"}, p.Values())
}

func TestPoolDistinguishesTypes(t *testing.T) {
	p := NewPool[any]()
	require.Equal(t, 0, p.Register(int64(1)))
	require.Equal(t, 1, p.Register(1.0))
	require.Equal(t, 2, p.Register("1"))
	require.Equal(t, 3, p.Register(true))
	require.Equal(t, 4, p.Register(nil))
	require.Equal(t, 0, p.Register(int64(1)))
	require.Equal(t, 4, p.Register(nil))
	require.Equal(t, 5, p.Len())
}
