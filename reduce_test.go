package parmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReducers(t *testing.T) {
	acc := 3
	Sum(&acc, 4)
	require.Equal(t, 7, acc)

	acc = 3
	Max(&acc, 9)
	require.Equal(t, 9, acc)
	Max(&acc, 2)
	require.Equal(t, 9, acc)

	acc = 3
	Min(&acc, 9)
	require.Equal(t, 3, acc)
	Min(&acc, -1)
	require.Equal(t, -1, acc)

	s := "ab"
	Sum(&s, "cd")
	require.Equal(t, "abcd", s)

	f := 1.5
	Max(&f, 2.25)
	require.Equal(t, 2.25, f)
}

func TestReducersWithMapReduce(t *testing.T) {
	m := NewMap[int, float64]()
	defer m.Close()
	for i := 1; i <= 10; i++ {
		m.Store(i, float64(i))
	}
	value := func(_ int, v float64) float64 { return v }
	require.Equal(t, 55.0, MapReduce(m, value, Sum, 0))
	require.Equal(t, 10.0, MapReduce(m, value, Max, 0))
	// The default participates in the fold, so a zero default caps the
	// minimum over positive values at zero.
	require.Equal(t, 0.0, MapReduce(m, value, Min, 0))
	require.Equal(t, 1.0, MapReduce(m, value, Min, 100))
}
