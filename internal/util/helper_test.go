package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneSlice(t *testing.T) {
	require := require.New(t)

	src := []float64{1, 2, 3}
	c := CloneSlice(src, 0)
	c[0] = 10
	require.Equal([]float64{1, 2, 3}, src)
	require.Equal([]float64{10, 2, 3}, c)

	padded := CloneSlice(src, 5)
	require.Equal([]float64{1, 2, 3, 0, 0}, padded)

	require.Equal([]float64{1}, CloneSlice(src, 1))
}

func TestAppendFloat64Slice(t *testing.T) {
	require := require.New(t)

	got := AppendFloat64Slice([]float64{0.5}, []int{1, 0, -2})
	require.Equal([]float64{0.5, 1, 0, -2}, got)

	got = AppendFloat64Slice(nil, []float32{1.5})
	require.Equal([]float64{1.5}, got)
}

func TestBoolToInt(t *testing.T) {
	require.Equal(t, 1, BoolToInt(true))
	require.Equal(t, 0, BoolToInt(false))
}
