package robomath

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

func randMat(rng *rand.Rand, rows, cols int) *Mat {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = rng.Float64()*2 - 1
	}

	return m
}

func TestNew(t *testing.T) {
	require := require.New(t)

	m := New(3, 5)
	rows, cols := m.Size()
	require.Equal(3, rows)
	require.Equal(5, cols)
	for i := range 3 {
		for j := range 5 {
			require.Zero(m.At(i, j))
		}
	}

	require.Panics(func() { New(-1, 2) })
	require.Panics(func() { m.At(3, 0) })
}

func TestNewFromRows(t *testing.T) {
	require := require.New(t)

	m, err := NewFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(err)
	require.Equal(2, m.Rows())
	require.Equal(3, m.Cols())
	require.Equal(6.0, m.At(1, 2))

	_, err = NewFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(err, ErrDimensionMismatch)
}

func TestNewFromColMajor(t *testing.T) {
	require := require.New(t)

	m, err := NewFromColMajor(2, 3, []float64{1, 4, 2, 5, 3, 6})
	require.NoError(err)
	require.Equal([]float64{1, 2, 3}, m.Row(0))
	require.Equal([]float64{1, 4, 2, 5, 3, 6}, m.Flatten())

	_, err = NewFromColMajor(2, 3, []float64{1, 2})
	require.ErrorIs(err, ErrDimensionMismatch)
}

func TestClone(t *testing.T) {
	require := require.New(t)

	m := TransL(1, 2, 3)
	c := m.Clone()
	c.Set(0, 3, 10)

	require.Equal(1.0, m.At(0, 3))
	require.Equal(10.0, c.At(0, 3))
}

func TestTranspose(t *testing.T) {
	require := require.New(t)

	m, _ := NewFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := m.T()
	require.Equal(3, tr.Rows())
	require.Equal(2, tr.Cols())
	require.Equal([]float64{1, 4}, tr.Row(0))
	require.Equal([]float64{3, 6}, tr.Row(2))
	require.True(tr.T().Equal(m, 0))
}

func TestArithmetic(t *testing.T) {
	require := require.New(t)

	a, _ := NewFromRows([][]float64{{1, 2}, {3, 4}})
	b, _ := NewFromRows([][]float64{{10, 20}, {30, 40}})

	sum, err := a.Add(b)
	require.NoError(err)
	require.Equal([]float64{11, 22}, sum.Row(0))

	diff, err := b.Sub(a)
	require.NoError(err)
	require.Equal([]float64{27, 36}, diff.Row(1))

	require.Equal([]float64{-1, -2}, a.Neg().Row(0))
	require.Equal([]float64{1.5, 2}, a.Scale(0.5).Row(1))

	_, err = a.Add(New(3, 2))
	require.ErrorIs(err, ErrDimensionMismatch)

	_, err = a.Sub(New(2, 3))
	require.ErrorIs(err, ErrDimensionMismatch)
}

func TestColumns(t *testing.T) {
	require := require.New(t)

	m, _ := NewFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.Equal([]float64{2, 5}, m.Col(1))

	require.NoError(m.SetCol(1, []float64{7, 8}))
	require.Equal([]float64{7, 8}, m.Col(1))

	require.ErrorIs(m.SetCol(1, []float64{1}), ErrDimensionMismatch)
	require.ErrorIs(m.SetCol(5, []float64{1, 2}), ErrInvalidOperand)
}

func TestString(t *testing.T) {
	require := require.New(t)

	s := TransL(1, 2, 3).String()
	require.True(strings.HasPrefix(s, "Matrix: (4, 4)\n"))
	require.Contains(s, "[ 1.000, 0.000, 0.000, 1.000 ]")
	require.Contains(s, "[ 0.000, 0.000, 0.000, 1.000 ]")
}

func TestMul_Small(t *testing.T) {
	require := require.New(t)

	a, _ := NewFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	b, _ := NewFromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})

	c, err := a.Mul(b)
	require.NoError(err)
	require.Equal([]float64{58, 64}, c.Row(0))
	require.Equal([]float64{139, 154}, c.Row(1))

	_, err = a.Mul(a)
	require.ErrorIs(err, ErrDimensionMismatch)
}

func TestMul_StrassenMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	sizes := [][3]int{
		{8, 8, 8},
		{31, 31, 31},
		{32, 32, 32},
		{33, 40, 35},
		{64, 64, 64},
		{70, 45, 99},
		{100, 3, 100},
		{129, 129, 129},
		{32, 2048, 32},
		{40, 1500, 36},
		{300, 40, 50},
		{50, 40, 300},
	}

	for _, sz := range sizes {
		a := randMat(rng, sz[0], sz[1])
		b := randMat(rng, sz[1], sz[2])

		t.Run(fmt.Sprintf("%dx%dx%d", sz[0], sz[1], sz[2]), func(t *testing.T) {
			require := require.New(t)

			got, err := a.Mul(b)
			require.NoError(err)

			direct := mulDirect(a, b)
			require.True(got.Equal(direct, 1e-9), "strassen and direct products differ")

			strassenOnly := mulStrassen(a, b)
			require.True(strassenOnly.Equal(direct, 1e-9))

			// independent oracle
			var ref mat.Dense
			ref.Mul(mat.NewDense(a.rows, a.cols, a.data), mat.NewDense(b.rows, b.cols, b.data))
			require.True(mat.EqualApprox(&ref, mat.NewDense(got.rows, got.cols, got.data), 1e-9))
		})
	}
}

func TestMul_ThinShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	shapes := [][3]int{
		{32, 2048, 32},
		{40, 4096, 40},
		{2048, 40, 40},
	}

	for _, sz := range shapes {
		a := randMat(rng, sz[0], sz[1])
		b := randMat(rng, sz[1], sz[2])
		inputBytes := uint64(8 * (len(a.data) + len(b.data)))

		t.Run(fmt.Sprintf("%dx%dx%d", sz[0], sz[1], sz[2]), func(t *testing.T) {
			require := require.New(t)

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			got, err := a.Mul(b)
			runtime.ReadMemStats(&after)
			require.NoError(err)

			// squaring the operands would allocate orders of magnitude more
			allocated := after.TotalAlloc - before.TotalAlloc
			require.Less(allocated, 32*inputBytes, "allocated %d bytes", allocated)

			require.True(got.Equal(mulDirect(a, b), 1e-9))
		})
	}
}

func TestMul_NonFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for _, n := range []int{4, 40} {
		t.Run(fmt.Sprintf("%dx%d", n, n), func(t *testing.T) {
			require := require.New(t)

			a := randMat(rng, n, n)
			a.Set(0, 1, 0)
			b := randMat(rng, n, n)
			b.Set(1, 0, math.Inf(1))

			// 0·Inf is NaN
			direct := mulDirect(a, b)
			require.True(math.IsNaN(direct.At(0, 0)))

			got, err := a.Mul(b)
			require.NoError(err)
			v := got.At(0, 0)
			require.True(math.IsNaN(v) || math.IsInf(v, 0), "got %v", v)
		})
	}
}

func TestMulVec(t *testing.T) {
	require := require.New(t)

	pose := TransL(10, 20, 30)
	v, err := pose.MulVec([]float64{1, 2, 3})
	require.NoError(err)
	require.Equal([]float64{11, 22, 33}, v)

	hv, err := pose.MulVec([]float64{1, 2, 3, 1})
	require.NoError(err)
	require.Equal([]float64{11, 22, 33, 1}, hv)

	m, _ := NewFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	mv, err := m.MulVec([]float64{1, 1})
	require.NoError(err)
	require.Equal([]float64{3, 7, 11}, mv)

	_, err = m.MulVec([]float64{1, 2, 3})
	require.ErrorIs(err, ErrDimensionMismatch)
}

func TestTransform(t *testing.T) {
	require := require.New(t)

	pose, err := RotZ(halfPi).Mul(TransL(1, 0, 0))
	require.NoError(err)

	p, err := pose.Transform(r3.Vector{X: 1})
	require.NoError(err)
	require.InDelta(0, p.X, tol)
	require.InDelta(2, p.Y, tol)
	require.InDelta(0, p.Z, tol)

	_, err = New(3, 3).Transform(r3.Vector{})
	require.ErrorIs(err, ErrInvalidOperand)
}
