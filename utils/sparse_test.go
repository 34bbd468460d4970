package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newTestPattern() *SparsityPattern {
	sp := NewSparsityPattern(4)
	sp.AddBlock([]int{0, 1}, []int{0, 1})
	sp.AddBlock([]int{1, 2, 3}, []int{3})
	sp.Add(3, 0)
	return sp
}

func TestSparsityPattern(t *testing.T) {
	sp := newTestPattern()
	assert.Equal(t, 4, sp.Dims())
	// Diagonal entries are always part of the pattern
	assert.Equal(t, 9, sp.NNZ())
	indptr, ind := sp.Compress()
	assert.Equal(t, []int{0, 2, 5, 7, 9}, indptr)
	assert.Equal(t, []int{0, 1, 0, 1, 3, 2, 3, 0, 3}, ind)
	assert.Panics(t, func() { sp.Add(4, 0) })
}

func TestCSR(t *testing.T) {
	R := NewCSR(newTestPattern())
	n, _ := R.Dims()
	assert.Equal(t, 4, n)
	assert.Equal(t, 9, R.NNZ())
	R.Set(0, 0, 4)
	R.AddTo(0, 1, -1)
	R.AddTo(1, 0, -1)
	R.Set(1, 1, 4)
	R.AddTo(1, 3, 2)
	R.AddTo(1, 3, 0.5)
	R.Set(2, 2, 3)
	R.Set(2, 3, 1)
	R.Set(3, 0, 1)
	R.Set(3, 3, 5)
	assert.Equal(t, 2.5, R.At(1, 3))
	assert.Equal(t, 0., R.At(0, 3))
	assert.Equal(t, -1, R.Index(0, 3))
	assert.Equal(t, R.DiagIndex(2), R.Index(2, 2))
	assert.Equal(t, 3., R.Diag(2))
	assert.Panics(t, func() { R.AddTo(0, 3, 1) })

	cols, vals := R.Row(3)
	assert.Equal(t, []int{0, 3}, cols)
	assert.Equal(t, []float64{1, 5}, vals)

	// Storage is shared with the wrapped matrix
	x := []float64{1, 2, 3, 4}
	dst := make([]float64, 4)
	R.MulVecTo(dst, x)
	var y mat.VecDense
	y.MulVec(R.M, mat.NewVecDense(4, x))
	assert.InDeltaSlice(t, y.RawVector().Data, dst, 1.e-14)
	assert.Equal(t, []float64{2, 17, 13, 21}, dst)
	assert.Equal(t, 2.5, R.T().At(3, 1))

	RO := R.SetReadOnly("R")
	assert.Panics(t, func() { RO.Set(0, 0, 1) })
	R.SetWritable()
	R.Zero()
	assert.Equal(t, 0., R.At(1, 3))
}

func TestIsNan(t *testing.T) {
	R := NewCSR(newTestPattern())
	assert.False(t, IsNan(R))
	R.Set(2, 3, math.NaN())
	assert.True(t, IsNan(R))
	assert.True(t, IsNan([]float64{0, math.NaN()}))
	assert.False(t, IsNan(1.))
	assert.Panics(t, func() { IsNanPanic(math.NaN()) })
	assert.NotEmpty(t, GetMemUsage())
}
