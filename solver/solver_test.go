package solver

import (
	"fmt"
	"testing"

	"github.com/notargets/burgers2d/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// convectionDiffusion1D is a nonsymmetric tridiagonal test matrix
func convectionDiffusion1D(n int, peclet float64) (A utils.CSR) {
	sp := utils.NewSparsityPattern(n)
	for i := 0; i < n; i++ {
		if i > 0 {
			sp.Add(i, i-1)
		}
		if i < n-1 {
			sp.Add(i, i+1)
		}
	}
	A = utils.NewCSR(sp)
	for i := 0; i < n; i++ {
		A.Set(i, i, 2)
		if i > 0 {
			A.Set(i, i-1, -1-peclet)
		}
		if i < n-1 {
			A.Set(i, i+1, -1+peclet)
		}
	}
	return
}

func TestGMRESConverges(t *testing.T) {
	var (
		n = 100
	)
	for _, peclet := range []float64{0, 0.3} {
		A := convectionDiffusion1D(n, peclet)
		xExact := make([]float64, n)
		for i := range xExact {
			xExact[i] = float64(i%7) - 3
		}
		b := make([]float64, n)
		A.MulVecTo(b, xExact)
		for _, P := range []Preconditioner{Identity{}, NewSSOR(A, 1.), NewSSOR(A, 1.4)} {
			x := make([]float64, n)
			gm := NewGMRES()
			res, err := gm.Solve(A, b, x, P)
			require.NoError(t, err)
			assert.True(t, res.Converged, res.String())
			assert.LessOrEqual(t, res.Residual, 1.e-9*floats.Norm(b, 2))
			assert.InDeltaSlice(t, xExact, x, 1.e-5)
			if testing.Verbose() {
				fmt.Printf("peclet = %4.2f, %T: %s\n", peclet, P, res)
			}
		}
	}
}

func TestGMRESPreconditionerReducesIterations(t *testing.T) {
	var (
		n = 200
		A = convectionDiffusion1D(n, 0.1)
		b = make([]float64, n)
	)
	for i := range b {
		b[i] = 1
	}
	gm := NewGMRES()
	x := make([]float64, n)
	plain, err := gm.Solve(A, b, x, nil)
	require.NoError(t, err)
	x = make([]float64, n)
	ssor, err := gm.Solve(A, b, x, NewSSOR(A, 1.))
	require.NoError(t, err)
	assert.True(t, ssor.Converged)
	assert.Less(t, ssor.Iterations, plain.Iterations)
}

func TestGMRESEdgeCases(t *testing.T) {
	var (
		n = 10
		A = convectionDiffusion1D(n, 0)
	)
	{ // Zero right hand side gives zero solution without iterating
		x := make([]float64, n)
		for i := range x {
			x[i] = 5
		}
		res, err := NewGMRES().Solve(A, make([]float64, n), x, nil)
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Zero(t, res.Iterations)
		assert.Equal(t, make([]float64, n), x)
	}
	{ // Iteration cap leaves the best iterate and reports non-convergence
		b := make([]float64, n)
		b[0] = 1
		x := make([]float64, n)
		gm := GMRES{Restart: 2, MaxIterations: 3, Tolerance: 1.e-14}
		res, err := gm.Solve(A, b, x, nil)
		require.NoError(t, err)
		assert.False(t, res.Converged)
		assert.Equal(t, 3, res.Iterations)
		assert.Less(t, res.Residual, floats.Norm(b, 2))
	}
	{ // Exact initial guess converges immediately
		xExact := make([]float64, n)
		for i := range xExact {
			xExact[i] = float64(i)
		}
		b := make([]float64, n)
		A.MulVecTo(b, xExact)
		x := append([]float64{}, xExact...)
		res, err := NewGMRES().Solve(A, b, x, nil)
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Zero(t, res.Iterations)
	}
	_, err := NewGMRES().Solve(A, make([]float64, n-1), make([]float64, n), nil)
	assert.Error(t, err)
	_, err = GMRES{}.Solve(A, make([]float64, n), make([]float64, n), nil)
	assert.Error(t, err)
	assert.Panics(t, func() { NewSSOR(A, 2.) })
}

func TestSSORSymmetricExactOnDiagonal(t *testing.T) {
	// On a diagonal matrix SSOR with omega = 1 is the exact inverse
	n := 5
	A := utils.NewCSR(utils.NewSparsityPattern(n))
	for i := 0; i < n; i++ {
		A.Set(i, i, float64(i+1))
	}
	src := []float64{1, 2, 3, 4, 5}
	dst := make([]float64, n)
	NewSSOR(A, 1.).Apply(dst, src)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1}, dst, 1.e-15)
}
