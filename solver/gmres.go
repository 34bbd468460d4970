package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type Operator interface {
	Dims() (r, c int)
	MulVecTo(dst, x []float64)
}

// Preconditioner applies an approximate inverse: dst = M^-1 src
type Preconditioner interface {
	Apply(dst, src []float64)
}

// GMRES is restarted GMRES with right preconditioning. The solve stops when the residual norm
// drops to Tolerance*|b| or after MaxIterations inner iterations in total.
type GMRES struct {
	Restart       int
	MaxIterations int
	Tolerance     float64
}

func NewGMRES() GMRES {
	return GMRES{Restart: 30, MaxIterations: 5000, Tolerance: 1.e-9}
}

type Result struct {
	Iterations int
	Residual   float64 // Final true residual norm
	Target     float64 // Tolerance*|b|
	Converged  bool
}

func (r Result) String() string {
	return fmt.Sprintf("%d iterations, residual = %8.5e, target = %8.5e, converged = %v",
		r.Iterations, r.Residual, r.Target, r.Converged)
}

/*
Solve improves x in place starting from its current content. Non-convergence is not an error: the
best iterate is left in x and reported through Result. Errors are returned for inconsistent
dimensions or invalid settings.
*/
func (g GMRES) Solve(A Operator, b, x []float64, P Preconditioner) (res Result, err error) {
	var (
		nr, nc = A.Dims()
		n      = len(b)
		m      = g.Restart
	)
	if nr != nc || nr != n || len(x) != n {
		err = fmt.Errorf("dimension mismatch: operator is %dx%d, len(b) = %d, len(x) = %d", nr, nc, n, len(x))
		return
	}
	if m < 1 || g.MaxIterations < 0 || g.Tolerance <= 0 {
		err = fmt.Errorf("invalid GMRES settings: restart = %d, max iterations = %d, tolerance = %g",
			m, g.MaxIterations, g.Tolerance)
		return
	}
	if P == nil {
		P = Identity{}
	}
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		res.Converged = true
		return
	}
	res.Target = g.Tolerance * bnorm
	var (
		r  = make([]float64, n)
		w  = make([]float64, n)
		V  = make([][]float64, m+1)
		Z  = make([][]float64, m)
		H  = make([][]float64, m+1)
		cs = make([]float64, m)
		sn = make([]float64, m)
		gv = make([]float64, m+1)
		y  = make([]float64, m)
	)
	for i := range V {
		V[i] = make([]float64, n)
		H[i] = make([]float64, m)
	}
	for i := range Z {
		Z[i] = make([]float64, n)
	}
	residual := func() float64 {
		A.MulVecTo(r, x)
		floats.SubTo(r, b, r)
		return floats.Norm(r, 2)
	}
	beta := residual()
	for beta > res.Target && res.Iterations < g.MaxIterations {
		copy(V[0], r)
		floats.Scale(1./beta, V[0])
		for i := range gv {
			gv[i] = 0
		}
		gv[0] = beta
		var k int
		for k < m && res.Iterations < g.MaxIterations {
			res.Iterations++
			P.Apply(Z[k], V[k])
			A.MulVecTo(w, Z[k])
			// Modified Gram-Schmidt
			for i := 0; i <= k; i++ {
				H[i][k] = floats.Dot(w, V[i])
				floats.AddScaled(w, -H[i][k], V[i])
			}
			hNext := floats.Norm(w, 2)
			H[k+1][k] = hNext
			if hNext != 0 {
				copy(V[k+1], w)
				floats.Scale(1./hNext, V[k+1])
			}
			for i := 0; i < k; i++ {
				tmp := cs[i]*H[i][k] + sn[i]*H[i+1][k]
				H[i+1][k] = -sn[i]*H[i][k] + cs[i]*H[i+1][k]
				H[i][k] = tmp
			}
			denom := math.Hypot(H[k][k], H[k+1][k])
			if denom == 0 {
				// Singular Krylov space, nothing more can be gained from this cycle
				break
			}
			cs[k], sn[k] = H[k][k]/denom, H[k+1][k]/denom
			H[k][k], H[k+1][k] = denom, 0
			gv[k+1] = -sn[k] * gv[k]
			gv[k] = cs[k] * gv[k]
			k++
			if math.Abs(gv[k]) <= res.Target || hNext == 0 {
				break
			}
		}
		if k == 0 {
			break
		}
		// Back substitution on the upper triangular system
		for i := k - 1; i >= 0; i-- {
			sum := gv[i]
			for j := i + 1; j < k; j++ {
				sum -= H[i][j] * y[j]
			}
			y[i] = sum / H[i][i]
		}
		for i := 0; i < k; i++ {
			floats.AddScaled(x, y[i], Z[i])
		}
		beta = residual()
	}
	res.Residual = beta
	res.Converged = beta <= res.Target
	return
}
