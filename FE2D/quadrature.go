package FE2D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GaussLegendre returns the n point Gauss quadrature on [-1,1], nodes ascending
func GaussLegendre(n int) (X, W []float64) {
	var (
		VVr *mat.Dense
	)
	if n < 1 {
		panic(fmt.Errorf("gauss quadrature needs at least one point, have %d", n))
	}
	if n == 1 {
		return []float64{0.}, []float64{2.}
	}
	// Symmetric tridiagonal Jacobi matrix of the Legendre recurrence, zero main diagonal
	JJ := mat.NewSymDense(n, nil)
	for i := 1; i < n; i++ {
		ip := float64(i)
		JJ.SetSym(i-1, i, ip/math.Sqrt(4.*ip*ip-1.))
	}
	var eig mat.EigenSym
	ok := eig.Factorize(JJ, true)
	if !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)
	VVr = mat.NewDense(n, n, nil)
	eig.VectorsTo(VVr)
	W = make([]float64, n)
	for i := 0; i < n; i++ {
		v := VVr.At(0, i)
		W[i] = 2. * v * v
	}
	return
}

// Quadrature holds points and weights on the unit reference interval or square, weights sum to one
type Quadrature struct {
	Points  [][2]float64
	Weights []float64
}

func (q Quadrature) Size() int { return len(q.Weights) }

// NewQGauss1D is the n point Gauss rule mapped to [0,1], the second coordinate of each point is zero
func NewQGauss1D(n int) (q Quadrature) {
	X, W := GaussLegendre(n)
	q.Points = make([][2]float64, n)
	q.Weights = make([]float64, n)
	for i := range X {
		q.Points[i] = [2]float64{0.5 * (X[i] + 1.), 0}
		q.Weights[i] = 0.5 * W[i]
	}
	return
}

// NewQGauss is the tensor product n x n Gauss rule on [0,1]^2, x fastest
func NewQGauss(n int) (q Quadrature) {
	q1 := NewQGauss1D(n)
	q.Points = make([][2]float64, 0, n*n)
	q.Weights = make([]float64, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			q.Points = append(q.Points, [2]float64{q1.Points[i][0], q1.Points[j][0]})
			q.Weights = append(q.Weights, q1.Weights[i]*q1.Weights[j])
		}
	}
	return
}
