package FE2D

import (
	"fmt"
)

/*
	FESystem is a continuous bilinear (Q1) element with NComponents copies, one per vector component.
	Each vertex of a square cell carries NComponents scalar unknowns, so the local numbering is
	vertex major:
				k = vertex*NComponents + component
	and the vector valued shape function k is the scalar bilinear function of its vertex
	multiplied by the unit vector of its component.

	Reference coordinates (xi, eta) are on [0,1]^2 with vertices in lexicographic order:
				2 ---- 3
				|      |
				0 ---- 1
*/
type FESystem struct {
	NComponents int
}

func NewFESystem(nComponents int) FESystem {
	if nComponents < 1 {
		panic(fmt.Errorf("element needs at least one component, have %d", nComponents))
	}
	return FESystem{NComponents: nComponents}
}

func (fe FESystem) DofsPerCell() int { return 4 * fe.NComponents }

// SystemToComponent returns the component and vertex of local shape function k
func (fe FESystem) SystemToComponent(k int) (comp, vertex int) {
	if k < 0 || k >= fe.DofsPerCell() {
		panic(fmt.Errorf("local dof index %d out of range [0,%d)", k, fe.DofsPerCell()))
	}
	return k % fe.NComponents, k / fe.NComponents
}

func ShapeValue(vertex int, xi, eta float64) float64 {
	var (
		fx, fy = 1. - xi, 1. - eta
	)
	if vertex&1 == 1 {
		fx = xi
	}
	if vertex>>1 == 1 {
		fy = eta
	}
	return fx * fy
}

// ShapeGrad is the gradient with respect to the reference coordinates
func ShapeGrad(vertex int, xi, eta float64) (grad [2]float64) {
	var (
		fx, fy   = 1. - xi, 1. - eta
		dfx, dfy = -1., -1.
	)
	if vertex&1 == 1 {
		fx, dfx = xi, 1.
	}
	if vertex>>1 == 1 {
		fy, dfy = eta, 1.
	}
	grad[0] = dfx * fy
	grad[1] = fx * dfy
	return
}

// ValueAt interpolates one component of the local dof values at a reference point
func (fe FESystem) ValueAt(local []float64, comp int, xi, eta float64) (val float64) {
	for v := 0; v < 4; v++ {
		val += local[v*fe.NComponents+comp] * ShapeValue(v, xi, eta)
	}
	return
}

// GradAt is the physical gradient of one component on a square cell of side h
func (fe FESystem) GradAt(local []float64, comp int, xi, eta, h float64) (grad [2]float64) {
	for v := 0; v < 4; v++ {
		g := ShapeGrad(v, xi, eta)
		u := local[v*fe.NComponents+comp]
		grad[0] += u * g[0] / h
		grad[1] += u * g[1] / h
	}
	return
}
