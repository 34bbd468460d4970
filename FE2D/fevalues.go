package FE2D

import (
	"fmt"
)

/*
	FEValues evaluates the shape functions of an FESystem at the points of a quadrature rule on one
	square cell at a time. The reference values are computed once, Reinit maps them to a cell.
*/
type FEValues struct {
	FE   FESystem
	Quad Quadrature
	// Reference data, [q][vertex]
	phi     [][4]float64
	dphiRef [][4][2]float64
	// Cell data
	h      float64
	JxW    []float64
	Points [][2]float64
	dphi   [][4][2]float64
}

func NewFEValues(fe FESystem, quad Quadrature) (fv *FEValues) {
	var (
		nq = quad.Size()
	)
	fv = &FEValues{
		FE:      fe,
		Quad:    quad,
		phi:     make([][4]float64, nq),
		dphiRef: make([][4][2]float64, nq),
		JxW:     make([]float64, nq),
		Points:  make([][2]float64, nq),
		dphi:    make([][4][2]float64, nq),
	}
	for q, p := range quad.Points {
		for v := 0; v < 4; v++ {
			fv.phi[q][v] = ShapeValue(v, p[0], p[1])
			fv.dphiRef[q][v] = ShapeGrad(v, p[0], p[1])
		}
	}
	return
}

// Reinit maps the reference data onto the square cell with lower left corner (x0,y0) and side h
func (fv *FEValues) Reinit(x0, y0, h float64) {
	if h <= 0 {
		panic(fmt.Errorf("invalid cell size %g", h))
	}
	fv.h = h
	for q, p := range fv.Quad.Points {
		fv.Points[q] = [2]float64{x0 + p[0]*h, y0 + p[1]*h}
		fv.JxW[q] = fv.Quad.Weights[q] * h * h
		for v := 0; v < 4; v++ {
			fv.dphi[q][v] = [2]float64{fv.dphiRef[q][v][0] / h, fv.dphiRef[q][v][1] / h}
		}
	}
}

func (fv *FEValues) NQuad() int { return fv.Quad.Size() }

func (fv *FEValues) CellSize() float64 { return fv.h }

// ShapeValue is the scalar bilinear function of vertex v at quadrature point q
func (fv *FEValues) ShapeValue(v, q int) float64 { return fv.phi[q][v] }

// ShapeGrad is the physical gradient of the scalar function of vertex v at quadrature point q
func (fv *FEValues) ShapeGrad(v, q int) [2]float64 { return fv.dphi[q][v] }

// FunctionValues fills values[q][comp] from the local dof values of the cell
func (fv *FEValues) FunctionValues(local []float64, values [][]float64) {
	var (
		nc = fv.FE.NComponents
	)
	fv.checkLocal(local)
	for q := range fv.phi {
		for c := 0; c < nc; c++ {
			var val float64
			for v := 0; v < 4; v++ {
				val += local[v*nc+c] * fv.phi[q][v]
			}
			values[q][c] = val
		}
	}
}

// FunctionGradients fills grads[q][comp] with the physical gradient of each component
func (fv *FEValues) FunctionGradients(local []float64, grads [][][2]float64) {
	var (
		nc = fv.FE.NComponents
	)
	fv.checkLocal(local)
	for q := range fv.dphi {
		for c := 0; c < nc; c++ {
			var g [2]float64
			for v := 0; v < 4; v++ {
				u := local[v*nc+c]
				g[0] += u * fv.dphi[q][v][0]
				g[1] += u * fv.dphi[q][v][1]
			}
			grads[q][c] = g
		}
	}
}

// FunctionDivergences fills div[q] for a two component field
func (fv *FEValues) FunctionDivergences(local []float64, div []float64) {
	var (
		nc = fv.FE.NComponents
	)
	if nc != 2 {
		panic(fmt.Errorf("divergence needs a two component field, have %d components", nc))
	}
	fv.checkLocal(local)
	for q := range fv.dphi {
		var d float64
		for v := 0; v < 4; v++ {
			d += local[v*nc]*fv.dphi[q][v][0] + local[v*nc+1]*fv.dphi[q][v][1]
		}
		div[q] = d
	}
}

// AllocValues returns storage sized for FunctionValues
func (fv *FEValues) AllocValues() (values [][]float64) {
	values = make([][]float64, fv.NQuad())
	for q := range values {
		values[q] = make([]float64, fv.FE.NComponents)
	}
	return
}

// AllocGradients returns storage sized for FunctionGradients
func (fv *FEValues) AllocGradients() (grads [][][2]float64) {
	grads = make([][][2]float64, fv.NQuad())
	for q := range grads {
		grads[q] = make([][2]float64, fv.FE.NComponents)
	}
	return
}

func (fv *FEValues) checkLocal(local []float64) {
	if len(local) != fv.FE.DofsPerCell() {
		panic(fmt.Errorf("dimension mismatch: %d local values for %d local dofs", len(local), fv.FE.DofsPerCell()))
	}
}
