package Burgers2D

import (
	"math"
	"testing"

	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/dofs"
	"github.com/notargets/burgers2d/mesh"
	"github.com/notargets/burgers2d/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// boundaryBubble vanishes on the boundary of [-1,1]x[-1,1]
type boundaryBubble struct{}

func (boundaryBubble) NComponents() int { return 2 }
func (boundaryBubble) Value(p [2]float64, t float64, values []float64) {
	b := (1 - p[0]*p[0]) * (1 - p[1]*p[1])
	values[0] = b * (p[0] + 2)
	values[1] = b * p[1]
}

func assembleSystem(as *Assembler, dh *dofs.DOFHandler, cs *dofs.Constraints,
	uPrev, uPrevPrev []float64, dt float64) (ls *LinearSystem) {
	ls = NewLinearSystem(dh, cs)
	as.Assemble(ls, dh, cs, uPrev, uPrevPrev, make([]float64, dh.NDOFs()), 0, dt)
	return
}

func quadraticForm(A utils.CSR, x []float64) float64 {
	ax := make([]float64, len(x))
	A.MulVecTo(ax, x)
	return floats.Dot(x, ax)
}

func maxDiff(a, b []float64) (diff float64) {
	for i := range a {
		diff = math.Max(diff, math.Abs(a[i]-b[i]))
	}
	return
}

func TestAdvectionIsEnergyNeutral(t *testing.T) {
	var (
		dt = 0.1
	)
	m := mesh.NewUniformMesh(mesh.DefaultDomain(), 3)
	dh, cs := newSpace(m, true)
	uPrev := dofs.Interpolate(dh, linearField{}, 0) // Divergence 5
	x := dofs.Interpolate(dh, boundaryBubble{}, 0)
	for i := range x {
		if cs.IsConstrained(i) {
			require.Zero(t, x[i])
		}
	}
	as := NewAssembler(0, 0.5, 0.5, FE2D.ZeroFunction{N: 2})
	mass := assembleSystem(as, dh, cs, make([]float64, dh.NDOFs()), nil, dt)
	adv := assembleSystem(as, dh, cs, uPrev, nil, dt)
	require.Greater(t, maxDiff(mass.A.Val, adv.A.Val), 1.e-4)

	// With the divergence correction the advection adds no energy for fields vanishing on the boundary
	xMx := quadraticForm(mass.A, x)
	require.Greater(t, xMx, 0.)
	assert.InDelta(t, xMx, quadraticForm(adv.A, x), 1.e-12*xMx)

	// Streamline diffusion adds dt²/6 ∫(u*⋅∇x)² on top
	as.StreamlineDiffusion = true
	sd := assembleSystem(as, dh, cs, uPrev, nil, dt)
	assert.Greater(t, quadraticForm(sd.A, x)-xMx, 1.e-8*xMx)
}

func TestSecondOrderExtrapolation(t *testing.T) {
	var (
		dt = 0.05
	)
	m := mesh.NewUniformMesh(mesh.DefaultDomain(), 2)
	dh, cs := newSpace(m, true)
	uPrev := dofs.Interpolate(dh, linearField{}, 0)
	scaled := make([]float64, len(uPrev))
	floats.ScaleTo(scaled, 1.5, uPrev)

	first := NewAssembler(1, 0.5, 0.5, FE2D.ZeroFunction{N: 2})
	second := NewAssembler(1, 0.5, 0.5, FE2D.ZeroFunction{N: 2})
	second.Extrapolation = NewExtrapolation("second")
	require.Equal(t, EXTRAP_SecondOrder, second.Extrapolation)

	// 2 u - 0.5 u advects with 1.5 u
	lsSecond := assembleSystem(second, dh, cs, uPrev, uPrev, dt)
	lsScaled := assembleSystem(first, dh, cs, scaled, nil, dt)
	lsFirst := assembleSystem(first, dh, cs, uPrev, nil, dt)
	assert.InDeltaSlice(t, lsScaled.A.Val, lsSecond.A.Val, 1.e-13)
	assert.Greater(t, maxDiff(lsFirst.A.Val, lsSecond.A.Val), 1.e-4)
	// The right hand side still carries the previous level, not the extrapolation
	assert.InDeltaSlice(t, lsFirst.RHS, lsSecond.RHS, 1.e-14)

	assert.Panics(t, func() { assembleSystem(second, dh, cs, uPrev, nil, dt) })
}
