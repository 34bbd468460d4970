package Burgers2D

import (
	"fmt"

	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/dofs"
	"github.com/notargets/burgers2d/types"
	"github.com/notargets/burgers2d/utils"
	"gonum.org/v1/gonum/mat"
)

/*
The vector Burgers' equation with viscosity nu and forcing f

				∂u/∂t + (u⋅∇)u - nu Δu = f

is advanced with a semi-implicit step: the advection velocity is frozen at the extrapolated value u*
taken from the previous time level, so each step is one linear solve. For test function φ_i and trial
function φ_j the cell matrix is

	(φ_j, φ_i) + dt ((u*⋅∇)φ_j, φ_i) + ½ dt (div(u*) φ_j, φ_i) + dt nu (∇φ_j : ∇φ_i)

and the right hand side is

	(u_prev, φ_i) + dt (f, φ_i)

The ½ div(u*) term makes the discrete advection operator skew symmetric so it cannot add energy.
*/

type Extrapolation uint

const (
	EXTRAP_FirstOrder  Extrapolation = iota // u* = u_prev
	EXTRAP_SecondOrder                      // u* = 2 u_prev - ½ u_prevprev
)

var (
	ExtrapolationNames = map[string]Extrapolation{
		"first":  EXTRAP_FirstOrder,
		"second": EXTRAP_SecondOrder,
	}
	ExtrapolationPrintNames = []string{"First order (previous step)", "Second order (two previous steps)"}
)

func (ex Extrapolation) Print() string { return ExtrapolationPrintNames[ex] }

func NewExtrapolation(label string) (ex Extrapolation) {
	var ok bool
	if ex, ok = ExtrapolationNames[label]; !ok {
		panic(fmt.Errorf("unable to use extrapolation named %s", label))
	}
	return
}

type Assembler struct {
	Nu                  float64
	ThetaIMEX           float64
	ThetaSkew           float64
	Extrapolation       Extrapolation
	StreamlineDiffusion bool
	Forcing             FE2D.Function
	BoundaryValues      FE2D.Function
	fv                  *FE2D.FEValues
}

func NewAssembler(nu, thetaIMEX, thetaSkew float64, forcing FE2D.Function) (as *Assembler) {
	as = &Assembler{
		Nu:             nu,
		ThetaIMEX:      thetaIMEX,
		ThetaSkew:      thetaSkew,
		Forcing:        forcing,
		BoundaryValues: FE2D.ZeroFunction{N: 2},
		fv:             FE2D.NewFEValues(FE2D.NewFESystem(2), FE2D.NewQGauss(2)),
	}
	return
}

// LinearSystem is the global matrix and right hand side over one dof numbering
type LinearSystem struct {
	A   utils.CSR
	RHS []float64
}

func NewLinearSystem(dh *dofs.DOFHandler, cs *dofs.Constraints) (ls *LinearSystem) {
	ls = &LinearSystem{
		A:   utils.NewCSR(dofs.MakeSparsityPattern(dh, cs)),
		RHS: make([]float64, dh.NDOFs()),
	}
	return
}

func (ls *LinearSystem) Zero() {
	ls.A.Zero()
	for i := range ls.RHS {
		ls.RHS[i] = 0
	}
}

/*
Assemble rebuilds the system from scratch for the step from t to t+dt. uPrevPrev is only read with
second order extrapolation. x receives the boundary values as the starting iterate of the solve.
*/
func (as *Assembler) Assemble(ls *LinearSystem, dh *dofs.DOFHandler, cs *dofs.Constraints,
	uPrev, uPrevPrev, x []float64, t, dt float64) {
	var (
		fv        = as.fv
		fe        = fv.FE
		ndpc      = fe.DofsPerCell()
		nq        = fv.NQuad()
		K         = mat.NewDense(ndpc, ndpc, nil)
		F         = mat.NewVecDense(ndpc, nil)
		cellDOFs  = make([]int, ndpc)
		local     = make([]float64, ndpc)
		local2    = make([]float64, ndpc)
		prevVal   = fv.AllocValues()
		prev2Val  = fv.AllocValues()
		prevDiv   = make([]float64, nq)
		prev2Div  = make([]float64, nq)
		fVal      = make([]float64, 2)
		n         = dh.NDOFs()
		secondOrd = as.Extrapolation == EXTRAP_SecondOrder
	)
	dh.CheckCurrent()
	if dt <= 0 {
		panic(fmt.Errorf("time step must be positive, have %g", dt))
	}
	if len(uPrev) != n || len(x) != n || len(ls.RHS) != n || (secondOrd && len(uPrevPrev) != n) {
		panic(fmt.Errorf("dimension mismatch: %d dofs, len(uPrev) = %d, len(uPrevPrev) = %d, len(x) = %d, len(rhs) = %d",
			n, len(uPrev), len(uPrevPrev), len(x), len(ls.RHS)))
	}
	ls.Zero()
	m := dh.Mesh
	for _, c := range m.ActiveCells() {
		x0, y0 := m.CellOrigin(c)
		fv.Reinit(x0, y0, m.CellSize(c))
		K.Zero()
		F.Zero()
		dh.GetCellValues(c, uPrev, local)
		fv.FunctionValues(local, prevVal)
		fv.FunctionDivergences(local, prevDiv)
		if secondOrd {
			dh.GetCellValues(c, uPrevPrev, local2)
			fv.FunctionValues(local2, prev2Val)
			fv.FunctionDivergences(local2, prev2Div)
		}
		for q := 0; q < nq; q++ {
			var (
				JxW   = fv.JxW[q]
				uStar = [2]float64{prevVal[q][0], prevVal[q][1]}
				div   = prevDiv[q]
			)
			if secondOrd {
				for d := 0; d < 2; d++ {
					uStar[d] = SolutionBDF1(prevVal[q][d], prev2Val[q][d])
				}
				div = SolutionBDF1(prevDiv[q], prev2Div[q])
			}
			as.Forcing.Value(fv.Points[q], t, fVal)
			for i := 0; i < ndpc; i++ {
				ci, vi := fe.SystemToComponent(i)
				phiI := fv.ShapeValue(vi, q)
				gradI := fv.ShapeGrad(vi, q)
				F.SetVec(i, F.AtVec(i)+(prevVal[q][ci]*phiI+dt*fVal[ci]*phiI)*JxW)
				for j := 0; j < ndpc; j++ {
					cj, vj := fe.SystemToComponent(j)
					gradJ := fv.ShapeGrad(vj, q)
					var val float64
					if ci == cj {
						phiJ := fv.ShapeValue(vj, q)
						massIJ := phiJ * phiI
						val = massIJ +
							dt*Contract(uStar, gradJ)*phiI +
							0.5*dt*div*massIJ +
							dt*as.Nu*Contract(gradJ, gradI)
					}
					if as.StreamlineDiffusion && ci == cj {
						val += StreamlineDiffusion(gradJ, gradI, uStar, dt)
					}
					if val != 0 {
						K.Set(i, j, K.At(i, j)+val*JxW)
					}
				}
			}
		}
		cs.DistributeLocalToGlobal(K, F, dh.CellDOFs(c, cellDOFs), &ls.A, ls.RHS)
	}
	boundary := dofs.InterpolateBoundaryValues(dh, types.BC_Dirichlet, as.BoundaryValues, t)
	dofs.ApplyBoundaryValues(boundary, &ls.A, x, ls.RHS)
}

// Contract is the dot product of two vectors
func Contract(a, b [2]float64) float64 { return a[0]*b[0] + a[1]*b[1] }

// SolutionBDF1 is the second order extrapolation of a value from two previous time levels
func SolutionBDF1(old, oldOld float64) float64 { return 2.*old - 0.5*oldOld }

// StreamlineDiffusion is dt²/6 (β⋅∇u)(β⋅∇v)
func StreamlineDiffusion(uGrad, vGrad, beta [2]float64, dt float64) float64 {
	return dt * dt / 6. * Contract(beta, uGrad) * Contract(beta, vGrad)
}

// AdvectionCellOperator blends the convective and the skew form of scalar advection by thetaSkew
func AdvectionCellOperator(uVal, vVal float64, uGrad, vGrad, beta [2]float64, thetaSkew float64) float64 {
	return (1-thetaSkew)*Contract(beta, uGrad)*vVal + (0-thetaSkew)*Contract(beta, vGrad)*uVal
}

// AdvectionFaceOperator is the boundary term completing the skew form
func AdvectionFaceOperator(uVal, vVal float64, beta, normal [2]float64, thetaSkew float64) float64 {
	return thetaSkew * Contract(beta, normal) * vVal * uVal
}

// LHSOperator is the theta blended implicit operator of the IMEX form with diffusion coefficient alpha
func LHSOperator(uVal, vVal float64, uGrad, vGrad, beta [2]float64, alpha, thetaIMEX, thetaSkew float64) float64 {
	return thetaIMEX*AdvectionCellOperator(uVal, vVal, uGrad, vGrad, beta, thetaSkew) +
		thetaSkew*alpha*Contract(uGrad, vGrad) +
		alpha*Contract(uGrad, vGrad)
}
