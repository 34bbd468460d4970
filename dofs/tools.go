package dofs

import (
	"fmt"
	"sort"

	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/mesh"
	"github.com/notargets/burgers2d/solver"
	"github.com/notargets/burgers2d/types"
	"github.com/notargets/burgers2d/utils"
	"gonum.org/v1/gonum/mat"
)

// Local vertices on each face, indexed by mesh face number
var faceVertices = [4][2]int{
	mesh.FaceLeft:   {0, 2},
	mesh.FaceRight:  {1, 3},
	mesh.FaceBottom: {0, 1},
	mesh.FaceTop:    {2, 3},
}

var oppositeFace = [4]int{mesh.FaceRight, mesh.FaceLeft, mesh.FaceTop, mesh.FaceBottom}

/*
MakeHangingNodeConstraints constrains every node lying on the midpoint of a coarse face to the
average of the two coarse face end points, for each component. The mesh is face balanced, so a
fine cell has at most one coarser neighbor across a face.
*/
func MakeHangingNodeConstraints(dh *DOFHandler, cs *Constraints) {
	var (
		m  = dh.Mesh
		nc = dh.NComponents()
	)
	dh.CheckCurrent()
	for _, c := range m.ActiveCells() {
		nodes := dh.CellNodes(c)
		for face := 0; face < 4; face++ {
			nbrs := m.Neighbors(c, face)
			if len(nbrs) != 1 || nbrs[0].Level() >= c.Level() {
				continue
			}
			coarse := dh.CellNodes(nbrs[0])
			fv := faceVertices[oppositeFace[face]]
			end0, end1 := coarse[fv[0]], coarse[fv[1]]
			for _, v := range faceVertices[face] {
				hanging := nodes[v]
				if hanging == end0 || hanging == end1 {
					continue
				}
				for comp := 0; comp < nc; comp++ {
					dof := dh.NodeDOF(hanging, comp)
					if !cs.AddLine(dof) {
						continue
					}
					cs.AddEntry(dof, dh.NodeDOF(end0, comp), 0.5)
					cs.AddEntry(dof, dh.NodeDOF(end1, comp), 0.5)
				}
			}
		}
	}
}

// InterpolateBoundaryValues evaluates fn at the nodes carrying the boundary flag, keyed by global dof
func InterpolateBoundaryValues(dh *DOFHandler, flag types.BCFLAG, fn FE2D.Function, t float64) (values map[int]float64) {
	var (
		nc  = dh.NComponents()
		val = make([]float64, nc)
	)
	dh.CheckCurrent()
	checkFunction(dh, fn)
	values = make(map[int]float64)
	for node := 0; node < dh.NNodes(); node++ {
		if dh.Mesh.NodeBoundary(dh.NodeKey(node)) != flag {
			continue
		}
		fn.Value(dh.NodePoint(node), t, val)
		for comp := 0; comp < nc; comp++ {
			values[dh.NodeDOF(node, comp)] = val[comp]
		}
	}
	return
}

// AddDirichletConstraints adds prescribed value lines for boundary nodes, unknowns already constrained are left alone
func AddDirichletConstraints(dh *DOFHandler, flag types.BCFLAG, fn FE2D.Function, t float64, cs *Constraints) {
	values := InterpolateBoundaryValues(dh, flag, fn, t)
	for _, dof := range sortedDOFs(values) {
		if cs.AddLine(dof) {
			cs.SetInhomogeneity(dof, values[dof])
		}
	}
}

// MakeSparsityPattern couples all unknowns of each cell, including those they are constrained to
func MakeSparsityPattern(dh *DOFHandler, cs *Constraints) (sp *utils.SparsityPattern) {
	var (
		dofs = make([]int, dh.FE.DofsPerCell())
	)
	dh.CheckCurrent()
	sp = utils.NewSparsityPattern(dh.NDOFs())
	for _, c := range dh.Mesh.ActiveCells() {
		dh.CellDOFs(c, dofs)
		ext := cs.Expanded(dofs)
		sp.AddBlock(ext, ext)
	}
	return
}

// Interpolate sets every nodal unknown to the value of fn at the node
func Interpolate(dh *DOFHandler, fn FE2D.Function, t float64) (x []float64) {
	var (
		nc  = dh.NComponents()
		val = make([]float64, nc)
	)
	dh.CheckCurrent()
	checkFunction(dh, fn)
	x = make([]float64, dh.NDOFs())
	for node := 0; node < dh.NNodes(); node++ {
		fn.Value(dh.NodePoint(node), t, val)
		for comp := 0; comp < nc; comp++ {
			x[dh.NodeDOF(node, comp)] = val[comp]
		}
	}
	return
}

// Project computes the L2 projection of fn onto the constrained finite element space
func Project(dh *DOFHandler, cs *Constraints, fn FE2D.Function, t float64) (x []float64, err error) {
	var (
		nc    = dh.NComponents()
		fv    = FE2D.NewFEValues(dh.FE, FE2D.NewQGauss(3))
		ndpc  = dh.FE.DofsPerCell()
		K     = mat.NewDense(ndpc, ndpc, nil)
		f     = mat.NewVecDense(ndpc, nil)
		dofs  = make([]int, ndpc)
		val   = make([]float64, nc)
		ndofs = dh.NDOFs()
	)
	dh.CheckCurrent()
	checkFunction(dh, fn)
	cs.Close()
	A := utils.NewCSR(MakeSparsityPattern(dh, cs))
	b := make([]float64, ndofs)
	for _, c := range dh.Mesh.ActiveCells() {
		x0, y0 := dh.Mesh.CellOrigin(c)
		fv.Reinit(x0, y0, dh.Mesh.CellSize(c))
		K.Zero()
		f.Zero()
		for q := 0; q < fv.NQuad(); q++ {
			fn.Value(fv.Points[q], t, val)
			for i := 0; i < ndpc; i++ {
				ci, vi := dh.FE.SystemToComponent(i)
				phiI := fv.ShapeValue(vi, q)
				f.SetVec(i, f.AtVec(i)+val[ci]*phiI*fv.JxW[q])
				for j := 0; j < ndpc; j++ {
					cj, vj := dh.FE.SystemToComponent(j)
					if ci != cj {
						continue
					}
					K.Set(i, j, K.At(i, j)+phiI*fv.ShapeValue(vj, q)*fv.JxW[q])
				}
			}
		}
		cs.DistributeLocalToGlobal(K, f, dh.CellDOFs(c, dofs), &A, b)
	}
	x = make([]float64, ndofs)
	gm := solver.NewGMRES()
	gm.Tolerance = 1.e-12
	res, err := gm.Solve(A, b, x, solver.NewSSOR(A, 1.))
	if err != nil {
		return nil, fmt.Errorf("projection solve failed: %w", err)
	}
	if !res.Converged {
		return nil, fmt.Errorf("projection solve did not converge: %s", res)
	}
	cs.Reconstruct(x)
	return
}

/*
ApplyBoundaryValues imposes prescribed values on the global system after assembly. The row of each
prescribed unknown keeps only its diagonal, the right hand side becomes diagonal*value, and the
column is eliminated into the right hand side of the other rows so the matrix keeps its symmetry
structure. The pattern must be structurally symmetric. x receives the prescribed values as a start.
*/
func ApplyBoundaryValues(values map[int]float64, A *utils.CSR, x, b []float64) {
	var (
		n, _ = A.Dims()
	)
	if len(x) != n || len(b) != n {
		panic(fmt.Errorf("dimension mismatch: matrix is %dx%d, len(x) = %d, len(b) = %d", n, n, len(x), len(b)))
	}
	var avgDiag float64
	for i := 0; i < n; i++ {
		d := A.Diag(i)
		if d < 0 {
			d = -d
		}
		avgDiag += d
	}
	if avgDiag = avgDiag / float64(n); avgDiag == 0 {
		avgDiag = 1
	}
	for _, i := range sortedDOFs(values) {
		g := values[i]
		if i < 0 || i >= n {
			panic(fmt.Errorf("boundary unknown %d out of range [0,%d)", i, n))
		}
		diag := A.Diag(i)
		if diag == 0 {
			diag = avgDiag
			A.Set(i, i, diag)
		}
		cols, vals := A.Row(i)
		for k, j := range cols {
			if j == i {
				continue
			}
			vals[k] = 0
			if kk := A.Index(j, i); kk >= 0 {
				b[j] -= A.Val[kk] * g
				A.Val[kk] = 0
			}
		}
		b[i] = diag * g
		x[i] = g
	}
}

func sortedDOFs(values map[int]float64) (dofs []int) {
	dofs = make([]int, 0, len(values))
	for i := range values {
		dofs = append(dofs, i)
	}
	sort.Ints(dofs)
	return
}

func checkFunction(dh *DOFHandler, fn FE2D.Function) {
	if fn.NComponents() != dh.NComponents() {
		panic(fmt.Errorf("function has %d components, field has %d", fn.NComponents(), dh.NComponents()))
	}
}
