package Burgers2D

import (
	"fmt"
	"math"

	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/dofs"
	"github.com/notargets/burgers2d/mesh"
)

var faceNormals = [4][2]float64{
	mesh.FaceLeft:   {-1, 0},
	mesh.FaceRight:  {1, 0},
	mesh.FaceBottom: {0, -1},
	mesh.FaceTop:    {0, 1},
}

/*
KellyEstimate returns one indicator per active cell from the jump of the normal derivative across
interior faces, summed over all components:

				η_K² = h_K/24 Σ_F ∫_F [∂u/∂n]²

Where a face is shared with several finer cells the integral runs over each of their faces. Boundary
faces contribute nothing.
*/
func KellyEstimate(dh *dofs.DOFHandler, field []float64) (eta []float64) {
	var (
		m      = dh.Mesh
		fe     = dh.FE
		nc     = fe.NComponents
		q1     = FE2D.NewQGauss1D(3)
		active = m.ActiveCells()
		local  = make([]float64, fe.DofsPerCell())
		nbVals = make([]float64, fe.DofsPerCell())
	)
	dh.CheckCurrent()
	if len(field) != dh.NDOFs() {
		panic(fmt.Errorf("dimension mismatch: field has %d values, dof handler has %d dofs", len(field), dh.NDOFs()))
	}
	eta = make([]float64, len(active))
	for _, c := range active {
		var (
			h      = m.CellSize(c)
			x0, y0 = m.CellOrigin(c)
			sum    float64
		)
		dh.GetCellValues(c, field, local)
		for face := 0; face < 4; face++ {
			normal := faceNormals[face]
			for _, nb := range m.Neighbors(c, face) {
				var (
					hnb        = m.CellSize(nb)
					nx0, ny0   = m.CellOrigin(nb)
					segment    = math.Min(h, hnb)
					sx0, sy0   = faceSegmentOrigin(face, x0, y0, h, nx0, ny0)
					tangential = face == mesh.FaceBottom || face == mesh.FaceTop
				)
				dh.GetCellValues(nb, field, nbVals)
				for q, qp := range q1.Points {
					px, py := sx0, sy0
					if tangential {
						px += qp[0] * segment
					} else {
						py += qp[0] * segment
					}
					for comp := 0; comp < nc; comp++ {
						g := fe.GradAt(local, comp, (px-x0)/h, (py-y0)/h, h)
						gnb := fe.GradAt(nbVals, comp, (px-nx0)/hnb, (py-ny0)/hnb, hnb)
						jump := (g[0]-gnb[0])*normal[0] + (g[1]-gnb[1])*normal[1]
						sum += jump * jump * q1.Weights[q] * segment
					}
				}
			}
		}
		eta[c.Index] = math.Sqrt(h / 24. * sum)
	}
	return
}

// faceSegmentOrigin is the start of the shared part of a face, the face of the smaller of the two cells
func faceSegmentOrigin(face int, x0, y0, h, nx0, ny0 float64) (sx, sy float64) {
	switch face {
	case mesh.FaceLeft:
		sx = x0
		sy = math.Max(y0, ny0)
	case mesh.FaceRight:
		sx = x0 + h
		sy = math.Max(y0, ny0)
	case mesh.FaceBottom:
		sx = math.Max(x0, nx0)
		sy = y0
	case mesh.FaceTop:
		sx = math.Max(x0, nx0)
		sy = y0 + h
	}
	return
}
