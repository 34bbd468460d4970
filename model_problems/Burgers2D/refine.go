package Burgers2D

import (
	"fmt"

	"github.com/notargets/burgers2d/dofs"
	"github.com/notargets/burgers2d/mesh"
)

// cellSnapshot maps the key of every active cell to the field values at its corners, vertex major
type cellSnapshot map[mesh.CellKey][]float64

func takeSnapshot(dh *dofs.DOFHandler, field []float64) (snap cellSnapshot) {
	snap = make(cellSnapshot, dh.Mesh.NumActiveCells())
	for _, c := range dh.Mesh.ActiveCells() {
		snap[c.Key] = dh.GetCellValues(c, field, nil)
	}
	return
}

/*
RefineGrid estimates the error of the current solution, refines and coarsens the mesh within the
level bounds and carries the current solution over to the new discrete space:
  - unchanged cells keep their values
  - children of a refined cell interpolate the parent bilinearly
  - a coarsened cell takes each corner value from the child sharing that corner

The previous time levels are cleared. It reports whether the mesh changed.
*/
func (b *Burgers) RefineGrid(minLevel, maxLevel int) (changed bool) {
	var (
		eta  = KellyEstimate(b.DOF, b.History.Current)
		snap = takeSnapshot(b.DOF, b.History.Current)
	)
	changed = b.Mesh.RefineCoarsen(eta, b.RefineFraction, b.CoarsenFraction, minLevel, maxLevel)
	b.setupSystem()
	transferSolution(b.DOF, snap, b.History.Current)
	b.Constraints.Reconstruct(b.History.Current)
	b.metrics.Refinements.Inc()
	if b.verbose {
		fmt.Printf("   Refined mesh: %s\n", b.Mesh)
	}
	return
}

// transferSolution fills field on the current mesh from a snapshot taken before the last refinement
func transferSolution(dh *dofs.DOFHandler, snap cellSnapshot, field []float64) {
	var (
		nc = dh.NComponents()
	)
	dh.CheckCurrent()
	for _, c := range dh.Mesh.ActiveCells() {
		vals := transferredCellValues(dh, c, snap)
		for v, node := range dh.CellNodes(c) {
			for comp := 0; comp < nc; comp++ {
				field[dh.NodeDOF(node, comp)] = vals[v*nc+comp]
			}
		}
	}
}

func transferredCellValues(dh *dofs.DOFHandler, c *mesh.Cell, snap cellSnapshot) (vals []float64) {
	var (
		nc = dh.NComponents()
	)
	if vals, ok := snap[c.Key]; ok {
		return vals
	}
	for key := c.Key; key.Level > 0; {
		key = key.Parent()
		parentVals, ok := snap[key]
		if !ok {
			continue
		}
		// Corners of c in the reference coordinates of the ancestor
		var (
			scale = float64(int(1) << (c.Level() - key.Level))
		)
		vals = make([]float64, dh.FE.DofsPerCell())
		for v := 0; v < 4; v++ {
			xi := float64(c.Key.I+v&1)/scale - float64(key.I)
			eta := float64(c.Key.J+v>>1)/scale - float64(key.J)
			for comp := 0; comp < nc; comp++ {
				vals[v*nc+comp] = dh.FE.ValueAt(parentVals, comp, xi, eta)
			}
		}
		return
	}
	vals = make([]float64, dh.FE.DofsPerCell())
	for v := 0; v < 4; v++ {
		childVals, ok := snap[c.Key.Child(v)]
		if !ok {
			panic(fmt.Errorf("no values to transfer onto cell %v", c.Key))
		}
		for comp := 0; comp < nc; comp++ {
			vals[v*nc+comp] = childVals[v*nc+comp]
		}
	}
	return
}
