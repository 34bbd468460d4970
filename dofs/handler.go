package dofs

import (
	"fmt"

	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/mesh"
	"github.com/notargets/burgers2d/types"
)

/*
	DOFHandler numbers the unknowns of a continuous vector Q1 field on the active cells of a mesh.
	Every distinct cell corner is a node, including hanging nodes in the middle of a coarse face, and
	each node carries NComponents unknowns numbered node*NComponents + component.

	The numbering is only valid for the mesh generation it was built on, CheckCurrent panics when
	the mesh has been refined since the last Rebuild.
*/
type DOFHandler struct {
	FE         FE2D.FESystem
	Mesh       *mesh.Mesh
	generation int
	nodeIndex  map[types.NodeKey]int
	nodes      []types.NodeKey
	cellNodes  [][4]int // Indexed by active cell index
}

func NewDOFHandler(m *mesh.Mesh, nComponents int) (dh *DOFHandler) {
	dh = &DOFHandler{
		FE: FE2D.NewFESystem(nComponents),
	}
	dh.Rebuild(m)
	return
}

func (dh *DOFHandler) Rebuild(m *mesh.Mesh) {
	var (
		active = m.ActiveCells()
	)
	dh.Mesh = m
	dh.generation = m.Generation
	dh.nodeIndex = make(map[types.NodeKey]int, 2*len(active))
	dh.nodes = make([]types.NodeKey, 0, 2*len(active))
	dh.cellNodes = make([][4]int, len(active))
	for _, c := range active {
		for n, nk := range m.CellCorners(c) {
			ind, ok := dh.nodeIndex[nk]
			if !ok {
				ind = len(dh.nodes)
				dh.nodeIndex[nk] = ind
				dh.nodes = append(dh.nodes, nk)
			}
			dh.cellNodes[c.Index][n] = ind
		}
	}
}

func (dh *DOFHandler) NComponents() int { return dh.FE.NComponents }
func (dh *DOFHandler) NNodes() int      { return len(dh.nodes) }
func (dh *DOFHandler) NDOFs() int       { return len(dh.nodes) * dh.FE.NComponents }

// CheckCurrent panics when the mesh changed after the numbering was built
func (dh *DOFHandler) CheckCurrent() {
	if dh.Mesh.Generation != dh.generation {
		panic(fmt.Errorf("stale dof numbering: built on mesh generation %d, mesh is at generation %d",
			dh.generation, dh.Mesh.Generation))
	}
}

func (dh *DOFHandler) NodeDOF(node, comp int) int {
	if comp < 0 || comp >= dh.FE.NComponents {
		panic(fmt.Errorf("invalid component %d, field has %d components", comp, dh.FE.NComponents))
	}
	if node < 0 || node >= len(dh.nodes) {
		panic(fmt.Errorf("node index %d out of range [0,%d)", node, len(dh.nodes)))
	}
	return node*dh.FE.NComponents + comp
}

func (dh *DOFHandler) NodeKey(node int) types.NodeKey { return dh.nodes[node] }

func (dh *DOFHandler) Node(nk types.NodeKey) (node int, ok bool) {
	node, ok = dh.nodeIndex[nk]
	return
}

func (dh *DOFHandler) NodePoint(node int) [2]float64 { return dh.Mesh.NodePoint(dh.nodes[node]) }

func (dh *DOFHandler) CellNodes(c *mesh.Cell) [4]int {
	if c.Index < 0 {
		panic(fmt.Errorf("cell %v is not active", c.Key))
	}
	return dh.cellNodes[c.Index]
}

// CellDOFs fills dofs with the global indices of the local dofs of the cell, allocating when dofs is nil
func (dh *DOFHandler) CellDOFs(c *mesh.Cell, dofs []int) []int {
	var (
		nc = dh.FE.NComponents
	)
	if dofs == nil {
		dofs = make([]int, dh.FE.DofsPerCell())
	}
	for v, node := range dh.CellNodes(c) {
		for comp := 0; comp < nc; comp++ {
			dofs[v*nc+comp] = node*nc + comp
		}
	}
	return dofs
}

// GetCellValues gathers the local values of a global field on one cell
func (dh *DOFHandler) GetCellValues(c *mesh.Cell, field, local []float64) []float64 {
	if len(field) != dh.NDOFs() {
		panic(fmt.Errorf("dimension mismatch: field has %d values, dof handler has %d dofs", len(field), dh.NDOFs()))
	}
	if local == nil {
		local = make([]float64, dh.FE.DofsPerCell())
	}
	var (
		nc = dh.FE.NComponents
	)
	for v, node := range dh.CellNodes(c) {
		for comp := 0; comp < nc; comp++ {
			local[v*nc+comp] = field[node*nc+comp]
		}
	}
	return local
}
