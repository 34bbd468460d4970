package mesh

import (
	"fmt"

	"github.com/notargets/burgers2d/types"
)

/*
	The mesh is a quadtree over a square domain. Cells are addressed by their level and their
	integer position within that level, so the parent, children and same-level neighbors of any
	cell are computed from its key rather than stored as adjacency lists.

	Nodes are addressed on a fixed lattice with 2^MaxLevel intervals per side, which gives every
	cell corner a unique integer coordinate pair regardless of the level of the cell that owns it.

	Vertex and child ordering is lexicographic, x fastest:
			2 ---- 3
			|      |
			0 ---- 1
	Faces are numbered left, right, bottom, top.
*/

const MaxLevel = 24

const (
	FaceLeft = iota
	FaceRight
	FaceBottom
	FaceTop
)

var faceOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

type Domain struct {
	XMin, XMax float64 // Square domain [XMin,XMax]x[XMin,XMax]
}

func DefaultDomain() Domain { return Domain{XMin: -1, XMax: 1} }

func (d Domain) Length() float64 { return d.XMax - d.XMin }

type CellKey struct {
	Level, I, J int
}

func (ck CellKey) Parent() CellKey { return CellKey{ck.Level - 1, ck.I >> 1, ck.J >> 1} }

func (ck CellKey) Child(n int) CellKey {
	return CellKey{ck.Level + 1, 2*ck.I + n&1, 2*ck.J + n>>1}
}

// ChildIndex is the position of this cell within its parent
func (ck CellKey) ChildIndex() int { return ck.I&1 + 2*(ck.J&1) }

type Cell struct {
	Key             CellKey
	Parent          *Cell
	Children        [4]*Cell
	Refine, Coarsen bool
	Index           int // Position within the active cell list, -1 when the cell has children
}

func (c *Cell) Active() bool { return c.Children[0] == nil }
func (c *Cell) Level() int   { return c.Key.Level }

type Mesh struct {
	Domain     Domain
	Root       *Cell
	BCs        [4]types.BCFLAG // Boundary flag for each side of the square, indexed by face
	Generation int             // Incremented by every executed refinement, used to detect stale DOF numbering
	cells      map[CellKey]*Cell
	active     []*Cell
}

func NewUniformMesh(domain Domain, refineCount int) (m *Mesh) {
	if domain.Length() <= 0 {
		panic(fmt.Errorf("invalid domain [%8.5f,%8.5f]", domain.XMin, domain.XMax))
	}
	if refineCount < 0 || refineCount > MaxLevel {
		panic(fmt.Errorf("global refinement count %d out of range [0,%d]", refineCount, MaxLevel))
	}
	root := &Cell{Key: CellKey{0, 0, 0}}
	m = &Mesh{
		Domain: domain,
		Root:   root,
		BCs:    [4]types.BCFLAG{types.BC_Dirichlet, types.BC_Dirichlet, types.BC_Dirichlet, types.BC_Dirichlet},
		cells:  map[CellKey]*Cell{root.Key: root},
	}
	m.rebuildActive()
	m.RefineGlobal(refineCount)
	return
}

func (m *Mesh) ActiveCells() []*Cell { return m.active }
func (m *Mesh) NumActiveCells() int  { return len(m.active) }
func (m *Mesh) NumCells() int        { return len(m.cells) }

func (m *Mesh) NumLevels() (n int) {
	for _, c := range m.active {
		if c.Level()+1 > n {
			n = c.Level() + 1
		}
	}
	return
}

func (m *Mesh) Cell(key CellKey) *Cell { return m.cells[key] }

func (m *Mesh) CellSize(c *Cell) float64 {
	return m.Domain.Length() / float64(int(1)<<c.Level())
}

func (m *Mesh) CellOrigin(c *Cell) (x0, y0 float64) {
	h := m.CellSize(c)
	return m.Domain.XMin + float64(c.Key.I)*h, m.Domain.XMin + float64(c.Key.J)*h
}

func (m *Mesh) CellCenter(c *Cell) (xc, yc float64) {
	h := m.CellSize(c)
	x0, y0 := m.CellOrigin(c)
	return x0 + 0.5*h, y0 + 0.5*h
}

// CellCorners returns the lattice keys of the four vertices in lexicographic order
func (m *Mesh) CellCorners(c *Cell) (corners [4]types.NodeKey) {
	var (
		shift = MaxLevel - c.Level()
	)
	for n := 0; n < 4; n++ {
		corners[n] = types.NewNodeKey([2]int{
			(c.Key.I + n&1) << shift,
			(c.Key.J + n>>1) << shift,
		})
	}
	return
}

func (m *Mesh) NodePoint(nk types.NodeKey) (p [2]float64) {
	var (
		coords = nk.GetCoords()
		scale  = m.Domain.Length() / float64(int(1)<<MaxLevel)
	)
	p[0] = m.Domain.XMin + float64(coords[0])*scale
	p[1] = m.Domain.XMin + float64(coords[1])*scale
	return
}

// NodeBoundary reports the boundary flag of a node, BC_None for interior nodes.
// Corner nodes take the flag of the left or right side.
func (m *Mesh) NodeBoundary(nk types.NodeKey) types.BCFLAG {
	var (
		coords = nk.GetCoords()
		nMax   = 1 << MaxLevel
	)
	switch {
	case coords[0] == 0:
		return m.BCs[FaceLeft]
	case coords[0] == nMax:
		return m.BCs[FaceRight]
	case coords[1] == 0:
		return m.BCs[FaceBottom]
	case coords[1] == nMax:
		return m.BCs[FaceTop]
	}
	return types.BC_None
}

func (m *Mesh) IsBoundaryNode(nk types.NodeKey) bool {
	var (
		coords = nk.GetCoords()
		nMax   = 1 << MaxLevel
	)
	return coords[0] == 0 || coords[0] == nMax || coords[1] == 0 || coords[1] == nMax
}

// AtBoundary reports whether the face of the cell lies on the domain boundary
func (m *Mesh) AtBoundary(c *Cell, face int) bool {
	var (
		i, j = c.Key.I + faceOffsets[face][0], c.Key.J + faceOffsets[face][1]
		n    = 1 << c.Level()
	)
	return i < 0 || i >= n || j < 0 || j >= n
}

// Neighbors returns the active cells sharing the given face of an active cell.
// The result holds one cell of the same or coarser level, several finer cells, or nothing at the boundary.
func (m *Mesh) Neighbors(c *Cell, face int) (nbrs []*Cell) {
	if m.AtBoundary(c, face) {
		return
	}
	key := CellKey{c.Level(), c.Key.I + faceOffsets[face][0], c.Key.J + faceOffsets[face][1]}
	if nc, ok := m.cells[key]; ok {
		return collectFaceLeaves(nc, face, nbrs)
	}
	for key.Level > 0 {
		key = key.Parent()
		if nc, ok := m.cells[key]; ok {
			return append(nbrs, nc)
		}
	}
	panic(fmt.Errorf("no neighbor found across face %d of cell %v", face, c.Key))
}

// collectFaceLeaves gathers the leaves of nc that touch the face opposite to the given one
func collectFaceLeaves(nc *Cell, face int, nbrs []*Cell) []*Cell {
	if nc.Active() {
		return append(nbrs, nc)
	}
	var children [2]int
	switch face {
	case FaceLeft: // Neighbor lies to the left, its right side children touch the face
		children = [2]int{1, 3}
	case FaceRight:
		children = [2]int{0, 2}
	case FaceBottom:
		children = [2]int{2, 3}
	case FaceTop:
		children = [2]int{0, 1}
	}
	for _, n := range children {
		nbrs = collectFaceLeaves(nc.Children[n], face, nbrs)
	}
	return nbrs
}

// Locate returns the active cell containing the point, points on shared faces resolve to the upper/right cell
func (m *Mesh) Locate(x, y float64) (c *Cell) {
	var (
		d = m.Domain
	)
	if x < d.XMin || x > d.XMax || y < d.XMin || y > d.XMax {
		return nil
	}
	c = m.Root
	for !c.Active() {
		xc, yc := m.CellCenter(c)
		var n int
		if x >= xc {
			n += 1
		}
		if y >= yc {
			n += 2
		}
		c = c.Children[n]
	}
	return
}

func (m *Mesh) RefineGlobal(n int) {
	for i := 0; i < n; i++ {
		for _, c := range m.active {
			c.Refine = true
		}
		m.ExecuteCoarseningAndRefinement()
	}
}

func (m *Mesh) ClearFlags() {
	for _, c := range m.cells {
		c.Refine, c.Coarsen = false, false
	}
}

func (m *Mesh) CountFlags() (nRefine, nCoarsen int) {
	for _, c := range m.active {
		if c.Refine {
			nRefine++
		}
		if c.Coarsen {
			nCoarsen++
		}
	}
	return
}

func (m *Mesh) rebuildActive() {
	m.active = make([]*Cell, 0, len(m.active))
	var walk func(c *Cell)
	walk = func(c *Cell) {
		if c.Active() {
			c.Index = len(m.active)
			m.active = append(m.active, c)
			return
		}
		c.Index = -1
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(m.Root)
}

func (m *Mesh) String() string {
	return fmt.Sprintf("Number of active cells: %d, Total number of cells: %d, Levels: %d",
		m.NumActiveCells(), m.NumCells(), m.NumLevels())
}
