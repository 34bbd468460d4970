package mesh

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/notargets/burgers2d/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUniformMesh(t *testing.T) {
	for n := 0; n < 4; n++ {
		m := NewUniformMesh(DefaultDomain(), n)
		assert.Equal(t, 1<<(2*n), m.NumActiveCells())
		assert.Equal(t, n+1, m.NumLevels())
		for i, c := range m.ActiveCells() {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, n, c.Level())
		}
	}
	m := NewUniformMesh(DefaultDomain(), 3)
	assert.Equal(t, 1+4+16+64, m.NumCells())
	c := m.ActiveCells()[0]
	assert.InDelta(t, 0.25, m.CellSize(c), 1.e-14)
	x0, y0 := m.CellOrigin(c)
	assert.InDelta(t, -1., x0, 1.e-14)
	assert.InDelta(t, -1., y0, 1.e-14)
	assert.Panics(t, func() { NewUniformMesh(Domain{1, -1}, 1) })
}

func TestCellCornersAndNodes(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 1)
	c := m.Cell(CellKey{1, 1, 0})
	require.NotNil(t, c)
	corners := m.CellCorners(c)
	expected := [4][2]float64{{0, -1}, {1, -1}, {0, 0}, {1, 0}}
	for n, nk := range corners {
		p := m.NodePoint(nk)
		assert.InDeltaSlice(t, expected[n][:], p[:], 1.e-14)
	}
	assert.True(t, m.IsBoundaryNode(corners[0]))
	assert.True(t, m.IsBoundaryNode(corners[1]))
	assert.False(t, m.IsBoundaryNode(corners[2]))
	assert.Equal(t, types.BC_Dirichlet, m.NodeBoundary(corners[1]))
	assert.Equal(t, types.BC_None, m.NodeBoundary(corners[2]))
}

func TestNeighborsAndLocate(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 1)
	// Refine the lower left cell once
	m.Cell(CellKey{1, 0, 0}).Refine = true
	m.ExecuteCoarseningAndRefinement()
	assert.Equal(t, 7, m.NumActiveCells())

	right := m.Cell(CellKey{1, 1, 0})
	nbrs := m.Neighbors(right, FaceLeft)
	require.Len(t, nbrs, 2)
	assert.Equal(t, CellKey{2, 1, 0}, nbrs[0].Key)
	assert.Equal(t, CellKey{2, 1, 1}, nbrs[1].Key)

	fine := m.Cell(CellKey{2, 1, 1})
	nbrs = m.Neighbors(fine, FaceRight)
	require.Len(t, nbrs, 1)
	assert.Equal(t, right, nbrs[0])
	nbrs = m.Neighbors(fine, FaceTop)
	require.Len(t, nbrs, 1)
	assert.Equal(t, CellKey{1, 0, 1}, nbrs[0].Key)
	assert.Empty(t, m.Neighbors(m.Cell(CellKey{2, 0, 0}), FaceLeft))

	assert.Equal(t, CellKey{2, 0, 0}, m.Locate(-0.9, -0.9).Key)
	assert.Equal(t, CellKey{1, 1, 1}, m.Locate(0.5, 0.5).Key)
	assert.Equal(t, CellKey{1, 1, 1}, m.Locate(0., 0.).Key)
	assert.Nil(t, m.Locate(1.5, 0))
}

func TestMarkFixedNumber(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 2)
	n := m.NumActiveCells()
	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = float64(i + 1)
	}
	m.MarkFixedNumber(indicator, 0.5, 0.25)
	nRefine, nCoarsen := m.CountFlags()
	assert.Equal(t, 8, nRefine)
	assert.Equal(t, 4, nCoarsen)
	for i, c := range m.ActiveCells() {
		assert.Equal(t, i >= 8, c.Refine)
		assert.Equal(t, i < 4, c.Coarsen)
	}
	// An all zero indicator marks nothing
	m.MarkFixedNumber(make([]float64, n), 0.5, 0.2)
	nRefine, nCoarsen = m.CountFlags()
	assert.Zero(t, nRefine)
	assert.Zero(t, nCoarsen)

	assert.Panics(t, func() { m.MarkFixedNumber(make([]float64, n-1), 0.5, 0.2) })
	assert.Panics(t, func() { m.MarkFixedNumber(indicator, 0.9, 0.2) })
}

func TestClampLevels(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 2)
	for _, c := range m.ActiveCells() {
		c.Refine = c.Index%2 == 0
		c.Coarsen = !c.Refine
	}
	m.ClampLevels(2, 2)
	nRefine, nCoarsen := m.CountFlags()
	assert.Zero(t, nRefine)
	assert.Zero(t, nCoarsen)
	assert.Panics(t, func() { m.ClampLevels(3, 2) })
}

func TestRefineCoarsenRoundTrip(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 2)
	gen := m.Generation
	indicator := make([]float64, m.NumActiveCells())
	indicator[0] = 1
	changed := m.RefineCoarsen(indicator, 1./16., 0, 0, 5)
	assert.True(t, changed)
	assert.Equal(t, 16+3, m.NumActiveCells())
	assert.Equal(t, gen+1, m.Generation)

	// Coarsen everything possible back down to level 2
	indicator = make([]float64, m.NumActiveCells())
	for i := range indicator {
		indicator[i] = 1
	}
	for _, c := range m.ActiveCells() {
		if c.Level() == 3 {
			indicator[c.Index] = 0.5
		}
	}
	changed = m.RefineCoarsen(indicator, 0, 0.25, 2, 5)
	assert.True(t, changed)
	assert.Equal(t, 16, m.NumActiveCells())

	// Nothing to do still advances the generation
	gen = m.Generation
	changed = m.RefineCoarsen(make([]float64, m.NumActiveCells()), 0.5, 0.2, 2, 5)
	assert.False(t, changed)
	assert.Equal(t, gen+1, m.Generation)
	assert.Equal(t, 16, m.NumActiveCells())
}

func TestRefinementBalanceAndBounds(t *testing.T) {
	var (
		minLevel, maxLevel = 2, 6
		rng                = rand.New(rand.NewSource(42))
	)
	m := NewUniformMesh(DefaultDomain(), 3)
	for pass := 0; pass < 8; pass++ {
		indicator := make([]float64, m.NumActiveCells())
		for i := range indicator {
			// Concentrate the indicator near one corner to drive deep local refinement
			xc, yc := m.CellCenter(m.ActiveCells()[i])
			indicator[i] = rng.Float64() * 0.1
			if xc > 0.3 && yc > 0.3 {
				indicator[i] += 1
			}
		}
		m.RefineCoarsen(indicator, 0.5, 0.2, minLevel, maxLevel)
		for _, c := range m.ActiveCells() {
			assert.LessOrEqual(t, c.Level(), maxLevel)
			assert.False(t, c.Refine || c.Coarsen)
			for face := 0; face < 4; face++ {
				for _, nb := range m.Neighbors(c, face) {
					diff := nb.Level() - c.Level()
					assert.True(t, diff >= -1 && diff <= 1,
						fmt.Sprintf("cells %v and %v differ by %d levels", c.Key, nb.Key, diff))
				}
			}
		}
		if testing.Verbose() {
			fmt.Printf("pass %d: %s\n", pass, m)
		}
	}
	// Active cells cover the domain without overlap
	var area float64
	for _, c := range m.ActiveCells() {
		h := m.CellSize(c)
		area += h * h
	}
	assert.InDelta(t, 4., area, 1.e-12)
}

func TestRefineOnlyNeverShrinks(t *testing.T) {
	m := NewUniformMesh(DefaultDomain(), 2)
	for pass := 0; pass < 3; pass++ {
		before := m.NumActiveCells()
		indicator := make([]float64, before)
		for i := range indicator {
			indicator[i] = float64(i%7) + 1
		}
		m.RefineCoarsen(indicator, 0.3, 0, 0, 5)
		assert.GreaterOrEqual(t, m.NumActiveCells(), before)
	}
}
