package mesh

import (
	"fmt"
	"sort"
)

// RefineCoarsen marks the cells by a fixed number policy, clamps the marks to the level bounds and
// executes the topology change. It reports whether any cell was refined or coarsened.
// DOF numberings built on the previous mesh are invalid afterward.
func (m *Mesh) RefineCoarsen(indicator []float64, refineFraction, coarsenFraction float64,
	minLevel, maxLevel int) (changed bool) {
	m.MarkFixedNumber(indicator, refineFraction, coarsenFraction)
	m.ClampLevels(minLevel, maxLevel)
	m.PrepareCoarseningAndRefinement()
	return m.ExecuteCoarseningAndRefinement()
}

/*
MarkFixedNumber flags the fraction of active cells with the largest indicator for refinement and the
fraction with the smallest indicator for coarsening. The indicator is indexed by active cell index.
An indicator that is zero everywhere marks nothing.
*/
func (m *Mesh) MarkFixedNumber(indicator []float64, refineFraction, coarsenFraction float64) {
	var (
		n = len(m.active)
	)
	if len(indicator) != n {
		panic(fmt.Errorf("dimension mismatch: indicator has %d values, mesh has %d active cells", len(indicator), n))
	}
	if refineFraction < 0 || coarsenFraction < 0 || refineFraction+coarsenFraction > 1 {
		panic(fmt.Errorf("invalid refinement fractions: refine = %8.5f, coarsen = %8.5f", refineFraction, coarsenFraction))
	}
	m.ClearFlags()
	var maxVal float64
	for _, val := range indicator {
		if val < 0 {
			panic(fmt.Errorf("negative refinement indicator %g", val))
		}
		if val > maxVal {
			maxVal = val
		}
	}
	if maxVal == 0 {
		return
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return indicator[order[a]] > indicator[order[b]]
	})
	nRefine := int(refineFraction * float64(n))
	nCoarsen := int(coarsenFraction * float64(n))
	for k := 0; k < nRefine; k++ {
		if indicator[order[k]] > 0 {
			m.active[order[k]].Refine = true
		}
	}
	for k := n - 1; k >= n-nCoarsen; k-- {
		c := m.active[order[k]]
		if !c.Refine {
			c.Coarsen = true
		}
	}
}

// ClampLevels drops refine marks on cells at or above maxLevel and coarsen marks on cells at or below minLevel
func (m *Mesh) ClampLevels(minLevel, maxLevel int) {
	if minLevel < 0 || maxLevel > MaxLevel || minLevel > maxLevel {
		panic(fmt.Errorf("invalid level bounds [%d,%d]", minLevel, maxLevel))
	}
	for _, c := range m.active {
		if c.Refine && c.Level() >= maxLevel {
			c.Refine = false
		}
		if c.Coarsen && c.Level() <= minLevel {
			c.Coarsen = false
		}
	}
}

/*
PrepareCoarseningAndRefinement makes the marks executable:
  - Refinement is propagated until no active cell would differ by more than one level from a face neighbor
  - A family is coarsened only when all four children are active and marked
  - A family is not coarsened when a neighbor would end up more than one level finer than the parent
*/
func (m *Mesh) PrepareCoarseningAndRefinement() {
	for _, c := range m.active {
		if c.Level() == 0 || c.Refine {
			c.Coarsen = false
		}
	}
	for changed := true; changed; {
		changed = false
		for _, c := range m.active {
			if !c.Refine {
				continue
			}
			for face := 0; face < 4; face++ {
				for _, nb := range m.Neighbors(c, face) {
					if nb.Level() < c.Level() && !nb.Refine {
						nb.Refine, nb.Coarsen = true, false
						changed = true
					}
				}
			}
		}
	}
	for _, c := range m.active {
		if !c.Coarsen {
			continue
		}
		parent := c.Parent
		if !m.familyCoarsenable(parent) {
			for _, ch := range parent.Children {
				ch.Coarsen = false
			}
		}
	}
}

func (m *Mesh) familyCoarsenable(parent *Cell) bool {
	for _, ch := range parent.Children {
		if !ch.Active() || !ch.Coarsen {
			return false
		}
	}
	for n, ch := range parent.Children {
		// Only the faces on the outside of the family
		outside := [2]int{FaceLeft + n&1, FaceBottom + n>>1}
		for _, face := range outside {
			for _, nb := range m.Neighbors(ch, face) {
				newLevel := nb.Level()
				if nb.Refine {
					newLevel++
				}
				if newLevel > parent.Level()+1 {
					return false
				}
			}
		}
	}
	return true
}

// ExecuteCoarseningAndRefinement applies the current marks, clears them and renumbers the active cells.
// The mesh generation is advanced even when nothing changed.
func (m *Mesh) ExecuteCoarseningAndRefinement() (changed bool) {
	var (
		toRefine  []*Cell
		toCoarsen []*Cell
		seen      = make(map[*Cell]bool)
	)
	for _, c := range m.active {
		switch {
		case c.Refine:
			toRefine = append(toRefine, c)
		case c.Coarsen && c.Parent != nil && !seen[c.Parent]:
			seen[c.Parent] = true
			if m.familyMarked(c.Parent) {
				toCoarsen = append(toCoarsen, c.Parent)
			}
		}
	}
	for _, parent := range toCoarsen {
		for n, ch := range parent.Children {
			delete(m.cells, ch.Key)
			parent.Children[n] = nil
		}
		changed = true
	}
	for _, c := range toRefine {
		if c.Level() >= MaxLevel {
			panic(fmt.Errorf("cell %v cannot be refined beyond level %d", c.Key, MaxLevel))
		}
		for n := 0; n < 4; n++ {
			ch := &Cell{Key: c.Key.Child(n), Parent: c}
			c.Children[n] = ch
			m.cells[ch.Key] = ch
		}
		changed = true
	}
	m.ClearFlags()
	m.rebuildActive()
	m.Generation++
	return
}

func (m *Mesh) familyMarked(parent *Cell) bool {
	for _, ch := range parent.Children {
		if ch == nil || !ch.Active() || !ch.Coarsen {
			return false
		}
	}
	return true
}
