package dofs

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/burgers2d/utils"
	"gonum.org/v1/gonum/mat"
)

type Entry struct {
	Index  int
	Weight float64
}

// ConstraintLine expresses x[Index] = sum(Weight*x[Entry.Index]) + Inhomogeneity
type ConstraintLine struct {
	Index         int
	Entries       []Entry
	Inhomogeneity float64
}

/*
	Constraints is the set of linear relations between unknowns: hanging nodes on the midpoint of
	a coarse face and prescribed values. Lines are added, then Close resolves chains so that every
	line refers only to unconstrained unknowns. A closed set is used to distribute local cell
	contributions into the global system and to reconstruct constrained values after a solve.
*/
type Constraints struct {
	lines  map[int]*ConstraintLine
	closed bool
}

func NewConstraints() *Constraints {
	return &Constraints{lines: make(map[int]*ConstraintLine)}
}

func (cs *Constraints) Clear() {
	cs.lines = make(map[int]*ConstraintLine)
	cs.closed = false
}

// AddLine starts a constraint on unknown i, it returns false when i is already constrained
func (cs *Constraints) AddLine(i int) bool {
	if cs.closed {
		panic(fmt.Errorf("cannot add constraint line %d to a closed constraint set", i))
	}
	if _, ok := cs.lines[i]; ok {
		return false
	}
	cs.lines[i] = &ConstraintLine{Index: i}
	return true
}

func (cs *Constraints) AddEntry(i, j int, weight float64) {
	line := cs.openLine(i)
	if i == j {
		panic(fmt.Errorf("unknown %d cannot be constrained to itself", i))
	}
	line.Entries = append(line.Entries, Entry{Index: j, Weight: weight})
}

func (cs *Constraints) SetInhomogeneity(i int, val float64) {
	cs.openLine(i).Inhomogeneity = val
}

func (cs *Constraints) openLine(i int) *ConstraintLine {
	if cs.closed {
		panic(fmt.Errorf("cannot modify constraint line %d of a closed constraint set", i))
	}
	line, ok := cs.lines[i]
	if !ok {
		panic(fmt.Errorf("no constraint line for unknown %d", i))
	}
	return line
}

func (cs *Constraints) IsConstrained(i int) bool {
	_, ok := cs.lines[i]
	return ok
}

func (cs *Constraints) Line(i int) *ConstraintLine { return cs.lines[i] }

func (cs *Constraints) NConstraints() int { return len(cs.lines) }

func (cs *Constraints) Closed() bool { return cs.closed }

// Close resolves constraints that refer to other constrained unknowns and merges duplicate entries.
// Calling Close on a closed set does nothing.
func (cs *Constraints) Close() {
	if cs.closed {
		return
	}
	var (
		keys = cs.sortedKeys()
	)
	for pass := 0; ; pass++ {
		if pass > len(keys) {
			panic(fmt.Errorf("cyclic constraints detected after %d passes", pass))
		}
		var changed bool
		for _, i := range keys {
			line := cs.lines[i]
			var (
				entries  = make([]Entry, 0, len(line.Entries))
				inhom    = line.Inhomogeneity
				replaced bool
			)
			for _, e := range line.Entries {
				other, ok := cs.lines[e.Index]
				if !ok {
					entries = append(entries, e)
					continue
				}
				if e.Index == i {
					panic(fmt.Errorf("unknown %d is constrained to itself", i))
				}
				replaced = true
				for _, oe := range other.Entries {
					entries = append(entries, Entry{Index: oe.Index, Weight: e.Weight * oe.Weight})
				}
				inhom += e.Weight * other.Inhomogeneity
			}
			if replaced {
				line.Entries = entries
				line.Inhomogeneity = inhom
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, i := range keys {
		cs.lines[i].Entries = mergeEntries(cs.lines[i].Entries)
	}
	cs.closed = true
}

func mergeEntries(entries []Entry) (merged []Entry) {
	sort.Slice(entries, func(a, b int) bool { return entries[a].Index < entries[b].Index })
	for _, e := range entries {
		if n := len(merged); n > 0 && merged[n-1].Index == e.Index {
			merged[n-1].Weight += e.Weight
			continue
		}
		merged = append(merged, e)
	}
	return
}

func (cs *Constraints) sortedKeys() (keys []int) {
	keys = make([]int, 0, len(cs.lines))
	for i := range cs.lines {
		keys = append(keys, i)
	}
	sort.Ints(keys)
	return
}

func (cs *Constraints) checkClosed() {
	if !cs.closed {
		panic(fmt.Errorf("constraints must be closed before use"))
	}
}

// expand returns the unconstrained unknowns that carry unknown i
func (cs *Constraints) expand(i int) (entries []Entry, inhom float64, constrained bool) {
	line, ok := cs.lines[i]
	if !ok {
		return []Entry{{Index: i, Weight: 1}}, 0, false
	}
	return line.Entries, line.Inhomogeneity, true
}

// Expanded returns the unknowns coupled through the constraints to any of the given unknowns, including themselves
func (cs *Constraints) Expanded(dofs []int) (out []int) {
	seen := make(map[int]bool, len(dofs))
	for _, i := range dofs {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
		if line, ok := cs.lines[i]; ok {
			for _, e := range line.Entries {
				if !seen[e.Index] {
					seen[e.Index] = true
					out = append(out, e.Index)
				}
			}
		}
	}
	return
}

/*
DistributeLocalToGlobal adds a cell matrix K and cell vector f, indexed by the local dofs, into the
global system. Rows and columns of constrained unknowns are redistributed onto the unknowns they
depend on, inhomogeneities move to the right hand side, and constrained rows receive a positive
diagonal so the global matrix stays regular. Either K/A or f/b may be nil.
*/
func (cs *Constraints) DistributeLocalToGlobal(K *mat.Dense, f *mat.VecDense, dofs []int, A *utils.CSR, b []float64) {
	var (
		n = len(dofs)
	)
	cs.checkClosed()
	if K != nil {
		if nr, nc := K.Dims(); nr != n || nc != n {
			panic(fmt.Errorf("dimension mismatch: cell matrix is %dx%d for %d local dofs", nr, nc, n))
		}
	}
	if f != nil && f.Len() != n {
		panic(fmt.Errorf("dimension mismatch: cell vector has %d values for %d local dofs", f.Len(), n))
	}
	var avgDiag float64
	if K != nil {
		for i := 0; i < n; i++ {
			avgDiag += math.Abs(K.At(i, i))
		}
		avgDiag /= float64(n)
		if avgDiag == 0 {
			avgDiag = 1
		}
	}
	for i := 0; i < n; i++ {
		rowEntries, rowInhom, rowConstrained := cs.expand(dofs[i])
		if rowConstrained && K != nil && A != nil {
			diag := math.Abs(K.At(i, i))
			if diag == 0 {
				diag = avgDiag
			}
			A.AddTo(dofs[i], dofs[i], diag)
			if b != nil {
				b[dofs[i]] += diag * rowInhom
			}
		}
		for _, re := range rowEntries {
			if f != nil && b != nil {
				b[re.Index] += re.Weight * f.AtVec(i)
			}
			if K == nil {
				continue
			}
			for j := 0; j < n; j++ {
				kij := K.At(i, j)
				if kij == 0 {
					continue
				}
				colEntries, colInhom, _ := cs.expand(dofs[j])
				if A != nil {
					for _, ce := range colEntries {
						A.AddTo(re.Index, ce.Index, re.Weight*ce.Weight*kij)
					}
				}
				if b != nil && colInhom != 0 {
					b[re.Index] -= re.Weight * kij * colInhom
				}
			}
		}
	}
}

// Reconstruct sets every constrained unknown from the unknowns it depends on
func (cs *Constraints) Reconstruct(x []float64) {
	cs.checkClosed()
	for i, line := range cs.lines {
		if i >= len(x) {
			panic(fmt.Errorf("constrained unknown %d out of range for vector of length %d", i, len(x)))
		}
		val := line.Inhomogeneity
		for _, e := range line.Entries {
			val += e.Weight * x[e.Index]
		}
		x[i] = val
	}
}
