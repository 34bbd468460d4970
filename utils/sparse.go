package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// SparsityPattern collects the column set of each row before the storage of a CSR matrix is allocated
type SparsityPattern struct {
	rows []map[int]struct{}
}

func NewSparsityPattern(n int) (sp *SparsityPattern) {
	sp = &SparsityPattern{
		rows: make([]map[int]struct{}, n),
	}
	for i := range sp.rows {
		// The diagonal is always present, constrained rows keep a diagonal entry after assembly
		sp.rows[i] = map[int]struct{}{i: {}}
	}
	return
}

func (sp *SparsityPattern) Dims() int { return len(sp.rows) }

func (sp *SparsityPattern) Add(i, j int) {
	if i < 0 || i >= len(sp.rows) || j < 0 || j >= len(sp.rows) {
		panic(fmt.Errorf("sparsity entry (%d,%d) out of range for dimension %d", i, j, len(sp.rows)))
	}
	sp.rows[i][j] = struct{}{}
}

// AddBlock couples every index in I with every index in J
func (sp *SparsityPattern) AddBlock(I, J []int) {
	for _, i := range I {
		for _, j := range J {
			sp.Add(i, j)
		}
	}
}

func (sp *SparsityPattern) NNZ() (nnz int) {
	for _, row := range sp.rows {
		nnz += len(row)
	}
	return
}

// Compress returns the row pointer and sorted column index arrays in CSR layout
func (sp *SparsityPattern) Compress() (indptr, ind []int) {
	indptr = make([]int, len(sp.rows)+1)
	ind = make([]int, 0, sp.NNZ())
	for i, row := range sp.rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		ind = append(ind, cols...)
		indptr[i+1] = len(ind)
	}
	return
}

// CSR is a square compressed sparse row matrix with a fixed sparsity pattern.
// Storage is shared with the wrapped sparse.CSR, so values added here are visible through M.
type CSR struct {
	M        *sparse.CSR
	Indptr   []int
	Ind      []int
	Val      []float64
	diag     []int
	readOnly bool
	name     string
}

func NewCSR(sp *SparsityPattern) (R CSR) {
	var (
		n           = sp.Dims()
		indptr, ind = sp.Compress()
		val         = make([]float64, len(ind))
	)
	R = CSR{
		M:      sparse.NewCSR(n, n, indptr, ind, val),
		Indptr: indptr,
		Ind:    ind,
		Val:    val,
		diag:   make([]int, n),
		name:   "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	for i := 0; i < n; i++ {
		R.diag[i] = R.find(i, i)
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return len(m.diag), len(m.diag) }
func (m CSR) T() mat.Matrix       { return m.M.T() }
func (m CSR) NNZ() int            { return len(m.Val) }
func (m CSR) Diag(i int) float64  { return m.Val[m.diag[i]] }
func (m CSR) DiagIndex(i int) int { return m.diag[i] }
func (m CSR) At(i, j int) float64 {
	if k := m.find(i, j); k >= 0 {
		return m.Val[k]
	}
	return 0
}

// Index is the storage position of entry (i,j), -1 when it is not in the pattern
func (m CSR) Index(i, j int) int { return m.find(i, j) }

func (m CSR) find(i, j int) int {
	var (
		lo, hi = m.Indptr[i], m.Indptr[i+1]
		cols   = m.Ind[lo:hi]
	)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return lo + k
	}
	return -1
}

func (m CSR) AddTo(i, j int, val float64) { // Changes receiver
	m.checkWritable()
	k := m.find(i, j)
	if k < 0 {
		panic(fmt.Errorf("entry (%d,%d) is not in the sparsity pattern of \"%v\"", i, j, m.name))
	}
	m.Val[k] += val
}

func (m CSR) Set(i, j int, val float64) { // Changes receiver
	m.checkWritable()
	k := m.find(i, j)
	if k < 0 {
		panic(fmt.Errorf("entry (%d,%d) is not in the sparsity pattern of \"%v\"", i, j, m.name))
	}
	m.Val[k] = val
}

func (m CSR) Zero() { // Changes receiver
	m.checkWritable()
	for k := range m.Val {
		m.Val[k] = 0
	}
}

// Row returns the column indices and values of row i, the values alias the matrix storage
func (m CSR) Row(i int) (cols []int, vals []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Ind[lo:hi], m.Val[lo:hi]
}

func (m CSR) MulVecTo(dst, x []float64) {
	var (
		n, _ = m.Dims()
	)
	if len(dst) != n || len(x) != n {
		panic(fmt.Errorf("dimension mismatch: matrix is %dx%d, len(dst) = %d, len(x) = %d", n, n, len(dst), len(x)))
	}
	for i := 0; i < n; i++ {
		var sum float64
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			sum += m.Val[k] * x[m.Ind[k]]
		}
		dst[i] = sum
	}
}

func (m *CSR) SetReadOnly(name ...string) CSR {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *CSR) SetWritable() CSR {
	m.readOnly = false
	return *m
}

func (m CSR) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
