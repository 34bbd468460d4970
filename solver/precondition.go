package solver

import (
	"fmt"

	"github.com/notargets/burgers2d/utils"
)

type Identity struct{}

func (Identity) Apply(dst, src []float64) { copy(dst, src) }

// SSOR is the symmetric successive over-relaxation preconditioner
//
//	M = 1/(omega*(2-omega)) * (D + omega*L) D^-1 (D + omega*U)
type SSOR struct {
	A     utils.CSR
	Omega float64
	diag  []float64
}

func NewSSOR(A utils.CSR, omega float64) (p *SSOR) {
	var (
		n, _ = A.Dims()
	)
	if omega <= 0 || omega >= 2 {
		panic(fmt.Errorf("SSOR relaxation parameter %g outside (0,2)", omega))
	}
	p = &SSOR{A: A, Omega: omega, diag: make([]float64, n)}
	for i := 0; i < n; i++ {
		d := A.Diag(i)
		if d == 0 {
			panic(fmt.Errorf("zero diagonal in row %d, SSOR is undefined", i))
		}
		p.diag[i] = d
	}
	return
}

func (p *SSOR) Apply(dst, src []float64) {
	var (
		A     = p.A
		n     = len(p.diag)
		omega = p.Omega
	)
	if len(dst) != n || len(src) != n {
		panic(fmt.Errorf("dimension mismatch: preconditioner is %dx%d, len(dst) = %d, len(src) = %d",
			n, n, len(dst), len(src)))
	}
	// Forward sweep (D + omega*L) y = src
	for i := 0; i < n; i++ {
		sum := src[i]
		for k := A.Indptr[i]; k < A.Indptr[i+1]; k++ {
			if j := A.Ind[k]; j < i {
				sum -= omega * A.Val[k] * dst[j]
			}
		}
		dst[i] = sum / p.diag[i]
	}
	for i := 0; i < n; i++ {
		dst[i] *= p.diag[i]
	}
	// Backward sweep (D + omega*U) z = D y
	for i := n - 1; i >= 0; i-- {
		sum := dst[i]
		for k := A.Indptr[i]; k < A.Indptr[i+1]; k++ {
			if j := A.Ind[k]; j > i {
				sum -= omega * A.Val[k] * dst[j]
			}
		}
		dst[i] = sum / p.diag[i]
	}
	if scale := omega * (2. - omega); scale != 1 {
		for i := range dst {
			dst[i] *= scale
		}
	}
}
