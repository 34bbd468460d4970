package Burgers2D

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/dofs"
)

// SnapshotWriter writes the velocity field as legacy ASCII VTK, one file per time step
type SnapshotWriter struct {
	Dir     string
	RunID   uuid.UUID
	Enabled bool
}

func SnapshotFileName(step int) string { return fmt.Sprintf("solution-%03d.vtk", step) }

func (sw *SnapshotWriter) Write(step int, t float64, dh *dofs.DOFHandler, field []float64) (err error) {
	var (
		f     *os.File
		file  = filepath.Join(sw.Dir, SnapshotFileName(step))
		nc    = dh.NComponents()
		cells = dh.Mesh.ActiveCells()
	)
	if !sw.Enabled {
		return
	}
	if len(field) != dh.NDOFs() {
		panic(fmt.Errorf("dimension mismatch: field has %d values, dof handler has %d dofs", len(field), dh.NDOFs()))
	}
	if f, err = os.Create(file); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("unable to close snapshot %s: %w", file, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(w, "burgers2d run %s, step %d, time %16.9e\n", sw.RunID, step, t)
	fmt.Fprintf(w, "ASCII\n")
	fmt.Fprintf(w, "DATASET UNSTRUCTURED_GRID\n")
	fmt.Fprintf(w, "POINTS %d double\n", dh.NNodes())
	for node := 0; node < dh.NNodes(); node++ {
		p := dh.NodePoint(node)
		fmt.Fprintf(w, "%16.9e %16.9e %16.9e\n", p[0], p[1], 0.)
	}
	fmt.Fprintf(w, "\nCELLS %d %d\n", len(cells), 5*len(cells))
	for _, c := range cells {
		nodes := dh.CellNodes(c)
		// VTK_QUAD vertices run counterclockwise
		fmt.Fprintf(w, "4 %d %d %d %d\n", nodes[0], nodes[1], nodes[3], nodes[2])
	}
	fmt.Fprintf(w, "\nCELL_TYPES %d\n", len(cells))
	for range cells {
		fmt.Fprintf(w, "9\n")
	}
	fmt.Fprintf(w, "\nPOINT_DATA %d\n", dh.NNodes())
	fmt.Fprintf(w, "VECTORS velocity double\n")
	for node := 0; node < dh.NNodes(); node++ {
		var v [3]float64
		for comp := 0; comp < nc && comp < 3; comp++ {
			v[comp] = field[dh.NodeDOF(node, comp)]
		}
		fmt.Fprintf(w, "%16.9e %16.9e %16.9e\n", v[0], v[1], v[2])
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("unable to write snapshot %s: %w", file, err)
	}
	return
}

const DiagnosticsFileName = "l2_error.dat"

// Diagnostics is the append only (time, L2 error) series of a run
type Diagnostics struct {
	f *os.File
	w *bufio.Writer
}

func NewDiagnostics(dir string, runID uuid.UUID) (d *Diagnostics, err error) {
	var (
		f *os.File
	)
	if f, err = os.Create(filepath.Join(dir, DiagnosticsFileName)); err != nil {
		return nil, fmt.Errorf("unable to open diagnostics: %w", err)
	}
	d = &Diagnostics{f: f, w: bufio.NewWriter(f)}
	fmt.Fprintf(d.w, "# burgers2d run %s\n# time  L2error\n", runID)
	return
}

func (d *Diagnostics) Append(t, l2Error float64) (err error) {
	if d == nil {
		return
	}
	if _, err = fmt.Fprintf(d.w, "%g  %g\n", t, l2Error); err != nil {
		return fmt.Errorf("unable to write diagnostics: %w", err)
	}
	if err = d.w.Flush(); err != nil {
		return fmt.Errorf("unable to write diagnostics: %w", err)
	}
	return
}

func (d *Diagnostics) Close() (err error) {
	if d == nil {
		return
	}
	if err = d.w.Flush(); err != nil {
		d.f.Close()
		return fmt.Errorf("unable to write diagnostics: %w", err)
	}
	return d.f.Close()
}

// ComputeL2Error is the L2 norm over the domain of the difference between the field and the reference
func ComputeL2Error(dh *dofs.DOFHandler, field []float64, ref FE2D.Function, t float64) float64 {
	var (
		m      = dh.Mesh
		nc     = dh.NComponents()
		fv     = FE2D.NewFEValues(dh.FE, FE2D.NewQGauss(3))
		local  = make([]float64, dh.FE.DofsPerCell())
		values = fv.AllocValues()
		refVal = make([]float64, nc)
		sum    float64
	)
	dh.CheckCurrent()
	if ref.NComponents() != nc {
		panic(fmt.Errorf("reference has %d components, field has %d", ref.NComponents(), nc))
	}
	for _, c := range m.ActiveCells() {
		x0, y0 := m.CellOrigin(c)
		fv.Reinit(x0, y0, m.CellSize(c))
		dh.GetCellValues(c, field, local)
		fv.FunctionValues(local, values)
		for q := 0; q < fv.NQuad(); q++ {
			ref.Value(fv.Points[q], t, refVal)
			for comp := 0; comp < nc; comp++ {
				d := values[q][comp] - refVal[comp]
				sum += d * d * fv.JxW[q]
			}
		}
	}
	return math.Sqrt(sum)
}
