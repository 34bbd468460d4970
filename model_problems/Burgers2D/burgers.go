package Burgers2D

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notargets/burgers2d/FE2D"
	"github.com/notargets/burgers2d/InputParameters"
	"github.com/notargets/burgers2d/dofs"
	"github.com/notargets/burgers2d/mesh"
	"github.com/notargets/burgers2d/solver"
	"github.com/notargets/burgers2d/types"
	"github.com/notargets/burgers2d/utils"
	"github.com/prometheus/client_golang/prometheus"
)

/*
	The run advances through a bounded sequence of phases:

		Init -> PreRefine (repeated up to PreRefinementSteps times) -> Steady -> Done

	Init sets the time origin and projects the initial condition. A PreRefine pass takes two time
	steps, refines the mesh around the transient and restarts from t = 0. Steady advances to the
	horizon, refining every RefineInterval steps without restarting.
*/
type Phase uint

const (
	PhaseInit Phase = iota
	PhasePreRefine
	PhaseSteady
	PhaseDone
)

var PhasePrintNames = []string{"Init", "PreRefine", "Steady", "Done"}

func (ph Phase) Print() string { return PhasePrintNames[ph] }

// History holds the solution at the current, previous and previous-previous time levels
type History struct {
	Current, Previous, PreviousPrevious []float64
}

func NewHistory(n int) History {
	return History{
		Current:          make([]float64, n),
		Previous:         make([]float64, n),
		PreviousPrevious: make([]float64, n),
	}
}

// Rotate shifts the time levels back by one and clears the current buffer, no storage is allocated
func (h *History) Rotate() {
	h.PreviousPrevious, h.Previous, h.Current = h.Previous, h.Current, h.PreviousPrevious
	for i := range h.Current {
		h.Current[i] = 0
	}
}

type Burgers struct {
	// Input parameters
	DT, FinalTime                   float64
	GlobalRefinements               int
	PreRefinementSteps              int
	MinLevel, MaxLevel              int
	RefineInterval                  int
	RefineFraction, CoarsenFraction float64
	InitialCondition                FE2D.Function
	Reference                       FE2D.Function // nil disables the error diagnostics
	Solver                          solver.GMRES
	SSOROmega                       float64
	FailOnNonConvergence            bool
	// Discretization
	Mesh        *mesh.Mesh
	DOF         *dofs.DOFHandler
	Constraints *dofs.Constraints
	System      *LinearSystem
	Assembler   *Assembler
	History     History
	// Progress
	Time           float64
	Timestep       int
	LastSolve      solver.Result
	LastL2Error    float64
	phase          Phase
	preRefinements int
	totalSteps     int
	nonConverged   int
	// Output
	RunID     uuid.UUID
	Registry  *prometheus.Registry
	metrics   *Metrics
	snapshots *SnapshotWriter
	diag      *Diagnostics
	verbose   bool
}

/*
NewBurgers builds the initial uniform mesh and the discrete space. An empty outputDir disables the
snapshot and diagnostics files.
*/
func NewBurgers(ip *InputParameters.InputParametersBurgers2D, outputDir string, verbose bool) (b *Burgers, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	b = &Burgers{
		DT:                 ip.TimeStep,
		FinalTime:          ip.FinalTime,
		GlobalRefinements:  ip.GlobalRefinements,
		PreRefinementSteps: ip.PreRefinementSteps,
		MinLevel:           ip.MinLevel,
		MaxLevel:           ip.MaxLevel,
		RefineInterval:     ip.RefineInterval,
		RefineFraction:     ip.RefineFraction,
		CoarsenFraction:    ip.CoarsenFraction,
		Solver: solver.GMRES{
			Restart:       ip.GMRESRestart,
			MaxIterations: ip.GMRESMaxIterations,
			Tolerance:     ip.GMRESTolerance,
		},
		SSOROmega:            ip.SSOROmega,
		FailOnNonConvergence: ip.FailOnNonConvergence(),
		RunID:                uuid.New(),
		Registry:             prometheus.NewRegistry(),
		verbose:              verbose,
	}
	b.metrics = NewMetrics(b.Registry)
	var forcing FE2D.Function
	if forcing, b.InitialCondition, b.Reference, err = functionsFromInput(ip); err != nil {
		return nil, err
	}
	b.Assembler = NewAssembler(ip.Viscosity, ip.ThetaIMEX, ip.ThetaSkew, forcing)
	b.Assembler.Extrapolation = NewExtrapolation(strings.ToLower(ip.Extrapolation))
	b.Assembler.StreamlineDiffusion = ip.StreamlineDiffusion

	b.snapshots = &SnapshotWriter{Dir: outputDir, RunID: b.RunID, Enabled: ip.Snapshots && outputDir != ""}
	if outputDir != "" {
		if b.diag, err = NewDiagnostics(outputDir, b.RunID); err != nil {
			return nil, err
		}
	}
	if verbose {
		fmt.Printf("Vector Burgers' Equation in 2 Dimensions, run %s\n", b.RunID)
		fmt.Printf("Forcing: %s, Initial condition: %s\n", ip.Forcing, ip.InitialCondition)
		fmt.Printf("Extrapolation: %s\n", b.Assembler.Extrapolation.Print())
	}
	b.makeGrid()
	b.setupSystem()
	return
}

func functionsFromInput(ip *InputParameters.InputParametersBurgers2D) (forcing, initial, reference FE2D.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid function selection: %v", r)
		}
	}()
	forcing = NewFunction(NewFunctionType(ip.Forcing))
	initial = NewFunction(NewFunctionType(ip.InitialCondition))
	if strings.ToLower(strings.TrimSpace(ip.Reference)) != "none" {
		reference = NewFunction(NewFunctionType(ip.Reference))
	}
	return
}

func (b *Burgers) makeGrid() {
	b.Mesh = mesh.NewUniformMesh(mesh.DefaultDomain(), b.GlobalRefinements)
	if b.verbose {
		fmt.Printf("   Number of active cells: %d\n", b.Mesh.NumActiveCells())
		fmt.Printf("   Total number of cells: %d\n", b.Mesh.NumCells())
	}
}

// setupSystem renumbers the unknowns, rebuilds the constraints and the matrix and resizes the history
func (b *Burgers) setupSystem() {
	if b.DOF == nil {
		b.DOF = dofs.NewDOFHandler(b.Mesh, 2)
		b.Constraints = dofs.NewConstraints()
	} else {
		b.DOF.Rebuild(b.Mesh)
		b.Constraints.Clear()
	}
	dofs.MakeHangingNodeConstraints(b.DOF, b.Constraints)
	dofs.AddDirichletConstraints(b.DOF, types.BC_Dirichlet, b.Assembler.BoundaryValues, b.Time, b.Constraints)
	b.Constraints.Close()
	b.System = NewLinearSystem(b.DOF, b.Constraints)
	b.History = NewHistory(b.DOF.NDOFs())
	b.metrics.ActiveCells.Set(float64(b.Mesh.NumActiveCells()))
	b.metrics.DOFs.Set(float64(b.DOF.NDOFs()))
	if b.verbose {
		fmt.Printf("   Number of degrees of freedom: %d\n", b.DOF.NDOFs())
	}
}

func (b *Burgers) Phase() Phase { return b.phase }

// Iterations is the number of time steps since the last restart
func (b *Burgers) Iterations() int { return b.Timestep }

func (b *Burgers) Restarts() int { return b.preRefinements }

func (b *Burgers) TotalSteps() int { return b.totalSteps }

func (b *Burgers) NonConvergedSolves() int { return b.nonConverged }

// Run drives the phases to completion, the first error aborts the run
func (b *Burgers) Run() (err error) {
	var (
		start = time.Now()
	)
	defer func() {
		if cerr := b.diag.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	b.PrintInitialization()
	for b.phase != PhaseDone {
		if _, err = b.Step(); err != nil {
			return
		}
	}
	b.PrintFinal(time.Since(start))
	return
}

// Step executes one phase transition: the initialization or one time step
func (b *Burgers) Step() (next Phase, err error) {
	switch b.phase {
	case PhaseInit:
		if err = b.initialize(); err != nil {
			return b.phase, err
		}
		next = PhaseSteady
		if b.preRefinements < b.PreRefinementSteps {
			next = PhasePreRefine
		}
	case PhasePreRefine, PhaseSteady:
		if next, err = b.iterate(); err != nil {
			return b.phase, err
		}
	case PhaseDone:
		next = PhaseDone
	}
	b.phase = next
	return
}

func (b *Burgers) initialize() (err error) {
	b.Time, b.Timestep = 0, 0
	var prev []float64
	if prev, err = dofs.Project(b.DOF, b.Constraints, b.InitialCondition, b.Time); err != nil {
		return fmt.Errorf("unable to project the initial condition: %w", err)
	}
	b.History.Previous = prev
	copy(b.History.Current, prev)
	return b.snapshots.Write(b.Timestep, b.Time, b.DOF, b.History.Current)
}

func (b *Burgers) iterate() (next Phase, err error) {
	next = b.phase
	if b.verbose {
		fmt.Printf("Time step %d at t=%g\n", b.Timestep, b.Time)
	}
	if err = b.solveStep(); err != nil {
		return
	}
	if err = b.snapshots.Write(b.Timestep, b.Time, b.DOF, b.History.Current); err != nil {
		return
	}
	b.totalSteps++
	b.metrics.Steps.Inc()
	switch {
	case b.phase == PhasePreRefine && b.Timestep == 1:
		b.RefineGrid(b.MinLevel, b.MaxLevel)
		b.preRefinements++
		b.metrics.Restarts.Inc()
		return PhaseInit, nil
	case b.RefineInterval > 0 && b.Timestep > 0 && b.Timestep%b.RefineInterval == 0:
		b.RefineGrid(b.MinLevel, b.MaxLevel)
	}
	b.Time += b.DT
	b.Timestep++
	b.metrics.SimTime.Set(b.Time)
	if b.Reference != nil {
		b.LastL2Error = ComputeL2Error(b.DOF, b.History.Current, b.Reference, b.Time)
		b.metrics.L2Error.Set(b.LastL2Error)
		if err = b.diag.Append(b.Time, b.LastL2Error); err != nil {
			return
		}
	}
	b.PrintUpdate()
	b.History.Rotate()
	if b.Time > b.FinalTime {
		next = PhaseDone
	}
	return
}

// solveStep assembles and solves for the current time level and fills in the constrained unknowns
func (b *Burgers) solveStep() (err error) {
	var (
		x  = b.History.Current
		ls = b.System
	)
	b.Assembler.Assemble(ls, b.DOF, b.Constraints, b.History.Previous, b.History.PreviousPrevious, x, b.Time, b.DT)
	b.LastSolve, err = b.Solver.Solve(ls.A, ls.RHS, x, solver.NewSSOR(ls.A, b.SSOROmega))
	if err != nil {
		return fmt.Errorf("time step %d: %w", b.Timestep, err)
	}
	b.metrics.GMRESIterations.Observe(float64(b.LastSolve.Iterations))
	if !b.LastSolve.Converged {
		b.nonConverged++
		b.metrics.NonConverged.Inc()
		if b.FailOnNonConvergence {
			return fmt.Errorf("time step %d: linear solve did not converge: %s", b.Timestep, b.LastSolve)
		}
		log.Printf("warning: time step %d at t=%g: linear solve did not converge: %s\n", b.Timestep, b.Time, b.LastSolve)
	}
	if utils.IsNan(x) {
		return fmt.Errorf("time step %d at t=%g: NaN in the solution", b.Timestep, b.Time)
	}
	if b.verbose {
		fmt.Printf("   %d GMRES iterations needed to obtain convergence.\n", b.LastSolve.Iterations)
	}
	b.Constraints.Reconstruct(x)
	return
}

func (b *Burgers) PrintInitialization() {
	if !b.verbose {
		return
	}
	fmt.Printf("Solving until finaltime = %8.5f, dt = %8.5f\n", b.FinalTime, b.DT)
	fmt.Printf("    iter    time   cells    dofs  gmres    L2 error\n")
}

func (b *Burgers) PrintUpdate() {
	if !b.verbose {
		return
	}
	fmt.Printf("%8d%8.5f%8d%8d%7d%12.4e\n", b.Timestep, b.Time, b.Mesh.NumActiveCells(), b.DOF.NDOFs(),
		b.LastSolve.Iterations, b.LastL2Error)
}

func (b *Burgers) PrintFinal(elapsed time.Duration) {
	if !b.verbose {
		return
	}
	rate := float64(elapsed.Microseconds()) / float64(b.totalSteps)
	fmt.Printf("\nRate of execution = %8.5f us/iteration over %d iterations, %d restarts, %d non-converged solves\n",
		rate, b.totalSteps, b.preRefinements, b.nonConverged)
	fmt.Printf("%s\n", utils.GetMemUsage())
}
