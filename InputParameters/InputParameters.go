package InputParameters

import (
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file, fields missing from the file keep their defaults
type InputParametersBurgers2D struct {
	Title               string  `yaml:"Title"`
	GlobalRefinements   int     `yaml:"GlobalRefinements"` // Uniform refinements of the initial mesh
	TimeStep            float64 `yaml:"TimeStep"`
	FinalTime           float64 `yaml:"FinalTime"` // Inclusive horizon
	Viscosity           float64 `yaml:"Viscosity"`
	ThetaIMEX           float64 `yaml:"ThetaIMEX"`
	ThetaSkew           float64 `yaml:"ThetaSkew"`
	Extrapolation       string  `yaml:"Extrapolation"` // first or second
	StreamlineDiffusion bool    `yaml:"StreamlineDiffusion"`
	PreRefinementSteps  int     `yaml:"PreRefinementSteps"` // Restarts from t = 0 after refining
	MinLevel            int     `yaml:"MinLevel"`
	MaxLevel            int     `yaml:"MaxLevel"`
	RefineInterval      int     `yaml:"RefineInterval"` // Steps between refinements, 0 disables
	RefineFraction      float64 `yaml:"RefineFraction"`
	CoarsenFraction     float64 `yaml:"CoarsenFraction"`
	GMRESRestart        int     `yaml:"GMRESRestart"`
	GMRESMaxIterations  int     `yaml:"GMRESMaxIterations"`
	GMRESTolerance      float64 `yaml:"GMRESTolerance"` // Relative to the right hand side norm
	SSOROmega           float64 `yaml:"SSOROmega"`
	Forcing             string  `yaml:"Forcing"`
	InitialCondition    string  `yaml:"InitialCondition"`
	Reference           string  `yaml:"Reference"`      // Reference solution for the error diagnostics, "none" disables
	NonConvergence      string  `yaml:"NonConvergence"` // warn or fail
	Snapshots           bool    `yaml:"Snapshots"`
}

func NewInputParametersBurgers2D() *InputParametersBurgers2D {
	return &InputParametersBurgers2D{
		Title:               "Adaptive vector Burgers' equation",
		GlobalRefinements:   3,
		TimeStep:            1. / 500.,
		FinalTime:           1.,
		Viscosity:           1.,
		ThetaIMEX:           0.5,
		ThetaSkew:           0.5,
		Extrapolation:       "first",
		StreamlineDiffusion: false,
		PreRefinementSteps:  4,
		MinLevel:            2,
		MaxLevel:            6,
		RefineInterval:      5,
		RefineFraction:      0.5,
		CoarsenFraction:     0.2,
		GMRESRestart:        30,
		GMRESMaxIterations:  5000,
		GMRESTolerance:      1.e-9,
		SSOROmega:           1.,
		Forcing:             "periodic",
		InitialCondition:    "zero",
		Reference:           "bubble",
		NonConvergence:      "warn",
		Snapshots:           true,
	}
}

func (ip *InputParametersBurgers2D) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return fmt.Errorf("unable to parse input parameters: %w", err)
	}
	return ip.Validate()
}

func (ip *InputParametersBurgers2D) Validate() error {
	switch {
	case ip.TimeStep <= 0:
		return fmt.Errorf("time step must be positive, have %g", ip.TimeStep)
	case ip.FinalTime < 0:
		return fmt.Errorf("final time must not be negative, have %g", ip.FinalTime)
	case ip.Viscosity < 0:
		return fmt.Errorf("viscosity must not be negative, have %g", ip.Viscosity)
	case ip.GlobalRefinements < 0 || ip.GlobalRefinements > ip.MaxLevel:
		return fmt.Errorf("global refinements %d outside [0,%d]", ip.GlobalRefinements, ip.MaxLevel)
	case ip.MinLevel < 0 || ip.MinLevel > ip.MaxLevel || ip.MaxLevel > 20:
		return fmt.Errorf("invalid level bounds [%d,%d]", ip.MinLevel, ip.MaxLevel)
	case ip.PreRefinementSteps < 0 || ip.RefineInterval < 0:
		return fmt.Errorf("pre-refinement steps (%d) and refine interval (%d) must not be negative",
			ip.PreRefinementSteps, ip.RefineInterval)
	case ip.RefineFraction < 0 || ip.CoarsenFraction < 0 || ip.RefineFraction+ip.CoarsenFraction > 1:
		return fmt.Errorf("invalid refinement fractions: refine = %g, coarsen = %g", ip.RefineFraction, ip.CoarsenFraction)
	case ip.GMRESRestart < 1 || ip.GMRESMaxIterations < 1 || ip.GMRESTolerance <= 0:
		return fmt.Errorf("invalid GMRES settings: restart = %d, max iterations = %d, tolerance = %g",
			ip.GMRESRestart, ip.GMRESMaxIterations, ip.GMRESTolerance)
	case ip.SSOROmega <= 0 || ip.SSOROmega >= 2:
		return fmt.Errorf("SSOR relaxation parameter %g outside (0,2)", ip.SSOROmega)
	}
	switch strings.ToLower(ip.NonConvergence) {
	case "warn", "fail":
	default:
		return fmt.Errorf("non-convergence policy must be warn or fail, have %q", ip.NonConvergence)
	}
	switch strings.ToLower(ip.Extrapolation) {
	case "first", "second":
	default:
		return fmt.Errorf("extrapolation must be first or second, have %q", ip.Extrapolation)
	}
	return nil
}

func (ip *InputParametersBurgers2D) FailOnNonConvergence() bool {
	return strings.ToLower(ip.NonConvergence) == "fail"
}

func (ip *InputParametersBurgers2D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= TimeStep\n", ip.TimeStep)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.5f\t\t= Viscosity\n", ip.Viscosity)
	fmt.Printf("%8.5f\t\t= Theta IMEX, %8.5f = Theta Skew\n", ip.ThetaIMEX, ip.ThetaSkew)
	fmt.Printf("[%s]\t\t\t= Extrapolation\n", ip.Extrapolation)
	fmt.Printf("[%d]\t\t\t\t= Global Refinements\n", ip.GlobalRefinements)
	fmt.Printf("[%d]\t\t\t\t= Pre-Refinement Steps\n", ip.PreRefinementSteps)
	fmt.Printf("[%d,%d]\t\t\t\t= Level Bounds\n", ip.MinLevel, ip.MaxLevel)
	fmt.Printf("[%d]\t\t\t\t= Refine Interval\n", ip.RefineInterval)
	fmt.Printf("%8.5f/%8.5f\t= Refine/Coarsen Fractions\n", ip.RefineFraction, ip.CoarsenFraction)
	fmt.Printf("GMRES(%d), %d max iterations, tolerance %8.2e, SSOR omega %5.3f\n",
		ip.GMRESRestart, ip.GMRESMaxIterations, ip.GMRESTolerance, ip.SSOROmega)
	fmt.Printf("[%s]\t\t= Forcing\n", ip.Forcing)
	fmt.Printf("[%s]\t\t\t= Initial Condition\n", ip.InitialCondition)
	fmt.Printf("[%s]\t\t\t= Reference Solution\n", ip.Reference)
	fmt.Printf("[%s]\t\t\t= Non-Convergence Policy\n", ip.NonConvergence)
}
