package Burgers2D

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/burgers2d/FE2D"
)

type FunctionType uint

const (
	FUNC_Zero FunctionType = iota
	FUNC_Periodic
	FUNC_Bubble
	FUNC_BubbleGauss
	FUNC_Disks
)

var (
	FunctionNames = map[string]FunctionType{
		"zero":        FUNC_Zero,
		"periodic":    FUNC_Periodic,
		"bubble":      FUNC_Bubble,
		"bubblegauss": FUNC_BubbleGauss,
		"disks":       FUNC_Disks,
	}
	FunctionPrintNames = []string{
		"Zero",
		"Periodic switched forcing",
		"Bubble (x^2-1)(y^2-1)",
		"Manufactured forcing for the bubble",
		"Disk forcing",
	}
)

func (ft FunctionType) Print() (txt string) {
	txt = FunctionPrintNames[ft]
	return
}

func NewFunctionType(label string) (ft FunctionType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if ft, ok = FunctionNames[label]; !ok {
		err = fmt.Errorf("unable to use function named %s", label)
		panic(err)
	}
	return
}

func NewFunction(ft FunctionType) FE2D.Function {
	switch ft {
	case FUNC_Zero:
		return FE2D.ZeroFunction{N: 2}
	case FUNC_Periodic:
		return NewPeriodicForcing()
	case FUNC_Bubble:
		return Bubble{}
	case FUNC_BubbleGauss:
		return BubbleForcing{}
	case FUNC_Disks:
		return DiskForcing{Radius: 0.2}
	}
	panic(fmt.Errorf("unknown function type %d", ft))
}

/*
PeriodicForcing switches a unit force on and off in two regions of the domain. With the phase
phi = t/P - floor(t/P):

	component 0 is 1 for phi in [0,0.2] in the region x > 0.5, y > -0.5
	            and 1 for phi in [0.5,0.7] in the region x > -0.5, y > 0.5
	component 1 is 1 for phi in [0.2,0.4] in the first region and for phi in [0.7,0.9] in the second

and zero otherwise.
*/
type PeriodicForcing struct {
	Period float64
}

func NewPeriodicForcing() PeriodicForcing { return PeriodicForcing{Period: 0.2} }

func (pf PeriodicForcing) NComponents() int { return 2 }

func (pf PeriodicForcing) Phase(t float64) float64 {
	return t/pf.Period - math.Floor(t/pf.Period)
}

func (pf PeriodicForcing) Value(p [2]float64, t float64, values []float64) {
	var (
		phi     = pf.Phase(t)
		region1 = p[0] > 0.5 && p[1] > -0.5
		region2 = p[0] > -0.5 && p[1] > 0.5
		within  = func(lo, hi float64) bool { return phi >= lo && phi <= hi }
	)
	values[0], values[1] = 0, 0
	switch {
	case within(0, 0.2):
		values[0] = indicator(region1)
	case within(0.5, 0.7):
		values[0] = indicator(region2)
	}
	switch {
	case within(0.2, 0.4):
		values[1] = indicator(region1)
	case within(0.7, 0.9):
		values[1] = indicator(region2)
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Bubble is (x^2-1)(y^2-1) in both components, the reference solution for the error diagnostics
type Bubble struct{}

func (Bubble) NComponents() int { return 2 }

func (Bubble) Value(p [2]float64, t float64, values []float64) {
	b := (p[0]*p[0] - 1) * (p[1]*p[1] - 1)
	values[0], values[1] = b, b
}

// BubbleForcing is the forcing for which the steady state with unit viscosity is the Bubble
type BubbleForcing struct{}

func (BubbleForcing) NComponents() int { return 2 }

func (BubbleForcing) Value(p [2]float64, t float64, values []float64) {
	var (
		x2m1, y2m1 = p[0]*p[0] - 1, p[1]*p[1] - 1
	)
	f := 2*x2m1*y2m1*(p[0]*y2m1+p[1]*x2m1) - (2*y2m1 + 2*x2m1)
	values[0], values[1] = f, f
}

// DiskForcing drives component 0 in disks around (+-0.5, 0) and component 1 in a disk around the origin
type DiskForcing struct {
	Radius float64
}

func (DiskForcing) NComponents() int { return 2 }

func (df DiskForcing) Value(p [2]float64, t float64, values []float64) {
	var (
		r2     = df.Radius * df.Radius
		distSq = func(cx, cy float64) float64 { return (p[0]-cx)*(p[0]-cx) + (p[1]-cy)*(p[1]-cy) }
	)
	values[0] = indicator(distSq(0.5, 0) < r2 || distSq(-0.5, 0) < r2)
	values[1] = indicator(distSq(0, 0) < r2)
}
