package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputParametersDefaults(t *testing.T) {
	ip := NewInputParametersBurgers2D()
	require.NoError(t, ip.Validate())
	assert.InDelta(t, 0.002, ip.TimeStep, 1.e-15)
	assert.Equal(t, 4, ip.PreRefinementSteps)
	assert.Equal(t, 2, ip.MinLevel)
	assert.Equal(t, 6, ip.MaxLevel)
	assert.False(t, ip.FailOnNonConvergence())
	if testing.Verbose() {
		ip.Print()
	}
}

func TestInputParametersParse(t *testing.T) {
	data := []byte(`
Title: "short run"
TimeStep: 0.01
FinalTime: 0.05
PreRefinementSteps: 1
NonConvergence: fail
Snapshots: false
`)
	ip := NewInputParametersBurgers2D()
	require.NoError(t, ip.Parse(data))
	assert.Equal(t, "short run", ip.Title)
	assert.InDelta(t, 0.01, ip.TimeStep, 1.e-15)
	assert.InDelta(t, 0.05, ip.FinalTime, 1.e-15)
	assert.Equal(t, 1, ip.PreRefinementSteps)
	assert.True(t, ip.FailOnNonConvergence())
	assert.False(t, ip.Snapshots)
	// Untouched fields keep their defaults
	assert.Equal(t, 3, ip.GlobalRefinements)
	assert.Equal(t, "periodic", ip.Forcing)

	ip = NewInputParametersBurgers2D()
	assert.Error(t, ip.Parse([]byte("TimeStep: -1\n")))
	ip = NewInputParametersBurgers2D()
	assert.Error(t, ip.Parse([]byte("RefineFraction: 0.9\n")))
	ip = NewInputParametersBurgers2D()
	assert.Error(t, ip.Parse([]byte("NonConvergence: ignore\n")))
	ip = NewInputParametersBurgers2D()
	assert.Error(t, ip.Parse([]byte("TimeStep: [1, 2\n")))
}
