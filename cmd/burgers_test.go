package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/burgers2d/model_problems/Burgers2D"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shortRun = []byte(`
Title: Short Run
GlobalRefinements: 1
MinLevel: 1
MaxLevel: 2
TimeStep: 0.002
FinalTime: 0.004
PreRefinementSteps: 1
RefineInterval: 0
`)

func TestProcessInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(file, shortRun, 0644))

	ip, err := processInput(&ModelBurgers{ICFile: file, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	assert.Equal(t, "Short Run", ip.Title)
	assert.Equal(t, 1, ip.PreRefinementSteps)
	assert.InDelta(t, 0.004, ip.FinalTime, 1.e-15)
	info, err := os.Stat(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// No file is the default run
	ip, err = processInput(&ModelBurgers{})
	require.NoError(t, err)
	assert.Equal(t, 4, ip.PreRefinementSteps)

	_, err = processInput(&ModelBurgers{ICFile: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestExecuteBurgers(t *testing.T) {
	var (
		stderr bytes.Buffer
		dir    = t.TempDir()
		file   = filepath.Join(dir, "input.yaml")
		out    = filepath.Join(dir, "results")
	)
	require.NoError(t, os.WriteFile(file, shortRun, 0644))
	code := execute([]string{"burgers", "-I", file, "-o", out}, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stderr.String())
	for _, name := range []string{Burgers2D.SnapshotFileName(0), Burgers2D.SnapshotFileName(2), Burgers2D.DiagnosticsFileName} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestExecuteFailure(t *testing.T) {
	var (
		stderr bytes.Buffer
		dir    = t.TempDir()
		file   = filepath.Join(dir, "input.yaml")
	)
	require.NoError(t, os.WriteFile(file, []byte("TimeStep: -0.1\n"), 0644))
	code := execute([]string{"burgers", "-I", file, "-o", dir}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Exception on processing: time step must be positive")
	assert.Contains(t, stderr.String(), "Aborting!")

	stderr.Reset()
	printAbort(&stderr, "Unknown exception!")
	assert.Contains(t, stderr.String(), "\nUnknown exception!\n")
}

func TestExecuteRecoversPanics(t *testing.T) {
	var (
		stderr bytes.Buffer
		failed = &cobra.Command{
			Use: "failed",
			Run: func(cmd *cobra.Command, args []string) { panic(fmt.Errorf("matrix is singular")) },
		}
		unknown = &cobra.Command{
			Use: "unknown",
			Run: func(cmd *cobra.Command, args []string) { panic(42) },
		}
	)
	rootCmd.AddCommand(failed, unknown)
	t.Cleanup(func() { rootCmd.RemoveCommand(failed, unknown) })

	assert.Equal(t, 1, execute([]string{"failed"}, &stderr))
	assert.Contains(t, stderr.String(), "Exception on processing: matrix is singular")
	assert.Contains(t, stderr.String(), "Aborting!")

	stderr.Reset()
	assert.Equal(t, 1, execute([]string{"unknown"}, &stderr))
	assert.Contains(t, stderr.String(), "\nUnknown exception!\n")
	assert.Contains(t, stderr.String(), "Aborting!")
	assert.NotContains(t, stderr.String(), "Exception on processing")
}

func TestRootRunsDefaultBurgers(t *testing.T) {
	// Without a subcommand the root runs the burgers command
	assert.True(t, rootCmd.Runnable())
	assert.NotNil(t, BurgersCmd.RunE)
}
