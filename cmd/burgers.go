/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/notargets/burgers2d/InputParameters"
	"github.com/notargets/burgers2d/model_problems/Burgers2D"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ModelBurgers struct {
	ICFile      string
	OutputDir   string
	Profile     bool
	MetricsAddr string
	Verbose     bool
}

// BurgersCmd represents the burgers command
var BurgersCmd = &cobra.Command{
	Use:   "burgers",
	Short: "Adaptive vector Burgers' equation on the unit square, with optional YAML input",
	Long: `
Runs the adaptive solver with the parameters from the input file, or with the default
periodic forcing run when no file is given. Writes one VTK snapshot per time step and the
L2 error history into the output directory.

burgers2d burgers -I input.yaml -o results -v`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.InputParametersBurgers2D
		)
		mb := &ModelBurgers{
			ICFile:      viper.GetString("inputConditionsFile"),
			OutputDir:   viper.GetString("outputDir"),
			Profile:     viper.GetBool("profile"),
			MetricsAddr: viper.GetString("metricsAddr"),
			Verbose:     viper.GetBool("verbose"),
		}
		if ip, err = processInput(mb); err != nil {
			return
		}
		return RunBurgers(mb, ip)
	},
}

func processInput(mb *ModelBurgers) (ip *InputParameters.InputParametersBurgers2D, err error) {
	ip = InputParameters.NewInputParametersBurgers2D()
	if len(mb.ICFile) != 0 {
		var data []byte
		if data, err = os.ReadFile(mb.ICFile); err != nil {
			return nil, err
		}
		if err = ip.Parse(data); err != nil {
			exampleFile := `
########################################
Title: "Test Case"
TimeStep: 0.002
FinalTime: 1.
Viscosity: 1.
PreRefinementSteps: 4
Forcing: periodic # Can be "disks", "bubblegauss" or "zero"
NonConvergence: warn # Can be "fail"
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			return nil, err
		}
	}
	if len(mb.OutputDir) != 0 {
		if err = os.MkdirAll(mb.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create output directory: %w", err)
		}
	}
	return
}

func init() {
	rootCmd.AddCommand(BurgersCmd)
	BurgersCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- TimeStep\n\t- FinalTime\n\t- PreRefinementSteps")
	BurgersCmd.Flags().StringP("outputDir", "o", ".", "directory for the snapshots and the error history, empty disables output")
	BurgersCmd.Flags().Bool("profile", false, "write a CPU profile of the run into the output directory")
	BurgersCmd.Flags().String("metricsAddr", "", "serve prometheus metrics on this address during the run, e.g. :9090")
	BurgersCmd.Flags().BoolP("verbose", "v", false, "print the run parameters and one line per time step")
	for _, name := range []string{"inputConditionsFile", "outputDir", "profile", "metricsAddr", "verbose"} {
		if err := viper.BindPFlag(name, BurgersCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func RunBurgers(mb *ModelBurgers, ip *InputParameters.InputParametersBurgers2D) (err error) {
	if mb.Profile {
		dir := mb.OutputDir
		if dir == "" {
			dir = "."
		}
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook).Stop()
	}
	if mb.Verbose {
		ip.Print()
	}
	var c *Burgers2D.Burgers
	if c, err = Burgers2D.NewBurgers(ip, mb.OutputDir, mb.Verbose); err != nil {
		return
	}
	if mb.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: mb.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics endpoint: %v\n", err)
			}
		}()
		defer srv.Close()
	}
	return c.Run()
}
