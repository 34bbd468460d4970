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
	"fmt"
	"io"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "burgers2d",
	Short: "Adaptive finite element solver for the vector Burgers' equation in two dimensions",
	Long: `
Solves the viscous vector Burgers' equation on the square [-1,1]x[-1,1] with bilinear
finite elements on an adaptively refined quadrilateral mesh,

burgers2d burgers -I input.yaml -o results

Without a subcommand the default run of the burgers command is executed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return BurgersCmd.RunE(cmd, args)
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

// execute runs the command line and converts failures into the abort banner and a non-zero exit code
func execute(args []string, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case error:
				printAbort(stderr, "Exception on processing: "+e.Error())
			case string:
				printAbort(stderr, "Exception on processing: "+e)
			default:
				printAbort(stderr, "Unknown exception!")
			}
			code = 1
		}
	}()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		printAbort(stderr, "Exception on processing: "+err.Error())
		return 1
	}
	return 0
}

func printAbort(w io.Writer, msg string) {
	dashes := strings.Repeat("-", 52)
	fmt.Fprintf(w, "\n\n%s\n%s\n%s\nAborting!\n%s\n", dashes, msg, dashes, dashes)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.burgers2d.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			panic(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".burgers2d")
	}
	viper.SetEnvPrefix("burgers2d")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		panic(fmt.Errorf("unable to read config file %s: %w", cfgFile, err))
	}
}
