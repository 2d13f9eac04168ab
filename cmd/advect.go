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
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/vcflow/InputParameters"
	"github.com/notargets/vcflow/model_problems/StepAdvection"
	"github.com/notargets/vcflow/navier_stokes"
)

type ModelAdvect struct {
	ICFile  string
	Graph   bool
	Delay   time.Duration
	Profile string
	Steps   int
	Ranks   int
	Levels  int
}

// Option keys that the config file or VCFLOW_* environment variables can set
// over the input file.
var operatorKeys = []string{
	"bdry_extrap_type",
	"convective_limiter",
	"velocity_convective_limiter",
	"density_convective_limiter",
	"density_time_stepping_type",
}

const exampleFile = `
########################################
Title: "Step Advection"
CFL: 0.5
FinalTime: 0.5
Cells: [64, 16]
Patches: [2, 1]
Levels: 1
Ranks: 2
InitType: step # Can be "sine"
Velocity: [1.0, 0.0]
ConvectiveLimiter: UPWIND # CUI, FBICS or MGAMMA
DensityTimeSteppingType: FORWARD_EULER # or SSPRK2
BdryExtrapType: CONSTANT # LINEAR or QUADRATIC
BCs:
  y: Wall # Axes not listed are periodic
########################################
`

// AdvectCmd represents the advect command
var AdvectCmd = &cobra.Command{
	Use:   "advect",
	Short: "Advect a density field with the conservative convective operator",
	Long: `Advect a density field through a fixed velocity field on a one or two
level hierarchy, reporting the mass drift and density extrema each step`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		ma := &ModelAdvect{}
		if ma.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ma.Graph, _ = cmd.Flags().GetBool("graph")
		dr, _ := cmd.Flags().GetInt("delay")
		ma.Delay = time.Duration(dr) * time.Millisecond
		ma.Profile, _ = cmd.Flags().GetString("profile")
		ma.Steps, _ = cmd.Flags().GetInt("steps")
		ma.Ranks, _ = cmd.Flags().GetInt("ranks")
		ma.Levels, _ = cmd.Flags().GetInt("levels")
		ip := processInput(ma)
		if err = applyOverrides(ip, ma, viper.GetViper()); err != nil {
			panic(err)
		}
		if err = RunAdvect(ma, ip); err != nil {
			panic(err)
		}
	},
}

func processInput(ma *ModelAdvect) (ip *InputParameters.InputParametersVC) {
	var (
		err error
	)
	if len(ma.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = os.ReadFile(ma.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParametersVC{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

// applyOverrides replaces input file values with non zero command line
// values and with operator options found by viper.
func applyOverrides(ip *InputParameters.InputParametersVC, ma *ModelAdvect, v *viper.Viper) (err error) {
	if ma.Steps > 0 {
		ip.MaxIterations = ma.Steps
	}
	if ma.Ranks > 0 {
		ip.Ranks = ma.Ranks
	}
	if ma.Levels > 0 {
		ip.Levels = ma.Levels
	}
	var cfg navier_stokes.Config
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	for _, o := range []struct {
		dst *string
		src string
	}{
		{&ip.BdryExtrapType, cfg.BdryExtrapType},
		{&ip.ConvectiveLimiter, cfg.ConvectiveLimiter},
		{&ip.VelocityConvectiveLimiter, cfg.VelocityConvectiveLimiter},
		{&ip.DensityConvectiveLimiter, cfg.DensityConvectiveLimiter},
		{&ip.DensityTimeSteppingType, cfg.DensityTimeSteppingType},
	} {
		if o.src != "" {
			*o.dst = o.src
		}
	}
	return ip.Validate()
}

func RunAdvect(ma *ModelAdvect, ip *InputParameters.InputParametersVC) (err error) {
	switch ma.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unable to use profile mode %s, valid choices are cpu and mem", ma.Profile)
	}
	ip.Print()
	var c *StepAdvection.StepAdvection
	if c, err = StepAdvection.NewStepAdvection(ip, logrus.StandardLogger()); err != nil {
		return
	}
	if err = c.Run(ma.Graph, ma.Delay); err != nil {
		return
	}
	if len(c.Reports) != 0 {
		last := c.Reports[len(c.Reports)-1]
		fmt.Printf("Time = %8.4f, mass drift = %10.3e, rho min,max = %8.5f,%8.5f\n",
			last.Time, c.MassDrift(), last.DensityMin, last.DensityMax)
	}
	return
}

func init() {
	rootCmd.AddCommand(AdvectCmd)
	AdvectCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- CFL\n\t- Cells\n\t- ConvectiveLimiter")
	AdvectCmd.Flags().BoolP("graph", "g", false, "display the final density field")
	AdvectCmd.Flags().IntP("delay", "d", 0, "milliseconds to keep the graph displayed")
	AdvectCmd.Flags().String("profile", "", "write a cpu or mem profile of the run")
	AdvectCmd.Flags().IntP("steps", "s", 0, "number of steps, overrides MaxIterations")
	AdvectCmd.Flags().IntP("ranks", "r", 0, "number of ranks, overrides Ranks")
	AdvectCmd.Flags().IntP("levels", "l", 0, "number of levels, overrides Levels")
}
