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

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vcflow",
	Short: "Variable coefficient transport on block structured adaptive grids",
	Long: `vcflow advances a density field with a conservative staggered grid
convective operator on a nested Cartesian hierarchy, with the patches of each
level spread across a group of ranks.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		var lvl logrus.Level
		if lvl, err = logrus.ParseLevel(viper.GetString("loglevel")); err != nil {
			return
		}
		if viper.GetBool("verbose") {
			lvl = logrus.DebugLevel
		}
		logrus.SetLevel(lvl)
		return
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vcflow.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log plan construction and per step details")
	rootCmd.PersistentFlags().String("loglevel", "info", "logging level: debug, info, warn or error")
	for _, name := range []string{"verbose", "loglevel"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".vcflow" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".vcflow")
	}

	viper.SetEnvPrefix("VCFLOW")
	viper.AutomaticEnv() // read in environment variables that match
	for _, key := range operatorKeys {
		// Unmarshal only sees environment variables that are bound
		if err := viper.BindEnv(key); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}
