// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the sqlcontract version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("SQLCONTRACT")
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:          "sqlcontract",
	Short:        "Check SQL-templated data models against declared contracts and live warehouse schemas",
	SilenceUsage: true,
	Version:      Version,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(cacheStatsCmd())
	rootCmd.AddCommand(validateCmd)

	return rootCmd.Execute()
}
