// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() string {
	return viper.GetString("CONFIG")
}

// CatalogPath returns the path to an optional warehouse catalog snapshot
// JSON file. Only its presence matters: a non-empty catalog enables
// SELECT * expansion against the manifest-declared schemas; its contents
// are not parsed.
func CatalogPath() string {
	return viper.GetString("CATALOG")
}

// Quiet reports whether progress logging should be suppressed, leaving
// only the final report on stdout.
func Quiet() bool {
	return viper.GetBool("QUIET")
}

// PipelineFlags registers the flags shared by every command that runs the
// analysis pipeline (check, cache-stats): the config file, an optional
// catalog snapshot, and a quiet switch for scripted invocations.
func PipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "sqlcontract.toml", "Path to the sqlcontract TOML configuration file")
	cmd.Flags().String("catalog", "", "Path to a warehouse catalog snapshot JSON file; when present and non-empty, SELECT * is expanded against manifest-declared schemas")
	cmd.Flags().Bool("quiet", false, "Suppress progress logging, printing only the final report")

	viper.BindPFlag("CONFIG", cmd.Flags().Lookup("config"))
	viper.BindPFlag("CATALOG", cmd.Flags().Lookup("catalog"))
	viper.BindPFlag("QUIET", cmd.Flags().Lookup("quiet"))
}
