// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqlcontract/sqlcontract/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:       "validate <config-file>",
	Short:     "Validate a sqlcontract configuration file",
	Example:   "validate sqlcontract.toml",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"file"},
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := config.Load(args[0])
		if err != nil {
			return err
		}

		for _, w := range res.Warnings {
			pterm.Warning.Println(w)
		}

		if len(res.Config.Allowlist.SkipModels) > 0 {
			pterm.Info.Printfln("skipping %d model pattern(s) via allowlist", len(res.Config.Allowlist.SkipModels))
		}

		pterm.Success.Printfln("%s is valid (dialect: %s)", args[0], res.Config.Dialect)
		fmt.Println()
		return nil
	},
}
