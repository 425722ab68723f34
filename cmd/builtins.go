package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltur/voltexec/core/executor"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands run in-process rather than spawned.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range executor.BuiltinNames() {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
