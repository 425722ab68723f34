package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/voltur/voltexec/core/parser"
	"github.com/voltur/voltexec/core/task"
)

var (
	parseJSON   bool
	parseStrict bool
)

var parseCmd = &cobra.Command{
	Use:     "parse [--json] [--strict] 'LINE'",
	Short:   "Show the task list a command line parses into.",
	Example: `  voltexec parse 'cd build && make > log.txt &'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := parser.Options{Strict: parseStrict || cfg.StrictParsing}
		tasks, err := opts.Parse(args[0])
		if err != nil {
			return err
		}

		out, err := renderTasks(tasks, parseJSON)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func renderTasks(tasks []task.Task, asJSON bool) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	if !asJSON {
		return yaml.Marshal(tasks)
	}

	out, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print JSON instead of YAML")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "reject malformed lines instead of recovering")
}
