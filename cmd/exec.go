package cmd

import (
	"github.com/spf13/cobra"

	"github.com/voltur/voltexec/core/task"
)

var execCmd = &cobra.Command{
	Use:   "exec FILE|-",
	Short: "Execute a JSON or YAML task list without parsing a command line.",
	Example: `  voltexec parse --json 'ls | wc -l > count.txt' > tasks.json
  voltexec exec tasks.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fd, err := openInput(cmd, args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		tasks, err := task.Load(fd)
		if err != nil {
			return err
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stdin := cmd.InOrStdin()
		if args[0] == "-" {
			stdin = nil
		}
		ex, err := s.executor(stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		exitStatus = ex.ExecTasks(cmd.Context(), tasks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
