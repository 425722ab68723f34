package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/voltur/voltexec/core/executor"
	"github.com/voltur/voltexec/core/parser"
)

var (
	runStrict bool
	runFile   string
)

var runCmd = &cobra.Command{
	Use:   "run [--strict] [-f FILE] ['LINE']",
	Short: "Parse and execute a command line, or each line of a file.",
	Long: `Parse and execute a command line, or each line of a file.

The line is a single argument; quote it so operators reach voltexec rather
than the calling shell.`,
	Args: cobra.MaximumNArgs(1),
	Example: `  voltexec run 'make && echo ok || echo failed'
  voltexec run -f setup.vx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var lines []string
		switch {
		case runFile != "" && len(args) > 0:
			return errors.New("give either --file or a command line, not both")
		case runFile != "":
			fd, err := openInput(cmd, runFile)
			if err != nil {
				return err
			}
			defer fd.Close()
			if lines, err = scriptLines(fd); err != nil {
				return err
			}
		case len(args) > 0:
			lines = []string{args[0]}
		default:
			return errors.New("nothing to run")
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stdin := cmd.InOrStdin()
		if runFile == "-" {
			stdin = nil
		}
		ex, err := s.executor(stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		opts := parser.Options{Strict: runStrict || s.cfg.StrictParsing}
		for _, line := range lines {
			tasks, err := opts.Parse(line)
			if err != nil {
				s.printer.Error(cmd.ErrOrStderr(), "%s: %v", line, err)
				exitStatus = executor.StatusMalformed
				return nil
			}
			exitStatus = ex.ExecTasks(cmd.Context(), tasks)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "reject malformed lines instead of recovering")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "run each line of `FILE` (- for stdin)")
}
