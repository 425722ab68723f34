package cmd

import (
	"context"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/voltur/voltexec/core/parser"
	"github.com/voltur/voltexec/core/router"
	"github.com/voltur/voltexec/core/ttylog"
)

var consoleRecord string

// consoleCmd runs an interactive prompt over the local OS.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run an interactive console for slash commands and command lines.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stdin, out, errOut := cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()
		if consoleRecord != "" {
			fd, err := afero.NewOsFs().Create(consoleRecord)
			if err != nil {
				return err
			}
			defer fd.Close()

			rec := ttylog.NewRecorder(ttylog.NewAsciicastLogSink(fd, "voltexec console"))
			stdin, out, errOut = rec.Reader(stdin), rec.Writer(out), rec.Writer(errOut)
		}

		// Readline owns the terminal, so spawned commands read from the null
		// device.
		ex, err := s.executor(nil, out, errOut)
		if err != nil {
			return err
		}

		r := &router.Router{
			Executor:    ex,
			Parser:      parser.Options{Strict: s.cfg.StrictParsing},
			ExecEnabled: s.cfg.ExecEnabled,
			Printer:     s.printer,
			Out:         ex.Stdout,
		}
		r.Fallback = func(ctx context.Context, line string) int {
			if !s.cfg.ExecEnabled {
				s.printer.Notice(r.Out, "Command execution is disabled. Type /help for commands.")
				return r.Status()
			}
			return r.ExecLine(ctx, line)
		}

		rl, err := readline.NewEx(&readline.Config{
			Stdin:       readline.NewCancelableStdin(stdin),
			Stdout:      out,
			Stderr:      errOut,
			HistoryFile: s.cfg.HistoryPath(),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		host, _ := os.Hostname()
		home, _ := os.UserHomeDir()

		s.printer.Notice(r.Out, "voltexec console. Type /help for commands.")
		for {
			rl.SetPrompt(r.Prompt(s.cfg.Handle, host, home))
			line, err := rl.Readline()

			switch {
			case err == io.EOF:
				return nil // Input closed, quit.

			case err == readline.ErrInterrupt:
				continue

			case err != nil:
				return err
			}

			if !r.Handle(cmd.Context(), line) {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleRecord, "record", "", "record the session as asciicast v2 to `FILE`")
}
