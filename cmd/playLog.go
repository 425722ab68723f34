package cmd

import (
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/voltur/voltexec/core/ttylog"
)

var playMaxPause time.Duration

// playLogCmd represents the play command
var playLogCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a recorded console session.",
	Long:  `Plays a session recorded with console --record back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := afero.NewOsFs().Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		if playMaxPause > 0 {
			sink = ttylog.NewRealTimePlayback(playMaxPause, sink)
		}
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

func init() {
	rootCmd.AddCommand(playLogCmd)
	playLogCmd.Flags().DurationVar(&playMaxPause, "max-pause", 2*time.Second, "longest pause between events, 0 prints without pausing")
}
