package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voltur/voltexec/core/config"
	"github.com/voltur/voltexec/core/console"
	"github.com/voltur/voltexec/core/executor"
	"github.com/voltur/voltexec/core/logger"
)

var (
	cfgPath string
	noColor bool

	// exitStatus is the process exit status, set by commands that run tasks.
	exitStatus int

	osExit = os.Exit
)

// loadConfig loads the configuration directory, falling back to the built-in
// defaults when none exists and --config was not given.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		if !cmd.Flags().Changed("config") {
			return config.Default(), nil
		}
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// session holds what every task-running command needs.
type session struct {
	cfg     *config.Configuration
	printer console.Printer
	logger  *zap.Logger
	logFd   afero.File
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		printer: console.Printer{Mode: cfg.Color},
		logger:  zap.NewNop(),
	}
	if noColor {
		s.printer = console.Plain
	}

	if cfg.Dir() == "" || string(cfg.LogLevel) == logger.LevelOff {
		return s, nil
	}

	logFd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, err
	}
	zl, err := logger.New(string(cfg.LogLevel), logFd)
	if err != nil {
		logFd.Close()
		return nil, err
	}
	s.logger = zl
	s.logFd = logFd
	return s, nil
}

// executor creates an executor in the process working directory.
func (s *session) executor(stdin io.Reader, stdout, stderr io.Writer) (*executor.Executor, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	ex := executor.New(dir, stdin, stdout, stderr)
	ex.Printer = s.printer
	ex.Logger = s.logger
	ex.Exit = s.exit
	return ex, nil
}

// exit flushes the session before the exit builtin ends the process.
func (s *session) exit(code int) {
	s.Close()
	osExit(code)
}

func (s *session) Close() {
	_ = s.logger.Sync()
	if s.logFd != nil {
		s.logFd.Close()
		s.logFd = nil
	}
}

// openInput opens a named file, or stdin for "-".
func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return afero.NewOsFs().Open(name)
}

// scriptLines returns the non-empty lines of r that are not # comments.
func scriptLines(r io.Reader) ([]string, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voltexec",
	Short: "Shell-style command execution",
	Long: `Parses shell-style command lines into task lists and executes them:
sequencing with ; && ||, pipelines, output redirection, subshells and
background jobs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
	osExit(exitStatus)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
