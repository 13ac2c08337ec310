package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/aptrun/internal/version"
)

// NewRootCmd builds the aptrun command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aptrun",
		Short: "Java annotation processing runner",
		Long: `Run javac annotation processors (-proc:only) over a project's sources
and register the generated sources directory for later compilation.`,
		SilenceUsage: true,
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newProcessCmd(processMain))
	rootCmd.AddCommand(newProcessCmd(processTest))
	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loggerFor builds the logger for a command run from its --verbose and
// --log-level flags
func loggerFor(cmd *cobra.Command) *logrus.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}

	return setupLogger(level, cmd.ErrOrStderr())
}

func setupLogger(logLevel string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
