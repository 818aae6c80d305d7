package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhubert/jjline/internal/logger"
)

var (
	debugMode             bool
	logFile               string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "jjline",
	Short: "Jujutsu status segment for shell prompts",
	Long: `jjline prints a compact, colored summary of the current jj (or Git)
working copy for embedding in a shell prompt: the nearest bookmarks, the
commit description, warnings such as conflicts, and diff metrics.

Add "$(jjline prompt)" to your prompt to use it.`,
	PersistentPreRunE: initLogging,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (also $"+logger.EnvLogFile+")")
}

// initLogging turns logging on when asked for. Without --debug, --log-file or
// JJLINE_LOG nothing is written anywhere.
func initLogging(cmd *cobra.Command, args []string) error {
	path := logFile
	if path == "" {
		path = os.Getenv(logger.EnvLogFile)
	}
	if path == "" && debugMode {
		path = logger.DefaultLogPath()
	}
	logger.SetDebug(debugMode)
	if path == "" {
		return nil
	}
	if err := logger.Init(path); err != nil {
		return err
	}
	logger.SetRun(uuid.NewString())
	logger.Logger().Debug("command started", "command", cmd.CommandPath(), "version", version)
	return nil
}

// Execute runs the root command
func Execute() error {
	defer logger.Close()
	// Set version dynamically
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("jjline %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("jjline %s\n", version)
}
