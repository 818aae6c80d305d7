package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhubert/jjline/internal/config"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/prompt"
	"github.com/zhubert/jjline/internal/state"
)

// EnvTiming names the environment variable that makes the prompt report how
// long it took on stderr.
const EnvTiming = "JJLINE_TIMING"

var (
	promptConfig            string
	promptBackend           string
	promptIgnoreWorkingCopy bool
	promptRepository        string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the status segment for the current directory",
	Long: `Prints the configured modules for the repository containing the current
directory (or --repository). Outside a repository nothing is printed.

The output has no trailing newline and is meant for command substitution
inside a shell prompt.`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/jjline/jjline.toml)")
	promptCmd.Flags().StringVar(&promptBackend, "backend", BackendAuto, "Repository engine: auto, jj or git")
	promptCmd.Flags().BoolVar(&promptIgnoreWorkingCopy, "ignore-working-copy", false, "Do not snapshot the working copy first")
	promptCmd.Flags().StringVarP(&promptRepository, "repository", "R", "", "Directory to report on (default current directory)")
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	dir := promptRepository
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}
	return renderPrompt(cmd, dir, cmd.OutOrStdout())
}

func renderPrompt(cmd *cobra.Command, dir string, w io.Writer) error {
	start := time.Now()
	log := logger.ComponentLogger("cmd")

	cfg, err := config.Load(config.Options{
		Path:   promptConfig,
		DotEnv: filepath.Join(dir, ".env"),
	})
	if err != nil {
		return err
	}
	engine, err := newEngine(promptBackend, dir)
	if err != nil {
		return err
	}
	log.Debug("rendering prompt", "dir", dir, "engine", engine.Name(), "config", cfg.Path)

	st := state.New(state.Config{
		Engine:   engine,
		Dir:      dir,
		Snapshot: !promptIgnoreWorkingCopy,
	})
	pipeline := prompt.New(prompt.Options{
		Modules:    cfg.Modules,
		Separator:  cfg.ModuleSeparator,
		ResetColor: cfg.ResetColor,
		Timeout:    cfg.Timeout,
		Bookmarks:  cfg.Bookmarks,
	})
	err = pipeline.Run(cmd.Context(), st, w)

	elapsed := time.Since(start)
	log.Debug("prompt finished", "elapsed", elapsed, "error", err)
	if os.Getenv(EnvTiming) != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "\njjline: %s\n", elapsed)
	}
	return err
}
