package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhubert/jjline/internal/config"
	"github.com/zhubert/jjline/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the configuration file is read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		src := config.DefaultTOML
		if isTerminal(out) {
			src = ui.HighlightTOML(src)
		}
		_, err := io.WriteString(out, src)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration unless one exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := promptConfig
		if path == "" {
			p, err := config.Path()
			if err != nil {
				return err
			}
			path = p
		}
		wrote, err := config.WriteDefault(path)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, leaving it alone\n", path)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&promptConfig, "config", "", "Where to write the file")
	configCmd.AddCommand(configPathCmd, configDefaultCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
