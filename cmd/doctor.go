package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/zhubert/jjline/internal/config"
	"github.com/zhubert/jjline/internal/errors"
	pexec "github.com/zhubert/jjline/internal/exec"
	"github.com/zhubert/jjline/internal/git"
	"github.com/zhubert/jjline/internal/jj"
	"github.com/zhubert/jjline/internal/ui"
	"github.com/zhubert/jjline/internal/vcs"
)

// doctorExecutor runs the external commands doctor inspects.
var doctorExecutor pexec.CommandExecutor = pexec.NewRealExecutor()

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that jjline can find jj, its config and a repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := promptRepository
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}
		report := runDoctor(cmd.Context(), dir)
		if _, err := lipgloss.Fprint(cmd.OutOrStdout(), report.Render()); err != nil {
			return err
		}
		if report.Worst() == ui.StatusFail {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().StringVar(&promptConfig, "config", "", "Config file to check")
	doctorCmd.Flags().StringVarP(&promptRepository, "repository", "R", "", "Directory to check (default current directory)")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(ctx context.Context, dir string) *ui.Report {
	report := &ui.Report{Title: "jjline doctor"}
	checkBinary(ctx, report)
	checkConfig(report)
	checkRepository(ctx, report, dir)
	return report
}

func checkBinary(ctx context.Context, report *ui.Report) {
	path, err := doctorExecutor.LookPath(jj.Binary)
	if err != nil {
		report.Add("jj", ui.StatusWarn, "not on PATH; only Git repositories will work")
		return
	}
	out, err := doctorExecutor.Output(ctx, "", jj.Binary, "--version")
	if err != nil {
		report.Add("jj", ui.StatusFail, fmt.Sprintf("%s --version failed: %v", path, err))
		return
	}
	report.Add("jj", ui.StatusOK, strings.TrimSpace(string(out)))
}

func checkConfig(report *ui.Report) {
	path := promptConfig
	if path == "" {
		p, err := config.Path()
		if err != nil {
			report.Add("config", ui.StatusFail, err.Error())
			return
		}
		path = p
	}
	if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
		report.Add("config", ui.StatusOK, fmt.Sprintf("%s not found, using defaults", path))
		return
	}
	cfg, err := config.Load(config.Options{Path: path})
	if err != nil {
		report.Add("config", ui.StatusFail, err.Error())
		return
	}
	report.Add("config", ui.StatusOK, fmt.Sprintf("%s (%d modules)", path, len(cfg.Modules)))
}

func checkRepository(ctx context.Context, report *ui.Report, dir string) {
	var engine vcs.Engine
	switch detectBackend(dir) {
	case BackendJJ:
		engine = jj.NewEngineWithExecutor(doctorExecutor)
	case BackendGit:
		engine = git.NewEngine()
	default:
		report.Add("repository", ui.StatusWarn, fmt.Sprintf("%s is not inside a repository", dir))
		return
	}
	ws, err := engine.Open(ctx, dir, vcs.Options{})
	if err != nil {
		status := ui.StatusFail
		if errors.Is(err, errors.KindNotFound) {
			status = ui.StatusWarn
		}
		report.Add("repository", status, err.Error())
		return
	}
	report.Add("repository", ui.StatusOK, fmt.Sprintf("%s workspace at %s", engine.Name(), ws.Root()))
}
