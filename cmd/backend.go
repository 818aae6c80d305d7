package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/git"
	"github.com/zhubert/jjline/internal/jj"
	"github.com/zhubert/jjline/internal/vcs"
)

// Backend names accepted by --backend.
const (
	BackendAuto = "auto"
	BackendJJ   = "jj"
	BackendGit  = "git"
)

// detectBackend walks up from dir and reports which kind of repository
// contains it. A .jj directory wins over a .git one at the same level, since
// colocated jj repositories carry both. It returns "" outside any repository.
func detectBackend(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if isDir(filepath.Join(dir, ".jj")) {
			return BackendJJ
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return BackendGit
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// newEngine returns the engine for backend. Auto detection falls back to jj
// outside any repository, which then reports no workspace.
func newEngine(backend, dir string) (vcs.Engine, error) {
	if backend == BackendAuto || backend == "" {
		backend = detectBackend(dir)
	}
	switch backend {
	case BackendJJ, "":
		return jj.NewEngine(), nil
	case BackendGit:
		return git.NewEngine(), nil
	default:
		return nil, errors.E(errors.Op("cmd.newEngine"), errors.KindInvalid,
			fmt.Sprintf("unknown backend %q (want auto, jj or git)", backend))
	}
}
