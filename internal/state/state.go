// Package state holds the per-invocation cache of repository facts.
//
// Every fact is computed lazily, at most once, through the accessor that owns it.
// Accessors call the accessors they depend on instead of assuming earlier
// population, so a module that needs only the commit description never pays for a
// tree diff. A fact that legitimately has no value (no working-copy commit, a root
// commit with no parent tree) is cached as absent and reported with ok == false.
// Engine failures are returned and leave the fact pending.
package state

import (
	"context"
	"log/slog"

	"github.com/zhubert/jjline/internal/diffstat"
	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/vcs"
)

type presence uint8

const (
	pending presence = iota
	absent
	present
)

func (p presence) String() string {
	switch p {
	case absent:
		return "absent"
	case present:
		return "present"
	default:
		return "pending"
	}
}

// slot is a memoized fact. It distinguishes "not computed yet" from
// "computed, nothing there".
type slot[T any] struct {
	state presence
	value T
}

// get returns the cached value, computing it on first use. A compute error
// leaves the slot pending so the error is reported again on the next call.
func (s *slot[T]) get(compute func() (T, bool, error)) (T, bool, error) {
	switch s.state {
	case present:
		return s.value, true, nil
	case absent:
		var zero T
		return zero, false, nil
	}
	v, ok, err := compute()
	if err != nil {
		var zero T
		return zero, false, err
	}
	if !ok {
		s.state = absent
		return v, false, nil
	}
	s.state, s.value = present, v
	return v, true, nil
}

// Config selects the engine and workspace a State reads from.
type Config struct {
	Engine vcs.Engine
	Dir    string
	// Snapshot allows the engine to record working-copy changes first.
	Snapshot bool
}

// State is the fact cache for one prompt invocation. It is not safe for
// concurrent use.
type State struct {
	cfg Config
	log *slog.Logger

	workspace  slot[vcs.Workspace]
	repo       slot[vcs.Repo]
	wcID       slot[vcs.CommitID]
	wc         slot[*vcs.Commit]
	parents    slot[[]*vcs.Commit]
	tree       slot[vcs.Tree]
	parentTree slot[vcs.Tree]
	diff       slot[diffstat.Stats]
}

// New creates an empty cache. Nothing is computed until an accessor is called.
func New(cfg Config) *State {
	return &State{
		cfg: cfg,
		log: logger.ComponentLogger("state"),
	}
}

// Workspace opens the workspace containing the configured directory. It is
// absent when no repository of the engine's kind contains the directory.
func (s *State) Workspace(ctx context.Context) (vcs.Workspace, bool, error) {
	return s.workspace.get(func() (vcs.Workspace, bool, error) {
		ws, err := s.cfg.Engine.Open(ctx, s.cfg.Dir, vcs.Options{Snapshot: s.cfg.Snapshot})
		if errors.Is(err, errors.KindNotFound) {
			s.log.Debug("no workspace", "engine", s.cfg.Engine.Name(), "dir", s.cfg.Dir)
			return nil, false, nil
		}
		if err != nil {
			return nil, false, errors.EngineFailed("state.Workspace", err)
		}
		s.log.Debug("workspace loaded", "engine", s.cfg.Engine.Name(), "root", ws.Root())
		return ws, true, nil
	})
}

// Repo returns the repository the workspace is attached to.
func (s *State) Repo(ctx context.Context) (vcs.Repo, bool, error) {
	return s.repo.get(func() (vcs.Repo, bool, error) {
		ws, ok, err := s.Workspace(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		repo, err := ws.Repo(ctx)
		if err != nil {
			return nil, false, errors.EngineFailed("state.Repo", err)
		}
		return repo, true, nil
	})
}

// WorkingCopyCommitID returns the id of the workspace's working-copy commit.
func (s *State) WorkingCopyCommitID(ctx context.Context) (vcs.CommitID, bool, error) {
	return s.wcID.get(func() (vcs.CommitID, bool, error) {
		repo, ok, err := s.Repo(ctx)
		if err != nil || !ok {
			return "", false, err
		}
		ws, _, _ := s.Workspace(ctx)
		id, ok, err := repo.WorkingCopyCommitID(ctx, ws.Name())
		if err != nil {
			return "", false, errors.EngineFailed("state.WorkingCopyCommitID", err)
		}
		return id, ok, nil
	})
}

// WorkingCopyCommit returns the working-copy commit.
func (s *State) WorkingCopyCommit(ctx context.Context) (*vcs.Commit, bool, error) {
	return s.wc.get(func() (*vcs.Commit, bool, error) {
		id, ok, err := s.WorkingCopyCommitID(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		repo, _, _ := s.Repo(ctx)
		c, err := repo.Commit(ctx, id)
		if err != nil {
			return nil, false, errors.EngineFailed("state.WorkingCopyCommit", err)
		}
		return c, true, nil
	})
}

// ParentCommits returns the working-copy commit's parents. It is an empty,
// present list when there is no working-copy commit or the commit is a root.
func (s *State) ParentCommits(ctx context.Context) ([]*vcs.Commit, error) {
	parents, _, err := s.parents.get(func() ([]*vcs.Commit, bool, error) {
		c, ok, err := s.WorkingCopyCommit(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return []*vcs.Commit{}, true, nil
		}
		repo, _, _ := s.Repo(ctx)
		parents := make([]*vcs.Commit, 0, len(c.Parents))
		for _, id := range c.Parents {
			p, err := repo.Commit(ctx, id)
			if err != nil {
				return nil, false, errors.EngineFailed("state.ParentCommits", err)
			}
			parents = append(parents, p)
		}
		return parents, true, nil
	})
	return parents, err
}

// Tree returns the working-copy commit's tree.
func (s *State) Tree(ctx context.Context) (vcs.Tree, bool, error) {
	return s.tree.get(func() (vcs.Tree, bool, error) {
		c, ok, err := s.WorkingCopyCommit(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		repo, _, _ := s.Repo(ctx)
		t, err := repo.Tree(ctx, c)
		if err != nil {
			return nil, false, errors.EngineFailed("state.Tree", err)
		}
		return t, t != nil, nil
	})
}

// ParentTree returns the tree the working-copy commit's changes are relative to.
func (s *State) ParentTree(ctx context.Context) (vcs.Tree, bool, error) {
	return s.parentTree.get(func() (vcs.Tree, bool, error) {
		c, ok, err := s.WorkingCopyCommit(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		repo, _, _ := s.Repo(ctx)
		t, err := repo.ParentTree(ctx, c)
		if err != nil {
			return nil, false, errors.EngineFailed("state.ParentTree", err)
		}
		return t, t != nil, nil
	})
}

// trees returns both trees, with ok == false if either is absent.
func (s *State) trees(ctx context.Context) (tree, parent vcs.Tree, ok bool, err error) {
	parent, ok, err = s.ParentTree(ctx)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	tree, ok, err = s.Tree(ctx)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	return tree, parent, true, nil
}

// DiffStats summarizes the working-copy commit's changes against its parent
// tree. ok is false when no diff is available.
func (s *State) DiffStats(ctx context.Context) (diffstat.Stats, bool, error) {
	return s.diff.get(func() (diffstat.Stats, bool, error) {
		tree, parent, ok, err := s.trees(ctx)
		if err != nil || !ok {
			return diffstat.Stats{}, false, err
		}
		repo, _, _ := s.Repo(ctx)
		changes, err := repo.Diff(ctx, parent, tree)
		if err != nil {
			return diffstat.Stats{}, false, errors.EngineFailed("state.DiffStats", err)
		}
		stats := diffstat.Summarize(changes)
		s.log.Debug("diff summarized",
			"files", stats.FilesChanged, "added", stats.LinesAdded, "removed", stats.LinesRemoved)
		return stats, true, nil
	})
}

// CommitIsEmpty reports whether the working-copy commit's tree equals its
// parent tree. ok is false when either tree is absent.
func (s *State) CommitIsEmpty(ctx context.Context) (empty, ok bool, err error) {
	tree, parent, ok, err := s.trees(ctx)
	if err != nil || !ok {
		return false, false, err
	}
	return tree.ID() == parent.ID(), true, nil
}
