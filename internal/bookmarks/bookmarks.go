// Package bookmarks finds the bookmarks nearest to the working-copy commit.
package bookmarks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/state"
	"github.com/zhubert/jjline/internal/vcs"
)

// gitRemote is the pseudo-remote jj uses to track the backing Git repository's refs.
const gitRemote = "git"

// Bookmark is a bookmark name and how many commits the working copy is ahead of it.
type Bookmark struct {
	// Name is bare for local bookmarks and name@remote for remote ones.
	Name     string
	Distance int
}

// IgnoreEmpty selects which commits without a description are left out of the
// distance count.
type IgnoreEmpty string

const (
	IgnoreNone    IgnoreEmpty = "none"
	IgnoreCurrent IgnoreEmpty = "current"
	IgnoreAll     IgnoreEmpty = "all"
)

// UnmarshalText accepts the policy names case-insensitively.
func (m *IgnoreEmpty) UnmarshalText(text []byte) error {
	switch v := IgnoreEmpty(strings.ToLower(string(text))); v {
	case IgnoreNone, IgnoreCurrent, IgnoreAll:
		*m = v
		return nil
	case "":
		*m = IgnoreNone
		return nil
	default:
		return fmt.Errorf("invalid ignore_empty_commits %q (want none, current or all)", text)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m IgnoreEmpty) MarshalText() ([]byte, error) {
	if m == "" {
		return []byte(IgnoreNone), nil
	}
	return []byte(m), nil
}

// Options tunes resolution.
type Options struct {
	// SearchDepth bounds how many generations back the search goes.
	SearchDepth int
	// Exclude drops bookmarks whose bare local name or name@remote matches.
	Exclude     []glob.Glob
	IgnoreEmpty IgnoreEmpty
}

// Resolver looks up bookmarks through a state cache.
type Resolver struct {
	state *state.State
	opts  Options
	log   *slog.Logger
}

// NewResolver creates a resolver reading from st.
func NewResolver(st *state.State, opts Options) *Resolver {
	return &Resolver{
		state: st,
		opts:  opts,
		log:   logger.ComponentLogger("bookmarks"),
	}
}

// Resolve returns the bookmarks on the working-copy commit at distance 0 or,
// when it carries none, those on the most recent bookmarked ancestor. The result
// is ordered by distance then name. No repository, no working copy or no
// bookmark within the search depth all yield an empty result.
func (r *Resolver) Resolve(ctx context.Context) ([]Bookmark, error) {
	const op = errors.Op("bookmarks.Resolve")

	repo, ok, err := r.state.Repo(ctx)
	if err != nil || !ok {
		return nil, err
	}

	wc, ok, err := r.state.WorkingCopyCommitID(ctx)
	if err != nil || !ok {
		return nil, err
	}

	remotes, err := repo.RemoteBookmarks(ctx)
	if err != nil {
		return nil, errors.EngineFailed(op, err)
	}

	found, err := r.collect(ctx, repo, remotes, wc, 0)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		r.log.Debug("bookmarks on working copy", "count", len(found))
		return Ordered(found), nil
	}

	targets, err := repo.Resolve(ctx, vcs.NearestBookmarked{Depth: r.opts.SearchDepth})
	if err != nil {
		return nil, errors.EngineFailed(op, err)
	}
	if len(targets) == 0 {
		r.log.Debug("no bookmarked ancestor", "depth", r.opts.SearchDepth)
		return nil, nil
	}
	target := targets[0]

	distance, err := r.distance(ctx, repo, target, wc)
	if err != nil {
		return nil, err
	}
	found, err = r.collect(ctx, repo, remotes, target, distance)
	if err != nil {
		return nil, err
	}
	r.log.Debug("bookmarks on ancestor", "target", target.Short(12), "distance", distance, "count", len(found))
	return Ordered(found), nil
}

// distance counts the commits in target::@ other than target itself, leaving
// out commits without a description as configured.
func (r *Resolver) distance(ctx context.Context, repo vcs.Repo, target, wc vcs.CommitID) (int, error) {
	const op = errors.Op("bookmarks.distance")

	ids, err := repo.Resolve(ctx, vcs.Range{From: target, Depth: r.opts.SearchDepth})
	if err != nil {
		return 0, errors.EngineFailed(op, err)
	}
	n := max(len(ids)-1, 0)

	switch r.opts.IgnoreEmpty {
	case IgnoreCurrent:
		c, ok, err := r.state.WorkingCopyCommit(ctx)
		if err != nil {
			return 0, err
		}
		if ok && c.ID == wc && c.Description == "" {
			n = max(n-1, 0)
		}
	case IgnoreAll:
		n = 0
		for _, id := range ids {
			if id == target {
				continue
			}
			c, err := repo.Commit(ctx, id)
			if err != nil {
				return 0, errors.EngineFailed(op, err)
			}
			if c.Description != "" {
				n++
			}
		}
	}
	return n, nil
}

// collect gathers the bookmarks on id. A remote bookmark is skipped when a
// local bookmark of the same bare name was already taken.
func (r *Resolver) collect(ctx context.Context, repo vcs.Repo, remotes []vcs.RemoteBookmark, id vcs.CommitID, distance int) ([]Bookmark, error) {
	locals, err := repo.LocalBookmarks(ctx, id)
	if err != nil {
		return nil, errors.EngineFailed("bookmarks.collect", err)
	}

	var out []Bookmark
	claimed := make(map[string]bool, len(locals))
	for _, name := range locals {
		if r.excluded(name) {
			continue
		}
		claimed[name] = true
		out = append(out, Bookmark{Name: name, Distance: distance})
	}
	for _, rb := range remotes {
		if rb.Remote == gitRemote || claimed[rb.Name] || !rb.PointsAt(id) {
			continue
		}
		name := rb.Qualified()
		if r.excluded(name) {
			continue
		}
		out = append(out, Bookmark{Name: name, Distance: distance})
	}
	return out, nil
}

func (r *Resolver) excluded(name string) bool {
	for _, g := range r.opts.Exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Ordered sorts bookmarks by distance then name and drops duplicates.
func Ordered(bms []Bookmark) []Bookmark {
	out := slices.Clone(bms)
	slices.SortFunc(out, func(a, b Bookmark) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return slices.Compact(out)
}

// Limit keeps at most n bookmarks; more reports whether any were dropped.
// n < 0 means no limit.
func Limit(bms []Bookmark, n int) (kept []Bookmark, more bool) {
	if n < 0 || len(bms) <= n {
		return bms, false
	}
	return bms[:n], true
}

// CompileExclude compiles exclusion patterns. A malformed pattern is a
// configuration error.
func CompileExclude(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.E(errors.Op("bookmarks.CompileExclude"), errors.KindConfig,
				fmt.Sprintf("invalid exclude pattern %q", p), err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
