// Package vcstest provides an in-memory vcs.Engine for tests.
//
// A Repo is a small commit graph built with Add. Commits added later are more
// recent. Every Repo method counts its calls and can be made to fail through
// Fail, so tests can assert both memoization and error propagation.
package vcstest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/vcs"
)

// Tree is a tree handle identified by a string.
type Tree string

// ID implements vcs.Tree.
func (t Tree) ID() string { return string(t) }

// Repo is a fake repository.
type Repo struct {
	mu sync.Mutex

	// WorkingCopy is the working-copy commit. Empty means none.
	WorkingCopy vcs.CommitID

	commits map[vcs.CommitID]*vcs.Commit
	seq     map[vcs.CommitID]int
	trees   map[vcs.CommitID]string
	local   map[vcs.CommitID][]string
	remote  []vcs.RemoteBookmark
	diffs   map[vcs.CommitID][]vcs.FileChange
	errs    map[string]error
	calls   map[string]int
}

// NewRepo returns an empty fake repository.
func NewRepo() *Repo {
	return &Repo{
		commits: make(map[vcs.CommitID]*vcs.Commit),
		seq:     make(map[vcs.CommitID]int),
		trees:   make(map[vcs.CommitID]string),
		local:   make(map[vcs.CommitID][]string),
		diffs:   make(map[vcs.CommitID][]vcs.FileChange),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Add records a commit with the given description and parents and returns it
// for further tweaking. Its tree defaults to a tree unique to the commit.
func (r *Repo) Add(id vcs.CommitID, description string, parents ...vcs.CommitID) *vcs.Commit {
	c := &vcs.Commit{
		ID:          id,
		ChangeID:    vcs.ChangeID("chg" + string(id)),
		Description: description,
		Parents:     parents,
	}
	r.commits[id] = c
	r.seq[id] = len(r.seq)
	r.trees[id] = "tree-" + string(id)
	return c
}

// SetTree overrides the tree id of commit id.
func (r *Repo) SetTree(id vcs.CommitID, tree string) { r.trees[id] = tree }

// Bookmark places local bookmarks on id.
func (r *Repo) Bookmark(id vcs.CommitID, names ...string) {
	r.local[id] = append(r.local[id], names...)
}

// RemoteBookmark places name@remote on id.
func (r *Repo) RemoteBookmark(id vcs.CommitID, name, remote string) {
	r.remote = append(r.remote, vcs.RemoteBookmark{Name: name, Remote: remote, Targets: []vcs.CommitID{id}})
}

// SetDiff sets the changes reported for the diff whose new side is id's tree.
func (r *Repo) SetDiff(id vcs.CommitID, changes ...vcs.FileChange) { r.diffs[id] = changes }

// Fail makes the named method ("Commit", "Resolve", ...) return err.
func (r *Repo) Fail(method string, err error) { r.errs[method] = err }

// Calls returns how many times the named method was called.
func (r *Repo) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *Repo) enter(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	return r.errs[method]
}

// WorkingCopyCommitID implements vcs.Repo.
func (r *Repo) WorkingCopyCommitID(ctx context.Context, workspace string) (vcs.CommitID, bool, error) {
	if err := r.enter("WorkingCopyCommitID"); err != nil {
		return "", false, err
	}
	return r.WorkingCopy, r.WorkingCopy != "", nil
}

// Commit implements vcs.Repo.
func (r *Repo) Commit(ctx context.Context, id vcs.CommitID) (*vcs.Commit, error) {
	if err := r.enter("Commit"); err != nil {
		return nil, err
	}
	c, ok := r.commits[id]
	if !ok {
		return nil, fmt.Errorf("commit %s not found", id)
	}
	cp := *c
	return &cp, nil
}

// Resolve implements vcs.Repo.
func (r *Repo) Resolve(ctx context.Context, q vcs.Query) ([]vcs.CommitID, error) {
	if err := r.enter("Resolve"); err != nil {
		return nil, err
	}
	if r.WorkingCopy == "" {
		return nil, nil
	}
	switch q := q.(type) {
	case vcs.WorkingCopy:
		return []vcs.CommitID{r.WorkingCopy}, nil
	case vcs.NearestBookmarked:
		return r.nearest(q.Depth), nil
	case vcs.Range:
		return r.rangeTo(q.From), nil
	default:
		return nil, fmt.Errorf("unsupported query %s", q)
	}
}

func (r *Repo) hasBookmark(id vcs.CommitID) bool {
	if len(r.local[id]) > 0 {
		return true
	}
	for _, b := range r.remote {
		if b.PointsAt(id) {
			return true
		}
	}
	return false
}

// ancestors returns every commit reachable from roots, roots included, within
// depth generations (depth < 0 means unbounded).
func (r *Repo) ancestors(roots []vcs.CommitID, depth int) map[vcs.CommitID]bool {
	seen := make(map[vcs.CommitID]bool)
	frontier := roots
	for gen := 0; len(frontier) > 0 && (depth < 0 || gen < depth); gen++ {
		var next []vcs.CommitID
		for _, id := range frontier {
			if seen[id] {
				continue
			}
			seen[id] = true
			if c, ok := r.commits[id]; ok {
				next = append(next, c.Parents...)
			}
		}
		frontier = next
	}
	return seen
}

func (r *Repo) nearest(depth int) []vcs.CommitID {
	wc, ok := r.commits[r.WorkingCopy]
	if !ok {
		return nil
	}
	var candidates []vcs.CommitID
	for id := range r.ancestors(wc.Parents, depth) {
		if r.hasBookmark(id) {
			candidates = append(candidates, id)
		}
	}
	var heads []vcs.CommitID
	for _, id := range candidates {
		head := true
		for _, other := range candidates {
			if other != id && r.ancestors(r.commits[other].Parents, -1)[id] {
				head = false
				break
			}
		}
		if head {
			heads = append(heads, id)
		}
	}
	if len(heads) == 0 {
		return nil
	}
	slices.SortFunc(heads, func(a, b vcs.CommitID) int { return r.seq[b] - r.seq[a] })
	return heads[:1]
}

func (r *Repo) rangeTo(from vcs.CommitID) []vcs.CommitID {
	var out []vcs.CommitID
	for id := range r.ancestors([]vcs.CommitID{r.WorkingCopy}, -1) {
		if r.ancestors([]vcs.CommitID{id}, -1)[from] {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(a, b vcs.CommitID) int { return r.seq[b] - r.seq[a] })
	return out
}

// Tree implements vcs.Repo.
func (r *Repo) Tree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	if err := r.enter("Tree"); err != nil {
		return nil, err
	}
	return Tree(r.trees[c.ID]), nil
}

// ParentTree implements vcs.Repo. A root commit has no parent tree.
func (r *Repo) ParentTree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	if err := r.enter("ParentTree"); err != nil {
		return nil, err
	}
	if len(c.Parents) == 0 {
		return nil, nil
	}
	return Tree(r.trees[c.Parents[0]]), nil
}

// Diff implements vcs.Repo.
func (r *Repo) Diff(ctx context.Context, from, to vcs.Tree) ([]vcs.FileChange, error) {
	if err := r.enter("Diff"); err != nil {
		return nil, err
	}
	for id, tree := range r.trees {
		if tree == to.ID() {
			return r.diffs[id], nil
		}
	}
	return nil, nil
}

// LocalBookmarks implements vcs.Repo.
func (r *Repo) LocalBookmarks(ctx context.Context, id vcs.CommitID) ([]string, error) {
	if err := r.enter("LocalBookmarks"); err != nil {
		return nil, err
	}
	return slices.Clone(r.local[id]), nil
}

// RemoteBookmarks implements vcs.Repo.
func (r *Repo) RemoteBookmarks(ctx context.Context) ([]vcs.RemoteBookmark, error) {
	if err := r.enter("RemoteBookmarks"); err != nil {
		return nil, err
	}
	return slices.Clone(r.remote), nil
}

// ShortestCommitPrefix implements vcs.Repo.
func (r *Repo) ShortestCommitPrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	if err := r.enter("ShortestCommitPrefix"); err != nil {
		return 0, err
	}
	return 2, nil
}

// ShortestChangePrefix implements vcs.Repo.
func (r *Repo) ShortestChangePrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	if err := r.enter("ShortestChangePrefix"); err != nil {
		return 0, err
	}
	return 4, nil
}

// Engine serves a single fake Repo.
type Engine struct {
	Repo *Repo
	// Missing makes Open report that no repository exists.
	Missing bool
	// OpenErr, when set, is returned by Open.
	OpenErr error

	opens int
}

// Name implements vcs.Engine.
func (e *Engine) Name() string { return "fake" }

// Opens returns how many times Open was called.
func (e *Engine) Opens() int { return e.opens }

// Open implements vcs.Engine.
func (e *Engine) Open(ctx context.Context, dir string, opts vcs.Options) (vcs.Workspace, error) {
	e.opens++
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	if e.Missing {
		return nil, errors.RepoNotFound(e.Name(), dir)
	}
	return &workspace{root: dir, repo: e.Repo}, nil
}

type workspace struct {
	root string
	repo *Repo
}

func (w *workspace) Name() string { return "default" }
func (w *workspace) Root() string { return w.root }

func (w *workspace) Repo(ctx context.Context) (vcs.Repo, error) {
	if err := w.repo.enter("Repo"); err != nil {
		return nil, err
	}
	return w.repo, nil
}
