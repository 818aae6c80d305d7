// Package git implements the vcs contract for plain Git repositories with go-git.
//
// Git has no working-copy commit, change ids or revsets, so the engine maps jj's
// vocabulary onto Git's: HEAD is the working copy, local branches are bookmarks,
// refs under refs/remotes are remote bookmarks, and a commit is immutable once a
// remote branch or a tag contains it.
package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/vcs"
)

// Engine opens Git repositories from disk.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a Git engine.
func NewEngine() *Engine {
	return &Engine{log: logger.ComponentLogger("git")}
}

// Name implements vcs.Engine.
func (e *Engine) Name() string { return "git" }

// Open finds the repository containing dir, walking up to the first .git.
// Snapshotting does not apply: uncommitted changes are never reported.
func (e *Engine) Open(ctx context.Context, dir string, opts vcs.Options) (vcs.Workspace, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if stderrors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, errors.RepoNotFound("git", dir)
	}
	if err != nil {
		return nil, errors.E(errors.Op("git.Open"), errors.KindEngine, dir, err)
	}

	root := dir
	if wt, err := r.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	e.log.Debug("repository opened", "root", root)
	return NewFromRepository(r, root), nil
}

// Workspace is an opened Git repository.
type Workspace struct {
	root string
	repo *Repo
}

// NewFromRepository wraps an already opened repository, such as an in-memory
// one built by tests.
func NewFromRepository(r *gogit.Repository, root string) *Workspace {
	return &Workspace{
		root: root,
		repo: &Repo{
			r:       r,
			log:     logger.ComponentLogger("git"),
			commits: make(map[plumbing.Hash]*object.Commit),
			frozen:  make(map[plumbing.Hash]bool),
		},
	}
}

// Name is always "default"; Git has a single working copy per worktree.
func (w *Workspace) Name() string { return "default" }

// Root returns the worktree root.
func (w *Workspace) Root() string { return w.root }

// Repo returns the repository.
func (w *Workspace) Repo(ctx context.Context) (vcs.Repo, error) { return w.repo, nil }

// Repo answers vcs queries from the object store.
type Repo struct {
	r   *gogit.Repository
	log *slog.Logger

	mu      sync.Mutex
	commits map[plumbing.Hash]*object.Commit
	refs    *refIndex
	frozen  map[plumbing.Hash]bool
}

type refIndex struct {
	local  map[plumbing.Hash][]string
	remote []vcs.RemoteBookmark
	// heads are the commits remote branches and tags point at.
	heads []plumbing.Hash
}

func hashOf(id vcs.CommitID) plumbing.Hash { return plumbing.NewHash(string(id)) }

func idOf(h plumbing.Hash) vcs.CommitID { return vcs.CommitID(h.String()) }

func (r *Repo) commit(h plumbing.Hash) (*object.Commit, error) {
	r.mu.Lock()
	c, ok := r.commits[h]
	r.mu.Unlock()
	if ok {
		return c, nil
	}
	c, err := r.r.CommitObject(h)
	if err != nil {
		return nil, errors.E(errors.Op("git.Commit"), errors.KindEngine, h.String(), err)
	}
	r.mu.Lock()
	r.commits[h] = c
	r.mu.Unlock()
	return c, nil
}

// peel follows an annotated tag to the commit it tags.
func (r *Repo) peel(h plumbing.Hash) plumbing.Hash {
	tag, err := r.r.TagObject(h)
	if err != nil {
		return h
	}
	c, err := tag.Commit()
	if err != nil {
		return h
	}
	return c.Hash
}

func (r *Repo) index() (*refIndex, error) {
	r.mu.Lock()
	idx := r.refs
	r.mu.Unlock()
	if idx != nil {
		return idx, nil
	}

	iter, err := r.r.References()
	if err != nil {
		return nil, errors.E(errors.Op("git.References"), errors.KindEngine, err)
	}
	idx = &refIndex{local: make(map[plumbing.Hash][]string)}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			idx.local[ref.Hash()] = append(idx.local[ref.Hash()], name.Short())
		case name.IsRemote():
			remote, branch, ok := strings.Cut(strings.TrimPrefix(name.String(), "refs/remotes/"), "/")
			if !ok || branch == "HEAD" {
				return nil
			}
			idx.remote = append(idx.remote, vcs.RemoteBookmark{
				Name:    branch,
				Remote:  remote,
				Targets: []vcs.CommitID{idOf(ref.Hash())},
			})
			idx.heads = append(idx.heads, ref.Hash())
		case name.IsTag():
			idx.heads = append(idx.heads, r.peel(ref.Hash()))
		}
		return nil
	})
	if err != nil {
		return nil, errors.E(errors.Op("git.References"), errors.KindEngine, err)
	}
	for _, names := range idx.local {
		slices.Sort(names)
	}
	slices.SortFunc(idx.remote, func(a, b vcs.RemoteBookmark) int {
		return strings.Compare(a.Qualified(), b.Qualified())
	})

	r.mu.Lock()
	r.refs = idx
	r.mu.Unlock()
	return idx, nil
}

// ancestors walks parents breadth-first from roots, roots included, for at
// most depth generations. A negative depth walks the whole history.
func (r *Repo) ancestors(roots []plumbing.Hash, depth int) (map[plumbing.Hash]*object.Commit, error) {
	seen := make(map[plumbing.Hash]*object.Commit)
	frontier := roots
	for gen := 0; len(frontier) > 0 && (depth < 0 || gen < depth); gen++ {
		var next []plumbing.Hash
		for _, h := range frontier {
			if _, ok := seen[h]; ok {
				continue
			}
			c, err := r.commit(h)
			if err != nil {
				return nil, err
			}
			seen[h] = c
			next = append(next, c.ParentHashes...)
		}
		frontier = next
	}
	return seen, nil
}

// immutableSlop is how far a commit's committer time may run ahead of its
// descendants' before the immutability walk stops trusting timestamps.
const immutableSlop = 24 * time.Hour

// immutable reports whether h is reachable from a remote branch or a tag. The
// walk from each head stops at commits committed well before h, so local work
// newer than every remote head is settled without reading history.
func (r *Repo) immutable(h plumbing.Hash) (bool, error) {
	r.mu.Lock()
	v, ok := r.frozen[h]
	r.mu.Unlock()
	if ok {
		return v, nil
	}

	target, err := r.commit(h)
	if err != nil {
		return false, err
	}
	idx, err := r.index()
	if err != nil {
		return false, err
	}
	cutoff := target.Committer.When.Add(-immutableSlop)

	found := false
	seen := make(map[plumbing.Hash]bool)
	stack := slices.Clone(idx.heads)
	for len(stack) > 0 && !found {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[p] {
			continue
		}
		seen[p] = true
		if p == h {
			found = true
			break
		}
		c, err := r.commit(p)
		if err != nil {
			return false, err
		}
		if c.Committer.When.Before(cutoff) {
			continue
		}
		stack = append(stack, c.ParentHashes...)
	}

	r.mu.Lock()
	r.frozen[h] = found
	r.mu.Unlock()
	return found, nil
}

func (r *Repo) head() (plumbing.Hash, bool, error) {
	ref, err := r.r.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, errors.E(errors.Op("git.Head"), errors.KindEngine, err)
	}
	return ref.Hash(), true, nil
}

// WorkingCopyCommitID implements vcs.Repo. It is absent on an unborn branch.
func (r *Repo) WorkingCopyCommitID(ctx context.Context, workspace string) (vcs.CommitID, bool, error) {
	h, ok, err := r.head()
	if err != nil || !ok {
		return "", false, err
	}
	return idOf(h), true, nil
}

// Resolve implements vcs.Repo.
func (r *Repo) Resolve(ctx context.Context, q vcs.Query) ([]vcs.CommitID, error) {
	head, ok, err := r.head()
	if err != nil || !ok {
		return nil, err
	}
	switch q := q.(type) {
	case vcs.WorkingCopy:
		return []vcs.CommitID{idOf(head)}, nil
	case vcs.NearestBookmarked:
		return r.nearest(head, q.Depth)
	case vcs.Range:
		return r.rangeTo(head, hashOf(q.From), q.Depth)
	default:
		return nil, errors.E(errors.Op("git.Resolve"), errors.KindInvalid, "unsupported query "+q.String())
	}
}

// newer orders commits by committer time, most recent first, then by hash.
func newer(a, b *object.Commit) int {
	if c := b.Committer.When.Compare(a.Committer.When); c != 0 {
		return c
	}
	return strings.Compare(a.Hash.String(), b.Hash.String())
}

func (r *Repo) nearest(head plumbing.Hash, depth int) ([]vcs.CommitID, error) {
	hc, err := r.commit(head)
	if err != nil {
		return nil, err
	}
	window, err := r.ancestors(hc.ParentHashes, depth)
	if err != nil {
		return nil, err
	}
	idx, err := r.index()
	if err != nil {
		return nil, err
	}

	bookmarked := make(map[plumbing.Hash]bool)
	for h := range window {
		if len(idx.local[h]) > 0 {
			bookmarked[h] = true
		}
	}
	for _, b := range idx.remote {
		for _, t := range b.Targets {
			if _, ok := window[hashOf(t)]; ok {
				bookmarked[hashOf(t)] = true
			}
		}
	}

	// A bookmarked commit that another bookmarked commit descends from is
	// not a head.
	covered := make(map[plumbing.Hash]bool)
	for h := range bookmarked {
		stack := slices.Clone(window[h].ParentHashes)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c, ok := window[p]
			if !ok || covered[p] {
				continue
			}
			covered[p] = true
			stack = append(stack, c.ParentHashes...)
		}
	}

	var best *object.Commit
	for h := range bookmarked {
		if covered[h] {
			continue
		}
		if c := window[h]; best == nil || newer(c, best) < 0 {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	return []vcs.CommitID{idOf(best.Hash)}, nil
}

// rangeTo returns the commits on some path from head back to from, both ends
// included, most recent first. A positive depth limits the walk to the
// generations between head and a from at most depth generations away.
func (r *Repo) rangeTo(head, from plumbing.Hash, depth int) ([]vcs.CommitID, error) {
	generations := -1
	if depth > 0 {
		generations = depth + 1
	}
	window, err := r.ancestors([]plumbing.Hash{head}, generations)
	if err != nil {
		return nil, err
	}
	start, ok := window[from]
	if !ok {
		return nil, nil
	}

	children := make(map[plumbing.Hash][]*object.Commit)
	for _, c := range window {
		for _, p := range c.ParentHashes {
			if _, ok := window[p]; ok {
				children[p] = append(children[p], c)
			}
		}
	}

	in := []*object.Commit{start}
	seen := map[plumbing.Hash]bool{from: true}
	for i := 0; i < len(in); i++ {
		for _, c := range children[in[i].Hash] {
			if !seen[c.Hash] {
				seen[c.Hash] = true
				in = append(in, c)
			}
		}
	}

	slices.SortFunc(in, newer)
	ids := make([]vcs.CommitID, len(in))
	for i, c := range in {
		ids[i] = idOf(c.Hash)
	}
	return ids, nil
}

// Commit implements vcs.Repo. Git commits carry no change id and are never
// hidden, conflicted or divergent.
func (r *Repo) Commit(ctx context.Context, id vcs.CommitID) (*vcs.Commit, error) {
	c, err := r.commit(hashOf(id))
	if err != nil {
		return nil, err
	}
	frozen, err := r.immutable(c.Hash)
	if err != nil {
		return nil, err
	}
	out := &vcs.Commit{
		ID:          idOf(c.Hash),
		Description: c.Message,
		Immutable:   frozen,
	}
	for _, p := range c.ParentHashes {
		out.Parents = append(out.Parents, idOf(p))
	}
	return out, nil
}

// Tree wraps a go-git tree.
type Tree struct {
	tree *object.Tree
}

// ID implements vcs.Tree.
func (t *Tree) ID() string { return t.tree.Hash.String() }

func (r *Repo) tree(h plumbing.Hash) (*Tree, error) {
	c, err := r.commit(h)
	if err != nil {
		return nil, err
	}
	t, err := c.Tree()
	if err != nil {
		return nil, errors.E(errors.Op("git.Tree"), errors.KindEngine, h.String(), err)
	}
	return &Tree{tree: t}, nil
}

// Tree implements vcs.Repo.
func (r *Repo) Tree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	return r.tree(hashOf(c.ID))
}

// ParentTree implements vcs.Repo. Merges are compared with their first parent.
func (r *Repo) ParentTree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	if len(c.Parents) == 0 {
		return nil, nil
	}
	return r.tree(hashOf(c.Parents[0]))
}

// Diff implements vcs.Repo with rename detection. A nil from diffs against the
// empty tree.
func (r *Repo) Diff(ctx context.Context, from, to vcs.Tree) ([]vcs.FileChange, error) {
	const op = errors.Op("git.Diff")
	var a, b *object.Tree
	if t, ok := from.(*Tree); ok && t != nil {
		a = t.tree
	}
	t, ok := to.(*Tree)
	if !ok || t == nil {
		return nil, errors.E(op, errors.KindInvalid, "diff target is not a git tree")
	}
	b = t.tree

	changes, err := object.DiffTreeWithOptions(ctx, a, b, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, errors.E(op, errors.KindEngine, err)
	}
	out := make([]vcs.FileChange, 0, len(changes))
	for _, ch := range changes {
		fc := vcs.FileChange{Path: ch.To.Name}
		switch {
		case ch.From.Name == "":
			fc.Kind = vcs.Added
		case ch.To.Name == "":
			fc.Kind = vcs.Removed
			fc.Path = ch.From.Name
		case ch.From.Name != ch.To.Name:
			fc.Kind = vcs.Renamed
			fc.Source = ch.From.Name
		}
		patch, err := ch.PatchContext(ctx)
		if err != nil {
			return nil, errors.E(op, errors.KindEngine, fc.Path, err)
		}
		for _, st := range patch.Stats() {
			fc.Added += st.Addition
			fc.Removed += st.Deletion
		}
		out = append(out, fc)
	}
	slices.SortFunc(out, func(x, y vcs.FileChange) int { return strings.Compare(x.Path, y.Path) })
	r.log.Debug("diff computed", "files", len(out))
	return out, nil
}

// LocalBookmarks implements vcs.Repo.
func (r *Repo) LocalBookmarks(ctx context.Context, id vcs.CommitID) ([]string, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}
	return idx.local[hashOf(id)], nil
}

// RemoteBookmarks implements vcs.Repo.
func (r *Repo) RemoteBookmarks(ctx context.Context) ([]vcs.RemoteBookmark, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}
	return idx.remote, nil
}

// ShortestCommitPrefix implements vcs.Repo by comparing against every commit
// in the object store.
func (r *Repo) ShortestCommitPrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	target := string(c.ID)
	iter, err := r.r.CommitObjects()
	if err != nil {
		return 0, errors.E(errors.Op("git.ShortestCommitPrefix"), errors.KindEngine, err)
	}
	longest := 0
	err = iter.ForEach(func(other *object.Commit) error {
		h := other.Hash.String()
		if h == target {
			return nil
		}
		n := 0
		for n < len(h) && n < len(target) && h[n] == target[n] {
			n++
		}
		longest = max(longest, n)
		return nil
	})
	if err != nil {
		return 0, errors.E(errors.Op("git.ShortestCommitPrefix"), errors.KindEngine, err)
	}
	return min(longest+1, len(target)), nil
}

// ShortestChangePrefix implements vcs.Repo. Git has no change ids.
func (r *Repo) ShortestChangePrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	return 0, nil
}
