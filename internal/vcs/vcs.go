// Package vcs defines the contract between jjline and a version-control engine.
//
// jjline never walks history, evaluates revsets or diffs trees itself. It asks an
// engine, through the interfaces here, and only combines the answers. Two engines
// implement the contract: internal/jj (the jj CLI) and internal/git (go-git).
package vcs

import (
	"context"
	"fmt"
)

// CommitID is the hex identifier of a commit.
type CommitID string

// Short returns the first n characters of the id.
func (id CommitID) Short(n int) string {
	if n <= 0 || n >= len(id) {
		return string(id)
	}
	return string(id[:n])
}

// ChangeID is the hex (or reverse-hex) identifier of a change. Engines that have no
// notion of changes leave it empty.
type ChangeID string

// Short returns the first n characters of the id.
func (id ChangeID) Short(n int) string {
	if n <= 0 || n >= len(id) {
		return string(id)
	}
	return string(id[:n])
}

// Commit is an immutable snapshot node in the history graph.
type Commit struct {
	ID          CommitID
	ChangeID    ChangeID
	Description string
	Parents     []CommitID

	Hidden    bool
	Conflict  bool
	Divergent bool
	Immutable bool
}

// Tree is an engine-owned handle to a commit's file snapshot. Two trees with the
// same ID have identical contents.
type Tree interface {
	ID() string
}

// RemoteBookmark is a bookmark as last seen on a remote.
type RemoteBookmark struct {
	Name    string
	Remote  string
	Targets []CommitID
}

// Qualified renders the bookmark as name@remote.
func (b RemoteBookmark) Qualified() string {
	return b.Name + "@" + b.Remote
}

// PointsAt reports whether id is one of the bookmark's targets.
func (b RemoteBookmark) PointsAt(id CommitID) bool {
	for _, t := range b.Targets {
		if t == id {
			return true
		}
	}
	return false
}

// ChangeKind classifies a per-path change in a tree diff.
type ChangeKind int

const (
	Modified ChangeKind = iota
	Added
	Removed
	Renamed
	Copied
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	default:
		return "modified"
	}
}

// FileChange is one path in a copy-aware tree diff.
type FileChange struct {
	Path    string
	Source  string // previous path for renames and copies
	Kind    ChangeKind
	Added   int
	Removed int
}

// Options controls how a workspace is opened.
type Options struct {
	// Snapshot lets the engine record working-copy changes before answering.
	Snapshot bool
}

// Engine opens workspaces.
type Engine interface {
	// Name identifies the engine in logs and diagnostics ("jj", "git").
	Name() string
	// Open loads the workspace containing dir.
	Open(ctx context.Context, dir string, opts Options) (Workspace, error)
}

// Workspace is a working copy attached to a repository.
type Workspace interface {
	Name() string
	Root() string
	Repo(ctx context.Context) (Repo, error)
}

// Repo answers queries about one repository. Every method may block on the engine.
type Repo interface {
	// WorkingCopyCommitID returns the commit checked out in the named workspace.
	// ok is false when the workspace has no working-copy commit.
	WorkingCopyCommitID(ctx context.Context, workspace string) (id CommitID, ok bool, err error)
	// Resolve evaluates q to commit ids, most recent first.
	Resolve(ctx context.Context, q Query) ([]CommitID, error)
	Commit(ctx context.Context, id CommitID) (*Commit, error)
	// Tree returns c's tree; ParentTree returns the tree c's changes are relative to.
	Tree(ctx context.Context, c *Commit) (Tree, error)
	ParentTree(ctx context.Context, c *Commit) (Tree, error)
	// Diff lists the per-path changes from one tree to another, with copy detection.
	Diff(ctx context.Context, from, to Tree) ([]FileChange, error)
	LocalBookmarks(ctx context.Context, id CommitID) ([]string, error)
	RemoteBookmarks(ctx context.Context) ([]RemoteBookmark, error)
	// ShortestCommitPrefix and ShortestChangePrefix return the length of the shortest
	// prefix that identifies c's commit id and change id unambiguously.
	ShortestCommitPrefix(ctx context.Context, c *Commit) (int, error)
	ShortestChangePrefix(ctx context.Context, c *Commit) (int, error)
}

// Query selects commits. Engines translate queries into their own language.
type Query interface {
	fmt.Stringer
	query()
}

// WorkingCopy selects the working-copy commit (revset "@").
type WorkingCopy struct{}

// NearestBookmarked selects the most recent head among bookmark-bearing
// commits that are strict ancestors of the working copy, searching at most
// Depth generations back.
type NearestBookmarked struct {
	Depth int
}

// Range selects the commits that are descendants of From and ancestors of the
// working copy, both ends included (revset "From::@").
type Range struct {
	From CommitID
	// Depth, when positive, tells engines that walk history themselves that
	// From lies at most Depth generations above the working copy.
	Depth int
}

func (WorkingCopy) query()       {}
func (NearestBookmarked) query() {}
func (Range) query()             {}

func (WorkingCopy) String() string { return "@" }

func (q NearestBookmarked) String() string {
	return fmt.Sprintf("latest(heads(ancestors(@-, %d) & (bookmarks() | remote_bookmarks())))", q.Depth)
}

func (q Range) String() string { return string(q.From) + "::@" }
