// Package jj implements the vcs contract on top of the jj command-line tool.
//
// Every query is one jj invocation with a fixed template, so the output format
// does not depend on user configuration. Commit metadata is fetched once per
// commit and cached for the lifetime of the Repo.
package jj

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/zhubert/jjline/internal/errors"
	pexec "github.com/zhubert/jjline/internal/exec"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/vcs"
)

// Binary is the executable the engine runs.
const Binary = "jj"

// commitTemplate prints one field per line. The description goes last because
// it is the only field that may itself contain newlines.
const commitTemplate = `commit_id ++ "\n" ++ change_id ++ "\n" ++ ` +
	`commit_id.shortest().prefix() ++ "\n" ++ change_id.shortest().prefix() ++ "\n" ++ ` +
	`parents.map(|p| p.commit_id()).join(" ") ++ "\n" ++ ` +
	`local_bookmarks.map(|b| b.name()).join(" ") ++ "\n" ++ ` +
	`hidden ++ "\n" ++ conflict ++ "\n" ++ divergent ++ "\n" ++ immutable ++ "\n" ++ empty ++ "\n" ++ ` +
	`description`

const commitFields = 12

const idTemplate = `commit_id ++ "\n"`

const remoteTemplate = `commit_id ++ "\t" ++ remote_bookmarks.map(|b| b.name() ++ "@" ++ b.remote()).join(" ") ++ "\n"`

// Engine opens jj workspaces.
type Engine struct {
	executor pexec.CommandExecutor
	log      *slog.Logger
}

// NewEngine creates an engine that runs the real jj binary.
func NewEngine() *Engine {
	return NewEngineWithExecutor(pexec.NewRealExecutor())
}

// NewEngineWithExecutor creates an engine with a custom executor (for testing).
func NewEngineWithExecutor(executor pexec.CommandExecutor) *Engine {
	return &Engine{executor: executor, log: logger.ComponentLogger("jj")}
}

// Name implements vcs.Engine.
func (e *Engine) Name() string { return "jj" }

// Open finds the workspace containing dir. A directory outside any jj
// workspace, or a machine without jj, yields a KindNotFound error.
func (e *Engine) Open(ctx context.Context, dir string, opts vcs.Options) (vcs.Workspace, error) {
	if _, err := e.executor.LookPath(Binary); err != nil {
		return nil, errors.CLINotFound(Binary)
	}
	stdout, stderr, err := e.executor.Run(ctx, dir, Binary, "workspace", "root", "--no-pager", "--color", "never", "--ignore-working-copy")
	if err != nil {
		if bytes.Contains(stderr, []byte("no jj repo")) {
			return nil, errors.RepoNotFound("jj", dir)
		}
		return nil, commandError("jj.Open", []string{"workspace", "root"}, stderr, err)
	}
	root := strings.TrimSpace(string(stdout))
	e.log.Debug("workspace found", "root", root, "snapshot", opts.Snapshot)
	return &Workspace{
		root: root,
		repo: &Repo{
			executor: e.executor,
			root:     root,
			snapshot: opts.Snapshot,
			commits:  make(map[vcs.CommitID]*commitInfo),
			log:      e.log,
		},
	}, nil
}

// Workspace is an open jj workspace.
type Workspace struct {
	root string
	repo *Repo
}

// Name is empty: jj resolves "@" against the workspace it runs in.
func (w *Workspace) Name() string { return "" }

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// Repo returns the repository behind the workspace.
func (w *Workspace) Repo(ctx context.Context) (vcs.Repo, error) { return w.repo, nil }

type commitInfo struct {
	commit       *vcs.Commit
	commitPrefix int
	changePrefix int
	bookmarks    []string
	empty        bool
}

// Repo answers vcs queries by running jj.
type Repo struct {
	executor pexec.CommandExecutor
	root     string
	log      *slog.Logger

	mu          sync.Mutex
	snapshot    bool
	snapshotted bool
	commits     map[vcs.CommitID]*commitInfo
}

// run executes a jj subcommand against the repository. Only the first
// invocation may snapshot the working copy; later ones reuse that snapshot.
func (r *Repo) run(ctx context.Context, op errors.Op, args ...string) ([]byte, error) {
	r.mu.Lock()
	ignore := !r.snapshot || r.snapshotted
	r.snapshotted = true
	r.mu.Unlock()

	full := make([]string, 0, len(args)+6)
	full = append(full, args...)
	full = append(full, "--no-pager", "--color", "never")
	if ignore {
		full = append(full, "--ignore-working-copy")
	}
	full = append(full, "-R", r.root)

	stdout, stderr, err := r.executor.Run(ctx, r.root, Binary, full...)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return nil, errors.E(op, errors.KindTimeout, "jj "+strings.Join(args, " "), ctxErr)
	}
	if err != nil && bytes.Contains(stderr, []byte(noWorkingCopyMessage)) {
		return nil, errors.E(op, errors.KindNotFound, "jj "+strings.Join(args, " "), errNoWorkingCopy)
	}
	if err != nil {
		return nil, commandError(op, args, stderr, err)
	}
	return stdout, nil
}

// noWorkingCopyMessage is how jj reports a workspace whose working-copy
// commit is gone, for example after "jj workspace forget".
const noWorkingCopyMessage = "doesn't have a working-copy commit"

var errNoWorkingCopy = stderrors.New("workspace has no working-copy commit")

func commandError(op errors.Op, args []string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return errors.E(op, errors.KindEngine, "jj "+strings.Join(args, " "), err)
	}
	return errors.E(op, errors.KindEngine, "jj "+strings.Join(args, " "), fmt.Errorf("%w: %s", err, msg))
}

func (r *Repo) logRevs(ctx context.Context, op errors.Op, revset, template string) ([]byte, error) {
	return r.run(ctx, op, "log", "-r", revset, "--no-graph", "-T", template)
}

// WorkingCopyCommitID implements vcs.Repo. An empty workspace name means the
// workspace jj is running in.
func (r *Repo) WorkingCopyCommitID(ctx context.Context, workspace string) (vcs.CommitID, bool, error) {
	revset := "@"
	if workspace != "" {
		revset = workspace + "@"
	}
	ids, err := r.ids(ctx, "jj.WorkingCopyCommitID", revset)
	if err != nil {
		if stderrors.Is(err, errNoWorkingCopy) {
			return "", false, nil
		}
		return "", false, err
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

// Resolve implements vcs.Repo. jj log lists commits newest first.
func (r *Repo) Resolve(ctx context.Context, q vcs.Query) ([]vcs.CommitID, error) {
	return r.ids(ctx, "jj.Resolve", q.String())
}

func (r *Repo) ids(ctx context.Context, op errors.Op, revset string) ([]vcs.CommitID, error) {
	out, err := r.logRevs(ctx, op, revset, idTemplate)
	if err != nil {
		return nil, err
	}
	var ids []vcs.CommitID
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, vcs.CommitID(line))
		}
	}
	return ids, nil
}

func (r *Repo) info(ctx context.Context, id vcs.CommitID) (*commitInfo, error) {
	r.mu.Lock()
	ci, ok := r.commits[id]
	r.mu.Unlock()
	if ok {
		return ci, nil
	}

	out, err := r.logRevs(ctx, "jj.Commit", string(id), commitTemplate)
	if err != nil {
		return nil, err
	}
	ci, err = parseCommit(string(out))
	if err != nil {
		return nil, errors.E(errors.Op("jj.Commit"), errors.KindEngine, string(id), err)
	}

	r.mu.Lock()
	r.commits[id] = ci
	r.mu.Unlock()
	return ci, nil
}

func parseCommit(out string) (*commitInfo, error) {
	f := strings.SplitN(out, "\n", commitFields)
	if len(f) < commitFields {
		return nil, fmt.Errorf("unexpected commit output: %d fields", len(f))
	}
	c := &vcs.Commit{
		ID:          vcs.CommitID(f[0]),
		ChangeID:    vcs.ChangeID(f[1]),
		Description: f[11],
		Hidden:      f[6] == "true",
		Conflict:    f[7] == "true",
		Divergent:   f[8] == "true",
		Immutable:   f[9] == "true",
	}
	for _, p := range strings.Fields(f[4]) {
		c.Parents = append(c.Parents, vcs.CommitID(p))
	}
	return &commitInfo{
		commit:       c,
		commitPrefix: len(f[2]),
		changePrefix: len(f[3]),
		bookmarks:    strings.Fields(f[5]),
		empty:        f[10] == "true",
	}, nil
}

// Commit implements vcs.Repo.
func (r *Repo) Commit(ctx context.Context, id vcs.CommitID) (*vcs.Commit, error) {
	ci, err := r.info(ctx, id)
	if err != nil {
		return nil, err
	}
	return ci.commit, nil
}

// Tree is a handle on a commit's snapshot. jj does not expose tree ids through
// templates, so the id is derived: an empty commit shares its parents' tree id,
// any other commit has a tree of its own.
type Tree struct {
	id     string
	commit vcs.CommitID
}

// ID implements vcs.Tree.
func (t *Tree) ID() string { return t.id }

func parentKey(c *vcs.Commit) string {
	ids := make([]string, len(c.Parents))
	for i, p := range c.Parents {
		ids[i] = string(p)
	}
	return "parents:" + strings.Join(ids, ",")
}

// Tree implements vcs.Repo.
func (r *Repo) Tree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	ci, err := r.info(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if ci.empty {
		return &Tree{id: parentKey(c), commit: c.ID}, nil
	}
	return &Tree{id: "commit:" + string(c.ID), commit: c.ID}, nil
}

// ParentTree implements vcs.Repo. The root commit has none.
func (r *Repo) ParentTree(ctx context.Context, c *vcs.Commit) (vcs.Tree, error) {
	if len(c.Parents) == 0 {
		return nil, nil
	}
	return &Tree{id: parentKey(c)}, nil
}

// Diff implements vcs.Repo. jj diffs a commit against its parents, so to must
// be a commit tree returned by Tree.
func (r *Repo) Diff(ctx context.Context, from, to vcs.Tree) ([]vcs.FileChange, error) {
	t, ok := to.(*Tree)
	if !ok || t.commit == "" {
		return nil, errors.E(errors.Op("jj.Diff"), errors.KindInvalid, "diff target is not a commit tree")
	}
	if from != nil && from.ID() == t.id {
		return nil, nil
	}
	out, err := r.run(ctx, "jj.Diff", "diff", "-r", string(t.commit), "--git")
	if err != nil {
		return nil, err
	}
	changes, err := parseGitDiff(out)
	if err != nil {
		return nil, errors.E(errors.Op("jj.Diff"), errors.KindEngine, err)
	}
	r.log.Debug("diff parsed", "commit", t.commit, "files", len(changes))
	return changes, nil
}

// LocalBookmarks implements vcs.Repo.
func (r *Repo) LocalBookmarks(ctx context.Context, id vcs.CommitID) ([]string, error) {
	ci, err := r.info(ctx, id)
	if err != nil {
		return nil, err
	}
	return ci.bookmarks, nil
}

// RemoteBookmarks implements vcs.Repo.
func (r *Repo) RemoteBookmarks(ctx context.Context) ([]vcs.RemoteBookmark, error) {
	out, err := r.logRevs(ctx, "jj.RemoteBookmarks", "remote_bookmarks()", remoteTemplate)
	if err != nil {
		return nil, err
	}
	return parseRemoteBookmarks(string(out)), nil
}

// parseRemoteBookmarks reads "commit<TAB>name@remote name@remote" lines. A
// conflicted remote bookmark appears on several lines and gets several targets.
func parseRemoteBookmarks(out string) []vcs.RemoteBookmark {
	var result []vcs.RemoteBookmark
	index := make(map[string]int)
	for _, line := range strings.Split(out, "\n") {
		id, refs, ok := strings.Cut(line, "\t")
		if !ok || id == "" {
			continue
		}
		for _, ref := range strings.Fields(refs) {
			at := strings.LastIndexByte(ref, '@')
			if at <= 0 {
				continue
			}
			name, remote := ref[:at], ref[at+1:]
			if i, seen := index[ref]; seen {
				result[i].Targets = append(result[i].Targets, vcs.CommitID(id))
				continue
			}
			index[ref] = len(result)
			result = append(result, vcs.RemoteBookmark{Name: name, Remote: remote, Targets: []vcs.CommitID{vcs.CommitID(id)}})
		}
	}
	return result
}

// ShortestCommitPrefix implements vcs.Repo.
func (r *Repo) ShortestCommitPrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	ci, err := r.info(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	return ci.commitPrefix, nil
}

// ShortestChangePrefix implements vcs.Repo.
func (r *Repo) ShortestChangePrefix(ctx context.Context, c *vcs.Commit) (int, error) {
	ci, err := r.info(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	return ci.changePrefix, nil
}
