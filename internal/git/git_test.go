package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/vcs"
)

// fixture is an in-memory repository whose commits are one minute apart.
type fixture struct {
	t    *testing.T
	repo *gogit.Repository
	wt   *gogit.Worktree
	when time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	return &fixture{t: t, repo: repo, wt: wt, when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()
	file, err := f.wt.Filesystem.Create(name)
	if err != nil {
		f.t.Fatal(err)
	}
	if _, err := file.Write([]byte(content)); err != nil {
		f.t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		f.t.Fatal(err)
	}
	if _, err := f.wt.Add(name); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) commit(msg string, files ...string) vcs.CommitID {
	f.t.Helper()
	for i := 0; i+1 < len(files); i += 2 {
		f.write(files[i], files[i+1])
	}
	f.when = f.when.Add(time.Minute)
	h, err := f.wt.Commit(msg, &gogit.CommitOptions{
		Author:            &object.Signature{Name: "Test", Email: "test@example.com", When: f.when},
		AllowEmptyCommits: true,
	})
	if err != nil {
		f.t.Fatalf("Commit(%q) error = %v", msg, err)
	}
	return idOf(h)
}

func (f *fixture) ref(name plumbing.ReferenceName, id vcs.CommitID) {
	f.t.Helper()
	if err := f.repo.Storer.SetReference(plumbing.NewHashReference(name, hashOf(id))); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) open() *Repo {
	return NewFromRepository(f.repo, "/").repo
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := NewEngine().Open(context.Background(), t.TempDir(), vcs.Options{})
	if !errors.Is(err, errors.KindNotFound) {
		t.Errorf("Open() err = %v, want KindNotFound", err)
	}
}

func TestOpen_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	if _, err := gogit.PlainInit(root, false); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	ws, err := NewEngine().Open(context.Background(), sub, vcs.Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if ws.Root() != root {
		t.Errorf("Root() = %q, want %q", ws.Root(), root)
	}

	repo, err := ws.Repo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := repo.WorkingCopyCommitID(context.Background(), ws.Name()); ok || err != nil {
		t.Errorf("unborn HEAD: ok = %v, err = %v, want absent", ok, err)
	}
}

func TestRepo_Commit(t *testing.T) {
	f := newFixture(t)
	first := f.commit("initial", "a.txt", "one\n")
	second := f.commit("fix bug\n\nbody\n", "a.txt", "two\n")
	repo := f.open()
	ctx := context.Background()

	id, ok, err := repo.WorkingCopyCommitID(ctx, "default")
	if err != nil || !ok || id != second {
		t.Fatalf("WorkingCopyCommitID() = %q, %v, %v", id, ok, err)
	}
	c, err := repo.Commit(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if c.Description != "fix bug\n\nbody\n" {
		t.Errorf("Description = %q", c.Description)
	}
	if !slices.Equal(c.Parents, []vcs.CommitID{first}) {
		t.Errorf("Parents = %v", c.Parents)
	}
	if c.ChangeID != "" || c.Immutable {
		t.Errorf("Commit() = %+v", c)
	}
}

func TestRepo_Bookmarks(t *testing.T) {
	f := newFixture(t)
	base := f.commit("base", "a.txt", "one\n")
	head := f.commit("head", "a.txt", "two\n")
	f.ref(plumbing.NewBranchReferenceName("feature"), base)
	f.ref(plumbing.NewBranchReferenceName("alpha"), base)
	f.ref(plumbing.NewRemoteReferenceName("origin", "main"), base)
	if err := f.repo.Storer.SetReference(plumbing.NewSymbolicReference(
		plumbing.NewRemoteReferenceName("origin", "HEAD"),
		plumbing.NewRemoteReferenceName("origin", "main"),
	)); err != nil {
		t.Fatal(err)
	}
	repo := f.open()
	ctx := context.Background()

	local, err := repo.LocalBookmarks(ctx, base)
	if err != nil || !slices.Equal(local, []string{"alpha", "feature"}) {
		t.Errorf("LocalBookmarks(base) = %v, %v", local, err)
	}
	if local, _ := repo.LocalBookmarks(ctx, head); !slices.Equal(local, []string{"master"}) {
		t.Errorf("LocalBookmarks(head) = %v", local)
	}

	remote, err := repo.RemoteBookmarks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remote) != 1 || remote[0].Qualified() != "main@origin" || !remote[0].PointsAt(base) {
		t.Errorf("RemoteBookmarks() = %+v", remote)
	}
}

func TestRepo_Immutable(t *testing.T) {
	f := newFixture(t)
	c1 := f.commit("one", "a.txt", "1\n")
	c2 := f.commit("two", "a.txt", "2\n")
	c3 := f.commit("three", "a.txt", "3\n")
	f.ref(plumbing.NewRemoteReferenceName("origin", "main"), c1)
	if _, err := f.repo.CreateTag("v1", hashOf(c2), &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test", Email: "test@example.com", When: f.when},
		Message: "release",
	}); err != nil {
		t.Fatal(err)
	}
	repo := f.open()

	for id, want := range map[vcs.CommitID]bool{c1: true, c2: true, c3: false} {
		c, err := repo.Commit(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if c.Immutable != want {
			t.Errorf("%s: Immutable = %v, want %v", c.Description, c.Immutable, want)
		}
	}
}

func TestRepo_ImmutableSkipsOlderHistory(t *testing.T) {
	f := newFixture(t)
	var last vcs.CommitID
	for i := 0; i < 5; i++ {
		last = f.commit(fmt.Sprintf("release %d", i), "a.txt", fmt.Sprintf("%d\n", i))
	}
	f.ref(plumbing.NewRemoteReferenceName("origin", "main"), last)
	f.when = f.when.Add(48 * time.Hour)
	work := f.commit("work", "a.txt", "work\n")
	repo := f.open()

	frozen, err := repo.immutable(hashOf(work))
	if err != nil {
		t.Fatal(err)
	}
	if frozen {
		t.Error("local commit reported immutable")
	}
	if n := len(repo.commits); n != 2 {
		t.Errorf("read %d commits, want only the commit and the remote head", n)
	}

	frozen, err = repo.immutable(hashOf(last))
	if err != nil {
		t.Fatal(err)
	}
	if !frozen {
		t.Error("remote head reported mutable")
	}
}

func TestRepo_Resolve(t *testing.T) {
	f := newFixture(t)
	c1 := f.commit("one", "a.txt", "1\n")
	c2 := f.commit("two", "a.txt", "2\n")
	c3 := f.commit("three", "a.txt", "3\n")
	c4 := f.commit("four", "a.txt", "4\n")
	f.ref(plumbing.NewRemoteReferenceName("origin", "main"), c1)
	f.ref(plumbing.NewBranchReferenceName("feature"), c2)
	repo := f.open()
	ctx := context.Background()

	tests := []struct {
		name string
		q    vcs.Query
		want []vcs.CommitID
	}{
		{"working copy", vcs.WorkingCopy{}, []vcs.CommitID{c4}},
		{"nearest", vcs.NearestBookmarked{Depth: 10}, []vcs.CommitID{c2}},
		{"nearest out of reach", vcs.NearestBookmarked{Depth: 1}, nil},
		{"range", vcs.Range{From: c2}, []vcs.CommitID{c4, c3, c2}},
		{"range to self", vcs.Range{From: c4}, []vcs.CommitID{c4}},
		{"range within depth", vcs.Range{From: c2, Depth: 2}, []vcs.CommitID{c4, c3, c2}},
		{"range beyond depth", vcs.Range{From: c1, Depth: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Resolve(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Resolve(%s) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestRepo_NearestRemoteOnly(t *testing.T) {
	f := newFixture(t)
	f.commit("one", "a.txt", "1\n")
	c2 := f.commit("two", "a.txt", "2\n")
	f.commit("three", "a.txt", "3\n")
	f.ref(plumbing.NewRemoteReferenceName("origin", "topic"), c2)

	got, err := f.open().Resolve(context.Background(), vcs.NearestBookmarked{Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []vcs.CommitID{c2}) {
		t.Errorf("Resolve() = %v, want [%s]", got, c2)
	}
}

func TestRepo_Diff(t *testing.T) {
	f := newFixture(t)
	f.commit("one", "a.txt", "one\ntwo\n", "gone.txt", "bye\n")
	if _, err := f.wt.Remove("gone.txt"); err != nil {
		t.Fatal(err)
	}
	id := f.commit("two", "a.txt", "one\nthree\n", "b.txt", "x\n")
	repo := f.open()
	ctx := context.Background()

	c, err := repo.Commit(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	to, err := repo.Tree(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	from, err := repo.ParentTree(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	changes, err := repo.Diff(ctx, from, to)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	want := []vcs.FileChange{
		{Path: "a.txt", Kind: vcs.Modified, Added: 1, Removed: 1},
		{Path: "b.txt", Kind: vcs.Added, Added: 1},
		{Path: "gone.txt", Kind: vcs.Removed, Removed: 1},
	}
	if !slices.Equal(changes, want) {
		t.Errorf("Diff() = %+v\nwant %+v", changes, want)
	}
}

func TestRepo_DiffAgainstEmptyTree(t *testing.T) {
	f := newFixture(t)
	id := f.commit("root", "a.txt", "1\n2\n")
	repo := f.open()
	ctx := context.Background()

	c, _ := repo.Commit(ctx, id)
	from, err := repo.ParentTree(ctx, c)
	if err != nil || from != nil {
		t.Fatalf("ParentTree(root) = %v, %v, want nil", from, err)
	}
	to, _ := repo.Tree(ctx, c)
	changes, err := repo.Diff(ctx, nil, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Kind != vcs.Added || changes[0].Added != 2 {
		t.Errorf("Diff() = %+v", changes)
	}
}

func TestRepo_EmptyCommitSharesParentTree(t *testing.T) {
	f := newFixture(t)
	f.commit("one", "a.txt", "1\n")
	id := f.commit("nothing")
	repo := f.open()
	ctx := context.Background()

	c, _ := repo.Commit(ctx, id)
	tree, _ := repo.Tree(ctx, c)
	parent, _ := repo.ParentTree(ctx, c)
	if tree.ID() != parent.ID() {
		t.Errorf("tree %s != parent tree %s for an empty commit", tree.ID(), parent.ID())
	}
}

func TestRepo_ShortestCommitPrefix(t *testing.T) {
	f := newFixture(t)
	var ids []vcs.CommitID
	for i := range 20 {
		ids = append(ids, f.commit(strings.Repeat("x", i+1), "a.txt", strings.Repeat("y", i+1)))
	}
	repo := f.open()

	for _, id := range ids {
		n, err := repo.ShortestCommitPrefix(context.Background(), &vcs.Commit{ID: id})
		if err != nil {
			t.Fatal(err)
		}
		if n < 1 || n > len(id) {
			t.Fatalf("prefix length %d out of range", n)
		}
		prefix := string(id[:n])
		for _, other := range ids {
			if other != id && strings.HasPrefix(string(other), prefix) {
				t.Errorf("prefix %q of %s also matches %s", prefix, id, other)
			}
		}
		if n > 1 {
			shorter := string(id[:n-1])
			clash := false
			for _, other := range ids {
				if other != id && strings.HasPrefix(string(other), shorter) {
					clash = true
				}
			}
			if !clash {
				t.Errorf("prefix %q of %s is longer than needed", prefix, id)
			}
		}
	}
}
