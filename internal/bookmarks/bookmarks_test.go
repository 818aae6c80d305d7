package bookmarks

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"testing"

	"github.com/zhubert/jjline/internal/errors"
	pexec "github.com/zhubert/jjline/internal/exec"
	"github.com/zhubert/jjline/internal/jj"
	"github.com/zhubert/jjline/internal/state"
	"github.com/zhubert/jjline/internal/vcs"
	"github.com/zhubert/jjline/internal/vcs/vcstest"
)

// chain builds root <- c1 <- c2 <- ... <- wc and returns the repo.
func chain(n int) *vcstest.Repo {
	r := vcstest.NewRepo()
	r.Add("c0", "root")
	prev := vcs.CommitID("c0")
	for i := 1; i < n; i++ {
		id := vcs.CommitID(fmt.Sprintf("c%d", i))
		r.Add(id, "commit "+string(id), prev)
		prev = id
	}
	r.Add("wc", "work", prev)
	r.WorkingCopy = "wc"
	return r
}

func resolve(t *testing.T, repo *vcstest.Repo, opts Options) []Bookmark {
	t.Helper()
	if opts.SearchDepth == 0 {
		opts.SearchDepth = 100
	}
	st := state.New(state.Config{Engine: &vcstest.Engine{Repo: repo}, Dir: "/work"})
	got, err := NewResolver(st, opts).Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return got
}

func TestResolve_NoBookmarks(t *testing.T) {
	got := resolve(t, chain(3), Options{})
	if len(got) != 0 {
		t.Errorf("Resolve() = %v, want empty", got)
	}
}

func TestResolve_OnWorkingCopy(t *testing.T) {
	repo := chain(3)
	repo.Bookmark("wc", "feature")
	repo.Bookmark("c2", "main")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{Name: "feature", Distance: 0}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
	if n := repo.Calls("Resolve"); n != 0 {
		t.Errorf("Resolve queries = %d, want none when @ carries a bookmark", n)
	}
}

func TestResolve_DirectParent(t *testing.T) {
	repo := chain(3)
	repo.Bookmark("c2", "main")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{Name: "main", Distance: 1}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_NearestOfSeveral(t *testing.T) {
	repo := chain(5)
	repo.Bookmark("c1", "old")
	repo.Bookmark("c3", "newer")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{Name: "newer", Distance: 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_SearchDepth(t *testing.T) {
	repo := chain(5)
	repo.Bookmark("c0", "main")

	if got := resolve(t, repo, Options{SearchDepth: 2}); len(got) != 0 {
		t.Errorf("Resolve() depth 2 = %v, want empty", got)
	}
	got := resolve(t, repo, Options{SearchDepth: 5})
	want := []Bookmark{{Name: "main", Distance: 5}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() depth 5 = %v, want %v", got, want)
	}
}

func TestResolve_LexicographicWithinDistance(t *testing.T) {
	repo := chain(3)
	repo.Bookmark("c2", "zeta", "alpha", "mid")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{"alpha", 1}, {"mid", 1}, {"zeta", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_RemoteShadowedByLocal(t *testing.T) {
	repo := chain(2)
	repo.Bookmark("wc", "main")
	repo.RemoteBookmark("wc", "main", "origin")
	repo.RemoteBookmark("wc", "release", "origin")
	repo.RemoteBookmark("wc", "main", "git")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{"main", 0}, {"release@origin", 0}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_RemoteOnlyAncestor(t *testing.T) {
	repo := chain(3)
	repo.RemoteBookmark("c1", "main", "origin")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{"main@origin", 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_Exclude(t *testing.T) {
	repo := chain(3)
	repo.Bookmark("wc", "push-abc")
	repo.RemoteBookmark("wc", "push-abc", "origin")
	repo.Bookmark("c2", "main")

	globs, err := CompileExclude([]string{"push-*"})
	if err != nil {
		t.Fatal(err)
	}
	got := resolve(t, repo, Options{Exclude: globs})
	want := []Bookmark{{"main", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_ExcludedLocalDoesNotShadowRemote(t *testing.T) {
	repo := chain(2)
	repo.Bookmark("wc", "main")
	repo.RemoteBookmark("wc", "main", "origin")

	globs, _ := CompileExclude([]string{"main"})
	got := resolve(t, repo, Options{Exclude: globs})
	want := []Bookmark{{"main@origin", 0}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_TieBreakIsMostRecent(t *testing.T) {
	// Two bookmarked heads merged into the working copy's parent.
	repo := vcstest.NewRepo()
	repo.Add("base", "base")
	repo.Add("left", "left", "base")
	repo.Add("right", "right", "base")
	repo.Add("merge", "merge", "left", "right")
	repo.Add("wc", "", "merge")
	repo.WorkingCopy = "wc"
	repo.Bookmark("left", "left-b")
	repo.Bookmark("right", "right-b")

	got := resolve(t, repo, Options{})
	want := []Bookmark{{"right-b", 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_IgnoreEmpty(t *testing.T) {
	build := func() *vcstest.Repo {
		r := vcstest.NewRepo()
		r.Add("base", "base")
		r.Add("a", "", "base")
		r.Add("b", "described", "a")
		r.Add("wc", "", "b")
		r.WorkingCopy = "wc"
		r.Bookmark("base", "main")
		return r
	}

	tests := []struct {
		mode IgnoreEmpty
		want int
	}{
		{IgnoreNone, 3},
		{IgnoreCurrent, 2},
		{IgnoreAll, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := resolve(t, build(), Options{IgnoreEmpty: tt.mode})
			if len(got) != 1 || got[0].Distance != tt.want {
				t.Errorf("Resolve() = %v, want distance %d", got, tt.want)
			}
		})
	}
}

func TestResolve_NoWorkingCopy(t *testing.T) {
	repo := chain(2)
	repo.WorkingCopy = ""
	if got := resolve(t, repo, Options{}); len(got) != 0 {
		t.Errorf("Resolve() = %v, want empty", got)
	}
}

func TestResolve_JJWorkspaceWithoutWorkingCopy(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.SetPath(jj.Binary, "/usr/bin/jj")
	mock.AddPrefixMatch(jj.Binary, []string{"workspace", "root"}, pexec.MockResponse{Stdout: []byte("/work\n")})
	mock.AddPrefixMatch(jj.Binary, []string{"log", "-r", "@"}, pexec.MockResponse{
		Stderr: []byte(`Error: Workspace "default" doesn't have a working-copy commit`),
		Err:    stderrors.New("exit status 1"),
	})
	st := state.New(state.Config{Engine: jj.NewEngineWithExecutor(mock), Dir: "/work"})

	got, err := NewResolver(st, Options{SearchDepth: 10}).Resolve(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("Resolve() = %v, %v, want empty and no error", got, err)
	}

	logs := 0
	for _, c := range mock.Calls() {
		if len(c.Args) > 0 && c.Args[0] == "log" {
			logs++
		}
	}
	if logs != 1 {
		t.Errorf("jj log ran %d times, want 1", logs)
	}
}

func TestResolve_EngineError(t *testing.T) {
	repo := chain(2)
	cause := stderrors.New("invalid revset")
	repo.Fail("Resolve", cause)

	st := state.New(state.Config{Engine: &vcstest.Engine{Repo: repo}})
	_, err := NewResolver(st, Options{SearchDepth: 10}).Resolve(context.Background())
	if !stderrors.Is(err, cause) {
		t.Fatalf("Resolve() err = %v, want wrapped engine error", err)
	}
	if !errors.Is(err, errors.KindEngine) {
		t.Errorf("kind = %s, want engine error", errors.GetKind(err))
	}
}

func TestOrdered(t *testing.T) {
	in := []Bookmark{{"b", 1}, {"a", 2}, {"a", 1}, {"b", 1}, {"c", 0}}
	want := []Bookmark{{"c", 0}, {"a", 1}, {"b", 1}, {"a", 2}}
	if got := Ordered(in); !slices.Equal(got, want) {
		t.Errorf("Ordered() = %v, want %v", got, want)
	}
}

func TestLimit(t *testing.T) {
	bms := []Bookmark{{"a", 0}, {"b", 0}, {"c", 0}}
	kept, more := Limit(bms, 1)
	if len(kept) != 1 || !more {
		t.Errorf("Limit(1) = %v, %v", kept, more)
	}
	kept, more = Limit(bms, -1)
	if len(kept) != 3 || more {
		t.Errorf("Limit(-1) = %v, %v", kept, more)
	}
	kept, more = Limit(bms, 3)
	if len(kept) != 3 || more {
		t.Errorf("Limit(3) = %v, %v", kept, more)
	}
}

func TestCompileExclude_Invalid(t *testing.T) {
	_, err := CompileExclude([]string{"feature/[a-"})
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	if !errors.Is(err, errors.KindConfig) {
		t.Errorf("kind = %s, want configuration error", errors.GetKind(err))
	}
}

func TestIgnoreEmpty_UnmarshalText(t *testing.T) {
	var m IgnoreEmpty
	if err := m.UnmarshalText([]byte("Current")); err != nil || m != IgnoreCurrent {
		t.Errorf("UnmarshalText(Current) = %q, %v", m, err)
	}
	if err := m.UnmarshalText([]byte("sometimes")); err == nil {
		t.Error("expected error for unknown policy")
	}
}
