package module

import (
	"bytes"
	"context"
	stderrors "errors"
	"slices"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/jjline/internal/bookmarks"
	"github.com/zhubert/jjline/internal/state"
	"github.com/zhubert/jjline/internal/style"
	"github.com/zhubert/jjline/internal/vcs"
	"github.com/zhubert/jjline/internal/vcs/vcstest"
)

func newEnv(eng vcs.Engine) *Env {
	return &Env{
		State:     state.New(state.Config{Engine: eng, Dir: "/work"}),
		Bookmarks: bookmarks.Options{SearchDepth: 100},
		Separator: " ",
	}
}

func render(t *testing.T, repo *vcstest.Repo, mods ...Module) string {
	t.Helper()
	env := newEnv(&vcstest.Engine{Repo: repo})
	var buf bytes.Buffer
	p := style.NewPrinter(&buf)
	for _, m := range mods {
		if err := m.Parse(context.Background(), env); err != nil {
			t.Fatalf("%s.Parse() error = %v", m.Type(), err)
		}
		if err := m.Render(p, env); err != nil {
			t.Fatalf("%s.Render() error = %v", m.Type(), err)
		}
	}
	return buf.String()
}

func simpleRepo(description string) *vcstest.Repo {
	r := vcstest.NewRepo()
	r.Add("base", "base")
	r.Add("parent", "parent work", "base")
	r.Add("wc", description, "parent")
	r.WorkingCopy = "wc"
	return r
}

func TestSymbol(t *testing.T) {
	got := render(t, simpleRepo("x"), DefaultSymbol())
	if got != "\x1b[0;34m󱗆 " {
		t.Errorf("output = %q", got)
	}

	env := newEnv(&vcstest.Engine{Missing: true})
	var buf bytes.Buffer
	s := DefaultSymbol()
	if err := s.Parse(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	if err := s.Render(style.NewPrinter(&buf), env); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("symbol rendered outside a workspace: %q", buf.String())
	}
}

func TestBookmarks_OnWorkingCopy(t *testing.T) {
	repo := simpleRepo("fix bug")
	repo.Bookmark("wc", "main")

	got := render(t, repo, DefaultBookmarks())
	if got != "\x1b[0;35mmain " {
		t.Errorf("output = %q", got)
	}
}

func TestBookmarks_BehindAndEllipsis(t *testing.T) {
	repo := simpleRepo("fix bug")
	repo.Bookmark("parent", "zeta", "alpha", "mid")

	got := ansi.Strip(render(t, repo, DefaultBookmarks()))
	if got != "alpha⇡1 … " {
		t.Errorf("output = %q", got)
	}

	all := DefaultBookmarks()
	all.MaxBookmarks = 0
	all.BehindSymbol = ""
	all.Separator = ","
	got = ansi.Strip(render(t, repo, all))
	if got != "alpha1,mid1,zeta1 " {
		t.Errorf("output = %q", got)
	}
}

func TestBookmarks_MaxLengthAndQuotes(t *testing.T) {
	repo := simpleRepo("fix bug")
	repo.Bookmark("wc", "feature-branch")

	b := DefaultBookmarks()
	b.MaxLength = 8
	b.SurroundWithQuotes = true
	got := ansi.Strip(render(t, repo, b))
	if got != `"feature…" ` {
		t.Errorf("output = %q", got)
	}
}

func TestBookmarks_NoneFound(t *testing.T) {
	if got := render(t, simpleRepo("x"), DefaultBookmarks()); got != "" {
		t.Errorf("output = %q, want nothing", got)
	}
}

func TestCommit(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		modify func(*Commit)
		want   string
	}{
		{"description", "fix bug", nil, `"fix bug" `},
		{"first line only", "fix bug\n\nlonger body", nil, `"fix bug" `},
		{"carriage return", "fix bug\r\nbody", nil, `"fix bug" `},
		{"empty placeholder", "", nil, `"(no description set)" `},
		{"truncated", "a very long description of the change", nil, `"a very long description…" `},
		{"no quotes", "fix bug", func(c *Commit) { c.SurroundWithQuotes = false }, "fix bug "},
		{"no limit", "a very long description of the change", func(c *Commit) { c.MaxLength = 0 }, `"a very long description of the change" `},
		{"previous if empty", "", func(c *Commit) { c.ShowPreviousIfEmpty = true }, `"parent work"⇣ `},
		{"previous not needed", "own", func(c *Commit) { c.ShowPreviousIfEmpty = true }, `"own" `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCommit()
			if tt.modify != nil {
				tt.modify(c)
			}
			got := ansi.Strip(render(t, simpleRepo(tt.desc), c))
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommit_PreviousSkippedForMerge(t *testing.T) {
	r := vcstest.NewRepo()
	r.Add("a", "left")
	r.Add("b", "right")
	r.Add("wc", "", "a", "b")
	r.WorkingCopy = "wc"

	c := DefaultCommit()
	c.ShowPreviousIfEmpty = true
	if got := render(t, r, c); got != "" {
		t.Errorf("output = %q, want nothing for a merge with no description", got)
	}
}

func TestCommit_IDs(t *testing.T) {
	r := vcstest.NewRepo()
	r.Add("0123456789abcdef", "fix bug")
	r.WorkingCopy = "0123456789abcdef"

	c := DefaultCommit()
	c.ShowChangeID = true
	c.ShowCommitID = true
	got := render(t, r, c)
	if ansi.Strip(got) != `chg01234 01234567 "fix bug" ` {
		t.Errorf("stripped output = %q", ansi.Strip(got))
	}
	// change id: 4-char prefix in bold bright magenta, rest in bright black
	if !bytes.HasPrefix([]byte(got), []byte("\x1b[0;1;95mchg0\x1b[0;90m1234 ")) {
		t.Errorf("output = %q", got)
	}
}

func TestState(t *testing.T) {
	r := simpleRepo("fix bug")
	r.SetTree("wc", "tree-parent")

	got := render(t, r, DefaultState())
	if got != "\x1b[0;33m(EMPTY) " {
		t.Errorf("output = %q", got)
	}

	st := DefaultState()
	st.Empty.Disabled = true
	if got := render(t, r, st); got != "" {
		t.Errorf("disabled empty item rendered %q", got)
	}
	if r.Calls("Tree") != 1 {
		t.Errorf("trees computed %d times; disabled item should not compute them", r.Calls("Tree"))
	}
}

func TestState_SeveralWarnings(t *testing.T) {
	r := vcstest.NewRepo()
	r.Add("base", "base")
	c := r.Add("wc", "x", "base")
	c.Conflict = true
	c.Immutable = true
	r.WorkingCopy = "wc"

	got := render(t, r, DefaultState())
	if got != "\x1b[0;31m(CONFLICT) \x1b[33m(IMMUTABLE) " {
		t.Errorf("output = %q", got)
	}
}

func TestMetrics(t *testing.T) {
	r := simpleRepo("fix bug")
	r.SetDiff("wc",
		vcs.FileChange{Path: "a.go", Added: 5, Removed: 2},
		vcs.FileChange{Path: "b.go", Added: 1},
	)
	got := render(t, r, DefaultMetrics())
	want := "\x1b[0;35m[\x1b[36m2\x1b[35m \x1b[32m+6\x1b[31m-2\x1b[35m] "
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMetrics_Options(t *testing.T) {
	r := simpleRepo("fix bug")
	r.SetDiff("wc", vcs.FileChange{Path: "gen.go", Added: 12345, Removed: 7})

	m := DefaultMetrics()
	m.GroupDigits = true
	m.ChangedFiles.Disabled = true
	m.RemovedLines.Suffix = "L"
	m.Template = "{changed}{added} {removed} {unknown}"
	got := ansi.Strip(render(t, r, m))
	if got != "+12,345 -7L {unknown} " {
		t.Errorf("output = %q", got)
	}
}

func TestMetrics_NothingChanged(t *testing.T) {
	if got := render(t, simpleRepo("x"), DefaultMetrics()); got != "" {
		t.Errorf("output = %q, want nothing", got)
	}
}

func TestSplitTemplate(t *testing.T) {
	got := splitTemplate("[{changed} {added}{removed}]{")
	want := []segment{
		{text: "["},
		{text: "{changed}", name: "changed", placeholder: true},
		{text: " "},
		{text: "{added}", name: "added", placeholder: true},
		{text: "{removed}", name: "removed", placeholder: true},
		{text: "]{"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("splitTemplate() = %+v, want %+v", got, want)
	}
}

func TestDataIsShared(t *testing.T) {
	r := simpleRepo("fix bug")
	render(t, r, DefaultCommit(), DefaultState(), DefaultCommit())
	if n := r.Calls("Commit"); n != 1 {
		t.Errorf("Commit fetched %d times, want 1", n)
	}
}

func TestParse_EngineError(t *testing.T) {
	r := simpleRepo("fix bug")
	cause := stderrors.New("corrupt object")
	r.Fail("Commit", cause)

	env := newEnv(&vcstest.Engine{Repo: r})
	err := DefaultCommit().Parse(context.Background(), env)
	if !stderrors.Is(err, cause) {
		t.Errorf("Parse() err = %v, want engine error", err)
	}
}

func TestNew(t *testing.T) {
	for _, typ := range Types() {
		m, err := New(typ)
		if err != nil {
			t.Fatalf("New(%q) error = %v", typ, err)
		}
		if m.Type() != typ {
			t.Errorf("New(%q).Type() = %q", typ, m.Type())
		}
	}
	if _, err := New("Clock"); err == nil {
		t.Error("expected error for unknown module type")
	}
	if len(Defaults()) != 5 {
		t.Errorf("Defaults() has %d modules, want 5", len(Defaults()))
	}
}
