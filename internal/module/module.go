// Package module implements the prompt segments: Symbol, Bookmarks, Commit,
// State and Metrics.
//
// Each module works in two phases. Parse asks the state cache for the facts the
// module needs and records them in the shared Data; modules that need the same
// fact reuse what an earlier module parsed. Render writes the module's text
// through a style.Printer using only what Parse recorded.
package module

import (
	"context"
	"fmt"
	"sort"

	"github.com/zhubert/jjline/internal/bookmarks"
	"github.com/zhubert/jjline/internal/diffstat"
	"github.com/zhubert/jjline/internal/state"
	"github.com/zhubert/jjline/internal/style"
)

// Module is one prompt segment.
type Module interface {
	// Type is the module's name in the configuration file.
	Type() string
	Parse(ctx context.Context, env *Env) error
	Render(p *style.Printer, env *Env) error
}

// Env is everything modules share during one invocation.
type Env struct {
	State *state.State
	// Bookmarks holds the global search settings; the Bookmarks module adds its own.
	Bookmarks bookmarks.Options
	// Separator is written after every module that printed something.
	Separator string
	Data      Data
}

// Data holds the facts modules have parsed so far.
type Data struct {
	workspaceParsed bool
	hasWorkspace    bool

	bookmarksParsed bool
	bookmarks       []bookmarks.Bookmark

	commitParsed bool
	commit       *CommitInfo

	idsParsed bool
	changeID  *ID
	commitID  *ID

	warningsParsed bool
	warnings       *Warnings

	diffParsed bool
	diff       *diffstat.Stats
}

// CommitInfo is the description shown for the working copy.
type CommitInfo struct {
	Description string
	// Ahead is set when Description was borrowed from the parent because the
	// working copy has none.
	Ahead bool
}

// ID is a commit or change id with the length of its shortest unique prefix.
type ID struct {
	Value  interface{ Short(n int) string }
	Prefix int
}

// Warnings are the working-copy commit's notable states.
type Warnings struct {
	Conflict  bool
	Divergent bool
	Hidden    bool
	Immutable bool
	// Empty is nil when emptiness could not be determined.
	Empty *bool
}

var registry = map[string]func() Module{
	"Symbol":    func() Module { return DefaultSymbol() },
	"Bookmarks": func() Module { return DefaultBookmarks() },
	"Commit":    func() Module { return DefaultCommit() },
	"State":     func() Module { return DefaultState() },
	"Metrics":   func() Module { return DefaultMetrics() },
}

// New returns a module of the named type with default settings, ready to have
// configuration decoded into it.
func New(typ string) (Module, error) {
	mk, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown module type %q (want one of %v)", typ, Types())
	}
	return mk(), nil
}

// Types lists the known module types.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Defaults returns the default module list.
func Defaults() []Module {
	return []Module{
		DefaultSymbol(),
		DefaultBookmarks(),
		DefaultCommit(),
		DefaultState(),
		DefaultMetrics(),
	}
}
