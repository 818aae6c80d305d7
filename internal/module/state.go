package module

import (
	"context"

	"github.com/zhubert/jjline/internal/style"
)

// StateItem is one warning the State module can show.
type StateItem struct {
	Text     string `toml:"text"`
	Disabled bool   `toml:"disabled"`
	style.Style
}

// State prints warnings about the working-copy commit: conflicted, divergent,
// hidden, immutable or empty.
type State struct {
	Separator string    `toml:"separator"`
	Conflict  StateItem `toml:"conflict"`
	Divergent StateItem `toml:"divergent"`
	Hidden    StateItem `toml:"hidden"`
	Immutable StateItem `toml:"immutable"`
	Empty     StateItem `toml:"empty"`
}

// DefaultState returns the State module's defaults.
func DefaultState() *State {
	return &State{
		Separator: " ",
		Conflict:  StateItem{Text: "(CONFLICT)"},
		Divergent: StateItem{Text: "(DIVERGENT)"},
		Hidden:    StateItem{Text: "(HIDDEN)"},
		Immutable: StateItem{Text: "(IMMUTABLE)"},
		Empty:     StateItem{Text: "(EMPTY)"},
	}
}

func (s *State) Type() string { return "State" }

func (s *State) Parse(ctx context.Context, env *Env) error {
	if env.Data.warningsParsed {
		return nil
	}
	wc, ok, err := env.State.WorkingCopyCommit(ctx)
	if err != nil {
		return err
	}
	if !ok {
		env.Data.warningsParsed = true
		return nil
	}
	w := &Warnings{
		Conflict:  wc.Conflict,
		Divergent: wc.Divergent,
		Hidden:    wc.Hidden,
		Immutable: wc.Immutable,
	}
	if !s.Empty.Disabled {
		empty, known, err := env.State.CommitIsEmpty(ctx)
		if err != nil {
			return err
		}
		if known {
			w.Empty = &empty
		}
	}
	env.Data.warnings = w
	env.Data.warningsParsed = true
	return nil
}

func (s *State) Render(p *style.Printer, env *Env) error {
	w := env.Data.warnings
	if w == nil {
		return nil
	}
	items := []struct {
		on       bool
		item     StateItem
		fallback style.Color
	}{
		{w.Conflict, s.Conflict, style.Red},
		{w.Divergent, s.Divergent, style.Cyan},
		{w.Hidden, s.Hidden, style.Yellow},
		{w.Immutable, s.Immutable, style.Yellow},
		{w.Empty != nil && *w.Empty, s.Empty, style.Yellow},
	}

	printed := 0
	for _, it := range items {
		if !it.on || it.item.Disabled {
			continue
		}
		if printed > 0 {
			if _, err := p.WriteString(s.Separator); err != nil {
				return err
			}
		}
		if err := p.Apply(it.item.Style, style.Fg(it.fallback)); err != nil {
			return err
		}
		if _, err := p.WriteString(it.item.Text); err != nil {
			return err
		}
		printed++
	}
	if printed == 0 {
		return nil
	}
	_, err := p.WriteString(env.Separator)
	return err
}
