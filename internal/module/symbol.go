package module

import (
	"context"

	"github.com/zhubert/jjline/internal/style"
)

// Symbol prints a fixed marker when the directory is inside a workspace.
type Symbol struct {
	Symbol string `toml:"symbol"`
	style.Style
}

// DefaultSymbol returns the Symbol module's defaults.
func DefaultSymbol() *Symbol {
	return &Symbol{Symbol: "󱗆 "}
}

func (s *Symbol) Type() string { return "Symbol" }

func (s *Symbol) Parse(ctx context.Context, env *Env) error {
	if env.Data.workspaceParsed {
		return nil
	}
	_, ok, err := env.State.Workspace(ctx)
	if err != nil {
		return err
	}
	env.Data.workspaceParsed = true
	env.Data.hasWorkspace = ok
	return nil
}

// Render writes the symbol. The symbol carries its own spacing, so no module
// separator follows it.
func (s *Symbol) Render(p *style.Printer, env *Env) error {
	if !env.Data.hasWorkspace || s.Symbol == "" {
		return nil
	}
	if err := p.Apply(s.Style, style.Fg(style.Blue)); err != nil {
		return err
	}
	_, err := p.WriteString(s.Symbol)
	return err
}
