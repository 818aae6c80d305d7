package module

import (
	"context"
	"strings"

	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/style"
)

// Commit prints the first line of the working copy's description, optionally
// preceded by its change and commit ids.
type Commit struct {
	// PreviousMessageSymbol marks a description borrowed from the parent.
	PreviousMessageSymbol string `toml:"previous_message_symbol"`
	// MaxLength truncates the description to this display width; 0 disables truncation.
	MaxLength int `toml:"max_length"`
	// ShowPreviousIfEmpty shows the parent's description when the working copy
	// has none, as in a squash workflow.
	ShowPreviousIfEmpty bool   `toml:"show_previous_if_empty"`
	EmptyText           string `toml:"empty_text"`
	SurroundWithQuotes  bool   `toml:"surround_with_quotes"`

	ShowChangeID  bool        `toml:"show_change_id"`
	ShowCommitID  bool        `toml:"show_commit_id"`
	IDLength      int         `toml:"id_length"`
	IDPrefixStyle style.Style `toml:"id_prefix_style"`
	IDRestStyle   style.Style `toml:"id_rest_style"`

	style.Style
}

// DefaultCommit returns the Commit module's defaults.
func DefaultCommit() *Commit {
	return &Commit{
		PreviousMessageSymbol: "⇣",
		MaxLength:             24,
		EmptyText:             "(no description set)",
		SurroundWithQuotes:    true,
		IDLength:              8,
	}
}

func (c *Commit) Type() string { return "Commit" }

func (c *Commit) Parse(ctx context.Context, env *Env) error {
	if err := c.parseDescription(ctx, env); err != nil {
		return err
	}
	if c.ShowChangeID || c.ShowCommitID {
		return parseIDs(ctx, env)
	}
	return nil
}

func (c *Commit) parseDescription(ctx context.Context, env *Env) error {
	if env.Data.commitParsed {
		return nil
	}
	wc, ok, err := env.State.WorkingCopyCommit(ctx)
	if err != nil {
		return err
	}
	if !ok {
		env.Data.commitParsed = true
		return nil
	}

	info := &CommitInfo{Description: wc.Description}
	if wc.Description == "" && c.ShowPreviousIfEmpty {
		parents, err := env.State.ParentCommits(ctx)
		if err != nil {
			return err
		}
		info = nil
		if len(parents) == 1 {
			info = &CommitInfo{Description: parents[0].Description, Ahead: true}
		}
	}
	env.Data.commit = info
	env.Data.commitParsed = true
	return nil
}

func parseIDs(ctx context.Context, env *Env) error {
	if env.Data.idsParsed {
		return nil
	}
	const op = errors.Op("module.Commit")

	wc, ok, err := env.State.WorkingCopyCommit(ctx)
	if err != nil {
		return err
	}
	if !ok {
		env.Data.idsParsed = true
		return nil
	}
	repo, _, err := env.State.Repo(ctx)
	if err != nil {
		return err
	}
	n, err := repo.ShortestCommitPrefix(ctx, wc)
	if err != nil {
		return errors.EngineFailed(op, err)
	}
	env.Data.commitID = &ID{Value: wc.ID, Prefix: n}
	if wc.ChangeID != "" {
		n, err := repo.ShortestChangePrefix(ctx, wc)
		if err != nil {
			return errors.EngineFailed(op, err)
		}
		env.Data.changeID = &ID{Value: wc.ChangeID, Prefix: n}
	}
	env.Data.idsParsed = true
	return nil
}

// firstLine returns desc up to the first line break.
func firstLine(desc string) string {
	if i := strings.IndexAny(desc, "\r\n"); i >= 0 {
		return desc[:i]
	}
	return desc
}

func (c *Commit) Render(p *style.Printer, env *Env) error {
	info := env.Data.commit
	wroteID := false
	if c.ShowChangeID && env.Data.changeID != nil {
		if err := c.renderID(p, *env.Data.changeID, style.BrightMagenta); err != nil {
			return err
		}
		wroteID = true
	}
	if c.ShowCommitID && env.Data.commitID != nil {
		if err := c.renderID(p, *env.Data.commitID, style.BrightBlue); err != nil {
			return err
		}
		wroteID = true
	}
	if info == nil {
		if wroteID {
			_, err := p.WriteString(env.Separator)
			return err
		}
		return nil
	}

	if err := p.Apply(c.Style, style.Style{}); err != nil {
		return err
	}
	text := firstLine(info.Description)
	if info.Description == "" {
		text = c.EmptyText
	}
	limit := style.NoLimit
	if c.MaxLength > 0 {
		limit = c.MaxLength
	}
	out := style.Truncate(text, limit, c.SurroundWithQuotes)
	if info.Ahead {
		out += c.PreviousMessageSymbol
	}
	_, err := p.WriteString(out + env.Separator)
	return err
}

// renderID writes the id's unique prefix and the rest of its first IDLength
// characters in separate styles, followed by a space.
func (c *Commit) renderID(p *style.Printer, id ID, prefixColor style.Color) error {
	short := id.Value.Short(c.IDLength)
	n := min(id.Prefix, len(short))

	if err := p.Apply(c.IDPrefixStyle, style.Style{Color: &prefixColor, Bold: style.Bool(true)}); err != nil {
		return err
	}
	if _, err := p.WriteString(short[:n]); err != nil {
		return err
	}
	if n < len(short) {
		if err := p.Apply(c.IDRestStyle, style.Fg(style.BrightBlack)); err != nil {
			return err
		}
		if _, err := p.WriteString(short[n:]); err != nil {
			return err
		}
	}
	_, err := p.WriteString(" ")
	return err
}
