package module

import (
	"context"
	"strconv"

	"github.com/zhubert/jjline/internal/bookmarks"
	"github.com/zhubert/jjline/internal/style"
)

// Bookmarks prints the nearest bookmarks and how far behind the working copy
// they are.
type Bookmarks struct {
	// Separator goes between bookmark names.
	Separator string `toml:"separator"`
	// BehindSymbol prefixes the distance of bookmarks behind the working copy.
	BehindSymbol string `toml:"behind_symbol"`
	// MaxBookmarks limits how many names are shown; 0 shows all.
	MaxBookmarks int `toml:"max_bookmarks"`
	// MaxLength truncates each name to this display width; 0 disables truncation.
	MaxLength          int                   `toml:"max_length"`
	SurroundWithQuotes bool                  `toml:"surround_with_quotes"`
	IgnoreEmptyCommits bookmarks.IgnoreEmpty `toml:"ignore_empty_commits"`
	style.Style
}

// DefaultBookmarks returns the Bookmarks module's defaults.
func DefaultBookmarks() *Bookmarks {
	return &Bookmarks{
		Separator:          " ",
		BehindSymbol:       "⇡",
		MaxBookmarks:       1,
		IgnoreEmptyCommits: bookmarks.IgnoreNone,
	}
}

func (b *Bookmarks) Type() string { return "Bookmarks" }

func (b *Bookmarks) Parse(ctx context.Context, env *Env) error {
	if env.Data.bookmarksParsed {
		return nil
	}
	opts := env.Bookmarks
	opts.IgnoreEmpty = b.IgnoreEmptyCommits
	found, err := bookmarks.NewResolver(env.State, opts).Resolve(ctx)
	if err != nil {
		return err
	}
	env.Data.bookmarksParsed = true
	env.Data.bookmarks = found
	return nil
}

func (b *Bookmarks) Render(p *style.Printer, env *Env) error {
	if len(env.Data.bookmarks) == 0 {
		return nil
	}
	if err := p.Apply(b.Style, style.Fg(style.Magenta)); err != nil {
		return err
	}

	limit := -1
	if b.MaxBookmarks > 0 {
		limit = b.MaxBookmarks
	}
	maxLength := style.NoLimit
	if b.MaxLength > 0 {
		maxLength = b.MaxLength
	}

	shown, more := bookmarks.Limit(env.Data.bookmarks, limit)
	var out []byte
	for i, bm := range shown {
		if i > 0 {
			out = append(out, b.Separator...)
		}
		out = append(out, style.Truncate(bm.Name, maxLength, b.SurroundWithQuotes)...)
		if bm.Distance != 0 {
			out = append(out, b.BehindSymbol...)
			out = strconv.AppendInt(out, int64(bm.Distance), 10)
		}
	}
	if more {
		out = append(out, b.Separator...)
		out = append(out, style.Ellipsis...)
	}
	out = append(out, env.Separator...)
	_, err := p.Write(out)
	return err
}
