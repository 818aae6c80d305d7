// Package style composes partially specified text styles and renders them as
// minimal ANSI SGR transitions.
package style

// Style is a partially specified text style. Nil fields inherit from a
// fallback style when the style is rendered.
type Style struct {
	Color   *Color `toml:"color,omitempty" yaml:"color,omitempty"`
	BgColor *Color `toml:"bg_color,omitempty" yaml:"bg_color,omitempty"`

	Bold          *bool `toml:"bold,omitempty" yaml:"bold,omitempty"`
	Dimmed        *bool `toml:"dimmed,omitempty" yaml:"dimmed,omitempty"`
	Italic        *bool `toml:"italic,omitempty" yaml:"italic,omitempty"`
	Underline     *bool `toml:"underline,omitempty" yaml:"underline,omitempty"`
	Blink         *bool `toml:"blink,omitempty" yaml:"blink,omitempty"`
	Reverse       *bool `toml:"reverse,omitempty" yaml:"reverse,omitempty"`
	Hidden        *bool `toml:"hidden,omitempty" yaml:"hidden,omitempty"`
	Strikethrough *bool `toml:"strikethrough,omitempty" yaml:"strikethrough,omitempty"`
}

// Fg returns a style with only the foreground color set.
func Fg(c Color) Style {
	return Style{Color: &c}
}

// Bool returns a pointer to b, for building styles in code.
func Bool(b bool) *bool { return &b }

func or[T any](v, fallback *T) *T {
	if v != nil {
		return v
	}
	return fallback
}

// Merge fills every unset field of s from fallback. Fields set in s win.
// Merge(Merge(s, f), f) == Merge(s, f).
func Merge(s, fallback Style) Style {
	return Style{
		Color:         or(s.Color, fallback.Color),
		BgColor:       or(s.BgColor, fallback.BgColor),
		Bold:          or(s.Bold, fallback.Bold),
		Dimmed:        or(s.Dimmed, fallback.Dimmed),
		Italic:        or(s.Italic, fallback.Italic),
		Underline:     or(s.Underline, fallback.Underline),
		Blink:         or(s.Blink, fallback.Blink),
		Reverse:       or(s.Reverse, fallback.Reverse),
		Hidden:        or(s.Hidden, fallback.Hidden),
		Strikethrough: or(s.Strikethrough, fallback.Strikethrough),
	}
}

// Attr is a set of enabled text attributes.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDimmed
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// Effective is a fully resolved style: what the terminal is actually showing.
// The zero value is the terminal default. Effective values are comparable.
type Effective struct {
	Fg, Bg       Color
	HasFg, HasBg bool
	Attrs        Attr
}

// IsPlain reports whether e is the terminal default.
func (e Effective) IsPlain() bool {
	return e == Effective{}
}

// Resolve converts s to the style the terminal will show. Unset attributes are off
// and unset colors are the terminal default.
func Resolve(s Style) Effective {
	var e Effective
	if s.Color != nil {
		e.Fg, e.HasFg = *s.Color, true
	}
	if s.BgColor != nil {
		e.Bg, e.HasBg = *s.BgColor, true
	}
	flags := []struct {
		v    *bool
		attr Attr
	}{
		{s.Bold, AttrBold},
		{s.Dimmed, AttrDimmed},
		{s.Italic, AttrItalic},
		{s.Underline, AttrUnderline},
		{s.Blink, AttrBlink},
		{s.Reverse, AttrReverse},
		{s.Hidden, AttrHidden},
		{s.Strikethrough, AttrStrikethrough},
	}
	for _, f := range flags {
		if f.v != nil && *f.v {
			e.Attrs |= f.attr
		}
	}
	return e
}
