package style

import (
	"io"

	"github.com/charmbracelet/x/ansi"
)

// sgr appends e's attributes and colors to base and renders the sequence.
// An empty sequence renders as "".
func (e Effective) sgr(base ansi.Style) string {
	s := base
	if e.Attrs&AttrBold != 0 {
		s = s.Bold()
	}
	if e.Attrs&AttrDimmed != 0 {
		s = s.Faint()
	}
	if e.Attrs&AttrItalic != 0 {
		s = s.Italic(true)
	}
	if e.Attrs&AttrUnderline != 0 {
		s = s.Underline(true)
	}
	if e.Attrs&AttrBlink != 0 {
		s = s.Blink(true)
	}
	if e.Attrs&AttrReverse != 0 {
		s = s.Reverse(true)
	}
	if e.Attrs&AttrHidden != 0 {
		s = s.Conceal(true)
	}
	if e.Attrs&AttrStrikethrough != 0 {
		s = s.Strikethrough(true)
	}
	if e.HasFg {
		s = s.ForegroundColor(e.Fg.ANSI())
	}
	if e.HasBg {
		s = s.BackgroundColor(e.Bg.ANSI())
	}
	if len(s) == 0 {
		return ""
	}
	return s.String()
}

// reapply resets the terminal and sets next from scratch.
func reapply(next Effective) string {
	return next.sgr(ansi.Style{}.Reset())
}

// Transition returns the shortest escape sequence that changes the terminal
// from prev to next. prev is nil before anything was emitted.
//
// Turning an attribute or color off needs a full reset followed by next's
// codes; otherwise only the attributes being switched on and the colors that
// changed are written.
func Transition(prev *Effective, next Effective) string {
	if prev == nil {
		if next.IsPlain() {
			return ""
		}
		return reapply(next)
	}
	if *prev == next {
		return ""
	}
	if prev.Attrs&^next.Attrs != 0 || (prev.HasFg && !next.HasFg) || (prev.HasBg && !next.HasBg) {
		return reapply(next)
	}

	extra := Effective{Attrs: next.Attrs &^ prev.Attrs}
	if next.HasFg && (!prev.HasFg || prev.Fg != next.Fg) {
		extra.Fg, extra.HasFg = next.Fg, true
	}
	if next.HasBg && (!prev.HasBg || prev.Bg != next.Bg) {
		extra.Bg, extra.HasBg = next.Bg, true
	}
	return extra.sgr(nil)
}

// Render merges s with fallback and returns the escape sequence that moves the
// terminal from last to the result, along with the result.
func Render(s, fallback Style, last *Effective) (prefix string, next Effective) {
	next = Resolve(Merge(s, fallback))
	return Transition(last, next), next
}

// Printer writes styled text and remembers the last style it emitted so that
// each change costs only the codes that differ.
type Printer struct {
	w    io.Writer
	last *Effective
}

// NewPrinter returns a Printer writing to w with nothing emitted yet.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Apply switches to s, with unset fields taken from fallback.
func (p *Printer) Apply(s, fallback Style) error {
	prefix, next := Render(s, fallback, p.last)
	if prefix != "" {
		if _, err := io.WriteString(p.w, prefix); err != nil {
			return err
		}
	}
	p.last = &next
	return nil
}

// Reset returns the terminal to its default style.
func (p *Printer) Reset() error {
	return p.Apply(Style{}, Style{})
}

// Write writes text in the current style.
func (p *Printer) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// WriteString writes text in the current style.
func (p *Printer) WriteString(s string) (int, error) {
	return io.WriteString(p.w, s)
}

// Last returns the last emitted style; ok is false if nothing was emitted yet.
func (p *Printer) Last() (e Effective, ok bool) {
	if p.last == nil {
		return Effective{}, false
	}
	return *p.last, true
}
