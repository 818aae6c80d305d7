package style

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// NoLimit disables truncation.
const NoLimit = -1

// Truncate shortens text whose display width exceeds limit. It keeps whole
// grapheme clusters while their cumulative width stays below limit and then
// appends Ellipsis, so the kept text is never wider than limit. When quoted is
// set the result is wrapped in double quotes after truncation. A negative
// limit disables truncation.
func Truncate(text string, limit int, quoted bool) string {
	out := text
	if limit >= 0 && uniseg.StringWidth(text) > limit {
		var b strings.Builder
		width := 0
		g := uniseg.NewGraphemes(text)
		for g.Next() {
			w := g.Width()
			if width+w >= limit {
				break
			}
			b.WriteString(g.Str())
			width += w
		}
		b.WriteString(Ellipsis)
		out = b.String()
	}
	if quoted {
		return `"` + out + `"`
	}
	return out
}
