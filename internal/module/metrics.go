package module

import (
	"context"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/zhubert/jjline/internal/style"
)

// Counter configures how one diff counter is shown.
type Counter struct {
	Prefix   string `toml:"prefix"`
	Suffix   string `toml:"suffix"`
	Disabled bool   `toml:"disabled"`
	style.Style
}

// Metrics prints how many files and lines the working copy changes.
type Metrics struct {
	// Template lays out the counters; {changed}, {added} and {removed} are
	// replaced by the counters and everything else is written literally.
	Template     string  `toml:"template"`
	ChangedFiles Counter `toml:"changed_files"`
	AddedLines   Counter `toml:"added_lines"`
	RemovedLines Counter `toml:"removed_lines"`
	// GroupDigits writes large counts with thousands separators.
	GroupDigits bool `toml:"group_digits"`
	style.Style
}

// DefaultMetrics returns the Metrics module's defaults.
func DefaultMetrics() *Metrics {
	return &Metrics{
		Template:     "[{changed} {added}{removed}]",
		ChangedFiles: Counter{},
		AddedLines:   Counter{Prefix: "+"},
		RemovedLines: Counter{Prefix: "-"},
	}
}

func (m *Metrics) Type() string { return "Metrics" }

func (m *Metrics) Parse(ctx context.Context, env *Env) error {
	if env.Data.diffParsed {
		return nil
	}
	stats, ok, err := env.State.DiffStats(ctx)
	if err != nil {
		return err
	}
	if ok {
		env.Data.diff = &stats
	}
	env.Data.diffParsed = true
	return nil
}

func (m *Metrics) format(n int) string {
	if m.GroupDigits {
		return humanize.Comma(int64(n))
	}
	return strconv.Itoa(n)
}

func (m *Metrics) Render(p *style.Printer, env *Env) error {
	d := env.Data.diff
	if d == nil || d.IsEmpty() {
		return nil
	}
	counters := map[string]struct {
		value    int
		counter  Counter
		fallback style.Color
	}{
		"changed": {d.FilesChanged, m.ChangedFiles, style.Cyan},
		"added":   {d.LinesAdded, m.AddedLines, style.Green},
		"removed": {d.LinesRemoved, m.RemovedLines, style.Red},
	}

	for _, seg := range splitTemplate(m.Template) {
		c, ok := counters[seg.name]
		if !seg.placeholder || !ok {
			if err := p.Apply(m.Style, style.Fg(style.Magenta)); err != nil {
				return err
			}
			if _, err := p.WriteString(seg.text); err != nil {
				return err
			}
			continue
		}
		if c.counter.Disabled {
			continue
		}
		if err := p.Apply(c.counter.Style, style.Fg(c.fallback)); err != nil {
			return err
		}
		if _, err := p.WriteString(c.counter.Prefix + m.format(c.value) + c.counter.Suffix); err != nil {
			return err
		}
	}
	_, err := p.WriteString(env.Separator)
	return err
}

type segment struct {
	text        string
	name        string
	placeholder bool
}

// splitTemplate cuts a template into literal text and {name} placeholders.
// An unterminated brace is literal text.
func splitTemplate(tmpl string) []segment {
	var segs []segment
	for tmpl != "" {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			segs = append(segs, segment{text: tmpl})
			break
		}
		closing := strings.IndexByte(tmpl[open:], '}')
		if closing < 0 {
			segs = append(segs, segment{text: tmpl})
			break
		}
		closing += open
		if open > 0 {
			segs = append(segs, segment{text: tmpl[:open]})
		}
		segs = append(segs, segment{
			text:        tmpl[open : closing+1],
			name:        tmpl[open+1 : closing],
			placeholder: true,
		})
		tmpl = tmpl[closing+1:]
	}
	return segs
}
