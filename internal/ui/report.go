package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Status is the outcome of one doctor check.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "ok"
	}
}

func (s Status) badge() string {
	switch s {
	case StatusWarn:
		return WarnStyle.Render("!")
	case StatusFail:
		return FailStyle.Render("✗")
	default:
		return OKStyle.Render("✓")
	}
}

// Check is one line of a doctor report.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// Report lays out checks as an aligned list under a title.
type Report struct {
	Title  string
	Checks []Check
}

// Add appends a check.
func (r *Report) Add(name string, status Status, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
}

// Worst returns the most severe status in the report.
func (r *Report) Worst() Status {
	worst := StatusOK
	for _, c := range r.Checks {
		worst = max(worst, c.Status)
	}
	return worst
}

// Render formats the report. Names are padded by display width so wide
// characters keep the details aligned.
func (r *Report) Render() string {
	width := 0
	for _, c := range r.Checks {
		width = max(width, runewidth.StringWidth(c.Name))
	}

	var b strings.Builder
	if r.Title != "" {
		b.WriteString(TitleStyle.Render(r.Title))
		b.WriteString("\n")
	}
	for _, c := range r.Checks {
		b.WriteString(" ")
		b.WriteString(c.Status.badge())
		b.WriteString(" ")
		b.WriteString(LabelStyle.Render(runewidth.FillRight(c.Name, width)))
		if c.Detail != "" {
			b.WriteString("  ")
			b.WriteString(MutedStyle.Render(c.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
