// Package prompt runs the configured modules in order and writes the prompt segment.
package prompt

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zhubert/jjline/internal/bookmarks"
	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/module"
	"github.com/zhubert/jjline/internal/state"
	"github.com/zhubert/jjline/internal/style"
)

// Options configures a Pipeline.
type Options struct {
	Modules []module.Module
	// Separator is written after each module that printed something.
	Separator string
	// ResetColor appends a reset to the default style after the last module.
	ResetColor bool
	// Timeout arms a Watchdog for the run when positive.
	Timeout   time.Duration
	Bookmarks bookmarks.Options
	// Exit ends the process when the watchdog fires. Defaults to os.Exit.
	Exit func(code int)
}

// Pipeline renders modules one after another, carrying the last emitted style
// from one module to the next.
type Pipeline struct {
	opts Options
	log  *slog.Logger
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	return &Pipeline{opts: opts, log: logger.ComponentLogger("prompt")}
}

// Run parses and renders every module in order, writing to w. The first engine
// error aborts the run; whatever was already written stays written.
func (p *Pipeline) Run(ctx context.Context, st *state.State, w io.Writer) error {
	const op = errors.Op("prompt.Run")

	if p.opts.Timeout > 0 {
		wd := StartWatchdog(p.opts.Timeout, w, p.opts.Exit)
		defer wd.Done()
	}

	env := &module.Env{
		State:     st,
		Bookmarks: p.opts.Bookmarks,
		Separator: p.opts.Separator,
	}
	printer := style.NewPrinter(w)

	for _, m := range p.opts.Modules {
		start := time.Now()
		if err := m.Parse(ctx, env); err != nil {
			p.log.Error("parse failed", "module", m.Type(), "error", err)
			return err
		}
		if err := m.Render(printer, env); err != nil {
			return errors.E(op, errors.KindIO, "write "+m.Type(), err)
		}
		p.log.Debug("module rendered", "module", m.Type(), "elapsed", time.Since(start))
	}

	if p.opts.ResetColor {
		if err := printer.Reset(); err != nil {
			return errors.E(op, errors.KindIO, "write reset", err)
		}
	}
	return nil
}
