package prompt

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/jjline/internal/logger"
)

// fallbackOutput is what the watchdog prints when it gives up: a reset so no
// partial style leaks into the shell prompt, and a space.
var fallbackOutput = ansi.Style{}.Reset().String() + " "

// Watchdog bounds how long a prompt may take. If Done is not called before the
// timeout, it writes a style reset and a space and ends the process with exit
// code 0, so a slow repository leaves the shell with a usable prompt instead of
// a hung one. In-flight engine calls are not cancelled.
type Watchdog struct {
	timer *time.Timer
	done  atomic.Bool
	fired atomic.Bool
	w     io.Writer
	exit  func(code int)
}

// StartWatchdog arms a watchdog. exit is called with 0 when it fires.
func StartWatchdog(timeout time.Duration, w io.Writer, exit func(code int)) *Watchdog {
	wd := &Watchdog{w: w, exit: exit}
	wd.timer = time.AfterFunc(timeout, wd.fire)
	return wd
}

func (wd *Watchdog) fire() {
	if wd.done.Load() {
		return
	}
	wd.fired.Store(true)
	logger.Warn("prompt timed out, printing fallback")
	_, _ = io.WriteString(wd.w, fallbackOutput)
	wd.exit(0)
}

// Done records that the prompt finished and disarms the timer.
func (wd *Watchdog) Done() {
	wd.done.Store(true)
	wd.timer.Stop()
}

// Fired reports whether the deadline passed before Done.
func (wd *Watchdog) Fired() bool {
	return wd.fired.Load()
}
