package engine

import (
	"fmt"
	"strings"

	"github.com/emberfall/overseer/internal/sim"
)

// Warning prefixes identify which evaluation path raised a runner's
// ActiveWarning, so the same path (and only it) clears the warning on
// recovery. Exactly one warning is surfaced at a time.
const (
	warnMacro    = "macro:"
	warnMicro    = "micro:"
	warnSequence = "sequence:"
)

func hasWarning(r *sim.Runner, prefix string) bool {
	return strings.HasPrefix(r.Automation.Warning, prefix)
}

// setWarning parks the runner with a diagnostic. Logged once per
// distinct warning value, not once per pass.
func (e *Engine) setWarning(r *sim.Runner, prefix, format string, args ...any) {
	w := prefix + " " + fmt.Sprintf(format, args...)
	if r.Automation.Warning == w {
		return
	}
	r.Automation.Warning = w
	e.log.Warn("runner parked", "runner", r.ID, "warning", w)
}

// clearWarning clears the runner's warning if this path raised it.
func (e *Engine) clearWarning(r *sim.Runner, prefix string) {
	if hasWarning(r, prefix) {
		e.log.Info("runner warning cleared", "runner", r.ID, "warning", r.Automation.Warning)
		r.Automation.Warning = ""
	}
}
