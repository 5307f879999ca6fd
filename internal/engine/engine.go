package engine

import (
	"log/slog"

	"github.com/emberfall/overseer/internal/journal"
	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/sim"
)

// DefaultSafetyNetInterval is the default periodic re-evaluation
// interval in ticks. A tuning constant, not semantics.
const DefaultSafetyNetInterval = 10

// Config holds the engine's tuning knobs.
type Config struct {
	// SafetyNetInterval re-evaluates any runner not touched by an event
	// within this many ticks. Catches conditions over state that
	// changes without a dedicated event.
	SafetyNetInterval int64

	// JournalCapacity bounds each layer's decision log.
	JournalCapacity int
}

func DefaultConfig() Config {
	return Config{
		SafetyNetInterval: DefaultSafetyNetInterval,
		JournalCapacity:   journal.DefaultCapacity,
	}
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSafetyNetInterval overrides the periodic re-evaluation interval.
func WithSafetyNetInterval(ticks int64) Option {
	return func(e *Engine) { e.cfg.SafetyNetInterval = ticks }
}

// WithJournalCapacity overrides both decision logs' capacity.
func WithJournalCapacity(capacity int) Option {
	return func(e *Engine) { e.cfg.JournalCapacity = capacity }
}

// WithLogger replaces the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is the single-threaded evaluation scheduler. All mutation of
// runner automation state and of the libraries flows through it (or
// through library commands issued on the same simulation thread), so no
// locking exists anywhere in the evaluation path.
type Engine struct {
	world *sim.World
	lib   *library.Library
	cfg   Config
	log   *slog.Logger

	macroLog *journal.Journal
	microLog *journal.Journal

	// Dirty sets: runner ids scheduled for re-evaluation. Entries added
	// while a pass is running carry over to the next tick.
	dirtyMacro map[string]bool
	dirtyMicro map[string]bool

	// Last evaluated tick per runner per layer, feeding the safety net.
	lastMacroEval map[string]int64
	lastMicroEval map[string]int64

	// Fingerprint of the last journaled decision per runner per layer.
	// An unchanged repeated decision (idempotent action, persisting
	// stall) is logged once, not once per pass.
	lastMacroFire map[string]string
	lastMicroFire map[string]string
}

// New creates an engine over a world and a library.
func New(w *sim.World, lib *library.Library, opts ...Option) *Engine {
	e := &Engine{
		world:         w,
		lib:           lib,
		cfg:           DefaultConfig(),
		log:           slog.Default(),
		dirtyMacro:    make(map[string]bool),
		dirtyMicro:    make(map[string]bool),
		lastMacroEval: make(map[string]int64),
		lastMicroEval: make(map[string]int64),
		lastMacroFire: make(map[string]string),
		lastMicroFire: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.macroLog = journal.New(e.cfg.JournalCapacity)
	e.microLog = journal.New(e.cfg.JournalCapacity)
	return e
}

func (e *Engine) World() *sim.World         { return e.world }
func (e *Engine) Library() *library.Library { return e.lib }

// MacroJournal is the macro layer's decision log.
func (e *Engine) MacroJournal() *journal.Journal { return e.macroLog }

// MicroJournal is the micro layer's decision log.
func (e *Engine) MicroJournal() *journal.Journal { return e.microLog }

// Tick advances the world one tick and runs both evaluation layers.
// Micro runs before macro, each over runners in creation order; the
// order is fixed so two runs over the same inputs journal identically.
func (e *Engine) Tick() {
	events := e.world.Advance()
	e.routeEvents(events)
	e.safetyNet()
	e.retryParkedSequences()

	for _, r := range e.world.Runners() {
		if e.dirtyMicro[r.ID] {
			delete(e.dirtyMicro, r.ID)
			e.evaluateMicro(r)
		}
	}
	for _, r := range e.world.Runners() {
		if e.dirtyMacro[r.ID] {
			delete(e.dirtyMacro, r.ID)
			e.evaluateMacro(r)
		}
	}
}

// Run advances n ticks.
func (e *Engine) Run(n int) {
	for i := 0; i < n; i++ {
		e.Tick()
	}
}

// routeEvents completes sequence steps driven by mechanical completion
// and marks runners dirty for the layers each event is relevant to.
func (e *Engine) routeEvents(events []sim.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case sim.EventArrived:
			if r := e.world.RunnerByID(ev.RunnerID); r != nil {
				e.onArrival(r)
			}
			e.markDirty(ev.RunnerID, true, true)
		case sim.EventDepositComplete:
			if r := e.world.RunnerByID(ev.RunnerID); r != nil {
				e.onDepositComplete(r)
			}
			e.markDirty(ev.RunnerID, true, true)
		case sim.EventInventoryChanged, sim.EventRunnerStateChanged:
			e.markDirty(ev.RunnerID, true, true)
		case sim.EventSkillLeveled:
			e.markDirty(ev.RunnerID, true, true)
		case sim.EventBankChanged:
			// The bank is shared: any deposit may open another runner's
			// macro window.
			for _, r := range e.world.Runners() {
				e.markDirty(r.ID, false, true)
			}
		}
	}
}

func (e *Engine) markDirty(runnerID string, micro, macro bool) {
	if micro {
		e.dirtyMicro[runnerID] = true
	}
	if macro {
		e.dirtyMacro[runnerID] = true
	}
}

// safetyNet schedules any runner whose last evaluation is older than
// the configured interval. A runner never evaluated is scheduled
// immediately.
func (e *Engine) safetyNet() {
	tick := e.world.Tick
	for _, r := range e.world.Runners() {
		if last, ok := e.lastMicroEval[r.ID]; !ok || tick-last >= e.cfg.SafetyNetInterval {
			e.dirtyMicro[r.ID] = true
		}
		if last, ok := e.lastMacroEval[r.ID]; !ok || tick-last >= e.cfg.SafetyNetInterval {
			e.dirtyMacro[r.ID] = true
		}
	}
}

// retryParkedSequences re-attempts step entry for runners parked on a
// sequence configuration warning, so a fixed reference heals without
// any reassignment.
func (e *Engine) retryParkedSequences() {
	for _, r := range e.world.Runners() {
		if hasWarning(r, warnSequence) && r.Automation.SequenceID != "" {
			e.enterStep(r)
		}
	}
}
