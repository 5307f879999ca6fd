package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfall/overseer/internal/harness"
	"github.com/emberfall/overseer/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Layer  string
	Runner string
}

// TraceResult is the payload for trace output.
type TraceResult struct {
	Scenario string          `json:"scenario"`
	Ticks    int             `json:"ticks"`
	Entries  []journal.Entry `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Run a scenario and print its decision journals",
		Long: `Run a scenario and print every journaled decision, oldest first.
Assertions still evaluate but failures do not abort the trace; this
command exists to inspect why rules fired.

Example:
  overseer trace ./scenarios/iron_quota.yaml --layer macro
  overseer trace ./scenarios/iron_quota.yaml --runner r1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "only this layer (macro|micro)")
	cmd.Flags().StringVar(&opts.Runner, "runner", "", "only this runner ID")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command, path string) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	switch opts.Layer {
	case "", "macro", "micro":
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid layer %q: must be macro or micro", opts.Layer))
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(s)
	if err != nil {
		f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario failed to run", err)
	}

	entries := mergeEntries(result, opts.Layer, opts.Runner)

	if opts.Format == "json" {
		return f.Success(TraceResult{Scenario: s.Name, Ticks: s.Ticks, Entries: entries})
	}

	for _, e := range entries {
		fmt.Fprintln(f.Writer, formatEntry(e))
	}
	if !result.Pass {
		for _, msg := range result.Errors {
			fmt.Fprintf(f.ErrWriter, "assertion failed: %s\n", msg)
		}
	}
	return nil
}

// mergeEntries interleaves both journals in tick order, applying the
// layer and runner filters. Ties keep micro before macro, matching the
// engine's per-tick evaluation order.
func mergeEntries(r *harness.Result, layer, runner string) []journal.Entry {
	macro, micro := r.Macro, r.Micro
	if layer == "micro" {
		macro = nil
	}
	if layer == "macro" {
		micro = nil
	}

	entries := make([]journal.Entry, 0, len(macro)+len(micro))
	i, j := 0, 0
	for i < len(macro) || j < len(micro) {
		switch {
		case i >= len(macro), j < len(micro) && micro[j].Tick <= macro[i].Tick:
			entries = append(entries, micro[j])
			j++
		default:
			entries = append(entries, macro[i])
			i++
		}
	}

	if runner == "" {
		return entries
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.RunnerID == runner {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func formatEntry(e journal.Entry) string {
	label := ""
	if e.RuleLabel != "" {
		label = fmt.Sprintf(" (%s)", e.RuleLabel)
	}
	suffix := ""
	if e.Deferred {
		suffix = " [deferred]"
	}
	return fmt.Sprintf("[%s] %s %s #%d%s %s -> %s%s",
		e.GameTime, e.RunnerID, e.Layer, e.RuleIndex, label, e.Snapshot, e.ActionDetail, suffix)
}
