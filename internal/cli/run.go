package cli

import (
	"context"
	"fmt"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"

	"github.com/emberfall/overseer/internal/compiler"
	"github.com/emberfall/overseer/internal/harness"
	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Ticks    int
}

// RunResult is the payload for run output.
type RunResult struct {
	Scenario string   `json:"scenario"`
	Ticks    int      `json:"ticks"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`
	Macro    int      `json:"macro_decisions"`
	Micro    int      `json:"micro_decisions"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and report its assertions",
		Long: `Run a scenario: compile its profile, build the world, tick the engine,
and evaluate the scenario's assertions. With --db, the compiled library
and each runner's final assignment persist to a SQLite database.

Example:
  overseer run ./scenarios/iron_quota.yaml
  overseer run ./scenarios/iron_quota.yaml --db ./overseer.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the compiled library to this SQLite database")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "override the scenario's tick count")

	return cmd
}

func runScenario(opts *RunOptions, cmd *cobra.Command, path string) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	if opts.Ticks > 0 {
		s.Ticks = opts.Ticks
	}

	slog.Info("running scenario", "name", s.Name, "ticks", s.Ticks)
	result, err := harness.Run(s)
	if err != nil {
		f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario failed to run", err)
	}

	if opts.Database != "" {
		if err := persistLibrary(cmd.Context(), opts.Database, s); err != nil {
			f.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to persist library", err)
		}
		slog.Info("library persisted", "db", opts.Database)
	}

	payload := RunResult{
		Scenario: s.Name,
		Ticks:    s.Ticks,
		Pass:     result.Pass,
		Errors:   result.Errors,
		Macro:    len(result.Macro),
		Micro:    len(result.Micro),
	}

	if opts.Format == "json" {
		if err := f.Success(payload); err != nil {
			return err
		}
	} else {
		status := "PASS"
		if !result.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(f.Writer, "%s %s: %d ticks, %d macro decisions, %d micro decisions\n",
			status, s.Name, s.Ticks, payload.Macro, payload.Micro)
		for _, msg := range result.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", msg)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertions failed", len(result.Errors)))
	}
	return nil
}

// persistLibrary compiles the scenario's profile again and saves it,
// so the database reflects exactly what the scenario ran.
func persistLibrary(ctx context.Context, dbPath string, s *harness.Scenario) error {
	v := cuecontext.New().CompileString(s.Profile)
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile profile: %w", err)
	}
	p, err := compiler.CompileProfile(v)
	if err != nil {
		return err
	}

	lib := library.New()
	for i := range p.Rulesets {
		if err := lib.PutRuleset(&p.Rulesets[i]); err != nil {
			return err
		}
	}
	for i := range p.Sequences {
		if err := lib.PutSequence(&p.Sequences[i]); err != nil {
			return err
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveLibrary(ctx, lib)
}
