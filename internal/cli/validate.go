package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberfall/overseer/internal/compiler"
)

// ValidateResult is the payload for validate output.
type ValidateResult struct {
	Profile   string                     `json:"profile"`
	Rulesets  int                        `json:"rulesets"`
	Sequences int                        `json:"sequences"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Compile and cross-check an automation profile",
		Long: `Compile a CUE automation profile (a file or a directory of files) and
cross-check it: unique ids, assign targets that exist, work steps that
reference micro rulesets.

Example:
  overseer validate ./profiles/mining.cue
  overseer validate ./profiles --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := LoadProfile(path)
	if err != nil {
		f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "profile failed to compile", err)
	}

	result := ValidateResult{
		Profile:   path,
		Rulesets:  len(p.Rulesets),
		Sequences: len(p.Sequences),
		Errors:    compiler.Validate(p),
	}

	if len(result.Errors) > 0 {
		if opts.Format == "json" {
			f.Error("profile has validation errors", result)
		} else {
			for _, e := range result.Errors {
				fmt.Fprintln(f.Writer, e.Error())
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation errors", len(result.Errors)))
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "profile OK: %d rulesets, %d sequences\n", result.Rulesets, result.Sequences)
	return nil
}
