package cli

import (
	"fmt"

	"github.com/jpl-au/linkstore"
	"github.com/spf13/cobra"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	MaxURLLen uint64
	MaxItems  uint64
}

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	MaxURLLen  uint64 `json:"max_url_len"`
	MaxItems   uint64 `json:"max_items"`
	RegionSize uint64 `json:"region_size"`
	Ceiling    uint64 `json:"ceiling"`
	Fits       bool   `json:"fits"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the region size for a capacity pairing",
		Long: `Compute the region size needed for a link length and item count.

With no flags the built-in limits are used, which is the size every
store is allocated with.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.MaxURLLen, "url-len", linkstore.MaxURLLen, "maximum link length in bytes")
	cmd.Flags().Uint64Var(&opts.MaxItems, "items", linkstore.MaxItems, "maximum number of records")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	size, err := linkstore.Plan(opts.MaxURLLen, opts.MaxItems)
	if err != nil {
		return WrapExitError(ExitCommandError, "plan", err)
	}
	res := PlanResult{
		MaxURLLen:  opts.MaxURLLen,
		MaxItems:   opts.MaxItems,
		RegionSize: size,
		Ceiling:    linkstore.RegionCeiling,
		Fits:       linkstore.Fits(size),
	}

	verdict := "fits"
	if !res.Fits {
		verdict = "exceeds"
	}
	text := fmt.Sprintf("%d + %d*(%d + %d + %d) = %d bytes (%s ceiling %d)\n",
		linkstore.PrefixSize, res.MaxItems, linkstore.LinkLenBytes, res.MaxURLLen,
		linkstore.SubmitterBytes, res.RegionSize, verdict, res.Ceiling)
	if err := opts.formatter(cmd).Success(res, text); err != nil {
		return err
	}
	if !res.Fits {
		return &ExitError{Code: ExitFailure, Message: "region exceeds ceiling"}
	}
	return nil
}
