package cli

import (
	"fmt"
	"strings"

	"github.com/jpl-au/linkstore"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [location]",
		Short: "Create an empty store",
		Long: `Create an empty store at location, paid for by the caller.

If location is omitted a fresh one is generated and printed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			location := linkstore.NewLocation()
			if len(args) == 1 {
				location = args[0]
			}
			return runInit(rootOpts, cmd, location)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command, location string) error {
	caller, err := opts.caller()
	if err != nil {
		return err
	}
	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	if err := m.Initialize(caller, location); err != nil {
		return err
	}
	data := map[string]any{"location": location, "owner": caller.ID, "size": linkstore.RegionSize}
	return opts.formatter(cmd).Success(data, location+"\n")
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "append <location> <link>",
		Short: "Append a link to a store",
		Long: `Append a link to the store at location.

The record is attributed to the caller given by --as or --key.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(rootOpts, cmd, args[0], args[1])
		},
	}
}

func runAppend(opts *RootOptions, cmd *cobra.Command, location, link string) error {
	caller, err := opts.caller()
	if err != nil {
		return err
	}
	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	if err := m.Append(caller, location, link); err != nil {
		return err
	}
	s, err := m.Load(location)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%d/%d\n", s.Count, linkstore.MaxItems)
	return opts.formatter(cmd).Success(map[string]any{"location": location, "count": s.Count}, text)
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Location string `json:"location"`
	Owner    string `json:"owner"`
	*linkstore.Store
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <location>",
		Short:         "Print the records of a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd, args[0])
		},
	}
}

func runShow(opts *RootOptions, cmd *cobra.Command, location string) error {
	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	s, err := m.Load(location)
	if err != nil {
		return err
	}
	owner, err := m.Host().Owner(location)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "location: %s\n", location)
	fmt.Fprintf(&b, "owner:    %s\n", owner)
	fmt.Fprintf(&b, "count:    %d/%d\n", s.Count, linkstore.MaxItems)
	for i, r := range s.All() {
		fmt.Fprintf(&b, "  [%d] %s (by %s)\n", i, r.Link, r.Submitter)
	}
	return opts.formatter(cmd).Success(ShowResult{Location: location, Owner: owner.String(), Store: s}, b.String())
}
