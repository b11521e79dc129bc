package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jpl-au/linkstore"
	"github.com/jpl-au/linkstore/sqlitehost"
	"github.com/spf13/cobra"
)

// NewLocationsCommand creates the locations command.
func NewLocationsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "locations",
		Short:         "List every region on the host",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.manager()
			if err != nil {
				return err
			}
			defer m.Host().Close()

			locs, err := locations(m.Host())
			if err != nil {
				return err
			}
			text := ""
			if len(locs) > 0 {
				text = strings.Join(locs, "\n") + "\n"
			}
			return rootOpts.formatter(cmd).Success(locs, text)
		},
	}
}

// locations enumerates regions on hosts that support it.
func locations(h linkstore.Host) ([]string, error) {
	switch h := h.(type) {
	case *linkstore.FileHost:
		var out []string
		for loc, err := range h.Locations() {
			if err != nil {
				return nil, err
			}
			out = append(out, loc)
		}
		return out, nil
	case *sqlitehost.Host:
		return h.Locations()
	default:
		return nil, fmt.Errorf("host %T cannot list locations", h)
	}
}

// BackupOptions holds flags for the backup command.
type BackupOptions struct {
	*RootOptions
	Output string
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup <location>",
		Short: "Write a compressed snapshot of a region",
		Long: `Write a compressed snapshot of the region at location.

The snapshot is written to --output, or stdout when no file is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "snapshot file (default stdout)")

	return cmd
}

func runBackup(opts *BackupOptions, cmd *cobra.Command, location string) error {
	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	if opts.Output == "" {
		return linkstore.Backup(m.Host(), location, cmd.OutOrStdout())
	}
	if err := writeBackup(m.Host(), location, opts.Output); err != nil {
		return err
	}
	return opts.formatter(cmd).Success(map[string]any{"location": location, "file": opts.Output}, opts.Output+"\n")
}

// writeBackup writes a snapshot to path. A snapshot that cannot be fully
// flushed to disk is removed rather than left looking complete.
func writeBackup(h linkstore.Host, location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "create output", err)
	}
	if err := linkstore.Backup(h, location, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := closeOutput(f); err != nil {
		os.Remove(path)
		return WrapExitError(ExitFailure, "write output", err)
	}
	return nil
}

// closeOutput syncs and closes f, reporting the first failure.
func closeOutput(f interface {
	Sync() error
	Close() error
}) error {
	err := f.Sync()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Location string
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "restore <snapshot>",
		Short:         "Recreate a region from a snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Location, "location", "", "target location (default: the snapshot's own)")

	return cmd
}

func runRestore(opts *RestoreOptions, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open snapshot", err)
	}
	defer f.Close()

	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	location, err := linkstore.Restore(m.Host(), f, opts.Location)
	if err != nil {
		return err
	}
	// The snapshot may come from a host using another discriminator
	if _, err := m.Load(location); err != nil {
		return err
	}
	return opts.formatter(cmd).Success(map[string]any{"location": location}, location+"\n")
}

// VerifyResult reports one location's state.
type VerifyResult struct {
	Location string `json:"location"`
	Count    uint64 `json:"count"`
	Error    string `json:"error,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [location...]",
		Short: "Check regions decode cleanly",
		Long: `Check that regions decode cleanly: header and checksum, layout,
count against list length, and link limits.

With no arguments every region on the host is checked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd, args)
		},
	}
}

func runVerify(opts *RootOptions, cmd *cobra.Command, locs []string) error {
	m, err := opts.manager()
	if err != nil {
		return err
	}
	defer m.Host().Close()

	if len(locs) == 0 {
		locs, err = locations(m.Host())
		if err != nil {
			return err
		}
	}

	var (
		results []VerifyResult
		failed  int
		b       strings.Builder
	)
	for _, loc := range locs {
		res := VerifyResult{Location: loc}
		s, err := m.Load(loc)
		if err != nil {
			res.Error = err.Error()
			failed++
			fmt.Fprintf(&b, "FAIL %s: %v\n", loc, err)
		} else {
			res.Count = s.Count
			fmt.Fprintf(&b, "ok   %s (%d/%d)\n", loc, s.Count, linkstore.MaxItems)
		}
		results = append(results, res)
	}
	if err := opts.formatter(cmd).Success(results, b.String()); err != nil {
		return err
	}
	if failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d regions failed verification", failed, len(locs))}
	}
	return nil
}
