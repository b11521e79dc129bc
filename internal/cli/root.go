package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"github.com/jpl-au/linkstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string
	Path       string
	As         string // caller name, hashed into a submitter ID
	Key        string // caller ed25519 public key, hex
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the linkstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "linkstore",
		Short: "Fixed-capacity link store",
		Long: `Operate on fixed-size link store regions.

Each store is a single pre-allocated region holding at most 40 links of at
most 200 bytes, together with the identity of whoever submitted them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log host activity to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "host backend (file|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "region directory or database file")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "caller name (default $USER)")
	cmd.PersistentFlags().StringVar(&opts.Key, "key", "", "caller ed25519 public key as hex (overrides --as)")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAppendCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewLocationsCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

// config resolves the effective configuration: defaults, then the config
// file, then flags.
func (o *RootOptions) config() (Config, error) {
	cfg := DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := LoadConfig(o.ConfigPath)
		if err != nil {
			return cfg, WrapExitError(ExitCommandError, "config", err)
		}
		cfg = loaded
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Path != "" {
		cfg.Path = o.Path
	}
	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "config", err)
	}
	return cfg, nil
}

// logger returns a development logger on stderr when verbose, else a no-op.
func (o *RootOptions) logger() *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// manager opens the configured host. The caller closes m.Host().
func (o *RootOptions) manager() (*linkstore.Manager, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	m, err := cfg.OpenManager(o.logger())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open host", err)
	}
	return m, nil
}

// caller resolves the identity operations run as.
func (o *RootOptions) caller() (linkstore.Caller, error) {
	if o.Key != "" {
		pub, err := hex.DecodeString(o.Key)
		if err != nil {
			return linkstore.Caller{}, WrapExitError(ExitCommandError, "invalid --key", err)
		}
		c, err := linkstore.CallerFromKey(pub)
		if err != nil {
			return linkstore.Caller{}, WrapExitError(ExitCommandError, "invalid --key", err)
		}
		return c, nil
	}
	name := o.As
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "anonymous"
	}
	return linkstore.CallerFromName(name), nil
}

// formatter returns an OutputFormatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
