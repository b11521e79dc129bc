// Command linkstore operates on fixed-capacity link store regions.
package main

import (
	"os"

	"github.com/jpl-au/linkstore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		out := &cli.OutputFormatter{Format: formatFlag(cmd.PersistentFlags().Lookup("format").Value.String()), Writer: os.Stderr}
		out.Error(err)
		os.Exit(cli.GetExitCode(err))
	}
}

// formatFlag falls back to text when the flag itself was invalid.
func formatFlag(f string) string {
	if f == "json" {
		return f
	}
	return "text"
}
