package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the advisor and engine versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "advisor %s\n", Version)
		registry := scoring.DefaultRegistry()
		for _, name := range registry.Names() {
			e, err := registry.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s %s\n", e.Name(), e.Version())
		}
		return nil
	},
}
