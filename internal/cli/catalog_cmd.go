package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the upgrade catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog against the cost and effect rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = cfg.Catalog.Path
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Validating %s...\n", path)
		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		result := catalog.Validate(cat)
		fmt.Fprintf(out, "  Catalog version %s (game %s), %d upgrades in %d categories\n",
			cat.Version, cat.GameVersion, cat.Len(), len(cat.Categories()))
		fmt.Fprintln(out, result.Summary())
		if !result.OK() {
			return fmt.Errorf("%w: %d errors", catalog.ErrInvalidCatalog, len(result.Errors))
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List upgrades by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		only, _ := cmd.Flags().GetString("category")
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Catalog %s (game %s)\n", cat.Version, cat.GameVersion)
		if cat.Source != "" {
			fmt.Fprintf(out, "Source: %s\n", cat.Source)
		}

		shown := 0
		for _, category := range cat.Categories() {
			if only != "" && category != only {
				continue
			}
			shown++
			fmt.Fprintf(out, "\n[%s]\n", category)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  ID\tNAME\tTYPE\tMAX\tFIRST COST\tLAST COST")
			for _, u := range cat.ByCategory(category) {
				first, _ := u.Level(1)
				last, _ := u.Level(u.MaxLevel)
				fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%s\t%s\n", u.ID, u.Name, u.EffectKind, u.MaxLevel,
					scoring.FormatCost(first.Cost), scoring.FormatCost(last.Cost))
			}
			w.Flush()
		}
		if only != "" && shown == 0 {
			return fmt.Errorf("no category %q in catalog (have %v)", only, cat.Categories())
		}
		return nil
	},
}

func init() {
	catalogValidateCmd.Flags().String("path", "", "catalog file to validate (default: catalog.path)")
	catalogShowCmd.Flags().String("category", "", "only show this category")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}
