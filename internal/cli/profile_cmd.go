package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage player profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty profile (all levels 0, default weights)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.Create(ctx, args[0], tags...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		profiles, err := m.List(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(profiles) == 0 {
			fmt.Fprintln(out, "No profiles. Create one with: advisor profile create <name>")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCURRENCY\tUPGRADES\tTAGS\tUPDATED")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.Name, scoring.FormatCost(p.Currency),
				len(p.Levels), strings.Join(p.Tags, ","), p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a profile's levels, currency and weights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.Get(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, p)
		}

		// A broken catalog should not hide the profile itself.
		cat, err := loadCatalog()
		if err != nil {
			log.Debug("showing profile without catalog", zap.Error(err))
		}
		printProfile(out, p, cat)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		if err := m.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
		return nil
	},
}

var profileDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id> <new-name>",
	Short: "Copy a profile under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.Duplicate(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var profileBackupCmd = &cobra.Command{
	Use:   "backup <id>",
	Short: "Write a timestamped copy of a profile (file store only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		path, err := m.Backup(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
		return nil
	},
}

var profileSetLevelCmd = &cobra.Command{
	Use:   "set-level <id> <upgrade-id> <level>",
	Short: "Record the level owned for an upgrade (clamped to 0..max)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("level must be a whole number: %w", err)
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		u, ok := cat.Get(args[1])
		if !ok {
			return fmt.Errorf("unknown upgrade %q (see 'advisor catalog show')", args[1])
		}
		clamped := clampLevel(level, u.MaxLevel)

		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		if _, err := m.SetLevel(ctx, args[0], u.ID, clamped); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if clamped != level {
			fmt.Fprintf(out, "Level %d is outside 0..%d, using %d\n", level, u.MaxLevel, clamped)
		}
		fmt.Fprintf(out, "%s set to level %d/%d\n", u.Name, clamped, u.MaxLevel)
		return nil
	},
}

var profileSetCurrencyCmd = &cobra.Command{
	Use:   "set-currency <id> <amount>",
	Short: "Record the currency available to spend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		if _, err := m.SetCurrency(ctx, args[0], amount); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Currency set to %s\n", scoring.FormatCost(amount))
		return nil
	},
}

var profileSetWeightCmd = &cobra.Command{
	Use:   "set-weight <id> <category> <weight>",
	Short: "Set how much the balanced engine values a category (clamped to 0..2)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		weight, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("weight must be a number: %w", err)
		}
		clamped := profile.ClampWeight(weight)

		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		if _, err := m.SetWeight(ctx, args[0], args[1], clamped); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if clamped != weight {
			fmt.Fprintf(out, "Weight %s is outside %s..%s, using %s\n", args[2],
				scoring.FormatNumber(profile.MinWeight), scoring.FormatNumber(profile.MaxWeight), scoring.FormatNumber(clamped))
		}
		fmt.Fprintf(out, "Weight for %s set to %s\n", args[1], scoring.FormatNumber(clamped))
		return nil
	},
}

var profileTagCmd = &cobra.Command{
	Use:   "tag <id> [tags...]",
	Short: "Replace a profile's tags (no tags clears them)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.SetTags(ctx, args[0], args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tags: %s\n", strings.Join(p.Tags, ", "))
		return nil
	},
}

func init() {
	profileCreateCmd.Flags().StringSlice("tag", nil, "tag for the new profile (repeatable)")
	profileShowCmd.Flags().Bool("json", false, "print the stored profile as JSON")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileDuplicateCmd)
	profileCmd.AddCommand(profileBackupCmd)
	profileCmd.AddCommand(profileSetLevelCmd)
	profileCmd.AddCommand(profileSetCurrencyCmd)
	profileCmd.AddCommand(profileSetWeightCmd)
	profileCmd.AddCommand(profileTagCmd)
}

func clampLevel(level, maxLevel int) int {
	return max(0, min(level, maxLevel))
}

// parseAmount accepts plain numbers with optional thousands separators and
// K/M/B/T suffixes as shown in game ("1.2M").
func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	mult := 1.0
	if n := len(clean); n > 0 {
		switch strings.ToUpper(clean[n-1:]) {
		case "K":
			mult = 1e3
		case "M":
			mult = 1e6
		case "B":
			mult = 1e9
		case "T":
			mult = 1e12
		}
		if mult != 1 {
			clean = clean[:n-1]
		}
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", s)
	}
	return v * mult, nil
}

func printProfile(out io.Writer, p *profile.Profile, cat *catalog.Catalog) {
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(out, "  Currency: %s\n", scoring.FormatCost(p.Currency))
	if len(p.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:     %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(out, "  Created:  %s\n  Updated:  %s\n",
		p.CreatedAt.Local().Format("2006-01-02 15:04:05"), p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nWeights:")
	if len(p.Weights) == 0 {
		fmt.Fprintln(out, "  all categories 1.0 (default)")
	}
	for _, c := range p.Weights.Categories() {
		fmt.Fprintf(out, "  %s: %s\n", c, scoring.FormatNumber(p.Weights[c]))
	}

	fmt.Fprintln(out, "\nLevels:")
	if cat == nil {
		ids := make([]string, 0, len(p.Levels))
		for id := range p.Levels {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(out, "  %s: %d\n", id, p.Levels[id])
		}
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, category := range cat.Categories() {
		fmt.Fprintf(w, "  [%s]\n", category)
		for _, u := range cat.ByCategory(category) {
			fmt.Fprintf(w, "    %s\t%d/%d\n", u.Name, p.Level(u.ID), u.MaxLevel)
		}
	}
	w.Flush()

	if check := p.Validate(cat); !check.OK() {
		for _, issue := range check.OutOfRange {
			fmt.Fprintf(out, "  warning: %s\n", issue)
		}
		if len(check.UnknownIDs) > 0 {
			fmt.Fprintf(out, "  ignored (not in catalog): %s\n", strings.Join(check.UnknownIDs, ", "))
		}
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
