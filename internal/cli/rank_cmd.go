package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/recommend"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

var rankCmd = &cobra.Command{
	Use:   "rank <profile-id>",
	Short: "Rank the next purchase for every upgrade",
	Long: `Rank scores the next level of every upgrade as
(next effect - current effect) / next level cost and prints the best pick,
its alternatives and the full ranking.

--weight category=value previews the balanced engine with other weights
without saving them to the profile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engineName, _ := cmd.Flags().GetString("engine")
		limit, _ := cmd.Flags().GetInt("limit")
		explain, _ := cmd.Flags().GetBool("explain")
		asJSON, _ := cmd.Flags().GetBool("json")
		previews, _ := cmd.Flags().GetStringArray("weight")
		if !cmd.Flags().Changed("engine") {
			engineName = cfg.Ranking.Engine
		}
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Ranking.Limit
		}

		ctx := cmd.Context()
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.Get(ctx, args[0])
		if err != nil {
			return err
		}

		svc := newService(ctx)
		var rec *recommend.Recommendation
		if len(previews) > 0 {
			if engineName != "balanced" {
				return fmt.Errorf("--weight only applies to the balanced engine")
			}
			weights, err := parseWeights(p.Weights, previews)
			if err != nil {
				return err
			}
			engine := scoring.NewBalancedEngine().WithWeights(weights)
			rec, err = svc.RecommendWith(ctx, engine, cat, p, limit)
			if err != nil {
				return err
			}
		} else {
			rec, err = svc.Recommend(ctx, engineName, cat, p, limit)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, rec)
		}
		printRecommendation(out, p, rec, explain)
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <profile-id> <upgrade-id>",
	Short: "Show the numbers behind one upgrade's score",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engineName, _ := cmd.Flags().GetString("engine")
		if !cmd.Flags().Changed("engine") {
			engineName = cfg.Ranking.Engine
		}

		ctx := cmd.Context()
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		u, ok := cat.Get(args[1])
		if !ok {
			return fmt.Errorf("unknown upgrade %q (see 'advisor catalog show')", args[1])
		}
		m, err := newManager(ctx)
		if err != nil {
			return err
		}
		p, err := m.Get(ctx, args[0])
		if err != nil {
			return err
		}

		rs, _, err := newService(ctx).Rank(ctx, engineName, cat, p)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range rs {
			if r.UpgradeID == u.ID {
				fmt.Fprintf(out, "Rank %d of %d\n%s\n", r.Rank, len(rs), r.Explanation)
				return nil
			}
		}

		// Not ranked: say why, using the same scoring function.
		ms := scoring.ComputeMarginalScore(u, p.Level(u.ID))
		switch ms.Status {
		case scoring.Exhausted:
			fmt.Fprintf(out, "%s is at max level %d; nothing left to buy.\n", u.Name, u.MaxLevel)
		case scoring.Undefined:
			fmt.Fprintf(out, "%s level %d has no usable cost (%s); it is left out of rankings until the catalog is fixed.\n",
				u.Name, ms.NextLevel, scoring.FormatNumber(ms.Cost))
		default:
			fmt.Fprintf(out, "%s is not this engine's pick for its category. Try --engine balanced.\n", u.Name)
		}
		return nil
	},
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List ranking engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := scoring.DefaultRegistry()
		out := cmd.OutOrStdout()
		for _, name := range registry.Names() {
			e, err := registry.Get(name)
			if err != nil {
				return err
			}
			marker := ""
			if name == cfg.Ranking.Engine {
				marker = " (default)"
			}
			fmt.Fprintf(out, "%s %s%s\n  %s\n\n", e.Name(), e.Version(), marker, e.Describe())
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().String("engine", scoring.DefaultEngine, "ranking engine (see 'advisor engines')")
	rankCmd.Flags().Int("limit", 20, "rows in the full ranking (0 for all)")
	rankCmd.Flags().Bool("explain", false, "print the explanation of every row")
	rankCmd.Flags().Bool("json", false, "print the recommendation as JSON")
	rankCmd.Flags().StringArray("weight", nil, "preview weight as category=value (repeatable, not saved)")

	explainCmd.Flags().String("engine", scoring.DefaultEngine, "ranking engine")
}

// parseWeights overlays category=value pairs on base. Values are clamped
// the same way set-weight clamps them.
func parseWeights(base profile.ScoringWeights, pairs []string) (profile.ScoringWeights, error) {
	w := base.Clone()
	for _, pair := range pairs {
		category, value, ok := strings.Cut(pair, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("weight %q: want category=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", pair, err)
		}
		if err := w.Set(category, profile.ClampWeight(v)); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func printRecommendation(out io.Writer, p *profile.Profile, rec *recommend.Recommendation, explain bool) {
	fmt.Fprintf(out, "Profile %s, currency %s\n", p.Name, scoring.FormatCost(p.Currency))
	fmt.Fprintf(out, "Engine %s %s\n", rec.Engine, rec.Version)
	if rec.Cached {
		fmt.Fprintln(out, "(cached)")
	}

	if rec.Top == nil {
		fmt.Fprintln(out, "\nNothing to buy: every upgrade is maxed or unscorable.")
		return
	}

	fmt.Fprintln(out, "\nBest next purchase:")
	fmt.Fprintln(out, indent(rec.Top.Explanation, "  "))

	if len(rec.Alternatives) > 0 {
		fmt.Fprintln(out, "\nAlternatives:")
		for _, r := range rec.Alternatives {
			fmt.Fprintf(out, "  %2d. %s -> %d  cost %s  score %s%s\n", r.Rank, r.Name, r.NextLevel,
				scoring.FormatCost(r.Cost), scoring.FormatNumber(r.Score), affordableMark(r))
		}
	}

	fmt.Fprintf(out, "\nRanking (%d of %d):\n", len(rec.All), rec.Total)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tUPGRADE\tCATEGORY\tLEVEL\tCOST\tBENEFIT\tSCORE\t")
	for _, r := range rec.All {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%d -> %d\t%s\t%s\t%s\t%s\n", r.Rank, r.Name, r.Category,
			r.CurrentLevel, r.NextLevel, scoring.FormatCost(r.Cost), scoring.FormatNumber(r.MarginalBenefit),
			scoring.FormatNumber(r.Score), affordableMark(r))
	}
	w.Flush()

	if explain {
		fmt.Fprintln(out, "\nExplanations:")
		for _, r := range rec.All {
			fmt.Fprintf(out, "\n%d. %s\n", r.Rank, r.Explanation)
		}
	}
}

func affordableMark(r scoring.RankedUpgrade) string {
	if r.Affordable {
		return ""
	}
	return "  (can't afford yet)"
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
