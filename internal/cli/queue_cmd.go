package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbenjam1n/upgradeadvisor/internal/queue"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Recommendation event stream management",
}

var queueInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the recommendation stream and consumer group",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb, err := connectRedis()
		if err != nil {
			return err
		}
		if err := queue.New(rdb).EnsureStreams(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stream %s ready (group %s)\n", queue.StreamRecommendations, queue.GroupPresentation)
		return nil
	},
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stream length and unacknowledged events",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb, err := connectRedis()
		if err != nil {
			return err
		}

		length, pending, err := queue.New(rdb).Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("queue status: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Queue Status:\n")
		fmt.Fprintf(out, "  %s: %d events, %d pending in %s\n",
			queue.StreamRecommendations, length, pending, queue.GroupPresentation)
		return nil
	},
}

var queueNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Read and acknowledge the next recommendation event",
	RunE: func(cmd *cobra.Command, args []string) error {
		consumer, _ := cmd.Flags().GetString("consumer")
		wait, _ := cmd.Flags().GetDuration("wait")
		rdb, err := connectRedis()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		q := queue.New(rdb)
		block := wait
		if block <= 0 {
			block = -1
		}
		ev, id, err := q.ReadRecommendation(ctx, consumer, block)
		out := cmd.OutOrStdout()
		if errors.Is(err, queue.ErrNoMessages) {
			fmt.Fprintln(out, "(no events)")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s  %s  profile=%s engine=%s %s\n", id, ev.CreatedAt.Local().Format(time.DateTime),
			ev.ProfileID, ev.Engine, ev.EngineVersion)
		if ev.TopUpgradeID == "" {
			fmt.Fprintln(out, "  no candidates")
		} else {
			fmt.Fprintf(out, "  top=%s score=%s affordable=%t candidates=%d\n",
				ev.TopUpgradeID, scoring.FormatNumber(ev.TopScore), ev.Affordable, ev.Candidates)
		}
		return q.Ack(ctx, id)
	},
}

func init() {
	queueNextCmd.Flags().String("consumer", "cli", "consumer name within the presentation group")
	queueNextCmd.Flags().Duration("wait", 0, "how long to wait for an event (0 returns at once)")

	queueCmd.AddCommand(queueInitCmd)
	queueCmd.AddCommand(queueStatusCmd)
	queueCmd.AddCommand(queueNextCmd)
}
