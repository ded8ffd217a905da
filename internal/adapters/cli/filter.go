package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brickwatch/brickwatch/internal/domain/filter"
)

// NewFilterCommand creates the filter command with subcommands
func NewFilterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Inspect filter decisions",
	}

	cmd.AddCommand(newFilterReplayCommand())

	return cmd
}

func newFilterReplayCommand() *cobra.Command {
	var watchID int64

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the filter over a watch's stored listings",
		Long: `Re-evaluate every active stored listing of a watch's item through
the filter pipeline and print, per listing, the executed steps, the
decision, and the score. The filter is deterministic, so the replay
reproduces exactly what the scan cycle decided.

Example:
  brickwatchctl filter replay --watch 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			ctx := context.Background()
			w, err := env.watches.FindByID(ctx, watchID)
			if err != nil {
				return err
			}
			item, err := env.items.FindByRef(ctx, w.ItemRef)
			if err != nil {
				return err
			}
			listings, err := env.listings.ActiveByItem(ctx, w.ItemRef)
			if err != nil {
				return err
			}
			if len(listings) == 0 {
				fmt.Println("No active listings stored for this item")
				return nil
			}

			totals := make([]float64, len(listings))
			for i, l := range listings {
				totals[i] = l.Total
			}
			batch := filter.ReferenceFrom(totals)

			fmt.Printf("Replaying %d listings for watch %d (%s, target %.2f EUR)\n\n",
				len(listings), w.ID, w.ItemRef, w.TargetPrice)
			accepted := 0
			for i := range listings {
				l := &listings[i]
				d := env.filter.Evaluate(l, item, w, batch)
				verdict := "REJECT"
				if d.Accepted {
					verdict = "ACCEPT"
					accepted++
				}
				fmt.Printf("%s  %s/%s  %.2f EUR  score=%d\n", verdict, l.Source, l.ListingID, l.Total, d.Score)
				fmt.Printf("  title: %s\n", l.Title)
				fmt.Printf("  steps: %s\n", strings.Join(d.Steps, " > "))
				if d.Reason != "" {
					fmt.Printf("  reason: %s\n", d.Reason)
				}
				fmt.Println()
			}
			fmt.Printf("%d of %d accepted (reference total %.2f)\n", accepted, len(listings), batch.ReferenceTotal)
			return nil
		},
	}

	cmd.Flags().Int64Var(&watchID, "watch", 0, "Watch id [required]")
	cmd.MarkFlagRequired("watch")

	return cmd
}
