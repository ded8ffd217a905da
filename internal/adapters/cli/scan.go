package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brickwatch/brickwatch/internal/adapters/queue"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/application/scan"
)

// NewScanCommand creates the scan command with subcommands
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run scan cycles",
	}

	cmd.AddCommand(newScanOnceCommand())

	return cmd
}

func newScanOnceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run one full scan cycle now",
		Long: `Run one scan cycle over all active scan groups, exactly as the
daemon does on its interval. Accepted deals are enqueued on the dispatch
queues, so a running worker pool will deliver them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			if len(env.adapters) == 0 {
				return fmt.Errorf("no marketplace adapter configured")
			}

			enqueuer, err := queue.NewEnqueuer(&env.cfg.Queue)
			if err != nil {
				return err
			}
			defer enqueuer.Close()

			throttle := dispatch.Throttle{
				PerDay:     env.cfg.Dispatch.MaxPerDay,
				PerHour:    env.cfg.Dispatch.MaxPerHour,
				Per10Min:   env.cfg.Dispatch.MaxPerTenMin,
				PerItemDay: env.cfg.Dispatch.MaxPerItemDay,
			}
			dispatcher := dispatch.NewDispatcher(env.alerts, env.watches, env.states, enqueuer, throttle, env.clock, env.log)
			handler := scan.NewRunScanCycleHandler(
				env.watches, env.users, env.items, env.listings, env.states,
				env.adapters, env.calc, env.filter, dispatcher,
				scan.Options{
					GroupConcurrency: env.cfg.Scan.GroupConcurrency,
					ListingLimit:     env.cfg.Scan.ListingLimit,
					Budget:           env.cfg.Scan.Budget,
				},
				env.clock, env.log,
			)

			res, err := handler.Handle(context.Background(), scan.RunScanCycleCommand{Budget: env.cfg.Scan.Budget})
			if err != nil {
				return err
			}
			r := res.(*scan.RunScanCycleResponse)
			fmt.Printf("Scan cycle complete in %s\n", r.Duration.Round(time.Millisecond))
			fmt.Printf("  groups:   %d (scanned %d, failed %d, skipped %d)\n", r.Groups, r.Scanned, r.Failed, r.Skipped)
			fmt.Printf("  listings: %d\n", r.Listings)
			fmt.Printf("  alerts:   %d enqueued\n", r.AlertsEnqueued)
			return nil
		},
	}

	return cmd
}
