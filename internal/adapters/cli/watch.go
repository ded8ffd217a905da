package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brickwatch/brickwatch/internal/application/watches"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// NewWatchCommand creates the watch command with subcommands
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage price watches",
		Long: `Create and list price watches.

A watch pairs one catalog item with a target landed price. The item flag
accepts a set number, a minifig collector code, an encyclopedia id, or a
free-form name; it is resolved before the watch is stored.

Examples:
  brickwatchctl watch add --user 1 --kind set --item 75192 --country DE --target 550
  brickwatchctl watch add --user 1 --kind minifig --item sw0010 --country AT --target 25 --brickowl
  brickwatchctl watch list --user 1`,
	}

	cmd.AddCommand(newWatchAddCommand())
	cmd.AddCommand(newWatchListCommand())

	return cmd
}

func newWatchAddCommand() *cobra.Command {
	var (
		userID    int64
		kind      string
		item      string
		country   string
		target    float64
		minPrice  float64
		condition string
		brickowl  bool
		exclude   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			handler := watches.NewCreateWatchHandler(env.resolver, env.watches)
			var excludeWords []string
			if exclude != "" {
				for _, w := range strings.Split(exclude, ",") {
					excludeWords = append(excludeWords, strings.TrimSpace(w))
				}
			}
			res, err := handler.Handle(context.Background(), watches.CreateWatchCommand{
				UserID:          userID,
				Kind:            catalog.ItemKind(kind),
				ItemInput:       item,
				ShipToCountry:   strings.ToUpper(country),
				TargetPrice:     target,
				MinPrice:        minPrice,
				Condition:       watch.ConditionPref(condition),
				BrickOwlEnabled: brickowl,
				ExcludeWords:    excludeWords,
			})
			if err != nil {
				return err
			}
			resp := res.(*watches.CreateWatchResponse)
			fmt.Printf("Watch %d created: %s (%s) target %.2f EUR shipped to %s\n",
				resp.Watch.ID, resp.Item.Name, resp.Item.Ref, resp.Watch.TargetPrice, resp.Watch.ShipToCountry)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id [required]")
	cmd.Flags().StringVar(&kind, "kind", "set", "Item kind (set|minifig)")
	cmd.Flags().StringVar(&item, "item", "", "Item identifier or name [required]")
	cmd.Flags().StringVar(&country, "country", "", "Ship-to country code [required]")
	cmd.Flags().Float64Var(&target, "target", 0, "Target landed price in EUR [required]")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "Minimum plausible price in EUR (0 = none)")
	cmd.Flags().StringVar(&condition, "condition", "any", "Condition preference (new|used|any)")
	cmd.Flags().BoolVar(&brickowl, "brickowl", false, "Also scan BrickOwl for this watch")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated title words to exclude")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("item")
	cmd.MarkFlagRequired("country")
	cmd.MarkFlagRequired("target")

	return cmd
}

func newWatchListCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's watches",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			handler := watches.NewListWatchesHandler(env.watches)
			res, err := handler.Handle(context.Background(), watches.ListWatchesQuery{UserID: userID})
			if err != nil {
				return err
			}
			resp := res.(*watches.ListWatchesResponse)
			if len(resp.Watches) == 0 {
				fmt.Println("No watches found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tITEM\tSHIP TO\tTARGET\tCOND\tSTATUS\tALERTS TODAY")
			for _, wt := range resp.Watches {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\t%d\n",
					wt.ID, wt.ItemRef, wt.ShipToCountry, wt.TargetPrice, wt.Condition, wt.Status, wt.AlertsToday)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id [required]")
	cmd.MarkFlagRequired("user")

	return cmd
}
