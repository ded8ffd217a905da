package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "Resolve a free-form identifier to a catalog item",
		Long: `Resolve a set number, minifig collector code, encyclopedia id, or
free-form name to its catalog entry, linking marketplace and encyclopedia
ids along the way.

Examples:
  brickwatchctl resolve 75192
  brickwatchctl resolve sw0010 --kind minifig
  brickwatchctl resolve fig-001234 --kind minifig
  brickwatchctl resolve "Darth Revan" --kind minifig`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			res, err := env.resolver.Resolve(context.Background(), catalog.ItemKind(kind), args[0])
			if err != nil {
				return err
			}
			if !res.Success {
				fmt.Printf("Could not resolve %q (detected scheme: %s)\n", args[0], res.Scheme)
				return nil
			}

			fmt.Printf("Resolved via %s\n", res.Scheme)
			fmt.Printf("  ref:          %s\n", res.Item.Ref)
			if res.Item.Name != "" {
				fmt.Printf("  name:         %s\n", res.Item.Name)
			}
			if res.Item.BrickOwlID != "" {
				fmt.Printf("  brickowl id:  %s\n", res.Item.BrickOwlID)
			}
			if res.Item.EncyclopediaID != "" {
				fmt.Printf("  rebrickable:  %s\n", res.Item.EncyclopediaID)
			}
			if res.Item.PieceCount > 0 {
				fmt.Printf("  pieces:       %d\n", res.Item.PieceCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "set", "Item kind (set|minifig)")

	return cmd
}
