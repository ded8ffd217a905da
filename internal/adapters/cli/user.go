package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// NewUserCommand creates the user command with subcommands
func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserAddCommand())
	cmd.AddCommand(newUserSetCountryCommand())

	return cmd
}

func newUserAddCommand() *cobra.Command {
	var (
		country  string
		timezone string
		chatID   int64
		digest   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			u := &user.User{
				Country:     strings.ToUpper(country),
				Timezone:    timezone,
				ChatChatID:  chatID,
				DigestOptIn: digest,
			}
			if err := env.users.Save(context.Background(), u); err != nil {
				return err
			}
			fmt.Printf("User %d created (%s, %s)\n", u.ID, u.Country, u.Timezone)
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Home country code [required]")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone, e.g. Europe/Berlin")
	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "Chat recipient id (0 = chat not connected)")
	cmd.Flags().BoolVar(&digest, "digest", false, "Opt into the weekly digest")
	cmd.MarkFlagRequired("country")

	return cmd
}

func newUserSetCountryCommand() *cobra.Command {
	var (
		userID  int64
		country string
	)

	cmd := &cobra.Command{
		Use:   "set-country",
		Short: "Move a user to another country",
		Long: `Update a user's home country and rewrite the ship-from allowlist
on all of their watches to the new region's default in one statement.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closer, err := openEnv()
			if err != nil {
				return err
			}
			defer closer()

			ctx := context.Background()
			u, err := env.users.FindByID(ctx, userID)
			if err != nil {
				return err
			}
			u.Country = strings.ToUpper(country)
			if err := env.users.Save(ctx, u); err != nil {
				return err
			}
			allowlist := watch.DefaultAllowlist(u.Country)
			if err := env.watches.RewriteAllowlists(ctx, u.ID, allowlist); err != nil {
				return err
			}
			fmt.Printf("User %d moved to %s; watch allowlists rewritten to %s\n",
				u.ID, u.Country, strings.Join(allowlist, ","))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id [required]")
	cmd.Flags().StringVar(&country, "country", "", "New country code [required]")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("country")

	return cmd
}
