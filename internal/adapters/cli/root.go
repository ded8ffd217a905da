package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brickwatchctl",
		Short: "BrickWatch CLI - Manage watches and inspect the deal pipeline",
		Long: `BrickWatch CLI manages price watches and runs pipeline operations
against the shared database directly.

Examples:
  brickwatchctl watch add --user 1 --kind set --item 75192 --country DE --target 550
  brickwatchctl watch list --user 1
  brickwatchctl resolve sw0010 --kind minifig
  brickwatchctl scan once
  brickwatchctl filter replay --watch 3`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewFilterCommand())
	rootCmd.AddCommand(NewUserCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
