package aniwise

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aniwise",
	Short: "Conversational anime recommendation agent",
	Long: `Aniwise is a webhook-driven anime recommendation agent.

It parses free-text requests into structured search parameters with a
language model, queries an AniList-compatible metadata service, and replies
with a short stylized recommendation list.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
