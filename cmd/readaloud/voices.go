package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobarin/readaloud/internal/voices"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the available voices by language",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(voices.Render())
	},
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}
