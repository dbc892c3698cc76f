package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "bodycheck",
		Short: "LINE body-check bot",
		Long:  "bodycheck relays LINE image messages to the body-analysis service and replies with the diagnosis report.",
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
