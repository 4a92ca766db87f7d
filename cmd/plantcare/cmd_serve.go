package main

import (
	"github.com/spf13/cobra"

	"github.com/yanqian/plant-care/internal/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Apply pending migrations and serve the plant care API until interrupted.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(func(app *bootstrap.App) error {
		return app.Run(cmd.Context())
	})
}
