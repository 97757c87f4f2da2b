// resurrectd serves the document-restoration demo: upload endpoints, the
// agent-theater event stream, and the websocket mirror.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chiedza-labs/resurrect"
	"github.com/chiedza-labs/resurrect/server"
)

var (
	configFile string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "resurrectd",
	Short: "Restoration demo server",
	Long:  "Serves the historical document restoration demo over HTTP, SSE and websockets.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resurrect.LoadSettings(configFile)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if listenAddr != "" {
			settings.Listen = listenAddr
		}

		orch := resurrect.NewOrchestrator(settings)
		srv := server.New(settings.Listen, orch, orch.Logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to settings YAML")
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address override")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
