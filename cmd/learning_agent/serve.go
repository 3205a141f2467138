package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lastminute/learning-agent/internal/config"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/server"
)

var (
	servePort      int
	serveRateLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the learning pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 0, "Requests per minute per client (0 = default)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := config.ResolveAPIKey()
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	gateway := llm.NewGateway(ctx, apiKey, config.ResolveModel())
	defer gateway.Close() //nolint:errcheck

	srv := server.New(server.Config{
		Port:      servePort,
		RateLimit: serveRateLimit,
		Gateway:   gateway,
		Images:    buildScheduler(apiKey),
	})

	return srv.Start()
}
