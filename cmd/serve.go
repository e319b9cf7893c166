package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"flipscan/arbworker/internal/api"
	"flipscan/arbworker/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long:  "Serves stored listings and opportunities as JSON for the dashboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Default

		ctx, stop := signalContext()
		defer stop()

		st, err := newStore(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer st.Close()

		addr := serveAddr
		if addr == "" {
			addr = cfg.APIAddr
		}
		server := api.NewServer(st, addr)

		serverDone := make(chan error, 1)
		go func() {
			serverDone <- server.Start()
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-serverDone:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from API_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
