package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/api"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
)

var (
	servePort  int
	serveInput string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the processed tract table over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input := serveInput
		if input == "" {
			input = cfg.Data.Path(cfg.Data.OutputFile)
		}
		tracts, err := dataset.ReadProcessed(ctx, input)
		if err != nil {
			return err
		}

		jc, err := joinConfig(cfg.Join)
		if err != nil {
			return err
		}
		s, err := api.NewServer(tracts, jc)
		if err != nil {
			return eris.Wrap(err, "build api server")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("input", input),
			zap.Int("tracts", len(tracts)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveInput, "input", "", "processed table to serve (default from config)")
	rootCmd.AddCommand(serveCmd)
}
