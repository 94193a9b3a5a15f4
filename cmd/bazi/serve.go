package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gugo-beep/bazi-backend/api"
	"github.com/gugo-beep/bazi-backend/config"
	"github.com/gugo-beep/bazi-backend/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pillar lookups over an upgraded database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(v)
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		store, err := sqlite.OpenTarget(cfg.DB)
		if err != nil {
			return err
		}
		defer store.Close()

		router := api.NewRouter(api.NewHandler(store), logger, cfg.AllowedOrigins)

		server := &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.WithField("addr", cfg.Addr).Info("lookup server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("db", "./data/bazi_data_v2.db", "upgraded database path")
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().StringSlice("allowed-origins", []string{"http://localhost:5173", "http://localhost:8080"}, "CORS origins")
	bindFlags(serveCmd.Flags(), map[string]string{
		config.KeyDB:             "db",
		config.KeyAddr:           "addr",
		config.KeyAllowedOrigins: "allowed-origins",
	})
}
