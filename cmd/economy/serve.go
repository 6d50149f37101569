package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mroshb/economy_bot/internal/database"
	"github.com/mroshb/economy_bot/internal/handlers"
	"github.com/mroshb/economy_bot/internal/metrics"
	"github.com/mroshb/economy_bot/internal/middleware"
	"github.com/mroshb/economy_bot/internal/repositories"
	"github.com/mroshb/economy_bot/internal/services"
	"github.com/mroshb/economy_bot/internal/txn"
	"github.com/mroshb/economy_bot/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the economy HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if migrate {
				if err := database.AutoMigrate(db); err != nil {
					return err
				}
			}

			guilds, err := repositories.NewGuildConfigRepository(db, cfg.GuildCacheSize)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New("economy")
			m.MustRegister(reg)

			coord := txn.New(repositories.NewLedgerStore(db),
				txn.WithMaxRetries(cfg.TxMaxRetries),
				txn.WithBackoff(cfg.GetRetryBackoff(), cfg.GetRetryMaxBackoff()),
				txn.WithMetrics(m),
			)
			ledger := services.NewCharacterLedger()
			limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, cfg.GetRateLimitWindow())
			defer limiter.Stop()

			h := handlers.NewHandlerManager(
				cfg,
				services.NewAuctionService(coord, ledger, m),
				services.NewCharacterService(coord, ledger, guilds),
				services.NewRewardService(coord, ledger, guilds),
				limiter,
				reg,
			)

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           h.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Economy API listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Info("Shutting down gracefully...")
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			logger.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}
