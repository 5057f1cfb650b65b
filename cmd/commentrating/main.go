package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"commentrating/internal/app"
	"commentrating/internal/config"
	"commentrating/internal/ratelimit"
	"commentrating/internal/salebot"
	"commentrating/internal/server"
	"commentrating/internal/util"
	"commentrating/pkg/rank"
	"commentrating/pkg/store"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		util.Fatal("failed to init store", "err", err)
	}

	var rankCache *rank.Cache
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		rankCache, err = rank.New(cfg.RedisAddr, cfg.RedisPassword, "")
		if err != nil {
			util.Fatal("failed to init rank cache", "err", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rankCache.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable at startup, rank cache degraded", "err", err)
		}
		cancel()

		limiter, err = ratelimit.NewFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "",
			cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	core, err := app.New(app.Config{Store: st, Rank: rankCache})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{
		App:        core,
		Notifier:   salebot.NewClient(cfg.SalebotBaseURL, cfg.SalebotGroupID, st),
		Limiter:    limiter,
		AdminToken: cfg.AdminToken,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("comment rating server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
