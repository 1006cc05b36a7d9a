// Command snake-server serves browser snake games over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jaminalder/codex-snake/internal/app"
	"github.com/jaminalder/codex-snake/internal/config"
	"github.com/jaminalder/codex-snake/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snake-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to YAML config")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := cfg.Logger(os.Stderr)

	gameCfg, err := cfg.Game()
	if err != nil {
		return err
	}
	svc, err := app.NewService(gameCfg,
		app.WithLogger(log),
		app.WithSeed(cfg.Seed),
		app.WithIdleTTL(cfg.IdleTTL),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(svc, web.WithLogger(log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "board", fmt.Sprintf("%dx%d", gameCfg.Board.Width, gameCfg.Board.Height),
			"edge", gameCfg.Board.Edge.String(), "tick", cfg.TickInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return svc.Run(ctx, cfg.TickInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
