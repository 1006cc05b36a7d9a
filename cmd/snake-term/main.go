// Command snake-term plays snake in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/jaminalder/codex-snake/internal/config"
	"github.com/jaminalder/codex-snake/internal/domain"
	"github.com/jaminalder/codex-snake/internal/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snake-term: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to YAML config")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	// The screen owns stdout, so logs only go to a file.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log := cfg.Logger(logOut)

	gameCfg, err := cfg.Game()
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	game, err := domain.New(gameCfg, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Info("starting", "seed", seed, "edge", gameCfg.Board.Edge.String())
	return term.New(screen, game, cfg.TickInterval, log).Run(ctx)
}
