package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderconv/internal/config"
	"orderconv/internal/listener"
	"orderconv/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("order listener started provider=%s interval=%ds\n", cfg.ListenerProvider, cfg.ListenerIntervalSec)
	return listener.NewService(db, cfg).Run(ctx)
}
