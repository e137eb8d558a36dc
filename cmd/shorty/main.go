package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmatsuo/go-shorty/internal/app"
	"github.com/tmatsuo/go-shorty/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := app.Run(ctx, cfg); err != nil {
		panic(err)
	}
}
