package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opsloop/agentrt/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newServerLogger(serverLogOutput, cfg.Verbose)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("new application", "error", err)
		os.Exit(1)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- app.Start()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server", "error", err)
		os.Exit(1)
	}

	if err := <-serverErrCh; err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
