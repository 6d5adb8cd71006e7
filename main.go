package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"smartslide/config"
	"smartslide/export"
	"smartslide/gslides"
	"smartslide/imagegen"
	"smartslide/ingest"
	"smartslide/llm"
	"smartslide/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "smartslide",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", "err", err)
	}
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatModel, err := llm.NewChatModel(ctx, cfg)
	if err != nil {
		logger.Fatal("llm setup failed", "err", err)
	}
	outline := llm.NewOutlineService(chatModel, logger)
	images := imagegen.New(cfg.ImageHost, cfg.ImageToken, logger)
	ingestor := ingest.NewService(logger)
	binary := export.NewPPTService(logger)

	var cloud server.CloudRenderer
	if cfg.CloudEnabled() {
		svc, err := gslides.New(ctx, cfg.GoogleCredentials, logger)
		if err != nil {
			logger.Fatal("google slides setup failed", "err", err)
		}
		cloud = svc
	} else {
		logger.Info("google credentials not configured, cloud rendering disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(cfg, logger, outline, images, ingestor, binary, cloud).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
