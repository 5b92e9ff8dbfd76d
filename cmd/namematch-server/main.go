package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"yashubustudio/namematch/internal/config"
	"yashubustudio/namematch/internal/httpapi"
	"yashubustudio/namematch/internal/logging"
	"yashubustudio/namematch/matcher"
)

func main() {
	env := config.AddEnvFlag(flag.CommandLine, ".env")
	flag.Parse()
	if _, err := env.Load(); err != nil {
		log.Fatalf("namematch-server: %v", err)
	}
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("namematch-server: %v", err)
	}
	logger, err := logging.New(settings.Environment, settings.LogLevel)
	if err != nil {
		log.Fatalf("namematch-server: %v", err)
	}

	cfg, err := matcher.LoadConfig(settings.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", settings.ConfigPath).Msg("load scoring config")
	}

	var refiner *matcher.Refiner
	if cfg.Refiner.Enabled {
		handle := matcher.NewModelHandle(matcher.OrtModelLoader(cfg.Refiner), logger)
		defer handle.Close()
		refiner = matcher.NewRefiner(handle)
		// Load eagerly so a broken model is reported at startup.
		_ = refiner.Available()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := httpapi.NewServer(cfg, refiner, logger, httpapi.Options{
		Addr:            settings.Addr,
		MaxUploadBytes:  settings.MaxUploadBytes(),
		RateLimit:       settings.RateLimit,
		RateBurst:       settings.RateBurst,
		ShutdownTimeout: settings.ShutdownTimeout,
	})
	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
