package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/traintrack/internal/buildinfo"
	"github.com/dmitrijs2005/traintrack/internal/client/cli"
	"github.com/dmitrijs2005/traintrack/internal/client/config"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
