package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
	} `cmd:"" help:"Build the site from the content directory"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Serve struct {
		Addr string `short:"a" help:"Listen address" default:"localhost:8080"`
	} `cmd:"" help:"Build the site, serve it locally and rebuild on change"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := sgerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch kctx.Command() {
	case "build":
		cfg := loadConfig(adapter)
		if CLI.Build.Output != "" {
			cfg.BuildDirectory = CLI.Build.Output
		}
		adapter.HandleError(runBuild(cfg, logger))
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			adapter.HandleError(err)
		}
		logger.Info("configuration written", "path", CLI.Config)
	case "serve":
		adapter.HandleError(runServe(loadConfig(adapter), logger))
	}
}

func loadConfig(adapter *sgerrors.CLIErrorAdapter) *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		adapter.HandleError(err)
	}
	return cfg
}

func runBuild(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting site build",
		"content", cfg.ContentDirectory,
		"output", cfg.BuildDirectory)

	report, err := site.New(cfg, logger).Build(context.Background())
	if err != nil {
		return err
	}

	logger.Info("site built",
		"pages", report.PagesWritten,
		"skipped", len(report.Skipped))
	return nil
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return site.Serve(ctx, cfg, logger, CLI.Serve.Addr)
}
