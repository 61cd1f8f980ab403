package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmacro/internal/build"
	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/metrics"
	"git.home.luguber.info/inful/docmacro/internal/notify"
	"git.home.luguber.info/inful/docmacro/internal/version"
	"git.home.luguber.info/inful/docmacro/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" env:"DOCMACRO_CONFIG" default:"docmacro.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output      string `short:"o" help:"Output directory (overrides output_dir)"`
		Incremental bool   `short:"i" help:"Skip pages whose content is unchanged"`
		DryRun      bool   `help:"Render without writing any output"`
		Strict      bool   `help:"Abort on the first macro rendering failure"`
	} `cmd:"" help:"Render all pages into the output directory"`

	Render struct {
		File string `arg:"" help:"Page to render (relative to docs dir or a plain path)"`
	} `cmd:"" help:"Render a single page to stdout"`

	Watch struct {
		MetricsListen string `help:"Serve prometheus metrics on this address"`
	} `cmd:"" help:"Rebuild on source changes until interrupted"`

	Modules struct{} `cmd:"" help:"List available modules and registered macros/filters"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	// A .env alongside the invocation is a convenience for macros that read
	// os.Getenv; absence is not an error.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("docmacro"),
		kong.Description("Macro expansion and variable injection for markdown documentation trees."),
		kong.UsageOnError(),
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose || strings.EqualFold(os.Getenv("DOCMACRO_LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "build":
		adapter.HandleError(runBuild(ctx, logger))
	case "render <file>":
		adapter.HandleError(runRender(ctx))
	case "watch":
		adapter.HandleError(runWatch(ctx, logger))
	case "modules":
		adapter.HandleError(runModules(ctx))
	case "version":
		fmt.Println(version.Version)
	default:
		adapter.HandleError(errors.InternalError("unknown command", nil))
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(CLI.Config)
}

func runBuild(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := build.NewService()
	svc.Logger = logger

	publisher, err := notify.NewPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		logger.Warn("build event publishing unavailable", "error", err)
	} else {
		svc.Publisher = publisher
		defer publisher.Close()
	}

	req := build.Request{
		Config:      cfg,
		OutputDir:   CLI.Build.Output,
		Incremental: CLI.Build.Incremental,
		DryRun:      CLI.Build.DryRun,
		Verbose:     CLI.Verbose,
	}
	if CLI.Build.Strict {
		strict := true
		req.FailFast = &strict
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d rendered, %d skipped, %d failed, %d assets in %s\n",
		result.Status, result.Rendered, result.Skipped, result.Failed,
		result.Copied, result.Duration.Round(time.Millisecond))
	return nil
}

func runRender(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := build.NewService()
	out, err := svc.RenderFile(ctx, build.Request{Config: cfg, Verbose: CLI.Verbose}, CLI.Render.File)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runWatch(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	svc := build.NewService()
	svc.Logger = logger
	svc.Recorder = recorder

	publisher, err := notify.NewPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		logger.Warn("build event publishing unavailable", "error", err)
	} else {
		svc.Publisher = publisher
		defer publisher.Close()
	}

	watcher, err := watch.New(watch.Options{
		Config:        cfg,
		Service:       svc,
		Recorder:      recorder,
		Registry:      registry,
		MetricsListen: CLI.Watch.MetricsListen,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

func runModules(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := build.NewService()
	desc, err := svc.Describe(ctx, build.Request{Config: cfg})
	if err != nil {
		return err
	}

	fmt.Println("Catalog modules:")
	for _, name := range desc.CatalogModules {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Loaded modules:")
	for _, name := range desc.LoadedModules {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("Macros:  %s\n", strings.Join(desc.Macros, ", "))
	fmt.Printf("Filters: %s\n", strings.Join(desc.Filters, ", "))
	fmt.Printf("Variables: %s\n", strings.Join(desc.Variables, ", "))
	return nil
}
