package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	api "github.com/goliatone/go-provider-api"
	"github.com/goliatone/go-provider-api/config"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("APP_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithName("app"),
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	if err := run(*configPath, lgr); err != nil {
		lgr.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, lgr *glog.BaseLogger) error {
	cfg, err := config.LoadFromEnv(configPath, config.WithLogger(lgr.GetLogger("config")))
	if err != nil {
		return err
	}

	if cfg.App.Debug {
		lgr.WithLevel(glog.Debug)
	}
	lgr.SetGlobalFields(map[string]any{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	logger := lgr.GetLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, err := api.New(ctx, cfg, api.WithLogger(lgr))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
