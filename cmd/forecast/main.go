package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/beehiiv-forecast/internal/analytics"
	"github.com/ignite/beehiiv-forecast/internal/beehiiv"
	"github.com/ignite/beehiiv-forecast/internal/config"
	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/notify"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
	"github.com/ignite/beehiiv-forecast/internal/report"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	outDir := flag.String("out", "", "write report.txt and data.json to this directory instead of the configured storage")
	email := flag.Bool("email", false, "e-mail the report using the notify settings")
	quiet := flag.Bool("quiet", false, "do not print the report to stdout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *outDir, *email, *quiet); err != nil {
		logger.Error("forecast failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, outDir string, email, quiet bool) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedact(cfg.Logging.Redact)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fcfg, err := cfg.Forecast()
	if err != nil {
		return err
	}

	renderer, err := report.NewTextRenderer()
	if err != nil {
		return err
	}

	var writer storage.ReportWriter
	if outDir != "" {
		writer = storage.NewLocalWriter(outDir)
	} else {
		writer, err = storage.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
	}

	opts := []analytics.Option{analytics.WithWriter(writer)}
	if email || cfg.Notify.Enabled {
		if cfg.Notify.From == "" || len(cfg.Notify.To) == 0 {
			return fmt.Errorf("-email needs notify.from and notify.to in %s", configPath)
		}
		mailer, err := notify.NewMailer(ctx, cfg.Notify)
		if err != nil {
			return fmt.Errorf("initializing mailer: %w", err)
		}
		opts = append(opts, analytics.WithNotifier(mailer))
	}

	logger.Info("starting forecast run",
		"deadline", cfg.Targets.Deadline,
		"target_subscribers", cfg.Targets.Subscribers,
	)

	svc := analytics.NewService(beehiiv.NewClient(cfg.Beehiiv), forecast.NewEngine(fcfg), renderer, opts...)
	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Print(res.Report)
	}
	for _, loc := range res.Locations {
		logger.Info("saved", "location", loc)
	}
	return nil
}
