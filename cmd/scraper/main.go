package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/dedup"
	"go-safe-scraper/internal/filter"
	"go-safe-scraper/internal/notify"
	"go-safe-scraper/internal/observability"
	"go-safe-scraper/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const runTimeout = 10 * time.Minute

type rootOptions struct {
	configPath string
	headless   bool
	maxPages   int
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:          "scraper",
		Short:        "Scrape job boards through a rate-limited browser session and report new matches.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			observability.InitializeLogger(cfg.Logger)
			defer observability.Sync()
			return run(cmd.Context(), cfg, opts.dryRun)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "maximum page loads for this run (overrides rate_limit.max_pages)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "scrape and filter only, skip Telegram and the database")
	return cmd
}

// loadConfig reads the config file and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.RateLimit.MaxPages = opts.maxPages
	}
	if err := cfg.Validate(!opts.dryRun); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, dryRun bool) error {
	log := observability.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	log.Info("Starting job search",
		zap.Strings("keywords", cfg.Search.Keywords),
		zap.Int("max_pages", cfg.RateLimit.MaxPages),
		zap.Bool("dry_run", dryRun))

	launcher := browser.NewPlaywrightLauncher(browser.PlaywrightOptions{
		Browser: cfg.Browser.Engine,
		Install: cfg.Browser.Install,
		Logger:  log,
	})
	defer func() {
		if err := launcher.Stop(); err != nil {
			log.Warn("Failed to stop playwright", zap.Error(err))
		}
	}()

	cache, err := dedup.NewJobCache(cfg.Paths.CachePath, dedup.WithLogger(log))
	if err != nil {
		return err
	}
	shots, err := browser.NewScreenshotDebugger(cfg.Paths.ScreenshotPath, log)
	if err != nil {
		return err
	}

	p := &pipeline{
		cfg:      cfg,
		log:      log,
		launcher: launcher,
		scrapers: buildScrapers(cfg, shots, log),
		matcher:  filter.NewMatcher(cfg.Search),
		cache:    cache,
		now:      time.Now,
	}

	if !dryRun {
		tg, err := notify.NewTelegram(cfg.Telegram, log)
		if err != nil {
			return err
		}
		p.notifier = tg
		if cfg.Database.URL != "" {
			js, err := store.Connect(ctx, cfg.Database.URL, log)
			if err != nil {
				return err
			}
			defer js.Close()
			if err := js.EnsureSchema(ctx); err != nil {
				return err
			}
			p.store = js
		}
	}

	report, err := p.run(ctx)
	if err != nil {
		if p.notifier != nil {
			if sendErr := p.notifier.SendError(context.WithoutCancel(ctx), err); sendErr != nil {
				log.Warn("Failed to report error to Telegram", zap.Error(sendErr))
			}
		}
		return err
	}
	log.Info("Execution finished",
		zap.Int("scraped", report.Scraped),
		zap.Int("matched", report.Matched),
		zap.Int("new", report.New),
		zap.Int("sent", report.Sent),
		zap.String("results", report.ResultsFile))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
