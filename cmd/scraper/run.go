package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/dedup"
	"go-safe-scraper/internal/filter"
	"go-safe-scraper/internal/scraper"
	"go-safe-scraper/internal/scraper/itviec"
	"go-safe-scraper/internal/scraper/linkedin"
	"go-safe-scraper/internal/scraper/topcv"

	"go.uber.org/zap"
)

// sessionCookies holds cookies collected during a run for the next one.
const sessionCookies = "cookies-session.json"

type jobNotifier interface {
	SendJobs(ctx context.Context, jobs []scraper.Job) ([]scraper.Job, error)
	SendStatus(ctx context.Context, message string) error
	SendError(ctx context.Context, err error) error
}

type jobSaver interface {
	SaveJobs(ctx context.Context, jobs []scraper.Job) (int, error)
}

// pipeline is one scrape run: browse, filter, dedup, deliver, record.
type pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	launcher browser.Launcher
	scrapers []scraper.Scraper
	matcher  *filter.Matcher
	cache    *dedup.JobCache
	notifier jobNotifier
	store    jobSaver
	now      func() time.Time
}

type runReport struct {
	Scraped     int
	Matched     int
	New         int
	Sent        int
	ResultsFile string
}

func buildScrapers(cfg *config.Config, shots *browser.ScreenshotDebugger, log *zap.Logger) []scraper.Scraper {
	opts := []scraper.ListingOption{
		scraper.WithWaitPolicy(browser.WaitPolicy{Timeout: cfg.Wait.Timeout, PollInterval: cfg.Wait.PollInterval}),
		scraper.WithHumanize(true),
		scraper.WithScreenshots(shots),
		scraper.WithLogger(log),
	}
	var scrapers []scraper.Scraper
	for _, name := range cfg.Search.Sites {
		switch strings.ToLower(name) {
		case "topcv":
			scrapers = append(scrapers, topcv.New(cfg.Search.Keywords, append(opts, scraper.WithWarmUp(2*time.Second, 4*time.Second))...))
		case "itviec":
			scrapers = append(scrapers, itviec.New(cfg.Search.Keywords, opts...))
		case "linkedin":
			scrapers = append(scrapers, linkedin.New(cfg.Search.Keywords, opts...))
		default:
			log.Warn("Unknown site, skipping", zap.String("site", name))
		}
	}
	return scrapers
}

// browserConfig turns the browser section into a launch config.
func browserConfig(cfg config.BrowserConfig) browser.Config {
	bc := browser.Config{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		Args:      cfg.Args,
		Viewport:  browser.Viewport{Width: cfg.Width, Height: cfg.Height},
		TimeoutMs: cfg.TimeoutMs,
	}
	if cfg.Stealth {
		bc = browser.Stealth(bc)
	}
	return bc
}

func (p *pipeline) run(ctx context.Context) (runReport, error) {
	var report runReport

	limiter, err := browser.NewRateLimiter(browser.RateLimitConfig{
		MaxPages: p.cfg.RateLimit.MaxPages,
		MinDelay: p.cfg.RateLimit.MinDelay,
		MaxDelay: p.cfg.RateLimit.MaxDelay,
	})
	if err != nil {
		return report, err
	}

	var scraped []scraper.Job
	err = browser.WithSession(ctx, p.launcher, browserConfig(p.cfg.Browser), func(s *browser.Session) error {
		p.log.Info("Browser session opened", zap.String("session", s.ID))
		p.loadCookies(s)
		scraped = p.scrapeAll(ctx, s)
		if err := browser.SaveCookies(filepath.Join(p.cfg.Paths.CookiesPath, sessionCookies), s); err != nil {
			p.log.Warn("Could not save cookies", zap.Error(err))
		}
		return ctx.Err()
	}, browser.WithRateLimiter(limiter), browser.WithLogger(p.log))
	if err != nil {
		return report, err
	}
	report.Scraped = len(scraped)

	matched := p.matcher.Apply(scraped)
	report.Matched = len(matched)

	var unseen []scraper.Job
	for _, job := range matched {
		if !p.cache.IsSeen(job.URL) {
			unseen = append(unseen, job)
		}
	}
	report.New = len(unseen)
	p.log.Info("Deduplication", zap.Int("matched", len(matched)), zap.Int("unseen", len(unseen)))

	delivered := unseen
	if p.notifier != nil && len(unseen) > 0 {
		delivered, err = p.notifier.SendJobs(ctx, unseen)
		if err != nil {
			p.log.Warn("Delivery interrupted", zap.Int("sent", len(delivered)), zap.Error(err))
		}
		status := fmt.Sprintf("✅ Found %d new valid jobs, sent %d jobs.", len(unseen), len(delivered))
		if err := p.notifier.SendStatus(context.WithoutCancel(ctx), status); err != nil {
			p.log.Warn("Failed to send status to Telegram", zap.Error(err))
		}
	}
	report.Sent = len(delivered)

	// Only delivered jobs are marked, so failed sends are retried next run.
	if err := p.cache.Add(jobURLs(delivered)); err != nil {
		p.log.Warn("Could not update job cache", zap.Error(err))
	}

	if p.store != nil {
		if _, err := p.store.SaveJobs(context.WithoutCancel(ctx), matched); err != nil {
			p.log.Warn("Could not store jobs", zap.Error(err))
		}
	}

	path, err := saveResults(p.cfg.Paths.ResultsPath, unseen, p.now())
	if err != nil {
		p.log.Warn("Could not save results", zap.Error(err))
	}
	report.ResultsFile = path
	return report, nil
}

// scrapeAll runs every scraper in turn. A failing site is logged and skipped;
// a closed session or cancelled run stops the loop.
func (p *pipeline) scrapeAll(ctx context.Context, s *browser.Session) []scraper.Job {
	var all []scraper.Job
	for _, sc := range p.scrapers {
		p.log.Info("Starting scraper", zap.String("scraper", sc.Name()))
		jobs, err := sc.Scrape(ctx, s)
		all = append(all, jobs...)
		if err != nil {
			p.log.Error("Scraper failed", zap.String("scraper", sc.Name()), zap.Error(err))
			if errors.Is(err, browser.ErrSessionClosed) || ctx.Err() != nil {
				break
			}
			continue
		}
		p.log.Info("Scraper finished", zap.String("scraper", sc.Name()), zap.Int("jobs", len(jobs)))
		if limiter := s.Limiter(); limiter != nil && limiter.Remaining() == 0 {
			p.log.Info("Page budget exhausted", zap.Int("visited", limiter.Visited()))
			break
		}
	}
	return scraper.Dedupe(all)
}

// loadCookies applies per-site cookie exports and the cookies saved by the
// previous run. Missing files are skipped.
func (p *pipeline) loadCookies(s *browser.Session) {
	files := []string{sessionCookies}
	for _, sc := range p.scrapers {
		files = append(files, "cookies-"+strings.ToLower(sc.Name())+".json")
	}
	for _, name := range files {
		path := filepath.Join(p.cfg.Paths.CookiesPath, name)
		cookies, err := browser.LoadCookies(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				p.log.Warn("Could not load cookies", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if err := s.AddCookies(cookies); err != nil {
			p.log.Warn("Could not apply cookies", zap.String("path", path), zap.Error(err))
			continue
		}
		p.log.Info("Loaded cookies", zap.String("path", path), zap.Int("count", len(cookies)))
	}
}

func jobURLs(jobs []scraper.Job) []string {
	urls := make([]string, len(jobs))
	for i, job := range jobs {
		urls[i] = job.URL
	}
	return urls
}

// saveResults writes jobs to <dir>/job-search-YYYY-MM-DD.json. Nothing is
// written for an empty run.
func saveResults(dir string, jobs []scraper.Job, now time.Time) (string, error) {
	if len(jobs) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("job-search-%s.json", now.Format("2006-01-02")))
	data, err := json.MarshalIndent(jobs, "", " ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}
