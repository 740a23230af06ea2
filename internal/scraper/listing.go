package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-safe-scraper/internal/browser"

	"go.uber.org/zap"
)

var challengeMarkers = []string{"Attention Required", "Just a moment", "Cloudflare"}

// IsChallengeTitle reports whether a page title belongs to a bot challenge.
func IsChallengeTitle(title string) bool {
	for _, m := range challengeMarkers {
		if strings.Contains(title, m) {
			return true
		}
	}
	return false
}

// ListingScraper walks a Site's search pages for each keyword.
type ListingScraper struct {
	site     Site
	keywords []string

	locator       *browser.Locator
	wait          browser.WaitPolicy
	challengeWait time.Duration
	warmUp        [2]time.Duration
	humanize      bool
	shots         *browser.ScreenshotDebugger
	log           *zap.Logger
	now           func() time.Time
}

type ListingOption func(*ListingScraper)

func WithWaitPolicy(p browser.WaitPolicy) ListingOption {
	return func(s *ListingScraper) { s.wait = p }
}

// WithChallengeWait sets how long a bot challenge may take to clear itself.
func WithChallengeWait(d time.Duration) ListingOption {
	return func(s *ListingScraper) { s.challengeWait = d }
}

// WithWarmUp visits the home page first and lingers between min and max.
func WithWarmUp(min, max time.Duration) ListingOption {
	return func(s *ListingScraper) { s.warmUp = [2]time.Duration{min, max} }
}

// WithHumanize scrolls each result page like a reader would.
func WithHumanize(on bool) ListingOption {
	return func(s *ListingScraper) { s.humanize = on }
}

func WithScreenshots(d *browser.ScreenshotDebugger) ListingOption {
	return func(s *ListingScraper) { s.shots = d }
}

func WithLogger(l *zap.Logger) ListingOption {
	return func(s *ListingScraper) {
		if l != nil {
			s.log = l
		}
	}
}

func NewListingScraper(site Site, keywords []string, opts ...ListingOption) *ListingScraper {
	s := &ListingScraper{
		site:          site,
		keywords:      keywords,
		wait:          browser.WaitPolicy{Timeout: 15 * time.Second, PollInterval: 250 * time.Millisecond},
		challengeWait: 7 * time.Second,
		log:           zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("scraper").With(zap.String("site", site.Name))
	s.locator = browser.NewLocator(s.log)
	return s
}

func (s *ListingScraper) Name() string { return s.site.Name }

// Scrape searches every keyword. Blocked or broken queries are skipped; an
// exhausted page budget ends the run early without an error.
func (s *ListingScraper) Scrape(ctx context.Context, sess *browser.Session) ([]Job, error) {
	var all []Job

	if s.warmUp[1] > 0 && s.site.BaseURL != "" {
		if err := s.warm(ctx, sess); err != nil {
			if errors.Is(err, ErrBlocked) {
				s.log.Warn("Blocked on home page, skipping site", zap.Error(err))
				return nil, nil
			}
			if stop, err := s.stop(err); stop {
				return nil, err
			}
			s.log.Warn("Warm-up failed", zap.Error(err))
		}
	}

	for _, kw := range s.keywords {
		if err := ctx.Err(); err != nil {
			return Dedupe(all), err
		}
		jobs, err := s.scrapeQuery(ctx, sess, kw)
		if err != nil {
			if stop, err := s.stop(err); stop {
				return Dedupe(all), err
			}
			s.log.Warn("Query skipped", zap.String("keyword", kw), zap.Error(err))
			continue
		}
		s.log.Info("Query finished", zap.String("keyword", kw), zap.Int("jobs", len(jobs)))
		all = append(all, jobs...)
	}
	return Dedupe(all), nil
}

// stop decides whether err ends the whole run, and with which error.
func (s *ListingScraper) stop(err error) (bool, error) {
	switch {
	case errors.Is(err, browser.ErrPageLimitExceeded):
		s.log.Info("Page budget exhausted, stopping", zap.Error(err))
		return true, nil
	case errors.Is(err, browser.ErrSessionClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true, err
	default:
		return false, err
	}
}

func (s *ListingScraper) warm(ctx context.Context, sess *browser.Session) error {
	s.log.Info("Warming up on home page", zap.String("url", s.site.BaseURL))
	if err := sess.Navigate(ctx, s.site.BaseURL); err != nil {
		return err
	}
	if err := s.checkBlocked(ctx, sess, "home"); err != nil {
		return err
	}
	return browser.RandomDelay(ctx, s.warmUp[0], s.warmUp[1])
}

func (s *ListingScraper) scrapeQuery(ctx context.Context, sess *browser.Session, keyword string) ([]Job, error) {
	target := s.site.SearchURLFor(keyword)
	if err := sess.Navigate(ctx, target); err != nil {
		return nil, err
	}
	if err := s.checkBlocked(ctx, sess, "search"); err != nil {
		return nil, err
	}

	empty, err := browser.WaitUntil(ctx, s.wait, s.resultsOrEmpty(sess))
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			s.capture(sess, "no-results-rendered")
		}
		return nil, fmt.Errorf("wait for %s results: %w", keyword, err)
	}
	if empty {
		s.log.Info("No matching jobs", zap.String("keyword", keyword))
		return nil, nil
	}

	if s.site.Dismiss.Selector != "" {
		err := s.locator.Interact(ctx, sess, s.site.Dismiss, func(el browser.Element) error {
			if visible, err := el.IsVisible(); err != nil || !visible {
				return err
			}
			return el.Click()
		})
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			s.log.Debug("Could not dismiss modal", zap.Error(err))
		}
	}
	if s.humanize {
		if err := browser.HumanScroll(ctx, sess); err != nil {
			s.log.Debug("Scroll failed", zap.Error(err))
		}
	}

	html, err := sess.Content()
	if err != nil {
		return nil, err
	}
	return ParseListings(html, s.site, s.now())
}

// resultsOrEmpty is ready when either result cards or the empty marker show.
// Its value is true for the empty case.
func (s *ListingScraper) resultsOrEmpty(sess *browser.Session) browser.Condition[bool] {
	return func(ctx context.Context) (bool, bool, error) {
		if s.site.Empty.Selector != "" {
			els, err := s.locator.LocateAll(ctx, sess, s.site.Empty)
			if err != nil {
				return false, false, err
			}
			if len(els) > 0 {
				return true, true, nil
			}
		}
		if _, err := s.locator.Locate(ctx, sess, s.site.Ready); err != nil {
			return false, false, err
		}
		return false, true, nil
	}
}

// checkBlocked gives a challenge page time to clear itself, then reports
// ErrBlocked if it has not, or if a captcha is showing.
func (s *ListingScraper) checkBlocked(ctx context.Context, sess *browser.Session, stage string) error {
	title, err := sess.Title()
	if err != nil {
		return err
	}
	if IsChallengeTitle(title) {
		s.log.Warn("Bot challenge detected, waiting", zap.String("stage", stage), zap.Duration("wait", s.challengeWait))
		s.capture(sess, "challenge-"+stage)
		_, err := browser.WaitUntil(ctx, browser.WaitPolicy{Timeout: s.challengeWait, PollInterval: 500 * time.Millisecond},
			func(ctx context.Context) (string, bool, error) {
				t, err := sess.Title()
				return t, err == nil && !IsChallengeTitle(t), err
			})
		if errors.Is(err, browser.ErrTimeout) {
			return fmt.Errorf("%s challenge on %s page: %w", s.site.Name, stage, ErrBlocked)
		}
		if err != nil {
			return err
		}
	}

	if s.site.Captcha.Selector != "" {
		els, err := s.locator.LocateAll(ctx, sess, s.site.Captcha)
		if err != nil {
			return err
		}
		if len(els) > 0 {
			s.capture(sess, "captcha-"+stage)
			return fmt.Errorf("%s captcha on %s page: %w", s.site.Name, stage, ErrBlocked)
		}
	}
	return nil
}

func (s *ListingScraper) capture(sess *browser.Session, what string) {
	if s.shots == nil {
		return
	}
	name := strings.ToLower(s.site.Name) + "-" + what
	_, _ = s.shots.Capture(sess, name, what)
}
