package browser

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultUserAgent is a current desktop Chrome on Windows.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// StealthArgs are Chromium flags that drop the most obvious automation markers.
var StealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--no-default-browser-check",
	"--disable-infobars",
}

// HideWebdriverScript removes navigator.webdriver before page scripts run.
const HideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Stealth returns cfg with a user agent, anti-detection flags and the
// webdriver init script added. Existing values are kept.
func Stealth(cfg Config) Config {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	seen := make(map[string]bool, len(cfg.Args))
	for _, a := range cfg.Args {
		seen[a] = true
	}
	args := append([]string(nil), cfg.Args...)
	for _, a := range StealthArgs {
		if !seen[a] {
			args = append(args, a)
		}
	}
	cfg.Args = args
	cfg.InitScripts = append(append([]string(nil), cfg.InitScripts...), HideWebdriverScript)
	return cfg
}

// RandomDelay pauses for a random duration in [min, max].
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int64N(int64(max-min) + 1))
	}
	return sleepContext(ctx, d)
}

// HumanScroll scrolls down in uneven steps, backs up a little and finally
// jumps to the bottom to trigger lazy loading.
func HumanScroll(ctx context.Context, s *Session) error {
	steps := 3 + rand.IntN(3)
	for i := 0; i < steps; i++ {
		if _, err := s.ExecuteScript(ctx, "() => window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 300*time.Millisecond, 900*time.Millisecond); err != nil {
			return err
		}
	}
	if _, err := s.ExecuteScript(ctx, "() => window.scrollBy(0, -200)"); err != nil {
		return err
	}
	_, err := s.ExecuteScript(ctx, "() => window.scrollTo(0, document.body.scrollHeight)")
	return err
}
