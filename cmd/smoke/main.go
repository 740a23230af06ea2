// Command smoke checks a live environment piece by piece: config, cookie
// files, a real browser session and the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/observability"
	"go-safe-scraper/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "smoke",
		Short:        "Smoke-test the scraper's dependencies",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		observability.InitializeLogger(cfg.Logger)
		return cfg, nil
	}

	root.AddCommand(newConfigCmd(load), newCookiesCmd(), newBrowserCmd(load), newDBCmd(load))
	return root
}

func newConfigCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Load and validate the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✅ Config loaded")
			fmt.Fprintf(out, "   Sites: %v\n", cfg.Search.Sites)
			fmt.Fprintf(out, "   Keywords: %v\n", cfg.Search.Keywords)
			fmt.Fprintf(out, "   Locations: %v\n", cfg.Search.Locations)
			fmt.Fprintf(out, "   Page budget: %d (%s-%s apart)\n", cfg.RateLimit.MaxPages, cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay)
			fmt.Fprintf(out, "   Telegram chat: %d\n", cfg.Telegram.ChatID)
			fmt.Fprintf(out, "   Cookies path: %s\n", cfg.Paths.CookiesPath)
			return cfg.Validate(true)
		},
	}
}

func newCookiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cookies FILE",
		Short: "Parse a cookie export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookies, err := browser.LoadCookies(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Loaded %d cookies\n", len(cookies))
			if len(cookies) > 0 {
				c := cookies[0]
				fmt.Fprintf(out, "\nExample cookie:\nName: %s\nDomain: %s\nSecure: %t\n", c.Name, c.Domain, c.Secure)
			}
			return nil
		},
	}
}

func newBrowserCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		target     string
		cookies    string
		selector   string
		screenshot string
	)
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Open a real browser session, visit a page and look for an element",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := observability.GetLogger()
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			launcher := browser.NewPlaywrightLauncher(browser.PlaywrightOptions{
				Browser: cfg.Browser.Engine,
				Install: cfg.Browser.Install,
				Logger:  log,
			})
			defer launcher.Stop()

			bc := browser.Stealth(browser.Config{Headless: cfg.Browser.Headless, TimeoutMs: cfg.Browser.TimeoutMs})
			return browser.WithSession(ctx, launcher, bc, func(s *browser.Session) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "✅ Session %s opened\n", s.ID)
				if cookies != "" {
					cs, err := browser.LoadCookies(cookies)
					if err != nil {
						return err
					}
					if err := s.AddCookies(cs); err != nil {
						return err
					}
					fmt.Fprintf(out, "🍪 Applied %d cookies\n", len(cs))
				}

				if err := s.Navigate(ctx, target); err != nil {
					return err
				}
				title, err := s.Title()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Page title: %s\n", title)

				if selector != "" {
					policy := browser.WaitPolicy{Timeout: cfg.Wait.Timeout, PollInterval: cfg.Wait.PollInterval}
					el, err := browser.WaitUntil(ctx, policy, browser.Presence(browser.NewLocator(log), s, browser.CSS(selector)))
					switch {
					case errors.Is(err, browser.ErrTimeout):
						fmt.Fprintf(out, "⚠️ %q did not appear within %s\n", selector, cfg.Wait.Timeout)
					case err != nil:
						return err
					default:
						text, _ := el.Text()
						fmt.Fprintf(out, "✅ Found %q: %s\n", selector, text)
					}
				}

				if screenshot != "" {
					if _, err := s.Screenshot(screenshot, true); err != nil {
						log.Warn("Failed to take screenshot", zap.Error(err))
					} else {
						fmt.Fprintf(out, "📸 Screenshot saved: %s\n", screenshot)
					}
				}
				return nil
			}, browser.WithLogger(log))
		},
	}
	cmd.Flags().StringVar(&target, "url", "https://example.com", "page to visit")
	cmd.Flags().StringVar(&cookies, "cookies", "", "cookie file to apply before navigating")
	cmd.Flags().StringVar(&selector, "selector", "", "CSS selector to wait for")
	cmd.Flags().StringVar(&screenshot, "screenshot", "", "write a full-page screenshot here")
	return cmd
}

func newDBCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "db",
		Short: "Connect to DATABASE_URL and print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			js, err := store.Connect(ctx, cfg.Database.URL, observability.GetLogger())
			if err != nil {
				return err
			}
			defer js.Close()

			version, err := js.ServerVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Connected:", version)
			return nil
		},
	}
}
