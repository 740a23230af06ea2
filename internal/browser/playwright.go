package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightOptions configures the driver process shared by all launches.
type PlaywrightOptions struct {
	// Browser is chromium, firefox or webkit. Defaults to chromium.
	Browser string
	// Install downloads the driver and a matching browser build on first use.
	Install bool
	Logger  *zap.Logger
}

// PlaywrightLauncher starts browsers through a single playwright driver.
type PlaywrightLauncher struct {
	opts PlaywrightOptions
	log  *zap.Logger

	mu sync.Mutex
	pw *playwright.Playwright
}

func NewPlaywrightLauncher(opts PlaywrightOptions) *PlaywrightLauncher {
	if opts.Browser == "" {
		opts.Browser = "chromium"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &PlaywrightLauncher{opts: opts, log: log.Named("playwright")}
}

func (l *PlaywrightLauncher) driver() (*playwright.Playwright, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pw != nil {
		return l.pw, nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{l.opts.Browser},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if l.opts.Install {
		l.log.Info("Installing playwright driver", zap.String("browser", l.opts.Browser))
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	l.pw = pw
	return pw, nil
}

func (l *PlaywrightLauncher) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch l.opts.Browser {
	case "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser %q", l.opts.Browser)
	}
}

// Launch starts a browser with one context and one page.
func (l *PlaywrightLauncher) Launch(ctx context.Context, cfg Config) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}
	pw, err := l.driver()
	if err != nil {
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}
	bt, err := l.browserType(pw)
	if err != nil {
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.Args,
	})
	if err != nil {
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
	}
	if cfg.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(cfg.UserAgent)
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}
	for _, script := range cfg.InitScripts {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			_ = bctx.Close()
			_ = b.Close()
			return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, &LaunchError{Browser: l.opts.Browser, Err: err}
	}
	page.SetDefaultTimeout(cfg.TimeoutMs)

	l.log.Debug("Browser launched", zap.Bool("headless", cfg.Headless), zap.Strings("args", cfg.Args))
	return &pwHandle{browser: b, bctx: bctx, page: page, timeoutMs: cfg.TimeoutMs}, nil
}

// Stop shuts down the driver process. Sessions must be closed first.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}

type pwHandle struct {
	browser   playwright.Browser
	bctx      playwright.BrowserContext
	page      playwright.Page
	timeoutMs float64
}

// timeout shrinks the default action timeout to the context deadline.
func (h *pwHandle) timeout(ctx context.Context) *float64 {
	ms := h.timeoutMs
	if dl, ok := ctx.Deadline(); ok {
		if left := float64(time.Until(dl).Milliseconds()); left < ms {
			ms = max(left, 1)
		}
	}
	return playwright.Float(ms)
}

func (h *pwHandle) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := h.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   h.timeout(ctx),
	})
	return err
}

func (h *pwHandle) Title() (string, error)   { return h.page.Title() }
func (h *pwHandle) URL() string              { return h.page.URL() }
func (h *pwHandle) Content() (string, error) { return h.page.Content() }

func (h *pwHandle) FindElements(ctx context.Context, strategy Strategy, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := playwrightSelector(strategy, selector)
	if err != nil {
		return nil, err
	}
	handles, err := h.page.QuerySelectorAll(sel)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]Element, len(handles))
	for i, eh := range handles {
		out[i] = &pwElement{eh: eh}
	}
	return out, nil
}

func (h *pwHandle) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		return h.page.Evaluate(script)
	case 1:
		return h.page.Evaluate(script, args[0])
	default:
		return h.page.Evaluate(script, args)
	}
}

func (h *pwHandle) Cookies() ([]Cookie, error) {
	pwCookies, err := h.bctx.Cookies()
	if err != nil {
		return nil, err
	}
	out := make([]Cookie, len(pwCookies))
	for i, c := range pwCookies {
		out[i] = fromPlaywrightCookie(c)
	}
	return out, nil
}

func (h *pwHandle) AddCookies(cookies []Cookie) error {
	pwCookies := make([]playwright.OptionalCookie, len(cookies))
	for i, c := range cookies {
		pwCookies[i] = toPlaywrightCookie(c)
	}
	return h.bctx.AddCookies(pwCookies)
}

func (h *pwHandle) ClearCookies() error { return h.bctx.ClearCookies() }

func (h *pwHandle) Screenshot(path string, fullPage bool) ([]byte, error) {
	opts := playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)}
	if path != "" {
		opts.Path = playwright.String(path)
	}
	return h.page.Screenshot(opts)
}

func (h *pwHandle) SetViewport(width, height int) error {
	return h.page.SetViewportSize(width, height)
}

func (h *pwHandle) Close() error {
	return errors.Join(h.bctx.Close(), h.browser.Close())
}

type pwElement struct {
	eh playwright.ElementHandle
}

func (e *pwElement) Text() (string, error) {
	s, err := e.eh.TextContent()
	return strings.TrimSpace(s), translateError(err)
}

func (e *pwElement) Attribute(name string) (string, error) {
	s, err := e.eh.GetAttribute(name)
	return s, translateError(err)
}

func (e *pwElement) Click() error { return translateError(e.eh.Click()) }

func (e *pwElement) SendKeys(text string) error { return translateError(e.eh.Type(text)) }

func (e *pwElement) IsVisible() (bool, error) {
	v, err := e.eh.IsVisible()
	return v, translateError(err)
}

func (e *pwElement) IsEnabled() (bool, error) {
	v, err := e.eh.IsEnabled()
	return v, translateError(err)
}

// translateError maps detached-node failures to ErrStaleReference.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "not attached to the DOM") ||
		strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "JSHandle is disposed") {
		return fmt.Errorf("%w: %v", ErrStaleReference, err)
	}
	return err
}

func playwrightSelector(strategy Strategy, v string) (string, error) {
	switch strategy {
	case ByID:
		return "[id=" + strconv.Quote(v) + "]", nil
	case ByCSS, ByTagName:
		return v, nil
	case ByXPath:
		return "xpath=" + v, nil
	case ByName:
		return "[name=" + strconv.Quote(v) + "]", nil
	case ByClassName:
		return "[class~=" + strconv.Quote(v) + "]", nil
	case ByLinkText:
		return "a:text-is(" + strconv.Quote(v) + ")", nil
	default:
		return "", fmt.Errorf("unsupported locator strategy %q", strategy)
	}
}

func toPlaywrightCookie(c Cookie) playwright.OptionalCookie {
	pc := playwright.OptionalCookie{
		Name:  c.Name,
		Value: c.Value,
	}
	if c.Domain != "" {
		pc.Domain = playwright.String(c.Domain)
	}
	if c.Path != "" {
		pc.Path = playwright.String(c.Path)
	}
	if c.Expires > 0 {
		pc.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		pc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pc.Secure = playwright.Bool(true)
	}
	switch c.SameSite {
	case "Lax":
		pc.SameSite = playwright.SameSiteAttributeLax
	case "Strict":
		pc.SameSite = playwright.SameSiteAttributeStrict
	case "None":
		pc.SameSite = playwright.SameSiteAttributeNone
	}
	return pc
}

func fromPlaywrightCookie(pc playwright.Cookie) Cookie {
	c := Cookie{
		Name:     pc.Name,
		Value:    pc.Value,
		Domain:   pc.Domain,
		Path:     pc.Path,
		Expires:  pc.Expires,
		HTTPOnly: pc.HttpOnly,
		Secure:   pc.Secure,
	}
	if pc.SameSite != nil {
		c.SameSite = string(*pc.SameSite)
	}
	return c
}
