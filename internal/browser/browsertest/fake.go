// Package browsertest provides an in-memory browser.Handle backed by static
// HTML. Selectors are evaluated with goquery, so CSS based scrapers can be
// tested without launching a browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go-safe-scraper/internal/browser"

	"github.com/PuerkitoBio/goquery"
)

// Page is what the fake serves for one URL.
type Page struct {
	Title string
	HTML  string
}

// Browser is a fake browser.Handle. The zero value is not usable; call New.
type Browser struct {
	mu sync.Mutex

	pages   map[string]Page
	url     string
	current Page

	// OnClick, when set, runs after a click with the CSS selector of the
	// clicked element. It may call SetPage to simulate DOM changes.
	OnClick func(b *Browser, selector string)

	Navigations []string
	Clicks      []string
	Scripts     []string
	Screenshots []string
	CookieJar   []browser.Cookie
	CloseCalls  int
}

func New(pages map[string]Page) *Browser {
	return &Browser{pages: pages, url: "about:blank"}
}

// SetPage replaces the current document without a navigation.
func (b *Browser) SetPage(p Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = p
}

// Launcher returns a launcher that always yields b.
func (b *Browser) Launcher() *Launcher { return &Launcher{Browser: b} }

// Launcher implements browser.Launcher.
type Launcher struct {
	Browser  *Browser
	Err      error
	Launches int
	Config   browser.Config
}

func (l *Launcher) Launch(ctx context.Context, cfg browser.Config) (browser.Handle, error) {
	l.Launches++
	l.Config = cfg
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Browser, nil
}

// ErrNoPage is returned when navigating to a URL the fake does not know.
var ErrNoPage = errors.New("browsertest: no page for url")

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Navigations = append(b.Navigations, url)
	p, ok := b.pages[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPage, url)
	}
	b.url = url
	b.current = p
	return nil
}

func (b *Browser) Title() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.Title, nil
}

func (b *Browser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

func (b *Browser) Content() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.HTML, nil
}

func (b *Browser) FindElements(ctx context.Context, strategy browser.Strategy, selector string) ([]browser.Element, error) {
	b.mu.Lock()
	html := b.current.HTML
	b.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	css, textMatch, err := cssFor(strategy, selector)
	if err != nil {
		return nil, err
	}
	var out []browser.Element
	doc.Find(css).Each(func(i int, sel *goquery.Selection) {
		if textMatch != "" && strings.TrimSpace(sel.Text()) != textMatch {
			return
		}
		out = append(out, &element{b: b, sel: sel, selector: css})
	})
	return out, nil
}

func cssFor(strategy browser.Strategy, v string) (css, text string, err error) {
	switch strategy {
	case browser.ByID:
		return "[id=" + strconv.Quote(v) + "]", "", nil
	case browser.ByCSS, browser.ByTagName:
		return v, "", nil
	case browser.ByName:
		return "[name=" + strconv.Quote(v) + "]", "", nil
	case browser.ByClassName:
		return "." + v, "", nil
	case browser.ByLinkText:
		return "a", v, nil
	default:
		return "", "", fmt.Errorf("browsertest: strategy %q not supported", strategy)
	}
}

func (b *Browser) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Scripts = append(b.Scripts, script)
	return nil, nil
}

func (b *Browser) Cookies() ([]browser.Cookie, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]browser.Cookie(nil), b.CookieJar...), nil
}

func (b *Browser) AddCookies(cookies []browser.Cookie) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CookieJar = append(b.CookieJar, cookies...)
	return nil
}

func (b *Browser) ClearCookies() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CookieJar = nil
	return nil
}

func (b *Browser) Screenshot(path string, fullPage bool) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Screenshots = append(b.Screenshots, path)
	return nil, nil
}

func (b *Browser) SetViewport(width, height int) error { return nil }

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCalls++
	return nil
}

type element struct {
	b        *Browser
	sel      *goquery.Selection
	selector string
}

func (e *element) Text() (string, error) { return strings.TrimSpace(e.sel.Text()), nil }

func (e *element) Attribute(name string) (string, error) { return e.sel.AttrOr(name, ""), nil }

func (e *element) Click() error {
	e.b.mu.Lock()
	e.b.Clicks = append(e.b.Clicks, e.selector)
	hook := e.b.OnClick
	e.b.mu.Unlock()
	if hook != nil {
		hook(e.b, e.selector)
	}
	return nil
}

func (e *element) SendKeys(text string) error { return nil }

func (e *element) IsVisible() (bool, error) {
	_, hidden := e.sel.Attr("hidden")
	style := strings.ReplaceAll(e.sel.AttrOr("style", ""), " ", "")
	return !hidden && !strings.Contains(style, "display:none"), nil
}

func (e *element) IsEnabled() (bool, error) {
	_, disabled := e.sel.Attr("disabled")
	return !disabled, nil
}
