package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeLauncher hands out a single fakeHandle.
type fakeLauncher struct {
	handle   *fakeHandle
	err      error
	launches int
	lastCfg  Config
}

func (l *fakeLauncher) Launch(ctx context.Context, cfg Config) (Handle, error) {
	l.launches++
	l.lastCfg = cfg
	if l.err != nil {
		return nil, l.err
	}
	return l.handle, nil
}

type fakeElement struct {
	h        *fakeHandle
	text     string
	attrs    map[string]string
	disabled bool
	hidden   bool
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }

func (e *fakeElement) Click() error {
	e.h.mu.Lock()
	defer e.h.mu.Unlock()
	e.h.clickAttempts++
	if e.h.staleClicks > 0 {
		e.h.staleClicks--
		return ErrStaleReference
	}
	e.h.clicks++
	return nil
}

func (e *fakeElement) SendKeys(text string) error {
	e.h.mu.Lock()
	defer e.h.mu.Unlock()
	e.h.typed += text
	return nil
}

func (e *fakeElement) IsVisible() (bool, error) { return !e.hidden, nil }
func (e *fakeElement) IsEnabled() (bool, error) { return !e.disabled, nil }

// fakeHandle is an in-memory page. Elements are keyed by "strategy:selector".
type fakeHandle struct {
	mu sync.Mutex

	url      string
	title    string
	html     string
	elements map[string][]*fakeElement
	// appearAfter delays an element until that many lookups of its key.
	appearAfter map[string]int
	lookups     map[string]int

	findCalls     int
	clickAttempts int
	clicks        int
	staleClicks   int
	typed         string
	navigations   []string
	navErr        error
	closeCalls    int
	closeErr      error
	cookies       []Cookie
	scripts       []string
	evalResult    any
	viewport      [2]int
	screenshots   []string
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		url:         "about:blank",
		elements:    make(map[string][]*fakeElement),
		appearAfter: make(map[string]int),
		lookups:     make(map[string]int),
	}
}

func (h *fakeHandle) add(ref ElementRef, els ...*fakeElement) {
	for _, el := range els {
		el.h = h
	}
	key := string(ref.Strategy) + ":" + ref.Selector
	h.elements[key] = append(h.elements[key], els...)
}

func (h *fakeHandle) Navigate(ctx context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.navErr != nil {
		return h.navErr
	}
	h.url = url
	h.navigations = append(h.navigations, url)
	return nil
}

func (h *fakeHandle) Title() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title, nil
}

func (h *fakeHandle) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

func (h *fakeHandle) Content() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.html, nil
}

func (h *fakeHandle) FindElements(ctx context.Context, strategy Strategy, selector string) ([]Element, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.findCalls++
	key := string(strategy) + ":" + selector
	h.lookups[key]++
	if h.lookups[key] <= h.appearAfter[key] {
		return nil, nil
	}
	var out []Element
	for _, el := range h.elements[key] {
		out = append(out, el)
	}
	return out, nil
}

func (h *fakeHandle) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts = append(h.scripts, script)
	return h.evalResult, nil
}

func (h *fakeHandle) Cookies() ([]Cookie, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Cookie(nil), h.cookies...), nil
}

func (h *fakeHandle) AddCookies(cookies []Cookie) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cookies = append(h.cookies, cookies...)
	return nil
}

func (h *fakeHandle) ClearCookies() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cookies = nil
	return nil
}

func (h *fakeHandle) Screenshot(path string, fullPage bool) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.screenshots = append(h.screenshots, path)
	return []byte("png"), nil
}

func (h *fakeHandle) SetViewport(width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewport = [2]int{width, height}
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	return h.closeErr
}

var errBoom = errors.New("boom")

// openFake opens a session over a fresh fakeHandle.
func openFake(t *testing.T, opts ...Option) (*Session, *fakeHandle) {
	t.Helper()
	h := newFakeHandle()
	s, err := Open(context.Background(), &fakeLauncher{handle: h}, Config{Headless: true}, opts...)
	if err != nil {
		t.Fatalf("open fake session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, h
}
