package browser

import "context"

// Launcher starts browser processes. PlaywrightLauncher is the production
// implementation; tests plug in fakes.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Handle, error)
}

// Handle is one running browser with a single page.
type Handle interface {
	Navigate(ctx context.Context, url string) error
	Title() (string, error)
	URL() string
	Content() (string, error)
	FindElements(ctx context.Context, strategy Strategy, selector string) ([]Element, error)
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	Cookies() ([]Cookie, error)
	AddCookies(cookies []Cookie) error
	ClearCookies() error
	Screenshot(path string, fullPage bool) ([]byte, error)
	SetViewport(width, height int) error
	Close() error
}

// Element is a live handle to a DOM node. It is only meaningful until the
// next navigation of the session that produced it.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	Click() error
	SendKeys(text string) error
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
}

// Viewport is the page size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config describes how a browser is launched.
type Config struct {
	Headless  bool
	UserAgent string
	Args      []string
	Viewport  Viewport
	// TimeoutMs is the default per-action timeout applied to the page.
	TimeoutMs float64
	// InitScripts run in every document before page scripts.
	InitScripts []string
}

const (
	DefaultTimeoutMs      = 30000.0
	DefaultViewportWidth  = 1366
	DefaultViewportHeight = 768
)

// withDefaults fills the zero fields of cfg.
func (cfg Config) withDefaults() Config {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Viewport.Width == 0 || cfg.Viewport.Height == 0 {
		cfg.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	return cfg
}
