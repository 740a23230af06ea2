package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateCreated State = iota
	StateActive
	StateClosed
)

func (st State) String() string {
	switch st {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(st))
	}
}

// Session owns exactly one browser handle. It is created Active by Open and
// moves to Closed exactly once.
type Session struct {
	ID        string
	CreatedAt time.Time

	cfg     Config
	limiter *RateLimiter
	log     *zap.Logger

	mu     sync.Mutex
	state  State
	handle Handle
	// epoch advances on every navigation; live elements remember the epoch
	// they were resolved in.
	epoch uint64
}

// Option customises a Session at Open time.
type Option func(*Session)

// WithRateLimiter gates every Navigate through l.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Session) { s.limiter = l }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Open launches a browser and returns an Active session. Launch failures are
// returned as *LaunchError and are never retried.
func Open(ctx context.Context, launcher Launcher, cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		cfg:       cfg.withDefaults(),
		log:       zap.NewNop(),
		state:     StateCreated,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("session").With(zap.String("session_id", s.ID))

	h, err := launcher.Launch(ctx, s.cfg)
	if err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			err = &LaunchError{Browser: "chromium", Err: err}
		}
		s.log.Error("Browser launch failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.handle = h
	s.state = StateActive
	s.mu.Unlock()

	s.log.Info("Session opened", zap.Bool("headless", s.cfg.Headless))
	return s, nil
}

// WithSession opens a session, runs fn and closes the session on every exit
// path, including a panic inside fn.
func WithSession(ctx context.Context, launcher Launcher, cfg Config, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(ctx, launcher, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		if r := recover(); r != nil {
			panic(r)
		}
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(s)
}

// Close releases the browser. Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	h := s.handle
	s.handle = nil
	s.state = StateClosed
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	if err := h.Close(); err != nil {
		s.log.Warn("Browser close reported an error", zap.Error(err))
		return fmt.Errorf("close session %s: %w", s.ID, err)
	}
	s.log.Info("Session closed")
	return nil
}

// State reports the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the effective launch configuration.
func (s *Session) Config() Config { return s.cfg }

// Limiter returns the rate limiter attached with WithRateLimiter, if any.
func (s *Session) Limiter() *RateLimiter { return s.limiter }

func (s *Session) active() (Handle, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, 0, ErrSessionClosed
	}
	return s.handle, s.epoch, nil
}

// checkEpoch validates a live element resolved at epoch.
func (s *Session) checkEpoch(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrSessionClosed
	}
	if s.epoch != epoch {
		return ErrStaleReference
	}
	return nil
}

// Navigate loads url. When a rate limiter is attached it is consulted first
// and may refuse with ErrPageLimitExceeded. Elements resolved before the
// call become stale.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if _, _, err := s.active(); err != nil {
		return err
	}
	if s.limiter != nil {
		if err := s.limiter.BeforeNavigate(ctx); err != nil {
			return err
		}
	}

	// The limiter may have slept; Close can land in that window.
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.epoch++
	h := s.handle
	s.mu.Unlock()

	s.log.Debug("Navigating", zap.String("url", url))
	if err := h.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) findElements(ctx context.Context, strategy Strategy, selector string) ([]Element, error) {
	h, epoch, err := s.active()
	if err != nil {
		return nil, err
	}
	found, err := h.FindElements(ctx, strategy, selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(found))
	for i, el := range found {
		out[i] = &liveElement{inner: el, session: s, epoch: epoch}
	}
	return out, nil
}

func (s *Session) Title() (string, error) {
	h, _, err := s.active()
	if err != nil {
		return "", err
	}
	return h.Title()
}

func (s *Session) URL() (string, error) {
	h, _, err := s.active()
	if err != nil {
		return "", err
	}
	return h.URL(), nil
}

// Content returns the serialized DOM of the current page.
func (s *Session) Content() (string, error) {
	h, _, err := s.active()
	if err != nil {
		return "", err
	}
	return h.Content()
}

func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	h, _, err := s.active()
	if err != nil {
		return nil, err
	}
	return h.ExecuteScript(ctx, script, args...)
}

func (s *Session) Cookies() ([]Cookie, error) {
	h, _, err := s.active()
	if err != nil {
		return nil, err
	}
	return h.Cookies()
}

func (s *Session) AddCookies(cookies []Cookie) error {
	h, _, err := s.active()
	if err != nil {
		return err
	}
	return h.AddCookies(cookies)
}

func (s *Session) ClearCookies() error {
	h, _, err := s.active()
	if err != nil {
		return err
	}
	return h.ClearCookies()
}

// Screenshot writes a PNG to path and also returns its bytes.
func (s *Session) Screenshot(path string, fullPage bool) ([]byte, error) {
	h, _, err := s.active()
	if err != nil {
		return nil, err
	}
	return h.Screenshot(path, fullPage)
}

func (s *Session) SetViewport(width, height int) error {
	h, _, err := s.active()
	if err != nil {
		return err
	}
	return h.SetViewport(width, height)
}

// Maximize resizes the viewport to the screen's available area.
func (s *Session) Maximize(ctx context.Context) error {
	res, err := s.ExecuteScript(ctx, "() => [window.screen.availWidth, window.screen.availHeight]")
	if err != nil {
		return err
	}
	dims, ok := res.([]any)
	if !ok || len(dims) != 2 {
		return fmt.Errorf("unexpected screen size result %v", res)
	}
	w, wok := toInt(dims[0])
	h, hok := toInt(dims[1])
	if !wok || !hok || w <= 0 || h <= 0 {
		return fmt.Errorf("unexpected screen size result %v", res)
	}
	return s.SetViewport(w, h)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// liveElement pins a driver element to the navigation epoch it came from.
type liveElement struct {
	inner   Element
	session *Session
	epoch   uint64
}

func (e *liveElement) Text() (string, error) {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return "", err
	}
	return e.inner.Text()
}

func (e *liveElement) Attribute(name string) (string, error) {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return "", err
	}
	return e.inner.Attribute(name)
}

func (e *liveElement) Click() error {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return err
	}
	return e.inner.Click()
}

func (e *liveElement) SendKeys(text string) error {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return err
	}
	return e.inner.SendKeys(text)
}

func (e *liveElement) IsVisible() (bool, error) {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return false, err
	}
	return e.inner.IsVisible()
}

func (e *liveElement) IsEnabled() (bool, error) {
	if err := e.session.checkEpoch(e.epoch); err != nil {
		return false, err
	}
	return e.inner.IsEnabled()
}
