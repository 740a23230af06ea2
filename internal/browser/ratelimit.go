package browser

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// RateLimitConfig caps total page loads and spreads them out randomly.
type RateLimitConfig struct {
	MaxPages int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// RateLimiter sleeps a uniformly random delay before each navigation and
// refuses navigation once MaxPages have been visited.
type RateLimiter struct {
	maxPages int
	minDelay time.Duration
	maxDelay time.Duration
	rnd      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	visited int
}

// LimiterOption customises a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithRand makes the delay sequence reproducible.
func WithRand(r *rand.Rand) LimiterOption {
	return func(l *RateLimiter) { l.rnd = r }
}

// WithSleeper replaces the context-aware sleep, mostly for tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) LimiterOption {
	return func(l *RateLimiter) { l.sleep = fn }
}

func NewRateLimiter(cfg RateLimitConfig, opts ...LimiterOption) (*RateLimiter, error) {
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("max pages must not be negative, got %d", cfg.MaxPages)
	}
	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("invalid delay range [%s, %s]", cfg.MinDelay, cfg.MaxDelay)
	}
	l := &RateLimiter{
		maxPages: cfg.MaxPages,
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// BeforeNavigate must be called before every page load. The delay runs
// before the navigation starts, so network time is not part of it.
func (l *RateLimiter) BeforeNavigate(ctx context.Context) error {
	l.mu.Lock()
	if l.visited >= l.maxPages {
		visited := l.visited
		l.mu.Unlock()
		return fmt.Errorf("%d of %d pages visited: %w", visited, l.maxPages, ErrPageLimitExceeded)
	}
	// The slot is reserved up front and handed back if the sleep is cancelled.
	l.visited++
	d := l.nextDelay()
	l.mu.Unlock()

	if err := l.sleep(ctx, d); err != nil {
		l.mu.Lock()
		l.visited--
		l.mu.Unlock()
		return err
	}
	return nil
}

// nextDelay draws from [minDelay, maxDelay]. Callers hold mu.
func (l *RateLimiter) nextDelay() time.Duration {
	span := int64(l.maxDelay - l.minDelay)
	if span <= 0 {
		return l.minDelay
	}
	var n int64
	if l.rnd != nil {
		n = l.rnd.Int64N(span + 1)
	} else {
		n = rand.Int64N(span + 1)
	}
	return l.minDelay + time.Duration(n)
}

// Visited reports how many navigations have been allowed.
func (l *RateLimiter) Visited() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visited
}

// Remaining reports how many navigations are left.
func (l *RateLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxPages - l.visited
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
