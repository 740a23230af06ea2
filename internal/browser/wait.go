package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultPollInterval is used when a WaitPolicy leaves PollInterval unset.
const DefaultPollInterval = 250 * time.Millisecond

// WaitPolicy bounds a polling wait. Timeout is mandatory.
type WaitPolicy struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// Condition is polled by WaitUntil. It returns ok=true once it has a result.
type Condition[T any] func(ctx context.Context) (T, bool, error)

// WaitUntil polls cond at a fixed interval until it yields a result or the
// policy timeout elapses, in which case ErrTimeout is returned. A failure is
// never reported before Timeout and at most one interval after it.
// ErrNotFound and ErrStaleReference from cond mean "not yet"; any other
// error ends the wait immediately.
func WaitUntil[T any](ctx context.Context, p WaitPolicy, cond Condition[T]) (T, error) {
	var zero T
	if p.Timeout <= 0 {
		return zero, ErrInvalidTimeout
	}
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	start := time.Now()
	for {
		v, ok, err := cond(ctx)
		switch {
		case err == nil && ok:
			return v, nil
		case err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrStaleReference):
			return zero, err
		}

		elapsed := time.Since(start)
		if elapsed >= p.Timeout {
			return zero, fmt.Errorf("gave up after %s: %w", p.Timeout, ErrTimeout)
		}
		pause := interval
		if remaining := p.Timeout - elapsed; remaining < pause {
			pause = remaining
		}

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}

// Presence is satisfied once ref resolves to an element.
func Presence(l *Locator, s *Session, ref ElementRef) Condition[Element] {
	return func(ctx context.Context) (Element, bool, error) {
		el, err := l.Locate(ctx, s, ref)
		if err != nil {
			return nil, false, err
		}
		return el, true, nil
	}
}

// Clickable is satisfied once ref resolves to a visible, enabled element.
func Clickable(l *Locator, s *Session, ref ElementRef) Condition[Element] {
	return func(ctx context.Context) (Element, bool, error) {
		el, err := l.Locate(ctx, s, ref)
		if err != nil {
			return nil, false, err
		}
		visible, err := el.IsVisible()
		if err != nil || !visible {
			return nil, false, err
		}
		enabled, err := el.IsEnabled()
		if err != nil || !enabled {
			return nil, false, err
		}
		return el, true, nil
	}
}

// TitleContains is satisfied once the page title contains substr.
func TitleContains(s *Session, substr string) Condition[string] {
	return func(ctx context.Context) (string, bool, error) {
		title, err := s.Title()
		if err != nil {
			return "", false, err
		}
		return title, strings.Contains(title, substr), nil
	}
}
