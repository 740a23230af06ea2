package browser

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Strategy names how a selector is interpreted.
type Strategy string

const (
	ByID        Strategy = "id"
	ByCSS       Strategy = "css"
	ByXPath     Strategy = "xpath"
	ByName      Strategy = "name"
	ByClassName Strategy = "class"
	ByTagName   Strategy = "tag"
	ByLinkText  Strategy = "link_text"
)

// ElementRef is a logical element description. It is resolved on demand and
// never cached across navigations.
type ElementRef struct {
	Strategy Strategy
	Selector string
}

func (r ElementRef) String() string {
	return fmt.Sprintf("%s=%q", r.Strategy, r.Selector)
}

func ID(v string) ElementRef       { return ElementRef{Strategy: ByID, Selector: v} }
func CSS(v string) ElementRef      { return ElementRef{Strategy: ByCSS, Selector: v} }
func XPath(v string) ElementRef    { return ElementRef{Strategy: ByXPath, Selector: v} }
func Name(v string) ElementRef     { return ElementRef{Strategy: ByName, Selector: v} }
func Class(v string) ElementRef    { return ElementRef{Strategy: ByClassName, Selector: v} }
func Tag(v string) ElementRef      { return ElementRef{Strategy: ByTagName, Selector: v} }
func LinkText(v string) ElementRef { return ElementRef{Strategy: ByLinkText, Selector: v} }

// Locator resolves ElementRefs against a session.
type Locator struct {
	retryOnStale bool
	log          *zap.Logger
}

// NewLocator returns a Locator that retries once on staleness.
func NewLocator(log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{retryOnStale: true, log: log.Named("locator")}
}

// WithoutStaleRetry returns a copy that surfaces the first stale error.
func (l *Locator) WithoutStaleRetry() *Locator {
	cp := *l
	cp.retryOnStale = false
	return &cp
}

// Locate returns the first element matching ref, or ErrNotFound. It makes a
// single resolution attempt; waiting is the caller's job (see WaitUntil).
func (l *Locator) Locate(ctx context.Context, s *Session, ref ElementRef) (Element, error) {
	els, err := s.findElements(ctx, ref.Strategy, ref.Selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return els[0], nil
}

// LocateAll returns every element matching ref. An empty result is not an error.
func (l *Locator) LocateAll(ctx context.Context, s *Session, ref ElementRef) ([]Element, error) {
	return s.findElements(ctx, ref.Strategy, ref.Selector)
}

// Interact resolves ref and runs fn on it. If fn reports ErrStaleReference the
// element is resolved again and fn runs one more time; a second stale error
// is returned to the caller.
func (l *Locator) Interact(ctx context.Context, s *Session, ref ElementRef, fn func(Element) error) error {
	el, err := l.Locate(ctx, s, ref)
	if err != nil {
		return err
	}
	err = fn(el)
	if err == nil || !errors.Is(err, ErrStaleReference) || !l.retryOnStale {
		return err
	}

	l.log.Debug("Stale element, resolving again", zap.Stringer("ref", ref))
	el, err = l.Locate(ctx, s, ref)
	if err != nil {
		return err
	}
	return fn(el)
}

// Click is Interact with a click.
func (l *Locator) Click(ctx context.Context, s *Session, ref ElementRef) error {
	return l.Interact(ctx, s, ref, func(el Element) error { return el.Click() })
}

// SendKeys is Interact with typing.
func (l *Locator) SendKeys(ctx context.Context, s *Session, ref ElementRef, text string) error {
	return l.Interact(ctx, s, ref, func(el Element) error { return el.SendKeys(text) })
}

// Text reads the element text with the stale retry applied.
func (l *Locator) Text(ctx context.Context, s *Session, ref ElementRef) (string, error) {
	var text string
	err := l.Interact(ctx, s, ref, func(el Element) error {
		var err error
		text, err = el.Text()
		return err
	})
	return text, err
}

// TextOr is Text with ErrNotFound mapped to def.
func (l *Locator) TextOr(ctx context.Context, s *Session, ref ElementRef, def string) (string, error) {
	text, err := l.Text(ctx, s, ref)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return text, err
}
