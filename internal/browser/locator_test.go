package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_Locate(t *testing.T) {
	ctx := context.Background()

	t.Run("first match wins", func(t *testing.T) {
		s, h := openFake(t)
		h.add(CSS(".card"), &fakeElement{text: "one"}, &fakeElement{text: "two"})

		el, err := NewLocator(nil).Locate(ctx, s, CSS(".card"))
		require.NoError(t, err)
		text, err := el.Text()
		require.NoError(t, err)
		assert.Equal(t, "one", text)
	})

	t.Run("missing element fails after one attempt", func(t *testing.T) {
		s, h := openFake(t)

		_, err := NewLocator(nil).Locate(ctx, s, ID("missing"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), `id="missing"`)
		assert.Equal(t, 1, h.findCalls)
	})

	t.Run("locate all may be empty", func(t *testing.T) {
		s, h := openFake(t)
		h.add(Tag("li"), &fakeElement{}, &fakeElement{}, &fakeElement{})

		els, err := NewLocator(nil).LocateAll(ctx, s, Tag("li"))
		require.NoError(t, err)
		assert.Len(t, els, 3)

		els, err = NewLocator(nil).LocateAll(ctx, s, Tag("tr"))
		require.NoError(t, err)
		assert.Empty(t, els)
	})
}

func TestLocator_InteractRetriesStaleOnce(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		staleClicks   int
		retry         bool
		wantErr       error
		wantFinds     int
		wantAttempts  int
		wantSucceeded int
	}{
		{name: "no staleness", staleClicks: 0, retry: true, wantFinds: 1, wantAttempts: 1, wantSucceeded: 1},
		{name: "one stale recovers", staleClicks: 1, retry: true, wantFinds: 2, wantAttempts: 2, wantSucceeded: 1},
		{name: "two stale surfaces", staleClicks: 2, retry: true, wantErr: ErrStaleReference, wantFinds: 2, wantAttempts: 2},
		{name: "retry disabled", staleClicks: 1, retry: false, wantErr: ErrStaleReference, wantFinds: 1, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := openFake(t)
			h.add(ID("apply"), &fakeElement{})
			h.staleClicks = tt.staleClicks

			loc := NewLocator(nil)
			if !tt.retry {
				loc = loc.WithoutStaleRetry()
			}
			err := loc.Click(ctx, s, ID("apply"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFinds, h.findCalls)
			assert.Equal(t, tt.wantAttempts, h.clickAttempts)
			assert.Equal(t, tt.wantSucceeded, h.clicks)
		})
	}
}

func TestLocator_InteractDoesNotRetryOtherErrors(t *testing.T) {
	s, h := openFake(t)
	h.add(ID("x"), &fakeElement{})

	calls := 0
	err := NewLocator(nil).Interact(context.Background(), s, ID("x"), func(Element) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestLocator_ElementGoneOnRetry(t *testing.T) {
	s, h := openFake(t)
	h.add(ID("x"), &fakeElement{})

	err := NewLocator(nil).Interact(context.Background(), s, ID("x"), func(Element) error {
		delete(h.elements, "id:x")
		return ErrStaleReference
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocator_TextAndSendKeys(t *testing.T) {
	ctx := context.Background()
	s, h := openFake(t)
	h.add(Name("q"), &fakeElement{text: "search"})
	loc := NewLocator(nil)

	text, err := loc.Text(ctx, s, Name("q"))
	require.NoError(t, err)
	assert.Equal(t, "search", text)

	require.NoError(t, loc.SendKeys(ctx, s, Name("q"), "golang"))
	assert.Equal(t, "golang", h.typed)

	text, err = loc.TextOr(ctx, s, Class("salary"), "Negotiable")
	require.NoError(t, err)
	assert.Equal(t, "Negotiable", text)

	_, err = loc.TextOr(ctx, s, Class("salary"), "x")
	assert.NoError(t, err)
}

func TestElementRefBuilders(t *testing.T) {
	assert.Equal(t, ElementRef{ByID, "a"}, ID("a"))
	assert.Equal(t, ElementRef{ByCSS, "a"}, CSS("a"))
	assert.Equal(t, ElementRef{ByXPath, "//a"}, XPath("//a"))
	assert.Equal(t, ElementRef{ByName, "a"}, Name("a"))
	assert.Equal(t, ElementRef{ByClassName, "a"}, Class("a"))
	assert.Equal(t, ElementRef{ByTagName, "a"}, Tag("a"))
	assert.Equal(t, ElementRef{ByLinkText, "Next"}, LinkText("Next"))
	assert.Equal(t, `link_text="Next"`, LinkText("Next").String())
}
