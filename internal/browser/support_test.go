package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies-topcv.json")
	data := `[{"name":"sid","value":"abc","domain":".topcv.vn","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"Lax"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, Cookie{
		Name: "sid", Value: "abc", Domain: ".topcv.vn", Path: "/",
		Expires: 1893456000, HTTPOnly: true, Secure: true, SameSite: "Lax",
	}, cookies[0])

	_, err = LoadCookies(filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadCookies(path)
	assert.Error(t, err)
}

func TestSaveCookies(t *testing.T) {
	s, h := openFake(t)
	h.cookies = []Cookie{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"}}
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")

	require.NoError(t, SaveCookies(path, s))
	loaded, err := LoadCookies(path)
	require.NoError(t, err)
	assert.Equal(t, h.cookies, loaded)
}

func TestCookieConversion(t *testing.T) {
	pc := toPlaywrightCookie(Cookie{Name: "a", Value: "b", Domain: "x.com", Path: "/", Expires: 10, HTTPOnly: true, Secure: true, SameSite: "Strict"})
	assert.Equal(t, "x.com", *pc.Domain)
	assert.Equal(t, 10.0, *pc.Expires)
	assert.True(t, *pc.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeStrict, pc.SameSite)

	bare := toPlaywrightCookie(Cookie{Name: "a", Value: "b"})
	assert.Nil(t, bare.Domain)
	assert.Nil(t, bare.Expires)
	assert.Nil(t, bare.SameSite)

	back := fromPlaywrightCookie(playwright.Cookie{Name: "a", Value: "b", Domain: "x.com", SameSite: playwright.SameSiteAttributeLax})
	assert.Equal(t, "Lax", back.SameSite)
}

func TestPlaywrightSelector(t *testing.T) {
	tests := []struct {
		strategy Strategy
		in, want string
	}{
		{ByID, "job-1", `[id="job-1"]`},
		{ByCSS, ".job-item a", ".job-item a"},
		{ByTagName, "h1", "h1"},
		{ByXPath, "//div[@class='x']", "xpath=//div[@class='x']"},
		{ByName, "q", `[name="q"]`},
		{ByClassName, "salary", `[class~="salary"]`},
		{ByLinkText, "Next", `a:text-is("Next")`},
	}
	for _, tt := range tests {
		got, err := playwrightSelector(tt.strategy, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := playwrightSelector("shadow", "x")
	assert.Error(t, err)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(assert.AnError), assert.AnError)
	stale := translateError(errors.New("Error: Element is not attached to the DOM"))
	assert.ErrorIs(t, stale, ErrStaleReference)
}

func TestStealth(t *testing.T) {
	cfg := Stealth(Config{Args: []string{"--disable-infobars", "--lang=vi"}})
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Contains(t, cfg.Args, "--disable-blink-features=AutomationControlled")
	assert.Contains(t, cfg.Args, "--lang=vi")
	count := 0
	for _, a := range cfg.Args {
		if a == "--disable-infobars" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{HideWebdriverScript}, cfg.InitScripts)

	custom := Stealth(Config{UserAgent: "bot/1.0"})
	assert.Equal(t, "bot/1.0", custom.UserAgent)
}

func TestRandomDelay(t *testing.T) {
	start := time.Now()
	require.NoError(t, RandomDelay(context.Background(), 5*time.Millisecond, 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomDelay(ctx, time.Hour, time.Hour), context.Canceled)
}

func TestHumanScroll(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for a few seconds")
	}
	s, h := openFake(t)
	require.NoError(t, HumanScroll(context.Background(), s))
	require.GreaterOrEqual(t, len(h.scripts), 5)
	assert.Contains(t, h.scripts[len(h.scripts)-1], "scrollHeight")
}

func TestScreenshotDebugger(t *testing.T) {
	s, h := openFake(t)
	dir := filepath.Join(t.TempDir(), "shots")
	d, err := NewScreenshotDebugger(dir, nil)
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	path, err := d.Capture(s, "topcv-captcha", "captcha detected")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "topcv-captcha_2026-01-02_03-04-05.png"), path)
	assert.Equal(t, []string{path}, h.screenshots)

	require.NoError(t, s.Close())
	_, err = d.Capture(s, "x", "closed")
	assert.ErrorIs(t, err, ErrSessionClosed)
}
