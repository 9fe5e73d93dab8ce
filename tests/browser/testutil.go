// Package browser contains end-to-end tests that exercise the storage
// injection pipeline against a real Chromium instance. All test files use
// Env via SetupEnv(t); tests are skipped when Playwright or a browser is
// not installed on the host.
package browser

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	// Never introduce a larger timeout value anywhere in tests/browser.
	browserMaxTimeoutMS = 5000
	browserMaxTimeout   = 5 * time.Second
)

var fixtureMu sync.Mutex
var sharedFixture *Env

// Env is the shared test environment: a stub application server (the page
// the init script runs against) plus a Playwright browser.
type Env struct {
	Server  *httptest.Server
	BaseURL string

	pw        *playwright.Playwright
	browser   playwright.Browser
	browserMu sync.Mutex

	cookieMu    sync.Mutex
	lastCookies string
}

// SetupEnv returns the shared environment, creating it on first use, and
// skips the test when no browser is available.
func SetupEnv(t *testing.T) *Env {
	t.Helper()

	fixtureMu.Lock()
	defer fixtureMu.Unlock()

	if sharedFixture == nil {
		sharedFixture = createEnv()
	}
	sharedFixture.initBrowser(t)
	return sharedFixture
}

func createEnv() *Env {
	env := &Env{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		env.cookieMu.Lock()
		env.lastCookies = r.Header.Get("Cookie")
		env.cookieMu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html><html><head><title>authseed test app</title></head><body><main id="app">ready</main></body></html>`))
	})

	env.Server = httptest.NewServer(mux)
	env.BaseURL = env.Server.URL
	return env
}

// LastCookies returns the Cookie header of the most recent request the stub
// application server received.
func (env *Env) LastCookies() string {
	env.cookieMu.Lock()
	defer env.cookieMu.Unlock()
	return env.lastCookies
}

func (env *Env) initBrowser(t *testing.T) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	env.pw = pw
	env.browser = browser
}

// NewContext creates a fresh browser context with default timeouts. Each
// test uses its own context so injected storage cannot leak between tests.
func (env *Env) NewContext(t *testing.T) playwright.BrowserContext {
	t.Helper()

	ctx, err := env.browser.NewContext()
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	ctx.SetDefaultTimeout(browserMaxTimeoutMS)
	ctx.SetDefaultNavigationTimeout(browserMaxTimeoutMS)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// NewPage creates a page in a fresh context.
func (env *Env) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	ctx := env.NewContext(t)
	page, err := ctx.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return page
}

// Navigate loads a path on the stub application server.
func Navigate(t *testing.T, page playwright.Page, baseURL, path string) {
	t.Helper()

	_, err := page.Goto(baseURL+path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		t.Fatalf("Failed to navigate to %s: %v", path, err)
	}
}

func cleanupEnv() {
	fixtureMu.Lock()
	defer fixtureMu.Unlock()
	if sharedFixture == nil {
		return
	}
	if sharedFixture.browser != nil {
		_ = sharedFixture.browser.Close()
	}
	if sharedFixture.pw != nil {
		_ = sharedFixture.pw.Stop()
	}
	if sharedFixture.Server != nil {
		sharedFixture.Server.Close()
	}
	sharedFixture = nil
}

func TestMain(m *testing.M) {
	code := m.Run()
	cleanupEnv()
	os.Exit(code)
}
