// Package authseed lets Playwright-driven browser tests start in an
// already-authenticated state. It mints provider-side credentials
// out-of-band (server-side token issuance against the identity provider)
// and writes the resulting session into the browser's persistent storage
// before any page script executes, so the application's own SDK cannot tell
// it apart from a real interactive login.
//
// This is a test-only shortcut. It assumes trusted, non-production
// credentials and never touches production authentication code paths.
package authseed

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/authseed/internal/config"
	"github.com/kuitang/authseed/internal/obs"
	"github.com/kuitang/authseed/internal/provider"
	"github.com/kuitang/authseed/internal/storage"

	// Registered providers.
	_ "github.com/kuitang/authseed/internal/provider/firebase"
	_ "github.com/kuitang/authseed/internal/provider/supabase"
)

// Page is the subset of the Playwright page surface the pipeline needs.
// playwright.Page satisfies it. Context may return nil in fakes; it is only
// consulted when a provider produces cookies.
type Page interface {
	AddInitScript(script playwright.Script) error
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	WaitForTimeout(timeout float64)
	Context() playwright.BrowserContext
}

// DefaultWaitAfter is the settle delay applied after navigation when
// Options.WaitAfter is zero. It gives the in-browser IndexedDB writes and
// the application's SDK time to observe the seeded session.
const DefaultWaitAfter = 2 * time.Second

// Options tunes a single InjectAuth call.
type Options struct {
	// Profile names a config profile whose fields override the active
	// provider's configuration (e.g. "admin").
	Profile string

	// WaitAfter overrides the settle delay. Negative skips the wait.
	WaitAfter time.Duration

	store    *config.Store
	registry *provider.Registry
}

// Config is the authseed configuration file shape.
type Config = config.File

// DefineConfig is an identity function for authoring configurations in Go
// code (fixtures, generators) with full type checking.
func DefineConfig(cfg Config) Config {
	return cfg
}

// Pipeline phases, in order. Any failure short-circuits to a terminal error
// except navigation, which is non-fatal: the init script is already
// registered and applies to whatever the caller navigates to next.
type phase string

const (
	phaseConfigPending    phase = "config_pending"
	phaseConfigLoaded     phase = "config_loaded"
	phaseProviderSelected phase = "provider_selected"
	phaseAuthenticated    phase = "authenticated"
	phaseInjected         phase = "injected"
	phaseNavigated        phase = "navigated"
	phaseSettled          phase = "settled"
)

// InjectAuth resolves the configuration, authenticates against the selected
// provider, and registers the session's storage payload on the page, then
// navigates to the configured base URL (failure tolerated) and settles.
//
// The session produced is owned by this call; nothing is persisted by the
// library itself. Concurrent calls for different pages are safe: the only
// shared state is the config cache and the provider's idempotent admin
// initialization.
func InjectAuth(ctx context.Context, page Page, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	ctx = obs.WithCorrelation(ctx, obs.Correlation{RunID: obs.NewRunID()})
	log := obs.From(ctx).With("pkg", "authseed")
	log.Debug("inject starting", "phase", phaseConfigPending)

	store := opts.store
	if store == nil {
		store = config.Default()
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		obs.SetDebug(true)
	}
	log.Debug("config loaded", "phase", phaseConfigLoaded, "provider", cfg.Provider)

	// Profile overrides apply between config load and provider selection,
	// and only to the active provider's block.
	block, err := cfg.ApplyProfile(opts.Profile)
	if err != nil {
		return err
	}

	registry := opts.registry
	if registry == nil {
		registry = provider.Default()
	}
	strat, err := registry.Lookup(cfg.Provider)
	if err != nil {
		return err
	}
	ctx = obs.WithCorrelation(ctx, obs.Correlation{Provider: cfg.Provider})
	log = obs.From(ctx).With("pkg", "authseed")
	log.Debug("provider selected", "phase", phaseProviderSelected)

	validated, err := strat.ValidateConfig(block)
	if err != nil {
		return err
	}

	sess, err := strat.Authenticate(ctx, validated)
	if err != nil {
		return err
	}
	log.Debug("authenticated", "phase", phaseAuthenticated,
		"uid", sess.UID, "expires_at", sess.ExpiresAt)

	state, err := strat.StorageState(sess, validated)
	if err != nil {
		return err
	}
	if err := storage.Inject(page, state); err != nil {
		return err
	}
	if len(state.Cookies) > 0 {
		browserCtx := page.Context()
		if browserCtx != nil {
			if err := storage.AddCookies(browserCtx, state); err != nil {
				return err
			}
		}
	}
	log.Debug("storage state registered", "phase", phaseInjected)

	// Navigation exists only so the already-registered init script runs in
	// the context of a reachable page. Its failure does not invalidate the
	// injected state for later navigations.
	if cfg.BaseURL != "" {
		if _, err := page.Goto(cfg.BaseURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		}); err != nil {
			log.Warn("post-injection navigation failed; continuing",
				"url", cfg.BaseURL, "error", err)
		} else {
			log.Debug("navigated", "phase", phaseNavigated, "url", cfg.BaseURL)
		}
	} else {
		log.Debug("no baseUrl configured; skipping navigation")
	}

	wait := opts.WaitAfter
	if wait == 0 {
		wait = DefaultWaitAfter
	}
	if wait > 0 {
		page.WaitForTimeout(float64(wait.Milliseconds()))
	}
	log.Debug("inject complete", "phase", phaseSettled)
	return nil
}

// LoadConfig loads (or returns the cached) configuration file. Exposed for
// callers that want to inspect the config outside an inject call.
func LoadConfig() (*Config, error) {
	return config.Default().Load()
}

// InvalidateConfig drops the process-wide config cache so the next load
// re-reads the file. Intended for tests.
func InvalidateConfig() {
	config.Invalidate()
}
