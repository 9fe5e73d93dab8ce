package authseed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/authseed/internal/config"
	"github.com/kuitang/authseed/internal/errs"
	"github.com/kuitang/authseed/internal/provider"
	"github.com/kuitang/authseed/internal/storage"
)

type fakePage struct {
	scripts   []string
	gotoURLs  []string
	gotoErr   error
	waitedFor []float64
}

func (p *fakePage) AddInitScript(script playwright.Script) error {
	if script.Content != nil {
		p.scripts = append(p.scripts, *script.Content)
	}
	return nil
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotoURLs = append(p.gotoURLs, url)
	return nil, p.gotoErr
}

func (p *fakePage) WaitForTimeout(timeout float64) {
	p.waitedFor = append(p.waitedFor, timeout)
}

func (p *fakePage) Context() playwright.BrowserContext { return nil }

// stubConfig and stubStrategy let the orchestrator run without a real
// provider backend.
type stubConfig struct {
	block map[string]any
}

func (stubConfig) ProviderName() string { return "firebase" }

type stubStrategy struct {
	name         string
	validateErr  error
	authErr      error
	state        *storage.State
	validatedRaw map[string]any
	authCalls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) ValidateConfig(raw map[string]any) (provider.Config, error) {
	s.validatedRaw = raw
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return stubConfig{block: raw}, nil
}

func (s *stubStrategy) Authenticate(ctx context.Context, cfg provider.Config) (*provider.Session, error) {
	s.authCalls++
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &provider.Session{Provider: s.name, UID: "u1", AccessToken: "at"}, nil
}

func (s *stubStrategy) StorageState(sess *provider.Session, cfg provider.Config) (*storage.State, error) {
	if s.state != nil {
		return s.state, nil
	}
	return &storage.State{
		LocalStorage: []storage.KeyValue{{Key: "k", Value: "v"}},
	}, nil
}

func writeConfig(t *testing.T, contents string) *config.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "authseed.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &config.Store{Dir: dir}
}

func stubRegistry(s *stubStrategy) *provider.Registry {
	r := provider.NewRegistry()
	r.Register(s)
	return r
}

func TestInjectAuthMissingConfigListsCandidates(t *testing.T) {
	dir := t.TempDir()
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{store: &config.Store{Dir: dir}})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if got := CodeOf(err); got != CodeConfigNotFound {
		t.Fatalf("code = %q, want %q", got, CodeConfigNotFound)
	}
	for _, name := range config.CandidateFileNames {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention candidate %q", err, name)
		}
	}
	if len(page.scripts) != 0 || len(page.gotoURLs) != 0 {
		t.Fatal("page must not be touched when config is missing")
	}
}

func TestInjectAuthUnknownProvider(t *testing.T) {
	store := writeConfig(t, "provider: okta\n")
	err := InjectAuth(context.Background(), &fakePage{}, &Options{store: store})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
	if !strings.Contains(err.Error(), "okta") {
		t.Fatalf("error %q does not name the provider", err)
	}
}

func TestInjectAuthSupabaseNotImplemented(t *testing.T) {
	store := writeConfig(t, `
provider: supabase
supabase:
  url: https://example.supabase.co
`)
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{store: store})
	if got := CodeOf(err); got != CodeConfigInvalid {
		t.Fatalf("code = %q, want %q", got, CodeConfigInvalid)
	}
	if got := FieldOf(err); got != "supabase" {
		t.Fatalf("field = %q, want %q", got, "supabase")
	}
	if len(page.gotoURLs) != 0 {
		t.Fatal("no navigation expected after validation failure")
	}
}

func TestInjectAuthHappyPath(t *testing.T) {
	store := writeConfig(t, `
provider: firebase
baseUrl: https://app.example.test
`)
	strat := &stubStrategy{name: "firebase"}
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{
		store:    store,
		registry: stubRegistry(strat),
	})
	if err != nil {
		t.Fatalf("InjectAuth: %v", err)
	}
	if len(page.scripts) != 1 {
		t.Fatalf("init scripts registered = %d, want 1", len(page.scripts))
	}
	if len(page.gotoURLs) != 1 || page.gotoURLs[0] != "https://app.example.test" {
		t.Fatalf("gotoURLs = %v, want the configured baseUrl", page.gotoURLs)
	}
	if len(page.waitedFor) != 1 || page.waitedFor[0] != float64(DefaultWaitAfter.Milliseconds()) {
		t.Fatalf("waitedFor = %v, want one default settle wait", page.waitedFor)
	}
	if strat.authCalls != 1 {
		t.Fatalf("authCalls = %d, want 1", strat.authCalls)
	}
}

func TestInjectAuthNavigationFailureIsNonFatal(t *testing.T) {
	store := writeConfig(t, `
provider: firebase
baseUrl: https://unreachable.example.test
`)
	page := &fakePage{gotoErr: fmt.Errorf("net::ERR_CONNECTION_REFUSED")}
	err := InjectAuth(context.Background(), page, &Options{
		store:    store,
		registry: stubRegistry(&stubStrategy{name: "firebase"}),
	})
	if err != nil {
		t.Fatalf("navigation failure must not fail the pipeline: %v", err)
	}
	if len(page.scripts) != 1 {
		t.Fatal("init script should remain registered despite failed navigation")
	}
	if len(page.waitedFor) != 1 {
		t.Fatal("settle wait should still run after failed navigation")
	}
}

func TestInjectAuthSkipsNavigationWithoutBaseURL(t *testing.T) {
	store := writeConfig(t, "provider: firebase\n")
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{
		store:    store,
		registry: stubRegistry(&stubStrategy{name: "firebase"}),
	})
	if err != nil {
		t.Fatalf("InjectAuth: %v", err)
	}
	if len(page.gotoURLs) != 0 {
		t.Fatalf("gotoURLs = %v, want none without baseUrl", page.gotoURLs)
	}
}

func TestInjectAuthProfileOverridesReachStrategy(t *testing.T) {
	store := writeConfig(t, `
provider: firebase
firebase:
  userId: default-user
  apiKey: k
profiles:
  admin:
    userId: admin-user
`)
	strat := &stubStrategy{name: "firebase"}
	err := InjectAuth(context.Background(), &fakePage{}, &Options{
		store:    store,
		registry: stubRegistry(strat),
		Profile:  "admin",
	})
	if err != nil {
		t.Fatalf("InjectAuth: %v", err)
	}
	if got := strat.validatedRaw["userId"]; got != "admin-user" {
		t.Fatalf("userId = %v, want profile override", got)
	}
	if got := strat.validatedRaw["apiKey"]; got != "k" {
		t.Fatalf("apiKey = %v, want base value preserved", got)
	}
}

func TestInjectAuthUnknownProfile(t *testing.T) {
	store := writeConfig(t, `
provider: firebase
firebase:
  userId: u
`)
	err := InjectAuth(context.Background(), &fakePage{}, &Options{
		store:    store,
		registry: stubRegistry(&stubStrategy{name: "firebase"}),
		Profile:  "nope",
	})
	if got := CodeOf(err); got != CodeConfigInvalid {
		t.Fatalf("code = %q, want %q", got, CodeConfigInvalid)
	}
	if got := FieldOf(err); got != "profiles.nope" {
		t.Fatalf("field = %q, want %q", got, "profiles.nope")
	}
}

func TestInjectAuthNegativeWaitSkipsSettle(t *testing.T) {
	store := writeConfig(t, "provider: firebase\n")
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{
		store:     store,
		registry:  stubRegistry(&stubStrategy{name: "firebase"}),
		WaitAfter: -1,
	})
	if err != nil {
		t.Fatalf("InjectAuth: %v", err)
	}
	if len(page.waitedFor) != 0 {
		t.Fatalf("waitedFor = %v, want no settle wait", page.waitedFor)
	}
}

func TestInjectAuthAuthenticationFailurePropagates(t *testing.T) {
	store := writeConfig(t, "provider: firebase\n")
	strat := &stubStrategy{
		name:    "firebase",
		authErr: errs.Wrap(errs.AuthenticationFailed, "mint custom token", errors.New("boom")),
	}
	page := &fakePage{}
	err := InjectAuth(context.Background(), page, &Options{
		store:    store,
		registry: stubRegistry(strat),
	})
	if got := CodeOf(err); got != CodeAuthenticationFailed {
		t.Fatalf("code = %q, want %q", got, CodeAuthenticationFailed)
	}
	if len(page.scripts) != 0 {
		t.Fatal("nothing may be injected after authentication failure")
	}
}

func TestDefineConfigIdentity(t *testing.T) {
	cfg := DefineConfig(Config{
		Provider: "firebase",
		Firebase: map[string]any{"apiKey": "k"},
	})
	if cfg.Provider != "firebase" || cfg.Firebase["apiKey"] != "k" {
		t.Fatalf("DefineConfig altered its argument: %+v", cfg)
	}
}
