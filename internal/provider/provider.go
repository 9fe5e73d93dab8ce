// Package provider defines the identity-provider strategy contract and the
// registry that selects a strategy by name.
//
// A strategy turns a raw config block into a validated config, performs the
// provider-specific sign-in exchange, and shapes the result into the browser
// storage payload its client SDK expects. Adding a provider means one
// implementation and one Register call; there is no inheritance.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kuitang/authseed/internal/storage"
)

// ErrUnknown is returned by Lookup for a provider name nobody registered.
// It is a usage error (config/provider mismatch), deliberately outside the
// errs taxonomy.
var ErrUnknown = errors.New("unknown provider")

// Config is a validated, provider-specific configuration. Strategies return
// their own concrete config type and assert it back in later steps.
type Config interface {
	// ProviderName reports which provider this config belongs to.
	ProviderName() string
}

// Session is the result of a successful authentication.
//
// ExpiresAt is always an absolute instant computed at issuance; consumers
// must never re-derive it from a duration.
type Session struct {
	Provider     string
	UID          string
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time

	// Extra holds provider-specific fields needed to reconstruct the exact
	// storage shape the target SDK expects. Owned by the strategy that
	// produced the session.
	Extra any
}

// Strategy is the capability set every identity provider implements.
type Strategy interface {
	// Name is the provider tag used for registry lookup and config selection.
	Name() string

	// ValidateConfig checks presence and primitive type of every required
	// field of the raw block. It either returns a fully-populated typed
	// config or a ConfigInvalid error naming the offending dotted field
	// path; it never returns a partially-valid config.
	ValidateConfig(raw map[string]any) (Config, error)

	// Authenticate performs the provider-specific sign-in and token
	// exchange. Not idempotent in general: some providers mint single-use
	// tokens, so retries must re-mint rather than replay.
	Authenticate(ctx context.Context, cfg Config) (*Session, error)

	// StorageState shapes the session into the browser storage payload.
	// Pure: no I/O, deterministic given the session and config.
	StorageState(sess *Session, cfg Config) (*storage.State, error)
}

// Registry maps provider names to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its name, replacing any previous entry.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return s, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a strategy to the process-wide registry.
func Register(s Strategy) {
	defaultRegistry.Register(s)
}

// Lookup finds a strategy in the process-wide registry.
func Lookup(name string) (Strategy, error) {
	return defaultRegistry.Lookup(name)
}
