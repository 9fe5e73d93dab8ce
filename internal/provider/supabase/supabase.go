// Package supabase reserves the "supabase" provider tag. The strategy is
// declared but not implemented: selecting it fails at validation, before any
// network call, so a config pointing at it degrades loudly instead of
// half-working.
//
// When implemented, the provider will sign in with an email/password pair
// against the project's GoTrue endpoint and persist the session as a
// LocalStorage entry (sb-<ref>-auth-token) rather than IndexedDB.
package supabase

import (
	"context"

	"github.com/kuitang/authseed/internal/errs"
	"github.com/kuitang/authseed/internal/provider"
	"github.com/kuitang/authseed/internal/storage"
)

// Name is the provider tag.
const Name = "supabase"

// Config is the intended shape of the supabase block.
type Config struct {
	URL      string
	AnonKey  string
	Email    string
	Password string
}

// ProviderName implements provider.Config.
func (*Config) ProviderName() string { return Name }

// Strategy is a placeholder registration for the supabase provider.
type Strategy struct{}

// New returns the placeholder strategy.
func New() *Strategy { return &Strategy{} }

func init() {
	provider.Register(New())
}

// Name implements provider.Strategy.
func (s *Strategy) Name() string { return Name }

// ValidateConfig implements provider.Strategy. It always fails: rejecting at
// validation guarantees no later step runs.
func (s *Strategy) ValidateConfig(map[string]any) (provider.Config, error) {
	return nil, errs.InvalidField(Name, "provider is not implemented yet")
}

// Authenticate implements provider.Strategy. Unreachable through the
// orchestrator because ValidateConfig always fails.
func (s *Strategy) Authenticate(context.Context, provider.Config) (*provider.Session, error) {
	return nil, errs.New(errs.AuthenticationFailed, "supabase provider is not implemented yet")
}

// StorageState implements provider.Strategy. Unreachable, see Authenticate.
func (s *Strategy) StorageState(*provider.Session, provider.Config) (*storage.State, error) {
	return nil, errs.New(errs.AuthenticationFailed, "supabase provider is not implemented yet")
}
