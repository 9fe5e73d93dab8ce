// Package firebase implements the Firebase identity-provider strategy: a
// server-signed custom token is minted for the principal, exchanged for a
// client session at the Identity Toolkit REST endpoint, combined with the
// principal's profile, and shaped into the IndexedDB payload the Firebase
// JS SDK reads on startup.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kuitang/authseed/internal/errs"
	"github.com/kuitang/authseed/internal/logutil"
	"github.com/kuitang/authseed/internal/obs"
	"github.com/kuitang/authseed/internal/provider"
)

// Name is the provider tag.
const Name = "firebase"

const defaultExchangeEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithCustomToken"

// maxErrorBodyBytes bounds how much of a rejected exchange response is
// captured into the error.
const maxErrorBodyBytes = 4 << 10

// Strategy is the Firebase provider. The zero value is ready for production
// use; the fields exist so tests can point the exchange at a local server
// and substitute a fake admin client.
type Strategy struct {
	// HTTPClient used for the token exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// ExchangeEndpoint overrides the Identity Toolkit endpoint.
	ExchangeEndpoint string

	newAdmin func(ctx context.Context, cfg *Config) (AdminClient, error)
	now      func() time.Time
}

// New returns the production strategy.
func New() *Strategy {
	return &Strategy{}
}

func init() {
	provider.Register(New())
}

// Name implements provider.Strategy.
func (s *Strategy) Name() string { return Name }

// ValidateConfig implements provider.Strategy.
func (s *Strategy) ValidateConfig(raw map[string]any) (provider.Config, error) {
	cfg, err := validateConfig(raw)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Profile carries the principal's profile fields needed to reconstruct the
// persisted user shape. Zero-valued fields fall back in payload shaping
// rather than failing.
type Profile struct {
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	CreatedAt     time.Time
	LastLoginAt   time.Time
	ProviderData  []ProviderAccount
}

// ProviderAccount is one linked-identity record.
type ProviderAccount struct {
	ProviderID  string `json:"providerId"`
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Authenticate implements provider.Strategy. The five steps are strictly
// sequential; the first failure short-circuits the rest. Custom tokens are
// single-use: a retry must re-mint, never replay.
func (s *Strategy) Authenticate(ctx context.Context, cfg provider.Config) (*provider.Session, error) {
	fcfg, ok := cfg.(*Config)
	if !ok {
		return nil, errs.Newf(errs.AuthenticationFailed, "config is not a firebase config: %T", cfg)
	}
	log := obs.From(ctx).With("pkg", "firebase")

	admin, err := s.admin(ctx, fcfg)
	if err != nil {
		return nil, err
	}
	log.Debug("admin SDK ready", "user_id", fcfg.UserID)

	token, err := admin.CustomToken(ctx, fcfg.UserID)
	if err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed,
			fmt.Sprintf("mint custom token for principal %q", fcfg.UserID), err)
	}
	log.Debug("custom token minted", "user_id", fcfg.UserID)

	exchange, err := s.exchangeToken(ctx, fcfg.APIKey, token)
	if err != nil {
		return nil, err
	}
	log.Debug("token exchanged", "expires_in_s", exchange.lifetime)

	user, err := admin.GetUser(ctx, fcfg.UserID)
	if err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed,
			fmt.Sprintf("look up principal %q", fcfg.UserID), err)
	}

	clock := s.now
	if clock == nil {
		clock = time.Now
	}
	issuedAt := clock()

	profile := &Profile{
		EmailVerified: user.EmailVerified,
	}
	if user.UserInfo != nil {
		profile.Email = user.Email
		profile.DisplayName = user.DisplayName
		profile.PhotoURL = user.PhotoURL
	}
	if user.UserMetadata != nil {
		if user.UserMetadata.CreationTimestamp != 0 {
			profile.CreatedAt = time.UnixMilli(user.UserMetadata.CreationTimestamp)
		}
		if user.UserMetadata.LastLogInTimestamp != 0 {
			profile.LastLoginAt = time.UnixMilli(user.UserMetadata.LastLogInTimestamp)
		}
	}
	for _, info := range user.ProviderUserInfo {
		if info == nil {
			continue
		}
		profile.ProviderData = append(profile.ProviderData, ProviderAccount{
			ProviderID:  info.ProviderID,
			UID:         info.UID,
			Email:       info.Email,
			DisplayName: info.DisplayName,
			PhotoURL:    info.PhotoURL,
			PhoneNumber: info.PhoneNumber,
		})
	}

	return &provider.Session{
		Provider:     Name,
		UID:          fcfg.UserID,
		AccessToken:  exchange.idToken,
		RefreshToken: exchange.refreshToken,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(time.Duration(exchange.lifetime) * time.Second),
		Extra:        profile,
	}, nil
}

type exchangeResult struct {
	idToken      string
	refreshToken string
	lifetime     int64 // seconds
}

// exchangeToken POSTs the minted custom token to the Identity Toolkit
// signInWithCustomToken endpoint, authenticated by the public API key in the
// query string. Any non-2xx response or transport failure is
// TokenExchangeFailed; the HTTP status is carried when there is one.
func (s *Strategy) exchangeToken(ctx context.Context, apiKey, customToken string) (*exchangeResult, error) {
	endpoint := s.ExchangeEndpoint
	if endpoint == "" {
		endpoint = defaultExchangeEndpoint
	}
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, errs.ExchangeFailed(0, "encode token exchange request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?key="+url.QueryEscape(apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, errs.ExchangeFailed(0, "build token exchange request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.ExchangeFailed(0, "token exchange request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, errs.ExchangeFailed(resp.StatusCode,
			"token exchange rejected: "+logutil.TruncateForLog(logutil.RedactBodyForLog(raw), 512), nil)
	}

	var payload struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errs.ExchangeFailed(0, "decode token exchange response", err)
	}
	if payload.IDToken == "" {
		return nil, errs.ExchangeFailed(0, "token exchange response is missing idToken", nil)
	}
	lifetime, err := strconv.ParseInt(payload.ExpiresIn, 10, 64)
	if err != nil {
		return nil, errs.ExchangeFailed(0, "token exchange response has malformed expiresIn", err)
	}

	return &exchangeResult{
		idToken:      payload.IDToken,
		refreshToken: payload.RefreshToken,
		lifetime:     lifetime,
	}, nil
}
