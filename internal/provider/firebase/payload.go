package firebase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kuitang/authseed/internal/errs"
	"github.com/kuitang/authseed/internal/provider"
	"github.com/kuitang/authseed/internal/storage"
)

// The Firebase JS SDK persists the signed-in user in IndexedDB under these
// exact names. The key format is an external contract: the SDK looks the
// record up by byte-identical key and silently ignores anything else.
const (
	storageDatabase = "firebaseLocalStorageDb"
	storageStore    = "firebaseLocalStorage"
	storageVersion  = 1
	storageKeyPath  = "fbase_key"
	defaultAppName  = "[DEFAULT]"
)

// StorageKey builds the SDK's internal record key for an API key:
// firebase:authUser:<apiKey>:[DEFAULT].
func StorageKey(apiKey string) string {
	return fmt.Sprintf("%s:authUser:%s:%s", Name, apiKey, defaultAppName)
}

// persistedUser mirrors the Firebase JS SDK's serialized user. Field names
// and value shapes must match what the SDK deserializes on startup.
type persistedUser struct {
	UID             string            `json:"uid"`
	Email           string            `json:"email"`
	EmailVerified   bool              `json:"emailVerified"`
	DisplayName     string            `json:"displayName,omitempty"`
	IsAnonymous     bool              `json:"isAnonymous"`
	PhotoURL        string            `json:"photoURL,omitempty"`
	ProviderData    []ProviderAccount `json:"providerData"`
	StsTokenManager stsTokenManager   `json:"stsTokenManager"`
	CreatedAt       string            `json:"createdAt"`
	LastLoginAt     string            `json:"lastLoginAt"`
	APIKey          string            `json:"apiKey"`
	AppName         string            `json:"appName"`
}

type stsTokenManager struct {
	RefreshToken   string `json:"refreshToken"`
	AccessToken    string `json:"accessToken"`
	ExpirationTime int64  `json:"expirationTime"` // ms since epoch
}

type persistedRecord struct {
	FbaseKey string        `json:"fbase_key"`
	Value    persistedUser `json:"value"`
}

// StorageState implements provider.Strategy. Pure: everything is derived
// from the session and config; the only timestamps are the ones taken from
// the session at issuance.
func (s *Strategy) StorageState(sess *provider.Session, cfg provider.Config) (*storage.State, error) {
	fcfg, ok := cfg.(*Config)
	if !ok {
		return nil, errs.Newf(errs.AuthenticationFailed, "config is not a firebase config: %T", cfg)
	}
	if sess == nil {
		return nil, errs.New(errs.AuthenticationFailed, "no session to persist")
	}

	profile, _ := sess.Extra.(*Profile)
	if profile == nil {
		profile = &Profile{}
	}

	// Optional profile fields degrade gracefully: a principal with no
	// recorded creation time is persisted as created "now" (issuance time),
	// and missing linked identities become an empty list.
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = sess.IssuedAt
	}
	lastLoginAt := profile.LastLoginAt
	if lastLoginAt.IsZero() {
		lastLoginAt = sess.IssuedAt
	}
	providerData := profile.ProviderData
	if providerData == nil {
		providerData = []ProviderAccount{}
	}

	key := StorageKey(fcfg.APIKey)
	user := persistedUser{
		UID:           sess.UID,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		DisplayName:   profile.DisplayName,
		PhotoURL:      profile.PhotoURL,
		ProviderData:  providerData,
		StsTokenManager: stsTokenManager{
			RefreshToken:   sess.RefreshToken,
			AccessToken:    sess.AccessToken,
			ExpirationTime: sess.ExpiresAt.UnixMilli(),
		},
		CreatedAt:   formatMillis(createdAt),
		LastLoginAt: formatMillis(lastLoginAt),
		APIKey:      fcfg.APIKey,
		AppName:     defaultAppName,
	}

	return &storage.State{
		IndexedDB: []storage.IndexedDBRecord{{
			Database: storageDatabase,
			Store:    storageStore,
			Version:  storageVersion,
			KeyPath:  storageKeyPath,
			Key:      key,
			Value:    persistedRecord{FbaseKey: key, Value: user},
		}},
	}, nil
}

// formatMillis renders a timestamp the way the SDK stores it: epoch
// milliseconds as a decimal string.
func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
