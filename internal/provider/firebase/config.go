package firebase

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/kuitang/authseed/internal/errs"
)

// Config is the validated Firebase provider configuration.
type Config struct {
	// APIKey is the project's public web API key, used to authenticate the
	// token-exchange REST call and embedded in the storage key.
	APIKey string

	// ServiceAccount is either a path to a service-account credential file
	// or the credential JSON inline.
	ServiceAccount string

	// UserID is the principal to authenticate as.
	UserID string

	// ProjectID is optional; inferred from the credential when empty.
	ProjectID string
}

// ProviderName implements provider.Config.
func (*Config) ProviderName() string { return Name }

func requireString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", errs.InvalidField(Name+"."+key, "missing required field")
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.InvalidField(Name+"."+key, "must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return "", errs.InvalidField(Name+"."+key, "must not be empty")
	}
	return s, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.InvalidField(Name+"."+key, "must be a string")
	}
	return s, nil
}

func validateConfig(raw map[string]any) (*Config, error) {
	if raw == nil {
		return nil, errs.InvalidField(Name, "missing provider block")
	}
	apiKey, err := requireString(raw, "apiKey")
	if err != nil {
		return nil, err
	}
	serviceAccount, err := requireString(raw, "serviceAccount")
	if err != nil {
		return nil, err
	}
	userID, err := requireString(raw, "userId")
	if err != nil {
		return nil, err
	}
	projectID, err := optionalString(raw, "projectId")
	if err != nil {
		return nil, err
	}
	return &Config{
		APIKey:         apiKey,
		ServiceAccount: serviceAccount,
		UserID:         userID,
		ProjectID:      projectID,
	}, nil
}

// serviceAccountJSON resolves the credential blob: inline JSON when the
// value starts with "{", a file path otherwise.
func (c *Config) serviceAccountJSON() ([]byte, error) {
	trimmed := strings.TrimSpace(c.ServiceAccount)
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	return os.ReadFile(c.ServiceAccount)
}

// serviceAccountKey is the subset of the credential blob checked before the
// admin SDK consumes it.
type serviceAccountKey struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func parseServiceAccount(blob []byte) (*serviceAccountKey, error) {
	var key serviceAccountKey
	if err := json.Unmarshal(blob, &key); err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed, "service account credential is not valid JSON", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, errs.New(errs.AuthenticationFailed, "service account credential is missing key material")
	}
	return &key, nil
}
