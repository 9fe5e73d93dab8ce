package authseed

import (
	"github.com/kuitang/authseed/internal/errs"
	"github.com/kuitang/authseed/internal/provider"
)

// Code classifies pipeline failures. Every error returned by InjectAuth
// either carries one of these codes or wraps ErrUnknownProvider.
type Code = errs.Code

const (
	// CodeConfigNotFound: no configuration file was found at any of the
	// candidate paths. The error message lists the paths searched.
	CodeConfigNotFound = errs.ConfigNotFound

	// CodeConfigInvalid: the configuration file was found but a required
	// field is missing or malformed. The offending field is available via
	// FieldOf as a dotted path (e.g. "firebase.apiKey").
	CodeConfigInvalid = errs.ConfigInvalid

	// CodeAuthenticationFailed: the provider rejected server-side
	// authentication (admin initialization, token minting, user lookup).
	CodeAuthenticationFailed = errs.AuthenticationFailed

	// CodeTokenExchangeFailed: the credential-for-session exchange with the
	// provider's REST endpoint failed. StatusOf reports the HTTP status when
	// the endpoint responded; zero means a transport-level failure.
	CodeTokenExchangeFailed = errs.TokenExchangeFailed

	// CodeInjectionFailed: the storage payload could not be registered on
	// the page.
	CodeInjectionFailed = errs.InjectionFailed
)

// ErrUnknownProvider is wrapped into the error returned when the configured
// provider name has no registered strategy. Test with errors.Is.
var ErrUnknownProvider = provider.ErrUnknown

// CodeOf extracts the failure code from err, or empty if err carries none.
func CodeOf(err error) Code {
	return errs.CodeOf(err)
}

// FieldOf extracts the dotted config-field path from a CodeConfigInvalid
// error, or empty.
func FieldOf(err error) string {
	return errs.FieldOf(err)
}

// StatusOf extracts the HTTP status from a CodeTokenExchangeFailed error.
// Zero means the exchange failed before an HTTP response arrived.
func StatusOf(err error) int {
	return errs.StatusOf(err)
}
