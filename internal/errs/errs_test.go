package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var allCodes = []Code{
	ConfigNotFound,
	ConfigInvalid,
	AuthenticationFailed,
	TokenExchangeFailed,
	InjectionFailed,
	Internal,
}

func testCodeOf_RoundtripForTypedErrors(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")

	err := New(code, message)
	if got := CodeOf(err); got != code {
		t.Fatalf("CodeOf(New) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(err); got != message {
		t.Fatalf("MessageOf(New) mismatch: got=%q want=%q", got, message)
	}
}

func TestCodeOf_RoundtripForTypedErrors(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_RoundtripForTypedErrors)
}

func testCodeOf_WrappedTypedError(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")
	cause := errors.New(rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "cause"))

	err := Wrap(code, message, cause)
	wrapped := fmt.Errorf("outer: %w", err)

	if got := CodeOf(wrapped); got != code {
		t.Fatalf("CodeOf(wrapped) mismatch: got=%q want=%q", got, code)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
}

func TestCodeOf_WrappedTypedError(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_WrappedTypedError)
}

func testInvalidField_CarriesDottedPath(t *rapid.T) {
	field := rapid.StringMatching(`[a-z]{1,12}\.[a-zA-Z]{1,20}`).Draw(t, "field")
	reason := rapid.StringMatching(`[a-zA-Z0-9 ]{1,40}`).Draw(t, "reason")

	err := InvalidField(field, reason)
	if got := CodeOf(err); got != ConfigInvalid {
		t.Fatalf("CodeOf(InvalidField) mismatch: got=%q want=%q", got, ConfigInvalid)
	}
	if got := FieldOf(err); got != field {
		t.Fatalf("FieldOf mismatch: got=%q want=%q", got, field)
	}
	if !strings.Contains(err.Error(), field) {
		t.Fatalf("Error() does not name the field: %q", err.Error())
	}
}

func TestInvalidField_CarriesDottedPath(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testInvalidField_CarriesDottedPath)
}

func testExchangeFailed_CarriesStatus(t *rapid.T) {
	status := rapid.IntRange(400, 599).Draw(t, "status")

	err := ExchangeFailed(status, "exchange rejected", nil)
	if got := CodeOf(err); got != TokenExchangeFailed {
		t.Fatalf("CodeOf(ExchangeFailed) mismatch: got=%q want=%q", got, TokenExchangeFailed)
	}
	if got := StatusOf(err); got != status {
		t.Fatalf("StatusOf mismatch: got=%d want=%d", got, status)
	}
}

func TestExchangeFailed_CarriesStatus(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testExchangeFailed_CarriesStatus)
}

func TestExchangeFailed_TransportFailureHasNoStatus(t *testing.T) {
	t.Parallel()

	err := ExchangeFailed(0, "token exchange request failed", errors.New("dial tcp: timeout"))
	if got := StatusOf(err); got != 0 {
		t.Fatalf("StatusOf mismatch: got=%d want=0", got)
	}
	if got := CodeOf(err); got != TokenExchangeFailed {
		t.Fatalf("CodeOf mismatch: got=%q want=%q", got, TokenExchangeFailed)
	}
}

func testUntypedAndNilFallbacks(t *rapid.T) {
	raw := rapid.StringMatching(`[a-zA-Z0-9 _:\-./]{1,80}`).Draw(t, "raw")
	untyped := errors.New(raw)

	if got := CodeOf(untyped); got != Internal {
		t.Fatalf("CodeOf(untyped) mismatch: got=%q want=%q", got, Internal)
	}
	if got := MessageOf(untyped); got != "internal error" {
		t.Fatalf("MessageOf(untyped) mismatch: got=%q want=%q", got, "internal error")
	}
	if got := CodeOf(nil); got != Internal {
		t.Fatalf("CodeOf(nil) mismatch: got=%q want=%q", got, Internal)
	}
	if got := FieldOf(untyped); got != "" {
		t.Fatalf("FieldOf(untyped) mismatch: got=%q want=%q", got, "")
	}
	if got := StatusOf(untyped); got != 0 {
		t.Fatalf("StatusOf(untyped) mismatch: got=%d want=0", got)
	}
}

func TestUntypedAndNilFallbacks(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testUntypedAndNilFallbacks)
}
