// Package oauth2 implements the OAuth 2.0 (RFC 6749) grant and
// response-type state machine: per-grant token issuance, authorization
// endpoint dispatch, scope resolution, and the error taxonomy and
// registries those pieces share.
package oauth2

import "fmt"

// Kind is one of the wire-named OAuth 2.0 error kinds RFC 6749 §5.2/§4.2.2.1
// defines, used as both the Go error discriminator and the "error" JSON
// member value returned to the client.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindInvalidClient        Kind = "invalid_client"
	KindInvalidGrant         Kind = "invalid_grant"
	KindUnauthorizedClient   Kind = "unauthorized_client"
	KindUnsupportedGrantType Kind = "unsupported_grant_type"
	KindUnsupportedResponseType Kind = "unsupported_response_type"
	KindInvalidScope         Kind = "invalid_scope"
	KindAccessDenied         Kind = "access_denied"
	KindServerError          Kind = "server_error"

	// The remaining kinds extend RFC 6749's vocabulary for the device
	// authorization grant, RFC 8628 §3.5.
	KindAuthorizationPending Kind = "authorization_pending"
	KindSlowDown             Kind = "slow_down"
	KindExpiredToken         Kind = "expired_token"
)

// Error is the typed error every grant/response-type handler in this
// package returns. Description is the optional "error_description" wire
// member; it is safe to surface to the client (it never carries a
// cryptographic primitive's internal diagnostic, per §7).
type Error struct {
	Kind        Kind
	Description string
	// State echoes the client's "state" parameter, when the failure
	// occurred after state was known, so the transport layer can include
	// it in an error redirect.
	State string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func newError(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Description: fmt.Sprintf(format, a...)}
}

// WithState returns a copy of e carrying state, for handlers that learn
// the client's state parameter only after the failure is constructed.
func (e *Error) WithState(state string) *Error {
	cp := *e
	cp.State = state
	return &cp
}
