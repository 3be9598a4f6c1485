package oauth2

import (
	"time"

	"github.com/anttk/idcore/pkg/log"
)

// Server bundles a Registry of grant/response-type handlers with the
// Services and ScopeHandler every handler needs, and dispatches
// grant_type/response_type requests the way the token and authorization
// endpoint handlers do (§2, §6). Client authentication itself is the
// transport layer's concern (§9 open question): by the time HandleToken/
// HandleAuthorization are called, the caller has already resolved and
// authenticated client.
type Server struct {
	Registry *Registry
	Services Services
	Scopes   *ScopeHandler
	// Now, when set, is used as the clock seam for every dispatched
	// handler instead of time.Now.
	Now func() time.Time
	// Logger receives a diagnostic line for every server_error a
	// dispatched handler returns; a nil Logger disables logging. It
	// never sees invalid_request/invalid_grant-class errors, which are
	// ordinary client mistakes rather than operational failures.
	Logger log.Logger
}

func (s *Server) logServerError(op string, err error) {
	if s.Logger == nil || err == nil {
		return
	}
	if oe, ok := err.(*Error); ok && oe.Kind != KindServerError {
		return
	}
	s.Logger.Errorf("oauth2: %s: %v", op, err)
}

func (s *Server) context(parent Context) Context {
	if parent.Scopes == nil {
		parent.Scopes = s.Scopes
	}
	if parent.Now == nil {
		parent.Now = s.Now
	}
	parent.Services = s.Services
	return parent
}

// HandleToken dispatches a token-endpoint request (§4.9) to the grant
// handler registered for params["grant_type"], mirroring the teacher's
// own switch-on-grant_type token handler.
func (s *Server) HandleToken(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	grantType := params["grant_type"]
	if grantType == "" {
		return TokenResponse{}, newError(KindInvalidRequest, "grant_type is required")
	}
	if !client.AllowsGrant(grantType) {
		return TokenResponse{}, newError(KindUnauthorizedClient, "client is not authorized for grant_type %q", grantType)
	}
	handler, ok := s.Registry.Grant(grantType)
	if !ok {
		return TokenResponse{}, newError(KindUnsupportedGrantType, "unsupported grant_type %q", grantType)
	}
	resp, err := handler.Handle(s.context(ctx), params, client)
	s.logServerError("handle_token grant_type="+grantType, err)
	return resp, err
}

// HandleAuthorization dispatches an authorization-endpoint request
// (§4.10) to the response-type handler registered for
// params.ResponseType.
func (s *Server) HandleAuthorization(ctx Context, params AuthorizationParams, client Client, user User) (AuthorizationResponse, error) {
	if params.ResponseType == "" {
		return AuthorizationResponse{}, newError(KindInvalidRequest, "response_type is required").WithState(params.State)
	}
	if !client.AllowsRedirectURI(params.RedirectURI) {
		return AuthorizationResponse{}, newError(KindInvalidRequest, "redirect_uri is not registered for this client").WithState(params.State)
	}
	handler, ok := s.Registry.ResponseTypeHandler(params.ResponseType)
	if !ok {
		return AuthorizationResponse{}, newError(KindUnsupportedResponseType, "unsupported response_type %q", params.ResponseType).WithState(params.State)
	}
	for _, rt := range client.ResponseTypes {
		if rt == params.ResponseType {
			resp, err := handler.Handle(s.context(ctx), params, client, user)
			s.logServerError("handle_authorization response_type="+params.ResponseType, err)
			return resp, err
		}
	}
	return AuthorizationResponse{}, newError(KindUnauthorizedClient, "client is not authorized for response_type %q", params.ResponseType).WithState(params.State)
}
