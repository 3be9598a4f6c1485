package oauth2

// GrantHandler is the common contract every grant type (§4.9) implements:
// validate parameters against client/storage state and assemble a
// TokenResponse.
type GrantHandler interface {
	// GrantType is the "grant_type" value this handler answers to.
	GrantType() string
	Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error)
}

// ResponseTypeHandler is the authorization-endpoint counterpart (§4.10):
// each response type assembles an AuthorizationResponse instead of a
// token response.
type ResponseTypeHandler interface {
	ResponseType() string
	// DefaultResponseMode is the response_mode used when the request
	// omits one ("query" for code, "fragment" for token).
	DefaultResponseMode() string
	Handle(ctx Context, params AuthorizationParams, client Client, user User) (AuthorizationResponse, error)
}

// Registry maps grant_type/response_type names to their handlers, the
// C13 name→backend lookup pattern this core shares with the JOSE
// algorithm registries.
type Registry struct {
	grants        map[string]GrantHandler
	responseTypes map[string]ResponseTypeHandler
}

// NewRegistry builds an empty Registry; callers register handlers with
// RegisterGrant/RegisterResponseType at construction time, after which
// the registry is treated as immutable (§5).
func NewRegistry() *Registry {
	return &Registry{
		grants:        make(map[string]GrantHandler),
		responseTypes: make(map[string]ResponseTypeHandler),
	}
}

func (r *Registry) RegisterGrant(h GrantHandler) {
	r.grants[h.GrantType()] = h
}

func (r *Registry) RegisterResponseType(h ResponseTypeHandler) {
	r.responseTypes[h.ResponseType()] = h
}

// Grant looks up a grant handler by grant_type. Absence is surfaced by
// the caller as unsupported_grant_type.
func (r *Registry) Grant(grantType string) (GrantHandler, bool) {
	h, ok := r.grants[grantType]
	return h, ok
}

// ResponseTypeHandler looks up a response-type handler by response_type.
func (r *Registry) ResponseTypeHandler(responseType string) (ResponseTypeHandler, bool) {
	h, ok := r.responseTypes[responseType]
	return h, ok
}
