package oauth2

import "strings"

// Introspection is the RFC 7662 §2.2 introspection response: the
// metadata a resource server learns about a token it did not issue.
type Introspection struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	Subject   string `json:"sub,omitempty"`
}

// inactiveIntrospection is the exact response RFC 7662 §2.2 requires for
// any token this server does not recognize, has expired, or has
// revoked: every member besides "active" is omitted.
var inactiveIntrospection = Introspection{Active: false}

// IntrospectionTokenTypeHint is the optional RFC 7662 §2.1 hint telling
// Introspect which service to consult first.
type IntrospectionTokenTypeHint string

const (
	HintAccessToken  IntrospectionTokenTypeHint = "access_token"
	HintRefreshToken IntrospectionTokenTypeHint = "refresh_token"
)

// Introspect implements RFC 7662 §2.1/§2.2: given a token string and an
// optional type hint, it reports whether the token is currently active
// and, if so, its metadata. It never returns an error for an unknown or
// expired token — per §2.2 that case is the ordinary inactive response,
// not a protocol error — reserving the error return for genuine backend
// failures.
func Introspect(ctx Context, token string, hint IntrospectionTokenTypeHint) (Introspection, error) {
	if token == "" {
		return inactiveIntrospection, nil
	}

	order := []IntrospectionTokenTypeHint{HintAccessToken, HintRefreshToken}
	if hint == HintRefreshToken {
		order = []IntrospectionTokenTypeHint{HintRefreshToken, HintAccessToken}
	}

	for _, kind := range order {
		result, err, found := introspectAs(ctx, kind, token)
		if err != nil {
			return Introspection{}, newError(KindServerError, "introspecting token: %v", err)
		}
		if found {
			return result, nil
		}
	}
	return inactiveIntrospection, nil
}

func introspectAs(ctx Context, kind IntrospectionTokenTypeHint, token string) (Introspection, error, bool) {
	now := ctx.now()
	switch kind {
	case HintAccessToken:
		access, err := ctx.Services.AccessTokens.FindAccessToken(ctx, token)
		if err == ErrNotFound {
			return Introspection{}, nil, false
		} else if err != nil {
			return Introspection{}, err, false
		}
		if now.After(access.ExpiresAt) {
			return inactiveIntrospection, nil, true
		}
		result := Introspection{
			Active:    true,
			Scope:     strings.Join(access.Scopes, " "),
			ClientID:  access.Client.ID,
			TokenType: "access_token",
			ExpiresAt: access.ExpiresAt.Unix(),
		}
		if access.User != nil {
			result.Subject = access.User.ID
			result.Username = access.User.ID
		}
		return result, nil, true

	case HintRefreshToken:
		refresh, err := ctx.Services.RefreshTokens.FindRefreshToken(ctx, token)
		if err == ErrNotFound {
			return Introspection{}, nil, false
		} else if err != nil {
			return Introspection{}, err, false
		}
		if refresh.IsRevoked || refresh.Expired(now) {
			return inactiveIntrospection, nil, true
		}
		return Introspection{
			Active:    true,
			Scope:     strings.Join(refresh.Scopes, " "),
			ClientID:  refresh.Client.ID,
			Username:  refresh.User.ID,
			Subject:   refresh.User.ID,
			TokenType: "refresh_token",
			ExpiresAt: refresh.ExpiresAt.Unix(),
		}, nil, true

	default:
		return Introspection{}, nil, false
	}
}
