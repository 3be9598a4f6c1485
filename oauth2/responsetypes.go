package oauth2

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthorizationParams carries the authorization-endpoint request fields
// §6 enumerates.
type AuthorizationParams struct {
	ResponseType string
	RedirectURI  string
	Scope        string
	State        string
	ResponseMode string

	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizationResponse is the authorization-endpoint response DTO; which
// fields are populated depends on which ResponseTypeHandler produced it.
type AuthorizationResponse struct {
	Code  string `json:"code,omitempty"`
	State string `json:"state,omitempty"`

	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`

	// ResponseMode is not part of the wire DTO; it tells the transport
	// layer whether to append these fields to the redirect URI's query
	// string or fragment.
	ResponseMode string `json:"-"`
}

// CodeResponseType implements the "code" response type (§4.10): it
// persists an authorization-code record and returns its code.
type CodeResponseType struct {
	CodeLifetime time.Duration
}

func (CodeResponseType) ResponseType() string      { return "code" }
func (CodeResponseType) DefaultResponseMode() string { return "query" }

func (h CodeResponseType) Handle(ctx Context, params AuthorizationParams, client Client, user User) (AuthorizationResponse, error) {
	if params.ResponseMode == "" {
		params.ResponseMode = h.DefaultResponseMode()
	}

	requested, err := ctx.Scopes.CheckRequestedScope(params.Scope)
	if err != nil {
		return AuthorizationResponse{}, err.(*Error).WithState(params.State)
	}
	scopes := ctx.Scopes.GetAllowedScopes(client, requested)

	if params.CodeChallengeMethod == "" {
		params.CodeChallengeMethod = "plain"
	}

	now := ctx.now()
	lifetime := h.CodeLifetime
	if lifetime == 0 {
		lifetime = 10 * time.Minute
	}
	code, err2 := ctx.Services.AuthorizationCodes.CreateAuthorizationCode(ctx, AuthorizationCode{
		Code:                uuid.NewString(),
		RedirectURI:         params.RedirectURI,
		Scopes:              scopes,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
		IssuedAt:            now,
		ValidAfter:          now,
		ExpiresAt:           now.Add(lifetime),
		Client:              client,
		User:                user,
	})
	if err2 != nil {
		return AuthorizationResponse{}, newError(KindServerError, "creating authorization code: %v", err2).WithState(params.State)
	}

	return AuthorizationResponse{
		Code:         code.Code,
		State:        params.State,
		ResponseMode: params.ResponseMode,
	}, nil
}

// TokenResponseType implements the "token" (implicit) response type
// (§4.10): it issues an access token directly and forbids response_mode
// "query" (S6), since a token in a visible, cacheable query string leaks
// it to referrers and logs.
type TokenResponseType struct {
	AccessTokenLifetime time.Duration
}

func (TokenResponseType) ResponseType() string      { return "token" }
func (TokenResponseType) DefaultResponseMode() string { return "fragment" }

func (h TokenResponseType) Handle(ctx Context, params AuthorizationParams, client Client, user User) (AuthorizationResponse, error) {
	mode := params.ResponseMode
	if mode == "" {
		mode = h.DefaultResponseMode()
	}
	if mode == "query" {
		return AuthorizationResponse{}, newError(KindInvalidRequest, "response_type=token may not use response_mode=query").WithState(params.State)
	}

	requested, err := ctx.Scopes.CheckRequestedScope(params.Scope)
	if err != nil {
		return AuthorizationResponse{}, err.(*Error).WithState(params.State)
	}
	scopes := ctx.Scopes.GetAllowedScopes(client, requested)

	access, err2 := ctx.Services.AccessTokens.CreateAccessToken(ctx, scopes, client, &user)
	if err2 != nil {
		return AuthorizationResponse{}, newError(KindServerError, "creating access token: %v", err2).WithState(params.State)
	}

	return AuthorizationResponse{
		AccessToken:  access.Token,
		TokenType:    access.TokenType,
		ExpiresIn:    expiresInSeconds(ctx.now(), access.ExpiresAt),
		Scope:        strings.Join(access.Scopes, " "),
		State:        params.State,
		ResponseMode: mode,
	}, nil
}
