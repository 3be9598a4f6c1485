package oauth2

// ClientCredentialsGrant implements §4.9.4: no user principal, and no
// refresh token in the response (§8 invariant 7).
type ClientCredentialsGrant struct{}

func (ClientCredentialsGrant) GrantType() string { return "client_credentials" }

func (ClientCredentialsGrant) Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	requested, err := ctx.Scopes.CheckRequestedScope(params["scope"])
	if err != nil {
		return TokenResponse{}, err
	}
	scopes := client.Scopes
	if len(requested) > 0 {
		scopes = ctx.Scopes.GetAllowedScopes(client, requested)
	}

	access, err := ctx.Services.AccessTokens.CreateAccessToken(ctx, scopes, client, nil)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating access token: %v", err)
	}

	return newTokenResponse(ctx, access, nil), nil
}
